package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// Операции над заметками: op = create|update|delete|get|list, result = ok|rejected|error
	NoteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_note_operations_total",
			Help: "Number of note operations by kind and outcome",
		},
		[]string{"op", "result"},
	)

	// Уведомления владельцам об изменениях заметок
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifications_sent_total",
			Help: "Number of change notifications delivered to owners",
		},
		[]string{"kind"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(NoteOperations)
		prometheus.MustRegister(NotificationsSent)
	})
}

func NoteOperation(op, result string) {
	NoteOperations.WithLabelValues(op, result).Inc()
}

func NotificationSent(kind string) {
	NotificationsSent.WithLabelValues(kind).Inc()
}
