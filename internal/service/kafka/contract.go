package kafka

import "context"

// MessageBroker carries note change events between binaries.
type MessageBroker interface {
	SendMessage(ctx context.Context, key, value []byte) error
	ReadMessage(ctx context.Context) (key, value []byte, err error)
	Close() error
}
