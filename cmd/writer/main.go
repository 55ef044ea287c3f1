package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotche/ledger/infrastructure/logger"
	"github.com/kotche/ledger/infrastructure/metrics"
	"github.com/kotche/ledger/infrastructure/tracing"
	"github.com/kotche/ledger/internal/app/writer"
	"github.com/kotche/ledger/internal/config"
	notesmetrics "github.com/kotche/ledger/internal/metrics"
	"github.com/kotche/ledger/internal/repository"
	notes_repo "github.com/kotche/ledger/internal/repository/notes"
	"github.com/kotche/ledger/internal/service/kafka"
	notes_serv "github.com/kotche/ledger/internal/service/notes"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err = cfg.RequireWriteBot(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New("ledger-writer", cfg.LogLevel)
	setLocation(cfg.TimeZone, log)

	metrics.Init()
	notesmetrics.Init()
	metrics.StartMetricsServer(cfg.HTTPConfig.MetricsAddr)

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramConfig.TokenWriteBot,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create bot")
	}

	db, err := sql.Open("postgres", cfg.PostgresConfig.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open postgres")
	}
	defer db.Close()

	if err = repository.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("migration error")
	}

	_, cleanup, err := tracing.InitTracing("ledger-writer", cfg.TracingConfig.Endpoint)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}
	defer cleanup()

	opts := []notes_serv.Option{notes_serv.WithLogger(log)}
	if cfg.PublishEvents() {
		broker, err := kafka.New(cfg.KafkaConfig.Brokers, cfg.KafkaConfig.Topic, "",
			cfg.KafkaConfig.NumPartitions, cfg.KafkaConfig.ReplicationFactor)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize kafka")
		}
		defer broker.Close()
		opts = append(opts, notes_serv.WithPublisher(broker))
	} else {
		log.Info("KAFKA_BROKERS not set, note events are not published")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notesServ := notes_serv.NewDefaultService(notes_repo.NewDefaultRepository(db), opts...)
	go notesServ.RunPublisher(ctx)

	writerImpl := writer.New(bot, notesServ, log)
	go func() {
		<-ctx.Done()
		writerImpl.Stop()
	}()
	writerImpl.Start()
}

func setLocation(name string, log *logrus.Entry) {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.WithError(err).Fatal("failed to load location")
	}
	time.Local = location
	log.WithField("time_zone", name).Info("default time zone set")
}
