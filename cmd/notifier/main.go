package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotche/ledger/infrastructure/logger"
	"github.com/kotche/ledger/infrastructure/metrics"
	"github.com/kotche/ledger/internal/app/notifier"
	"github.com/kotche/ledger/internal/config"
	notesmetrics "github.com/kotche/ledger/internal/metrics"
	"github.com/kotche/ledger/internal/service/kafka"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err = cfg.RequireNotifyBot(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if err = cfg.RequireKafka(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logger.New("ledger-notifier", cfg.LogLevel)

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.WithError(err).Fatal("failed to load location")
	}
	time.Local = location

	metrics.Init()
	notesmetrics.Init()
	metrics.StartMetricsServer(cfg.HTTPConfig.MetricsAddr)

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramConfig.TokenNotifyBot,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create bot")
	}

	kafkaServ, err := kafka.New(cfg.KafkaConfig.Brokers, cfg.KafkaConfig.Topic,
		cfg.KafkaConfig.GroupID, cfg.KafkaConfig.NumPartitions, cfg.KafkaConfig.ReplicationFactor)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize kafka")
	}
	defer kafkaServ.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifierImpl := notifier.New(bot, kafkaServ, log)
	if err = notifierImpl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("notifier stopped with error")
	}
}
