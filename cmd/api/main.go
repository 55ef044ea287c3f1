package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/kotche/ledger/infrastructure/logger"
	"github.com/kotche/ledger/infrastructure/metrics"
	"github.com/kotche/ledger/infrastructure/tracing"
	"github.com/kotche/ledger/internal/app/api"
	"github.com/kotche/ledger/internal/config"
	"github.com/kotche/ledger/internal/identity"
	notesmetrics "github.com/kotche/ledger/internal/metrics"
	"github.com/kotche/ledger/internal/repository"
	notes_repo "github.com/kotche/ledger/internal/repository/notes"
	"github.com/kotche/ledger/internal/service/kafka"
	notes_serv "github.com/kotche/ledger/internal/service/notes"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New("ledger-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, cleanup, err := tracing.InitTracing("ledger-api", cfg.TracingConfig.Endpoint)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}
	defer cleanup()

	metrics.Init()
	notesmetrics.Init()

	repo, closeRepo := openRepository(cfg, log)
	defer closeRepo()

	opts := []notes_serv.Option{notes_serv.WithLogger(log)}
	if cfg.PublishEvents() {
		// только продюсер: группа потребителей нужна лишь notifier
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

	notesServ := notes_serv.NewDefaultService(repo, opts...)
	go notesServ.RunPublisher(ctx)

	server := api.NewServer(cfg.HTTPConfig.Addr, notesServ, resolver(cfg, log),
		api.WithRequestTimeout(cfg.HTTPConfig.RequestTimeout),
		api.WithLogger(log),
	)
	if err = server.Run(ctx, cfg.HTTPConfig.ShutdownTimeout); err != nil {
		log.WithError(err).Error("api server stopped with error")
	}
}

// openRepository returns the in-memory store when STORAGE=memory, Postgres otherwise.
func openRepository(cfg *config.Config, log *logrus.Entry) (notes_repo.Repository, func()) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage, notes are lost on restart")
		return notes_repo.NewMemoryRepository(), func() {}
	}

	db, err := sql.Open("postgres", cfg.PostgresConfig.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open postgres")
	}
	if err = repository.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("migration error")
	}
	return notes_repo.NewDefaultRepository(db), func() { _ = db.Close() }
}

func resolver(cfg *config.Config, log *logrus.Entry) identity.Resolver {
	if len(cfg.AuthConfig.StaticTokens) > 0 {
		log.Warn("using static auth tokens")
		return identity.StaticResolver(cfg.AuthConfig.StaticTokens)
	}
	return identity.NewRedisResolver(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	}))
}
