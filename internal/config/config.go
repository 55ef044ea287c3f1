package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPConfig     HTTPConfig
	AuthConfig     AuthConfig
	TelegramConfig TelegramConfig
	PostgresConfig PostgresConfig
	RedisConfig    RedisConfig
	KafkaConfig    KafkaConfig
	TracingConfig  TracingConfig
	LogLevel       string
	// Storage is "postgres" or "memory".
	Storage        string
	// TimeZone is used by the bots to render note timestamps.
	TimeZone       string
}

type HTTPConfig struct {
	Addr            string
	MetricsAddr     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig selects how bearer tokens are resolved to users. StaticTokens
// ("token:user,token2:user2") bypasses Redis for local runs.
type AuthConfig struct {
	StaticTokens map[string]string
}

type TelegramConfig struct {
	TokenWriteBot  string
	TokenNotifyBot string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers           []string
	Topic             string
	GroupID           string
	NumPartitions     int
	ReplicationFactor int
}

type TracingConfig struct {
	Endpoint string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment variables")
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	partitions, err := getEnvInt("KAFKA_PARTITIONS", 1)
	if err != nil {
		return nil, err
	}
	replication, err := getEnvInt("KAFKA_REPLICATION_FACTOR", 1)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvDuration("HTTP_REQUEST_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	staticTokens, err := parseTokens(getEnv("AUTH_STATIC_TOKENS", ""))
	if err != nil {
		return nil, err
	}

	config := &Config{
		HTTPConfig: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8000"),
			MetricsAddr:     getEnv("METRICS_ADDR", ":8080"),
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		AuthConfig: AuthConfig{
			StaticTokens: staticTokens,
		},
		TelegramConfig: TelegramConfig{
			TokenWriteBot:  getEnv("TOKEN_WRITE_BOT", ""),
			TokenNotifyBot: getEnv("TOKEN_NOTIFY_BOT", ""),
		},
		PostgresConfig: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "user"),
			Password: getEnv("POSTGRES_PASSWORD", "password"),
			DBName:   getEnv("POSTGRES_DB", "dbname"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		RedisConfig: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		KafkaConfig: KafkaConfig{
			Brokers:           splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:             getEnv("KAFKA_TOPIC", "note-events"),
			GroupID:           getEnv("KAFKA_GROUP_ID", "note-notifiers"),
			NumPartitions:     partitions,
			ReplicationFactor: replication,
		},
		TracingConfig: TracingConfig{
			Endpoint: getEnv("TRACING_ENDPOINT", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Storage:  getEnv("STORAGE", "postgres"),
		TimeZone: getEnv("TIME_ZONE", "Europe/Moscow"),
	}

	return config, nil
}

// DSN is the lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

func (c *Config) RequireWriteBot() error {
	if c.TelegramConfig.TokenWriteBot == "" {
		return fmt.Errorf("TOKEN_WRITE_BOT is required")
	}
	return nil
}

func (c *Config) RequireNotifyBot() error {
	if c.TelegramConfig.TokenNotifyBot == "" {
		return fmt.Errorf("TOKEN_NOTIFY_BOT is required")
	}
	return nil
}

// PublishEvents reports whether brokers are configured. Without them the
// writers run with change events off.
func (c *Config) PublishEvents() bool {
	return len(c.KafkaConfig.Brokers) > 0
}

func (c *Config) RequireKafka() error {
	if !c.PublishEvents() {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTokens(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range splitList(s) {
		token, user, ok := strings.Cut(pair, ":")
		if !ok || token == "" || user == "" {
			return nil, fmt.Errorf("AUTH_STATIC_TOKENS: malformed pair %q", pair)
		}
		tokens[token] = user
	}
	return tokens, nil
}
