package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RabbitMQ  RabbitConfig
	S3        S3Config
	Cache     CacheConfig
	Ingest    IngestConfig
	Report    ReportConfig
	RateLimit RateLimitConfig
}

type HTTPConfig struct {
	Addr        string
	MetricsAddr string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr string
	DB   int
}

type RabbitConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	Queue      string
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

type CacheConfig struct {
	TTL time.Duration
}

type IngestConfig struct {
	MaxBatch int
}

type ReportConfig struct {
	CronSpec string
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Load reads ./.env.local when present, then the OS environment.
// Credentials have no defaults and abort startup when missing; tunables
// fall back to the values the service ships with.
func Load() Config {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}

	rabbitURL := "amqp://" + mustGetEnv("RABBITMQ_USER") + ":" + mustGetEnv("RABBITMQ_PASSWORD") +
		"@" + mustGetEnv("RABBITMQ_HOST") + ":" + mustGetEnv("RABBITMQ_PORT") + "/"

	return Config{
		HTTP: HTTPConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		Postgres: PostgresConfig{
			Host:     mustGetEnv("PSQL_HOST"),
			Port:     getEnvInt("PSQL_PORT", 5432),
			User:     mustGetEnv("PSQL_USER"),
			Password: mustGetEnv("PSQL_PASSWORD"),
			DBName:   mustGetEnv("PSQL_DB"),
			SSLMode:  getEnv("PSQL_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr: mustGetEnv("REDIS_HOST") + ":" + mustGetEnv("REDIS_PORT"),
			DB:   getEnvInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitConfig{
			URL:        rabbitURL,
			Exchange:   getEnv("RABBITMQ_EXCHANGE", "esg.telemetry"),
			RoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "readings.batch"),
			Queue:      getEnv("RABBITMQ_QUEUE", "readings.batch.q"),
		},
		S3: S3Config{
			Endpoint:  mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
			Bucket:    mustGetEnv("S3_BUCKET"),
			AccessKey: mustGetEnv("S3_ACCESS_KEY"),
			SecretKey: mustGetEnv("S3_SECRET_KEY"),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		Ingest: IngestConfig{
			MaxBatch: getEnvInt("INGEST_MAX_BATCH", 1000),
		},
		Report: ReportConfig{
			CronSpec: getEnv("REPORT_CRON", "0 * * * *"),
		},
		RateLimit: RateLimitConfig{
			Limit:  getEnvInt("RATE_LIMIT", 60),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("Environment variable %s is not set", key)
	}
	return val
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("Invalid %s value %q: %v", key, val, err)
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Fatalf("Invalid %s value %q: %v", key, val, err)
	}
	return d
}
