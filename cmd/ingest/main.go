package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"

	"esgmonitor/internal/config"
	"esgmonitor/internal/domain/entity"
	"esgmonitor/internal/domain/usecase"
	psqlRepo "esgmonitor/internal/repository/psql"
	"esgmonitor/internal/repository/rabbitmq"
	redisRepo "esgmonitor/internal/repository/redis"
	s3Repo "esgmonitor/internal/repository/s3"
	"esgmonitor/pkg/client/psql"
	redisClientPkg "esgmonitor/pkg/client/redis"
	s3ClientPkg "esgmonitor/pkg/client/s3"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := redisClientPkg.NewRedisClient(ctx, redisClientPkg.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	db, err := psql.NewPostgresDB(psql.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		DBName:   cfg.Postgres.DBName,
		SslMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := db.AutoMigrate(&entity.SensorReading{}, &entity.ESGMetric{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	s3Client, err := s3ClientPkg.NewS3Client(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket)
	if err != nil {
		log.Fatalf("failed to init s3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		log.Fatalf("failed to ensure report bucket: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	uc := usecase.NewIngestUseCase(
		psqlRepo.NewSensorRepo(db),
		s3Repo.NewReportRepo(s3Client),
		redisRepo.NewReportTracker(redisClient),
		cfg.Ingest.MaxBatch,
	)

	consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, cfg.RabbitMQ.Queue, uc)
	if err != nil {
		log.Fatalf("failed to init consumer: %v", err)
	}

	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Fatalf("consumer stopped with error: %v", err)
		}
	}()

	// Archive one report at startup so a fresh deployment has an audit
	// trail entry before the first scheduled run.
	if _, err := uc.ArchiveComplianceReport(ctx, time.Now()); err != nil {
		log.Printf("initial compliance report failed: %v", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Report.CronSpec, func() {
		if _, err := uc.ArchiveComplianceReport(ctx, time.Now()); err != nil {
			log.Printf("scheduled compliance report failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("failed to schedule report job: %v", err)
	}
	c.Start()
	log.Printf("compliance report scheduled with spec %q", cfg.Report.CronSpec)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("worker metrics listening on %s", cfg.HTTP.MetricsAddr)
		if err := http.ListenAndServe(cfg.HTTP.MetricsAddr, mux); err != nil {
			log.Printf("metrics server: %v", err)
		}
	}()

	log.Println("ingest worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down ingest worker...")
	cancel()
	<-c.Stop().Done()
	time.Sleep(time.Second)
}
