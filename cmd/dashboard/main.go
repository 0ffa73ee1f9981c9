package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"esgmonitor/internal/config"
	v1 "esgmonitor/internal/controller/http/v1"
	"esgmonitor/internal/domain/entity"
	"esgmonitor/internal/domain/usecase"
	psqlRepo "esgmonitor/internal/repository/psql"
	"esgmonitor/internal/repository/rabbitmq"
	redisRepo "esgmonitor/internal/repository/redis"
	s3Repo "esgmonitor/internal/repository/s3"
	"esgmonitor/pkg/client/psql"
	redisClientPkg "esgmonitor/pkg/client/redis"
	s3ClientPkg "esgmonitor/pkg/client/s3"
	"esgmonitor/pkg/middleware"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load()
	ctx := context.Background()

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

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	publisher, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	uc := usecase.NewDashboardUseCase(
		psqlRepo.NewSensorRepo(db),
		psqlRepo.NewMetricRepo(db),
		redisRepo.NewResultCache(redisClient, cfg.Cache.TTL),
		publisher,
		redisRepo.NewReportTracker(redisClient),
		s3Repo.NewReportRepo(s3Client),
		cfg.Ingest.MaxBatch,
	)

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: redisClient,
		Limit:       cfg.RateLimit.Limit,
		Window:      cfg.RateLimit.Window,
	}))

	v1.NewDashboardHandler(uc).RegisterRoutes(r.Group("/api/v1"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("dashboard API listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down dashboard API...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
