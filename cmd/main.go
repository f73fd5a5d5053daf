package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/shenikar/urban_monitoring_system/internal/agent"
	"github.com/shenikar/urban_monitoring_system/internal/assist"
	"github.com/shenikar/urban_monitoring_system/internal/config"
	"github.com/shenikar/urban_monitoring_system/internal/decision"
	"github.com/shenikar/urban_monitoring_system/internal/dedup"
	v1 "github.com/shenikar/urban_monitoring_system/internal/handler/http/v1"
	"github.com/shenikar/urban_monitoring_system/internal/ingest"
	"github.com/shenikar/urban_monitoring_system/internal/persistence"
	"github.com/shenikar/urban_monitoring_system/internal/repository"
	"github.com/shenikar/urban_monitoring_system/internal/service"
	"github.com/shenikar/urban_monitoring_system/pkg/logger"
	natsclient "github.com/shenikar/urban_monitoring_system/pkg/nats"
	"github.com/shenikar/urban_monitoring_system/pkg/postgres"
	redisclient "github.com/shenikar/urban_monitoring_system/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/urban_monitoring_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Urban Monitoring System API
// @version 1.0
// @description Agent coordination engine for city telemetry.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newAssistant выбирает клиент сервиса подсказок. nil означает работу только по правилам.
func newAssistant(cfg *config.Config, log *logrus.Logger) decision.Assistant {
	switch cfg.AssistMode {
	case config.AssistGateway:
		return assist.NewGatewayClient(cfg.AssistURL, log)
	case config.AssistOpenAI:
		return assist.NewOpenAIClient(assist.OpenAIOptions{
			BaseURL: cfg.AssistURL,
			APIKey:  cfg.AssistAPIKey,
			Model:   cfg.AssistModel,
		}, log)
	}
	return nil
}

// newFilterFactory выбирает фильтр повторной доставки для агентов районов
func newFilterFactory(cfg *config.Config, redisClient *goredis.Client) agent.FilterFactory {
	if !cfg.DedupEnabled() {
		return nil
	}
	if cfg.DedupBackend == config.DedupRedis {
		shared := dedup.NewRedisFilter(redisClient, cfg.DedupTTL)
		return func(string) dedup.Filter { return shared }
	}
	return func(string) dedup.Filter { return dedup.NewMemoryFilter(cfg.DedupSize) }
}

// coordinatorDistricts - районы из DISTRICTS и карты соседства
func coordinatorDistricts(cfg *config.Config) []string {
	seen := make(map[string]struct{})
	var districts []string
	add := func(d string) {
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		districts = append(districts, d)
	}
	for _, d := range cfg.Districts {
		add(d)
	}
	for d, neighbours := range cfg.Adjacency {
		add(d)
		for _, n := range neighbours {
			add(n)
		}
	}
	return districts
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище записей
	var store persistence.Store
	if cfg.PersistenceMode == config.PersistencePostgres {
		if err := runMigrations(cfg, log); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}

		dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer dbpool.Close()
		log.Info("Successfully connected to PostgreSQL")
		store = repository.NewPostgresStore(dbpool)
	} else {
		store = persistence.NewHTTPStore(cfg.PersistenceURL, cfg.PersistenceTimeout)
		log.WithField("url", cfg.PersistenceURL).Info("Using web backend for persistence")
	}

	// Инициализация Redis клиента
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient, err = redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Info("Successfully connected to Redis")
	}

	// Запись событий и действий живет дольше агентов, чтобы принять их последние записи
	persistCtx, persistCancel := context.WithCancel(context.Background())
	defer persistCancel()
	persistGroup, persistGroupCtx := errgroup.WithContext(persistCtx)

	retry := persistence.RetryPolicy{MaxRetries: cfg.PersistenceMaxRetries, BaseDelay: cfg.PersistenceBaseDelay}
	var recorder persistence.Recorder
	if cfg.PersistenceQueue == config.QueueRedis {
		recorder = persistence.NewOutboxPublisher(redisClient, log)
		outboxWorker := persistence.NewOutboxWorker(redisClient, store, retry, log)
		for i := 0; i < cfg.PersistenceWorkers; i++ {
			persistGroup.Go(func() error { return outboxWorker.Run(persistGroupCtx) })
		}
	} else {
		queueRecorder := persistence.NewQueueRecorder(store, cfg.PersistenceQueueSize, cfg.PersistenceWorkers, retry, log)
		recorder = queueRecorder
		persistGroup.Go(func() error { return queueRecorder.Run(persistGroupCtx) })
	}

	// Механизм решений
	engine := decision.NewEngine(
		newAssistant(cfg, log),
		decision.Rules{Adjacency: cfg.Adjacency},
		decision.Options{Timeout: cfg.AssistTimeout, MaxInputBytes: cfg.AssistMaxInputBytes},
		log,
	)

	// Координатор и агенты районов
	coordinator := agent.NewCoordinator(agent.CoordinatorConfig{
		Cooldown:        cfg.CoordinatorCooldown,
		Window:          cfg.EscalationWindow,
		MinActive:       cfg.CoordinationMinActive,
		HonorRequests:   cfg.CoordinationHonorRequests,
		MailboxCapacity: cfg.MailboxCapacity,
		SendTimeout:     cfg.MailboxSendTimeout,
		Districts:       coordinatorDistricts(cfg),
	}, engine, recorder, log)

	router := agent.NewRouter(agent.RouterConfig{
		MaxDistricts:    cfg.MaxDistricts,
		MailboxCapacity: cfg.MailboxCapacity,
		SendTimeout:     cfg.MailboxSendTimeout,
		Unit: agent.UnitConfig{
			Cooldown:    cfg.UnitCooldown,
			Override:    agent.OverridePolicy(cfg.EscalationOverride),
			HistorySize: cfg.HistorySize,
		},
	}, engine, recorder, coordinator, newFilterFactory(cfg, redisClient), log)

	if err := router.Start(context.Background(), cfg.Districts); err != nil {
		log.Fatalf("Failed to start district agents: %v", err)
	}

	// Инициализация сервисов
	normalizer := ingest.NewNormalizer(cfg.Thresholds, recorder, log)
	telemetryService := service.NewTelemetryService(normalizer, router, coordinator, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(telemetryService, log, cfg)

	// Настройка Gin роутера
	engineHTTP := gin.Default()
	api := engineHTTP.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	engineHTTP.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: engineHTTP,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		log.Infof("HTTP server started on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting HTTP server: %w", err)
		}
		return nil
	})

	// Прием телеметрии из NATS
	if cfg.NatsURL != "" {
		conn, err := natsclient.NewNatsConn(cfg.NatsURL, "urban-monitoring-agents", log)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer conn.Close()
		log.Info("Successfully connected to NATS")

		listener := ingest.NewListener(conn, cfg.NatsSubject, telemetryService, log)
		g.Go(func() error { return listener.Run(gctx) })
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Received shutdown signal, shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
	}

	router.Close()
	persistCancel()
	if err := persistGroup.Wait(); err != nil {
		log.WithError(err).Error("Persistence workers stopped with error")
	}

	log.Info("Server gracefully stopped")
}
