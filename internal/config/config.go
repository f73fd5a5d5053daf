package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shenikar/urban_monitoring_system/internal/models"
)

const (
	PersistenceHTTP     = "http"
	PersistencePostgres = "postgres"

	QueueMemory = "memory"
	QueueRedis  = "redis"

	AssistGateway  = "gateway"
	AssistOpenAI   = "openai"
	AssistDisabled = "disabled"

	OverrideHigher = "higher"
	OverrideNever  = "never"

	DeliveryAtLeastOnce = "at-least-once"
	DeliveryAtMostOnce  = "at-most-once"

	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// Config - структура для хранения конфигурации приложения.
// Загружается один раз при старте и дальше только читается.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`

	// Ingestion Config
	NatsURL     string `env:"NATS_URL"`
	NatsSubject string `env:"NATS_SUBJECT" envDefault:"city.*.*"`

	// Persistence Config
	PersistenceMode       string        `env:"PERSISTENCE_MODE" envDefault:"http"`
	PersistenceURL        string        `env:"PERSISTENCE_URL" envDefault:"http://web-backend:8000"`
	PersistenceTimeout    time.Duration `env:"PERSISTENCE_TIMEOUT" envDefault:"2s"`
	DatabaseURL           string        `env:"DATABASE_URL"`
	PersistenceQueue      string        `env:"PERSISTENCE_QUEUE" envDefault:"memory"`
	PersistenceQueueSize  int           `env:"PERSISTENCE_QUEUE_SIZE" envDefault:"1024"`
	PersistenceWorkers    int           `env:"PERSISTENCE_WORKERS" envDefault:"2"`
	PersistenceMaxRetries int           `env:"PERSISTENCE_MAX_RETRIES" envDefault:"3"`
	PersistenceBaseDelay  time.Duration `env:"PERSISTENCE_BASE_DELAY" envDefault:"500ms"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Assist Config
	AssistMode          string        `env:"ASSIST_MODE" envDefault:"gateway"`
	AssistURL           string        `env:"ASSIST_URL" envDefault:"http://llm-gateway:8000"`
	AssistModel         string        `env:"ASSIST_MODEL" envDefault:"qwen2.5:0.5b"`
	AssistAPIKey        string        `env:"ASSIST_API_KEY"`
	AssistTimeout       time.Duration `env:"ASSIST_TIMEOUT" envDefault:"60s"`
	AssistMaxInputBytes int           `env:"ASSIST_MAX_INPUT_BYTES" envDefault:"16384"`

	// Districts Config
	Districts  []string              `env:"DISTRICTS"`
	Thresholds models.ThresholdTable `env:"DISTRICT_THRESHOLDS"`
	Adjacency  map[string][]string   `env:"DISTRICT_ADJACENCY"`

	// Agents Config
	UnitCooldown              time.Duration `env:"UNIT_COOLDOWN" envDefault:"30s"`
	CoordinatorCooldown       time.Duration `env:"COORDINATOR_COOLDOWN" envDefault:"2m"`
	EscalationWindow          time.Duration `env:"ESCALATION_WINDOW" envDefault:"5m"`
	CoordinationMinActive     int           `env:"COORDINATION_MIN_ACTIVE" envDefault:"2"`
	CoordinationHonorRequests bool          `env:"COORDINATION_HONOR_REQUESTS" envDefault:"true"`
	EscalationOverride        string        `env:"ESCALATION_OVERRIDE" envDefault:"higher"`
	MaxDistricts              int           `env:"MAX_DISTRICTS" envDefault:"64"`
	MailboxCapacity           int           `env:"MAILBOX_CAPACITY" envDefault:"128"`
	MailboxSendTimeout        time.Duration `env:"MAILBOX_SEND_TIMEOUT" envDefault:"250ms"`
	HistorySize               int           `env:"HISTORY_SIZE" envDefault:"20"`

	// Delivery Config
	DeliverySemantics string        `env:"DELIVERY_SEMANTICS" envDefault:"at-least-once"`
	DedupBackend      string        `env:"DEDUP_BACKEND" envDefault:"memory"`
	DedupTTL          time.Duration `env:"DEDUP_TTL" envDefault:"10m"`
	DedupSize         int           `env:"DEDUP_SIZE" envDefault:"1024"`
}

// ConfigurationError - некорректная или отсутствующая конфигурация, фатальна при старте
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	r := &envReader{}
	cfg := &Config{
		HTTPPort:                  r.getEnv("HTTP_PORT", "8080"),
		LogLevel:                  r.getEnv("LOG_LEVEL", "info"),
		APIKeys:                   r.getEnvAsList("API_KEYS"),
		NatsURL:                   os.Getenv("NATS_URL"),
		NatsSubject:               r.getEnv("NATS_SUBJECT", "city.*.*"),
		PersistenceMode:           r.getEnv("PERSISTENCE_MODE", PersistenceHTTP),
		PersistenceURL:            r.getEnv("PERSISTENCE_URL", "http://web-backend:8000"),
		PersistenceTimeout:        r.getEnvAsDuration("PERSISTENCE_TIMEOUT", 2*time.Second),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		PersistenceQueue:          r.getEnv("PERSISTENCE_QUEUE", QueueMemory),
		PersistenceQueueSize:      r.getEnvAsInt("PERSISTENCE_QUEUE_SIZE", 1024),
		PersistenceWorkers:        r.getEnvAsInt("PERSISTENCE_WORKERS", 2),
		PersistenceMaxRetries:     r.getEnvAsInt("PERSISTENCE_MAX_RETRIES", 3),
		PersistenceBaseDelay:      r.getEnvAsDuration("PERSISTENCE_BASE_DELAY", 500*time.Millisecond),
		RedisAddr:                 r.getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:                 os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   r.getEnvAsInt("REDIS_DB", 0),
		AssistMode:                r.getEnv("ASSIST_MODE", AssistGateway),
		AssistURL:                 r.getEnv("ASSIST_URL", "http://llm-gateway:8000"),
		AssistModel:               r.getEnv("ASSIST_MODEL", "qwen2.5:0.5b"),
		AssistAPIKey:              os.Getenv("ASSIST_API_KEY"),
		AssistTimeout:             r.getEnvAsDuration("ASSIST_TIMEOUT", 60*time.Second),
		AssistMaxInputBytes:       r.getEnvAsInt("ASSIST_MAX_INPUT_BYTES", 16384),
		Districts:                 r.getEnvAsList("DISTRICTS"),
		UnitCooldown:              r.getEnvAsDuration("UNIT_COOLDOWN", 30*time.Second),
		CoordinatorCooldown:       r.getEnvAsDuration("COORDINATOR_COOLDOWN", 2*time.Minute),
		EscalationWindow:          r.getEnvAsDuration("ESCALATION_WINDOW", 5*time.Minute),
		CoordinationMinActive:     r.getEnvAsInt("COORDINATION_MIN_ACTIVE", 2),
		CoordinationHonorRequests: r.getEnvAsBool("COORDINATION_HONOR_REQUESTS", true),
		EscalationOverride:        r.getEnv("ESCALATION_OVERRIDE", OverrideHigher),
		MaxDistricts:              r.getEnvAsInt("MAX_DISTRICTS", 64),
		MailboxCapacity:           r.getEnvAsInt("MAILBOX_CAPACITY", 128),
		MailboxSendTimeout:        r.getEnvAsDuration("MAILBOX_SEND_TIMEOUT", 250*time.Millisecond),
		HistorySize:               r.getEnvAsInt("HISTORY_SIZE", 20),
		DeliverySemantics:         r.getEnv("DELIVERY_SEMANTICS", DeliveryAtLeastOnce),
		DedupBackend:              r.getEnv("DEDUP_BACKEND", DedupMemory),
		DedupTTL:                  r.getEnvAsDuration("DEDUP_TTL", 10*time.Minute),
		DedupSize:                 r.getEnvAsInt("DEDUP_SIZE", 1024),
	}

	defaults, err := ParseThresholds(r.getEnv("DEFAULT_THRESHOLDS", "50/80/120"))
	if err != nil {
		r.fail("DEFAULT_THRESHOLDS: %v", err)
	}
	overrides, err := ParseThresholdTable(os.Getenv("DISTRICT_THRESHOLDS"))
	if err != nil {
		r.fail("DISTRICT_THRESHOLDS: %v", err)
	}
	cfg.Thresholds = models.ThresholdTable{Default: defaults, Overrides: overrides}

	adjacency, err := ParseAdjacency(os.Getenv("DISTRICT_ADJACENCY"))
	if err != nil {
		r.fail("DISTRICT_ADJACENCY: %v", err)
	}
	cfg.Adjacency = adjacency

	r.problems = append(r.problems, cfg.Validate()...)
	if len(r.problems) > 0 {
		return nil, &ConfigurationError{Problems: r.problems}
	}
	return cfg, nil
}

// Validate проверяет согласованность значений и возвращает список проблем
func (c *Config) Validate() []string {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(oneOf(c.PersistenceMode, PersistenceHTTP, PersistencePostgres), "PERSISTENCE_MODE must be http or postgres, got %q", c.PersistenceMode)
	check(c.PersistenceMode != PersistenceHTTP || c.PersistenceURL != "", "PERSISTENCE_URL is required in http mode")
	check(c.PersistenceMode != PersistencePostgres || c.DatabaseURL != "", "DATABASE_URL environment variable is required in postgres mode")
	check(oneOf(c.PersistenceQueue, QueueMemory, QueueRedis), "PERSISTENCE_QUEUE must be memory or redis, got %q", c.PersistenceQueue)
	check(c.PersistenceQueueSize > 0, "PERSISTENCE_QUEUE_SIZE must be positive")
	check(c.PersistenceWorkers > 0, "PERSISTENCE_WORKERS must be positive")
	check(c.PersistenceMaxRetries > 0, "PERSISTENCE_MAX_RETRIES must be positive")
	check(c.PersistenceTimeout > 0, "PERSISTENCE_TIMEOUT must be positive")

	check(oneOf(c.AssistMode, AssistGateway, AssistOpenAI, AssistDisabled), "ASSIST_MODE must be gateway, openai or disabled, got %q", c.AssistMode)
	check(c.AssistMode == AssistDisabled || c.AssistURL != "", "ASSIST_URL is required unless ASSIST_MODE=disabled")
	check(c.AssistMode != AssistOpenAI || c.AssistModel != "", "ASSIST_MODEL is required in openai mode")
	check(c.AssistTimeout > 0, "ASSIST_TIMEOUT must be positive")
	check(c.AssistMaxInputBytes > 0, "ASSIST_MAX_INPUT_BYTES must be positive")

	check(c.UnitCooldown >= 0, "UNIT_COOLDOWN must not be negative")
	check(c.CoordinatorCooldown >= 0, "COORDINATOR_COOLDOWN must not be negative")
	check(c.EscalationWindow > 0, "ESCALATION_WINDOW must be positive")
	check(c.CoordinationMinActive > 0, "COORDINATION_MIN_ACTIVE must be positive")
	check(oneOf(c.EscalationOverride, OverrideHigher, OverrideNever), "ESCALATION_OVERRIDE must be higher or never, got %q", c.EscalationOverride)
	check(c.MaxDistricts > 0, "MAX_DISTRICTS must be positive")
	check(len(c.Districts) <= c.MaxDistricts, "DISTRICTS lists %d districts, more than MAX_DISTRICTS=%d", len(c.Districts), c.MaxDistricts)
	check(c.MailboxCapacity > 0, "MAILBOX_CAPACITY must be positive")
	check(c.MailboxSendTimeout >= 0, "MAILBOX_SEND_TIMEOUT must not be negative")
	check(c.HistorySize > 0, "HISTORY_SIZE must be positive")

	check(oneOf(c.DeliverySemantics, DeliveryAtLeastOnce, DeliveryAtMostOnce), "DELIVERY_SEMANTICS must be at-least-once or at-most-once, got %q", c.DeliverySemantics)
	check(oneOf(c.DedupBackend, DedupMemory, DedupRedis), "DEDUP_BACKEND must be memory or redis, got %q", c.DedupBackend)
	check(c.DedupSize > 0, "DEDUP_SIZE must be positive")
	check(c.DedupTTL > 0, "DEDUP_TTL must be positive")
	return problems
}

// DedupEnabled сообщает, нужно ли отбрасывать повторно доставленные события
func (c *Config) DedupEnabled() bool {
	return c.DeliverySemantics == DeliveryAtLeastOnce
}

// UsesRedis сообщает, нужен ли процессу клиент Redis
func (c *Config) UsesRedis() bool {
	return c.PersistenceQueue == QueueRedis || (c.DedupEnabled() && c.DedupBackend == DedupRedis)
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
