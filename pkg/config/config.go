package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(cfg.Kafka); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HATCHERY_APP_ENV" required:"true"`
	Port         string `envconfig:"HATCHERY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"HATCHERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HATCHERY_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"HATCHERY_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HATCHERY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HATCHERY_DB_DSN"`
	Driver string `envconfig:"HATCHERY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"HATCHERY_DB_HOST"`
	Port     int    `envconfig:"HATCHERY_DB_PORT" default:"5432"`
	User     string `envconfig:"HATCHERY_DB_USER"`
	Password string `envconfig:"HATCHERY_DB_PASSWORD"`
	Name     string `envconfig:"HATCHERY_DB_NAME"`
	SSLMode  string `envconfig:"HATCHERY_DB_SSLMODE" default:"disable"`

	// SQLitePath is used when the sqlite feature flag is enabled.
	SQLitePath string `envconfig:"HATCHERY_SQLITE_PATH" default:"file:hatchery.db?cache=shared&_foreign_keys=on"`

	MaxOpenConns    int           `envconfig:"HATCHERY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HATCHERY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HATCHERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HATCHERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements slower than this at warn level. 0 disables.
	SlowQuery time.Duration `envconfig:"HATCHERY_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HATCHERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HATCHERY_REDIS_ADDR"`
	Password     string        `envconfig:"HATCHERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"HATCHERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HATCHERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HATCHERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HATCHERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HATCHERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HATCHERY_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"HATCHERY_REDIS_KEY_PREFIX" default:"hatchery"`
}

// JWTConfig verifies bearer tokens minted by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"HATCHERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HATCHERY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HATCHERY_JWT_EXPIRATION_MINUTES" default:"60"`
	// Leeway absorbs clock skew with the identity provider on exp/iat.
	Leeway time.Duration `envconfig:"HATCHERY_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HATCHERY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HATCHERY_AUTO_MIGRATE" default:"false"`
	CartCache   bool `envconfig:"HATCHERY_FEATURE_CART_CACHE" default:"true"`
}

type CartConfig struct {
	CacheTTL    time.Duration `envconfig:"HATCHERY_CART_CACHE_TTL" default:"15m"`
	CacheJitter time.Duration `envconfig:"HATCHERY_CART_CACHE_JITTER" default:"2m"`
}

type OrdersConfig struct {
	NumberAttempts int `envconfig:"HATCHERY_ORDER_NUMBER_ATTEMPTS" default:"3"`
}

type RateLimitConfig struct {
	CartWindow time.Duration `envconfig:"HATCHERY_RATE_LIMIT_CART_WINDOW" default:"1m"`
	CartLimit  int           `envconfig:"HATCHERY_RATE_LIMIT_CART_LIMIT" default:"120"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"HATCHERY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"HATCHERY_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"HATCHERY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"HATCHERY_PUBSUB_DOMAIN_TOPIC" default:"hatchery-domain-events"`
	NotificationSubscription string `envconfig:"HATCHERY_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"hatchery-order-notifications"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"HATCHERY_KAFKA_BROKERS"`
	Topic   string   `envconfig:"HATCHERY_KAFKA_TOPIC" default:"hatchery.domain-events"`
}

type OutboxConfig struct {
	Sink           string `envconfig:"HATCHERY_OUTBOX_SINK" default:"pubsub"`
	BatchSize      int    `envconfig:"HATCHERY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"HATCHERY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"HATCHERY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) validate(kafka KafkaConfig) error {
	switch strings.ToLower(strings.TrimSpace(o.Sink)) {
	case OutboxSinkPubSub:
		return nil
	case OutboxSinkKafka:
		if len(kafka.Brokers) == 0 {
			return fmt.Errorf("%s is required when %s=%s", EnvKafkaBrokers, EnvOutboxSink, OutboxSinkKafka)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOutboxSink, OutboxSinkPubSub, OutboxSinkKafka)
	}
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"HATCHERY_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays       int           `envconfig:"HATCHERY_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationRetentionDays int           `envconfig:"HATCHERY_CRON_NOTIFICATION_RETENTION_DAYS" default:"90"`
	JobTimeout                time.Duration `envconfig:"HATCHERY_CRON_JOB_TIMEOUT" default:"10m"`
	// MetricsAddr serves /metrics for the long-running worker. Empty disables it.
	MetricsAddr string `envconfig:"HATCHERY_CRON_METRICS_ADDR" default:":9102"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
