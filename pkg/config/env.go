package config

const EnvPrefix = "HATCHERY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	OutboxSinkPubSub = "pubsub"
	OutboxSinkKafka  = "kafka"
)

const (
	EnvAppEnv       = "HATCHERY_APP_ENV"
	EnvPort         = "HATCHERY_APP_PORT"
	EnvDBDSN        = "HATCHERY_DB_DSN"
	EnvDBHost       = "HATCHERY_DB_HOST"
	EnvDBUser       = "HATCHERY_DB_USER"
	EnvDBPassword   = "HATCHERY_DB_PASSWORD"
	EnvDBName       = "HATCHERY_DB_NAME"
	EnvUseSQLite    = "HATCHERY_USE_SQLITE"
	EnvRedisURL     = "HATCHERY_REDIS_URL"
	EnvJWTSecret    = "HATCHERY_JWT_SECRET"
	EnvJWTIssuer    = "HATCHERY_JWT_ISSUER"
	EnvOutboxSink   = "HATCHERY_OUTBOX_SINK"
	EnvKafkaBrokers = "HATCHERY_KAFKA_BROKERS"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
