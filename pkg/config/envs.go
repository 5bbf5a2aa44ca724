package config

const EnvPrefix = "BOOKBUDDY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

var storageDrivers = []string{
	StorageDriverSQLite,
	StorageDriverPostgres,
	StorageDriverRedis,
	StorageDriverMemory,
}

const (
	EnvAppEnv       = "BOOKBUDDY_APP_ENV"
	EnvLogLevel     = "BOOKBUDDY_LOG_LEVEL"
	EnvLogFormat    = "BOOKBUDDY_LOG_FORMAT"
	EnvLogWarnStack = "BOOKBUDDY_LOG_WARN_STACK"

	EnvAPIBaseURL    = "BOOKBUDDY_API_BASE_URL"
	EnvAPIPathPrefix = "BOOKBUDDY_API_PATH_PREFIX"
	EnvAPITimeout    = "BOOKBUDDY_API_TIMEOUT"

	EnvStorageDriver     = "BOOKBUDDY_STORAGE_DRIVER"
	EnvStorageNamespace  = "BOOKBUDDY_STORAGE_NAMESPACE"
	EnvStorageCartKey    = "BOOKBUDDY_STORAGE_CART_KEY"
	EnvStorageSessionKey = "BOOKBUDDY_STORAGE_SESSION_KEY"

	EnvDBDSN        = "BOOKBUDDY_DB_DSN"
	EnvDBSQLitePath = "BOOKBUDDY_DB_SQLITE_PATH"

	EnvRedisURL  = "BOOKBUDDY_REDIS_URL"
	EnvRedisAddr = "BOOKBUDDY_REDIS_ADDR"
)
