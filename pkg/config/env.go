package config

// EnvPrefix is handed to envconfig; every field carries its full name.
const EnvPrefix = "BACKOFFICE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const (
	EnvAppEnv                 = "BACKOFFICE_APP_ENV"
	EnvPort                   = "BACKOFFICE_APP_PORT"
	EnvLogLevel               = "BACKOFFICE_LOG_LEVEL"
	EnvLogFormat              = "BACKOFFICE_LOG_FORMAT"
	EnvCORSOrigins            = "BACKOFFICE_CORS_ORIGINS"
	EnvDBDSN                  = "BACKOFFICE_DB_DSN"
	EnvDBDriver               = "BACKOFFICE_DB_DRIVER"
	EnvDBHost                 = "BACKOFFICE_DB_HOST"
	EnvDBUser                 = "BACKOFFICE_DB_USER"
	EnvDBName                 = "BACKOFFICE_DB_NAME"
	EnvRedisURL               = "BACKOFFICE_REDIS_URL"
	EnvJWTSecret              = "BACKOFFICE_JWT_SECRET"
	EnvJWTIssuer              = "BACKOFFICE_JWT_ISSUER"
	EnvJWTExpMins             = "BACKOFFICE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BACKOFFICE_REFRESH_TOKEN_TTL_MINUTES"
	EnvRateLimit              = "BACKOFFICE_RATE_LIMIT"
	EnvCacheBackend           = "BACKOFFICE_CACHE_BACKEND"
	EnvCacheConfigTTL         = "BACKOFFICE_CACHE_CONFIG_TTL"
	EnvUploadsDir             = "BACKOFFICE_UPLOADS_DIR"
	EnvUploadsMaxLogoBytes    = "BACKOFFICE_UPLOADS_MAX_LOGO_BYTES"
	EnvBootstrapAdminEmail    = "BACKOFFICE_BOOTSTRAP_ADMIN_EMAIL"
	EnvBootstrapAdminPassword = "BACKOFFICE_BOOTSTRAP_ADMIN_PASSWORD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
