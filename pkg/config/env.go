package config

// EnvPrefix is handed to envconfig. Prefixed keys are tried first, then the tag name.
const EnvPrefix = "POS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv               = "POS_APP_ENV"
	EnvPort                 = "POS_APP_PORT"
	EnvDBDSN                = "POS_DB_DSN"
	EnvDBHost               = "POS_DB_HOST"
	EnvDBUser               = "POS_DB_USER"
	EnvDBName               = "POS_DB_NAME"
	EnvRedisURL             = "POS_REDIS_URL"
	EnvRedisAddr            = "POS_REDIS_ADDR"
	EnvJWTSecret            = "POS_JWT_SECRET"
	EnvBackendBaseURL       = "POS_BACKEND_BASE_URL"
	EnvPointsConversionRate = "POS_POINTS_CONVERSION_RATE"
	EnvUseSQLite            = "POS_USE_SQLITE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
