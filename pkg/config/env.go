package config

const EnvPrefix = "BACKOFFICE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv               = "BACKOFFICE_APP_ENV"
	EnvPort                 = "BACKOFFICE_APP_PORT"
	EnvDBDSN                = "BACKOFFICE_DB_DSN"
	EnvDBHost               = "BACKOFFICE_DB_HOST"
	EnvDBUser               = "BACKOFFICE_DB_USER"
	EnvDBName               = "BACKOFFICE_DB_NAME"
	EnvUseSQLite            = "BACKOFFICE_USE_SQLITE"
	EnvRedisURL             = "BACKOFFICE_REDIS_URL"
	EnvJWTAccessSecret      = "BACKOFFICE_JWT_ACCESS_SECRET"
	EnvJWTRefreshSecret     = "BACKOFFICE_JWT_REFRESH_SECRET"
	EnvJWTExpirationMinutes = "BACKOFFICE_JWT_EXPIRATION_MINUTES"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
