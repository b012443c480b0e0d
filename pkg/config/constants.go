package config

const (
	EnvPrefix = "WANOTIFY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "WANOTIFY_DB_DSN"
	EnvDBHost = "WANOTIFY_DB_HOST"
	EnvDBUser = "WANOTIFY_DB_USER"
	EnvDBName = "WANOTIFY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
