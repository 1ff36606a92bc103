package config

// EnvPrefix is applied by envconfig to untagged fields; every tag below spells
// the full variable name out anyway so the prefix stays visible in one grep.
const EnvPrefix = "mkta"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "MKTA_APP_ENV"
	EnvPort     = "MKTA_APP_PORT"
	EnvDBDSN    = "MKTA_DB_DSN"
	EnvDBHost   = "MKTA_DB_HOST"
	EnvDBUser   = "MKTA_DB_USER"
	EnvDBName   = "MKTA_DB_NAME"
	EnvRedisURL = "MKTA_REDIS_URL"

	EnvPingTargetURL = "MKTA_PING_TARGET_URL"
	EnvPingInterval  = "MKTA_PING_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
