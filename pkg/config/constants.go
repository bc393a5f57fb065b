package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "compliancehub"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "COMPLIANCEHUB_DB_DSN"
	EnvDBHost = "COMPLIANCEHUB_DB_HOST"
	EnvDBUser = "COMPLIANCEHUB_DB_USER"
	EnvDBName = "COMPLIANCEHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
