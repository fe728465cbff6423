package config

const (
	// EnvPrefix is passed to envconfig; variable names are spelled out in the
	// struct tags so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "CLIPFORGE_DB_DSN"
	EnvDBHost = "CLIPFORGE_DB_HOST"
	EnvDBUser = "CLIPFORGE_DB_USER"
	EnvDBName = "CLIPFORGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
