package config

// EnvPrefix is passed to envconfig; individual fields pin their full
// variable names so the prefix only matters for unannotated fields.
const EnvPrefix = "GESTIONALE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "GESTIONALE_APP_ENV"
	EnvPort     = "GESTIONALE_APP_PORT"
	EnvLogLevel = "GESTIONALE_LOG_LEVEL"

	EnvDBDSN  = "GESTIONALE_DB_DSN"
	EnvDBHost = "GESTIONALE_DB_HOST"
	EnvDBUser = "GESTIONALE_DB_USER"
	EnvDBName = "GESTIONALE_DB_NAME"

	EnvRedisURL = "GESTIONALE_REDIS_URL"

	EnvGCPProjectID = "GESTIONALE_GCP_PROJECT_ID"

	EnvPubSubDomainTopic = "GESTIONALE_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "GESTIONALE_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvPubSubAlertsSub   = "GESTIONALE_PUBSUB_ALERTS_SUBSCRIPTION"
)

// legacyDBEnvVars are the discrete connection vars accepted when
// GESTIONALE_DB_DSN is not set.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
