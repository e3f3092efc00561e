package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Alerts       AlertsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GESTIONALE_APP_ENV" required:"true"`
	Port         string `envconfig:"GESTIONALE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GESTIONALE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GESTIONALE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GESTIONALE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GESTIONALE_DB_DSN"`
	Driver string `envconfig:"GESTIONALE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GESTIONALE_DB_HOST"`
	LegacyPort     int    `envconfig:"GESTIONALE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GESTIONALE_DB_USER"`
	LegacyPassword string `envconfig:"GESTIONALE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GESTIONALE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GESTIONALE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GESTIONALE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GESTIONALE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GESTIONALE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GESTIONALE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GESTIONALE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GESTIONALE_REDIS_ADDR"`
	Password     string        `envconfig:"GESTIONALE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GESTIONALE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GESTIONALE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GESTIONALE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GESTIONALE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GESTIONALE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GESTIONALE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GESTIONALE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GESTIONALE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GESTIONALE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GESTIONALE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GESTIONALE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"GESTIONALE_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"GESTIONALE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	AlertsSubscription string `envconfig:"GESTIONALE_PUBSUB_ALERTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GESTIONALE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GESTIONALE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GESTIONALE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AlertsConfig struct {
	DedupTTL    time.Duration `envconfig:"GESTIONALE_ALERTS_DEDUP_TTL" default:"6h"`
	MaxAttempts int           `envconfig:"GESTIONALE_ALERTS_MAX_ATTEMPTS" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
