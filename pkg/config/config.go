package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; variable names are fully spelled out in tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "BOTIGA_APP_ENV"
	EnvDBDSN  = "BOTIGA_DB_DSN"
	EnvDBHost = "BOTIGA_DB_HOST"
	EnvDBUser = "BOTIGA_DB_USER"
	EnvDBName = "BOTIGA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"BOTIGA_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"BOTIGA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOTIGA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOTIGA_DB_DSN"`
	Driver string `envconfig:"BOTIGA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOTIGA_DB_HOST"`
	LegacyPort     int    `envconfig:"BOTIGA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOTIGA_DB_USER"`
	LegacyPassword string `envconfig:"BOTIGA_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOTIGA_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOTIGA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOTIGA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOTIGA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOTIGA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOTIGA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOTIGA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOTIGA_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	// MaxLineItems bounds a single session's cart; zero means unbounded.
	MaxLineItems int `envconfig:"BOTIGA_CART_MAX_LINE_ITEMS" default:"0"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BOTIGA_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BOTIGA_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BOTIGA_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
