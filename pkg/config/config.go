package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Ping         PingConfig
	Scheduler    SchedulerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MKTA_APP_ENV" required:"true"`
	Port         string `envconfig:"MKTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MKTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MKTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MKTA_DB_DSN"`
	Driver string `envconfig:"MKTA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MKTA_DB_HOST"`
	LegacyPort     int    `envconfig:"MKTA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MKTA_DB_USER"`
	LegacyPassword string `envconfig:"MKTA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MKTA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MKTA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MKTA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MKTA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MKTA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MKTA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MKTA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MKTA_REDIS_ADDR"`
	Password     string        `envconfig:"MKTA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MKTA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MKTA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MKTA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MKTA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MKTA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MKTA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PingConfig drives the outbound marketplace ping.
type PingConfig struct {
	TargetURL string        `envconfig:"MKTA_PING_TARGET_URL" default:"https://httpbin.org/anything" validate:"required,url"`
	Timeout   time.Duration `envconfig:"MKTA_PING_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"MKTA_PING_USER_AGENT" default:"Marketplace-Analytics-Backend/1.0"`
}

// SchedulerConfig controls the ping cadence. The interval is deliberately
// configuration and not a constant: historical revisions disagreed between a
// one-minute trigger and a five-minute comment, and the trigger won.
type SchedulerConfig struct {
	Interval      time.Duration `envconfig:"MKTA_PING_INTERVAL" default:"1m" validate:"gt=0"`
	PingOnStartup bool          `envconfig:"MKTA_PING_ON_STARTUP" default:"true"`
	LockTTL       time.Duration `envconfig:"MKTA_SCHEDULER_LOCK_TTL" default:"50s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MKTA_AUTO_MIGRATE" default:"false"`
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
