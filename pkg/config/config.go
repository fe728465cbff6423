package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/clipforge/quota-service/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Quota        QuotaConfig
	RateLimit    RateLimitConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLIPFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"CLIPFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLIPFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLIPFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLIPFORGE_DB_DSN"`
	Driver string `envconfig:"CLIPFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLIPFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"CLIPFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLIPFORGE_DB_USER"`
	LegacyPassword string `envconfig:"CLIPFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLIPFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLIPFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLIPFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLIPFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLIPFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLIPFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the DSN should be opened with the sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CLIPFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLIPFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"CLIPFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLIPFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLIPFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLIPFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLIPFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLIPFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLIPFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// QuotaConfig controls starting balances per plan tier and charge retry bounds.
type QuotaConfig struct {
	FreeStartingSeconds       int64 `envconfig:"CLIPFORGE_QUOTA_FREE_STARTING_SECONDS" default:"3600"`
	ProStartingSeconds        int64 `envconfig:"CLIPFORGE_QUOTA_PRO_STARTING_SECONDS" default:"36000"`
	EnterpriseStartingSeconds int64 `envconfig:"CLIPFORGE_QUOTA_ENTERPRISE_STARTING_SECONDS" default:"360000"`

	ChargeMaxAttempts    int           `envconfig:"CLIPFORGE_QUOTA_CHARGE_MAX_ATTEMPTS" default:"5"`
	StorageRetryAttempts uint64        `envconfig:"CLIPFORGE_QUOTA_STORAGE_RETRY_ATTEMPTS" default:"3"`
	StorageRetryBase     time.Duration `envconfig:"CLIPFORGE_QUOTA_STORAGE_RETRY_BASE" default:"50ms"`
}

// StartingSeconds returns the configured starting balance for a plan tier.
func (q QuotaConfig) StartingSeconds(tier enums.PlanTier) (int64, bool) {
	switch tier {
	case enums.PlanTierFree:
		return q.FreeStartingSeconds, true
	case enums.PlanTierPro:
		return q.ProStartingSeconds, true
	case enums.PlanTierEnterprise:
		return q.EnterpriseStartingSeconds, true
	}
	return 0, false
}

type RateLimitConfig struct {
	ChargeWindow time.Duration `envconfig:"CLIPFORGE_RATE_LIMIT_CHARGE_WINDOW" default:"1m"`
	ChargeLimit  int64         `envconfig:"CLIPFORGE_RATE_LIMIT_CHARGE_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLIPFORGE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when using the sqlite driver", EnvDBDSN)
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
