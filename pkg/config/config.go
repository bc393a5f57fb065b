package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Billing      BillingConfig
	Paystack     PaystackConfig
	FeatureFlags FeatureFlagsConfig
	Webhooks     WebhooksConfig
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
	Env             string `envconfig:"COMPLIANCEHUB_APP_ENV" required:"true"`
	Port            string `envconfig:"COMPLIANCEHUB_APP_PORT" required:"true"`
	LogLevel        string `envconfig:"COMPLIANCEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack    bool   `envconfig:"COMPLIANCEHUB_LOG_WARN_STACK" default:"false"`
	FrontendBaseURL string `envconfig:"COMPLIANCEHUB_FRONTEND_BASE_URL" default:"http://localhost:5173"`
	BackendBaseURL  string `envconfig:"COMPLIANCEHUB_BACKEND_BASE_URL"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COMPLIANCEHUB_DB_DSN"`
	Driver string `envconfig:"COMPLIANCEHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COMPLIANCEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"COMPLIANCEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COMPLIANCEHUB_DB_USER"`
	LegacyPassword string `envconfig:"COMPLIANCEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"COMPLIANCEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"COMPLIANCEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COMPLIANCEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COMPLIANCEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COMPLIANCEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COMPLIANCEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COMPLIANCEHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COMPLIANCEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"COMPLIANCEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"COMPLIANCEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COMPLIANCEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COMPLIANCEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COMPLIANCEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COMPLIANCEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COMPLIANCEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"COMPLIANCEHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COMPLIANCEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"COMPLIANCEHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// BillingConfig carries the pricing knobs applied at payment initiation.
type BillingConfig struct {
	VATRate  decimal.Decimal `envconfig:"COMPLIANCEHUB_VAT_RATE" default:"0.075"`
	Currency string          `envconfig:"COMPLIANCEHUB_BILLING_CURRENCY" default:"NGN"`
}

type PaystackConfig struct {
	SecretKey string        `envconfig:"COMPLIANCEHUB_PAYSTACK_SECRET_KEY"`
	BaseURL   string        `envconfig:"COMPLIANCEHUB_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"COMPLIANCEHUB_PAYSTACK_TIMEOUT" default:"10s"`
}

// Configured reports whether the gateway credentials are present. When false
// the initiator skips gateway initialization and returns a nil authorization
// handle.
func (p PaystackConfig) Configured() bool {
	return strings.TrimSpace(p.SecretKey) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"COMPLIANCEHUB_AUTO_MIGRATE" default:"false"`
}

type WebhooksConfig struct {
	IdempotencyTTL time.Duration `envconfig:"COMPLIANCEHUB_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
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
