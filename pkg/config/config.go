package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "QUICKBITE"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv      = "QUICKBITE_APP_ENV"
	EnvPort        = "QUICKBITE_APP_PORT"
	EnvDBDSN       = "QUICKBITE_DB_DSN"
	EnvDBHost      = "QUICKBITE_DB_HOST"
	EnvDBUser      = "QUICKBITE_DB_USER"
	EnvDBName      = "QUICKBITE_DB_NAME"
	EnvRedisURL    = "QUICKBITE_REDIS_URL"
	EnvJWTSecret   = "QUICKBITE_JWT_SECRET"
	EnvJWTIssuer   = "QUICKBITE_JWT_ISSUER"
	EnvPeakWindows = "QUICKBITE_DELIVERY_PEAK_WINDOWS"
	EnvTaxRate     = "QUICKBITE_ORDERS_TAX_RATE"
	EnvServiceFee  = "QUICKBITE_ORDERS_SERVICE_FEE"
	EnvCartTTL     = "QUICKBITE_SWEEPER_CART_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Delivery     DeliveryConfig
	Sweeper      SweeperConfig
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
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUICKBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"QUICKBITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUICKBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUICKBITE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"QUICKBITE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"QUICKBITE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QUICKBITE_DB_DSN"`
	Driver string `envconfig:"QUICKBITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUICKBITE_DB_HOST"`
	LegacyPort     int    `envconfig:"QUICKBITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUICKBITE_DB_USER"`
	LegacyPassword string `envconfig:"QUICKBITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUICKBITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUICKBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUICKBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUICKBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUICKBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUICKBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUICKBITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QUICKBITE_REDIS_ADDR"`
	Password     string        `envconfig:"QUICKBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUICKBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUICKBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUICKBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUICKBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUICKBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUICKBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the shared secret used to verify tokens issued by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"QUICKBITE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QUICKBITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"QUICKBITE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QUICKBITE_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig carries the money knobs applied at order creation.
type OrdersConfig struct {
	ServiceFee     decimal.Decimal `envconfig:"QUICKBITE_ORDERS_SERVICE_FEE" default:"0.99"`
	TaxRate        decimal.Decimal `envconfig:"QUICKBITE_ORDERS_TAX_RATE" default:"0.08"`
	CommissionRate decimal.Decimal `envconfig:"QUICKBITE_ORDERS_COMMISSION_RATE" default:"0.15"`
	CourierShare   decimal.Decimal `envconfig:"QUICKBITE_ORDERS_COURIER_SHARE" default:"0.80"`
	PriceEpsilon   decimal.Decimal `envconfig:"QUICKBITE_ORDERS_PRICE_EPSILON" default:"0.005"`
	NumberPrefix   string          `envconfig:"QUICKBITE_ORDERS_NUMBER_PREFIX" default:"QB"`
}

func (o OrdersConfig) validate() error {
	one := decimal.NewFromInt(1)
	rates := map[string]decimal.Decimal{
		"tax rate":        o.TaxRate,
		"commission rate": o.CommissionRate,
		"courier share":   o.CourierShare,
	}
	for name, rate := range rates {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return fmt.Errorf("orders %s must be within [0,1], got %s", name, rate)
		}
	}
	if o.ServiceFee.IsNegative() {
		return fmt.Errorf("orders service fee must not be negative")
	}
	return nil
}

// DeliveryConfig describes when the peak surcharge applies. Windows use "HH:MM-HH:MM"
// separated by commas; weekdays are three-letter names ("mon,tue"). Empty windows mean never peak.
type DeliveryConfig struct {
	PeakWindows  []string `envconfig:"QUICKBITE_DELIVERY_PEAK_WINDOWS"`
	PeakWeekdays []string `envconfig:"QUICKBITE_DELIVERY_PEAK_WEEKDAYS"`
	Timezone     string   `envconfig:"QUICKBITE_DELIVERY_TIMEZONE" default:"UTC"`
}

type SweeperConfig struct {
	Interval           time.Duration `envconfig:"QUICKBITE_SWEEPER_INTERVAL" default:"1h"`
	CartTTL            time.Duration `envconfig:"QUICKBITE_SWEEPER_CART_TTL" default:"24h"`
	PendingOrderTTL    time.Duration `envconfig:"QUICKBITE_SWEEPER_PENDING_ORDER_TTL" default:"30m"`
	HistoryRetention   time.Duration `envconfig:"QUICKBITE_SWEEPER_HISTORY_RETENTION" default:"720h"`
	OutboxRetention    time.Duration `envconfig:"QUICKBITE_SWEEPER_OUTBOX_RETENTION" default:"168h"`
	MaxAttempts        int           `envconfig:"QUICKBITE_SWEEPER_MAX_ATTEMPTS" default:"3"`
	RetryBackoff       time.Duration `envconfig:"QUICKBITE_SWEEPER_RETRY_BACKOFF" default:"2s"`
	LockTTL            time.Duration `envconfig:"QUICKBITE_SWEEPER_LOCK_TTL" default:"55m"`
	PendingOrdersBatch int           `envconfig:"QUICKBITE_SWEEPER_PENDING_BATCH" default:"200"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"QUICKBITE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"QUICKBITE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"QUICKBITE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Channel        string `envconfig:"QUICKBITE_OUTBOX_CHANNEL" default:"qb:events:orders"`
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
