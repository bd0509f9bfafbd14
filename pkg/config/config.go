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
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	CoinPayments CoinPaymentsConfig
	PayPal       PayPalConfig
	Shopify      ShopifyConfig
	Sendgrid     SendgridConfig
	Catalog      CatalogConfig
	Discounts    DiscountsConfig
	Cron         CronConfig
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
	Env          string `envconfig:"HZ_APP_ENV" required:"true"`
	Port         string `envconfig:"HZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HZ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HZ_DB_DSN"`
	Driver string `envconfig:"HZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HZ_DB_HOST"`
	LegacyPort     int    `envconfig:"HZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HZ_DB_USER"`
	LegacyPassword string `envconfig:"HZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"HZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"HZ_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"HZ_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"HZ_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"HZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"HZ_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HZ_REDIS_ADDR"`
	Password     string        `envconfig:"HZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"HZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig signs the bearer tokens used by the admin order views.
type JWTConfig struct {
	Secret            string `envconfig:"HZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HZ_JWT_ISSUER" default:"humidityzone"`
	ExpirationMinutes int    `envconfig:"HZ_JWT_EXPIRATION_MINUTES" default:"720"`
}

type RateLimitConfig struct {
	PublicWindow     time.Duration `envconfig:"HZ_RATE_LIMIT_PUBLIC_WINDOW" default:"1m"`
	PublicIPLimit    int           `envconfig:"HZ_RATE_LIMIT_PUBLIC_IP_LIMIT" default:"30"`
	PublicEmailLimit int           `envconfig:"HZ_RATE_LIMIT_PUBLIC_EMAIL_LIMIT" default:"10"`
}

// CORSConfig lists the storefront origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"HZ_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HZ_AUTO_MIGRATE" default:"false"`
}

// CoinPaymentsConfig holds both the merchant API keys and the IPN secret.
type CoinPaymentsConfig struct {
	PublicKey  string `envconfig:"HZ_COINPAYMENTS_PUBLIC_KEY"`
	PrivateKey string `envconfig:"HZ_COINPAYMENTS_PRIVATE_KEY"`
	IPNSecret  string `envconfig:"HZ_COINPAYMENTS_IPN_SECRET"`
	IPNURL     string `envconfig:"HZ_COINPAYMENTS_IPN_URL"`
	APIURL     string `envconfig:"HZ_COINPAYMENTS_API_URL" default:"https://www.coinpayments.net/api.php"`
	Currency1  string `envconfig:"HZ_COINPAYMENTS_CURRENCY1" default:"USD"`
	Currency2  string `envconfig:"HZ_COINPAYMENTS_CURRENCY2" default:"USDT.TRC20"`
}

type PayPalConfig struct {
	ClientID  string `envconfig:"HZ_PAYPAL_CLIENT_ID"`
	Secret    string `envconfig:"HZ_PAYPAL_SECRET"`
	APIBase   string `envconfig:"HZ_PAYPAL_API_BASE" default:"https://api.sandbox.paypal.com"`
	ReturnURL string `envconfig:"HZ_PAYPAL_RETURN_URL"`
	CancelURL string `envconfig:"HZ_PAYPAL_CANCEL_URL"`
}

// ShopifyConfig points at the Admin REST API, e.g. https://shop.myshopify.com/admin/api/2023-10.
type ShopifyConfig struct {
	APIBase        string        `envconfig:"HZ_SHOPIFY_API_BASE"`
	AccessToken    string        `envconfig:"HZ_SHOPIFY_ADMIN_API_ACCESS_TOKEN"`
	RequestTimeout time.Duration `envconfig:"HZ_SHOPIFY_REQUEST_TIMEOUT" default:"15s"`
}

// Configured reports whether both the endpoint and the token are present.
func (s ShopifyConfig) Configured() bool {
	return strings.TrimSpace(s.APIBase) != "" && strings.TrimSpace(s.AccessToken) != ""
}

type SendgridConfig struct {
	APIKey      string `envconfig:"HZ_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"HZ_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"HZ_SENDGRID_FROM_NAME" default:"Humidity Zone"`
}

type CatalogConfig struct {
	ProductsTTL  time.Duration `envconfig:"HZ_CATALOG_PRODUCTS_TTL" default:"1h"`
	FeaturedTTL  time.Duration `envconfig:"HZ_CATALOG_FEATURED_TTL" default:"5m"`
	InventoryTTL time.Duration `envconfig:"HZ_CATALOG_INVENTORY_TTL" default:"5m"`
}

// DiscountsConfig maps coupon codes to a rate, e.g. HZ_DISCOUNT_CODES=SAVE10:0.1,FREE:1.
type DiscountsConfig struct {
	Codes map[string]string `envconfig:"HZ_DISCOUNT_CODES"`
}

// CronConfig drives the fulfillment retry worker. SyncGrace keeps the worker
// away from orders a live notification may still be publishing.
type CronConfig struct {
	Interval      time.Duration `envconfig:"HZ_CRON_INTERVAL" default:"15m"`
	LockTTL       time.Duration `envconfig:"HZ_CRON_LOCK_TTL" default:"30m"`
	SyncGrace     time.Duration `envconfig:"HZ_CRON_SYNC_GRACE" default:"10m"`
	SyncBatchSize int           `envconfig:"HZ_CRON_SYNC_BATCH_SIZE" default:"50"`
	JobTimeout    time.Duration `envconfig:"HZ_CRON_JOB_TIMEOUT" default:"10m"`
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
