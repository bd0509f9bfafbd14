package config

const EnvPrefix = "HZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "HZ_APP_ENV"
	EnvPort     = "HZ_APP_PORT"
	EnvLogLevel = "HZ_LOG_LEVEL"

	EnvDBDSN  = "HZ_DB_DSN"
	EnvDBHost = "HZ_DB_HOST"
	EnvDBUser = "HZ_DB_USER"
	EnvDBName = "HZ_DB_NAME"

	EnvRedisURL  = "HZ_REDIS_URL"
	EnvJWTSecret = "HZ_JWT_SECRET"

	EnvCoinPaymentsIPNSecret = "HZ_COINPAYMENTS_IPN_SECRET"
	EnvShopifyAPIBase        = "HZ_SHOPIFY_API_BASE"
	EnvShopifyAccessToken    = "HZ_SHOPIFY_ADMIN_API_ACCESS_TOKEN"
	EnvShopifyTimeout        = "HZ_SHOPIFY_REQUEST_TIMEOUT"
	EnvDiscountCodes         = "HZ_DISCOUNT_CODES"
	EnvCORSAllowedOrigins    = "HZ_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
