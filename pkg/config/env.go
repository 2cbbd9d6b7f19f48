package config

const (
	EnvPrefix = "VITRINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "VITRINE_APP_ENV"
	EnvPort        = "VITRINE_APP_PORT"
	EnvAppTimezone = "VITRINE_APP_TIMEZONE"
	EnvRedisURL    = "VITRINE_REDIS_URL"
	EnvRedisAddr   = "VITRINE_REDIS_ADDR"
	EnvBackendURL  = "VITRINE_BACKEND_BASE_URL"
	EnvShippingTkn = "VITRINE_SHIPPING_TOKEN"
)
