package config

type App struct {
	Port          string `env:"APP_PORT" default:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	JWTSecret     string `env:"JWT_SECRET,required"`
	RedisAddr     string `env:"REDIS_ADDR"`
	WebhookURL    string `env:"NOTIFY_WEBHOOK_URL"`
	OverlapPolicy string `env:"OVERLAP_POLICY" default:"strict"`
	RateLimit     int    `env:"RATE_LIMIT" default:"100"`
	Env           string `env:"APP_ENV" default:"dev"`
}
