package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFile           string `mapstructure:"LOG_FILE"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Public site.
	SiteURL        string `mapstructure:"SITE_URL"`
	CanonicalHost  string `mapstructure:"CANONICAL_HOST"`
	AliasHosts     string `mapstructure:"ALIAS_HOSTS"`
	ForceHTTPS     bool   `mapstructure:"FORCE_HTTPS"`
	DefaultLocale  string `mapstructure:"DEFAULT_LOCALE"`
	Locales        string `mapstructure:"LOCALES"`
	SessionSecret  string `mapstructure:"SESSION_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// External backend.
	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	// API cache.
	APICacheTTL        time.Duration `mapstructure:"API_CACHE_TTL"`
	APICacheMaxEntries int           `mapstructure:"API_CACHE_MAX_ENTRIES"`
	APICacheShared     bool          `mapstructure:"API_CACHE_SHARED"`

	// Redis configuration.
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB      int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSessionDB    int    `mapstructure:"REDIS_SESSION_DB"`
	RedisTaskQueueDB  int    `mapstructure:"REDIS_TASK_QUEUE_DB"`
	WorkerConcurrency int    `mapstructure:"WORKER_CONCURRENCY"`

	// Booking.
	MinNights        int           `mapstructure:"MIN_NIGHTS"`
	MaxNights        int           `mapstructure:"MAX_NIGHTS"`
	CheckoutTTL      time.Duration `mapstructure:"CHECKOUT_TTL"`
	Currency         string        `mapstructure:"CURRENCY"`
	PropertyTimezone string        `mapstructure:"PROPERTY_TIMEZONE"`

	// Stripe.
	StripeKey            string `mapstructure:"STRIPE_SECRET_KEY"`
	StripePublishableKey string `mapstructure:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Mail.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	OwnerEmail   string `mapstructure:"OWNER_EMAIL"`

	// Cloudinary.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real deployments use the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "asterias")

	v.SetDefault("SITE_URL", "https://asteriashomes.gr")
	v.SetDefault("CANONICAL_HOST", "asteriashomes.gr")
	v.SetDefault("ALIAS_HOSTS", "www.asteriashomes.gr,asteriashomes.com,www.asteriashomes.com")
	v.SetDefault("FORCE_HTTPS", false)
	v.SetDefault("DEFAULT_LOCALE", "en")
	v.SetDefault("LOCALES", "en,el,de")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("BACKEND_URL", "http://localhost:5000")
	v.SetDefault("BACKEND_TIMEOUT", 10*time.Second)

	v.SetDefault("API_CACHE_TTL", time.Minute)
	v.SetDefault("API_CACHE_MAX_ENTRIES", 1000)
	v.SetDefault("API_CACHE_SHARED", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_SESSION_DB", 1)
	v.SetDefault("REDIS_TASK_QUEUE_DB", 2)
	v.SetDefault("WORKER_CONCURRENCY", 5)

	v.SetDefault("MIN_NIGHTS", 2)
	v.SetDefault("MAX_NIGHTS", 30)
	v.SetDefault("CHECKOUT_TTL", 30*time.Minute)
	v.SetDefault("CURRENCY", "eur")
	v.SetDefault("PROPERTY_TIMEZONE", "Europe/Athens")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_PUBLISHABLE_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "Asterias Homes <info@asteriashomes.gr>")
	v.SetDefault("OWNER_EMAIL", "info@asteriashomes.gr")

	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SupportedLocales returns the configured locales with the default first.
func (c Config) SupportedLocales() []string {
	out := []string{c.DefaultLocale}
	for _, l := range splitList(c.Locales) {
		if l != c.DefaultLocale {
			out = append(out, l)
		}
	}
	return out
}

// AliasHostList returns the hosts that redirect to the canonical host. The
// www form of the canonical host is always included.
func (c Config) AliasHostList() []string {
	hosts := splitList(c.AliasHosts)
	canonical := strings.ToLower(strings.TrimSpace(c.CanonicalHost))
	if canonical == "" || strings.HasPrefix(canonical, "www.") {
		return hosts
	}
	www := "www." + canonical
	for _, h := range hosts {
		if h == www {
			return hosts
		}
	}
	return append(hosts, www)
}

// TrustedProxyList returns the proxies allowed to set client IP headers. An
// empty list trusts none and the socket address is used.
func (c Config) TrustedProxyList() []string {
	return splitList(c.TrustedProxies)
}

// OriginList returns the CORS allow-list.
func (c Config) OriginList() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
