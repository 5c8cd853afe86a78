package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Mail     MailConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port          string
	Env           string
	PublicBaseURL string
	CORSOrigins   []string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicOrder    string
	TopicNotify   string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	TracingEnabled bool
}

// AuthConfig holds token settings and the two bootstrap staff accounts
// that are created on their first successful admin login.
type AuthConfig struct {
	JWTSecret       string
	JWTTTL          time.Duration
	AdminEmail      string
	AdminPassword   string
	ManagerEmail    string
	ManagerPassword string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
}

type BusinessConfig struct {
	OTPTTL      time.Duration
	OTPMaxSends int
	OTPWindow   time.Duration
	PricingFile string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	maxBytes, _ := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "5242880"), 10, 64)
	otpMaxSends, _ := strconv.Atoi(getEnv("OTP_MAX_SENDS", "5"))
	tracing, _ := strconv.ParseBool(getEnv("TRACING_ENABLED", "false"))

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "5000"),
			Env:           getEnv("ENV", "development"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5000"), "/"),
			CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "asurwears"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			TopicOrder:    getEnv("KAFKA_TOPIC_ORDER_EVENTS", "order-events"),
			TopicNotify:   getEnv("KAFKA_TOPIC_NOTIFICATIONS", "notifications"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-notifier"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			TracingEnabled: tracing,
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			JWTTTL:          getDuration("JWT_TTL", 24*time.Hour),
			AdminEmail:      strings.ToLower(getEnv("ADMIN_EMAIL", "")),
			AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
			ManagerEmail:    strings.ToLower(getEnv("MANAGER_EMAIL", "")),
			ManagerPassword: getEnv("MANAGER_PASSWORD", ""),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: maxBytes,
		},
		Mail: MailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     smtpPort,
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("MAIL_FROM", "Asur Wears <no-reply@asurwears.in>"),
		},
		Business: BusinessConfig{
			OTPTTL:      getDuration("OTP_TTL", 10*time.Minute),
			OTPMaxSends: otpMaxSends,
			OTPWindow:   getDuration("OTP_WINDOW", 15*time.Minute),
			PricingFile: getEnv("PRICING_FILE", ""),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate rejects configurations that would run production with
// missing or unsafe secrets.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Business.OTPMaxSends <= 0 {
		errs = append(errs, errors.New("OTP_MAX_SENDS must be positive"))
	}
	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
		}
		if c.Auth.AdminEmail != "" && len(c.Auth.AdminPassword) < 12 {
			errs = append(errs, errors.New("ADMIN_PASSWORD must be at least 12 characters in production"))
		}
		if c.Auth.ManagerEmail != "" && len(c.Auth.ManagerPassword) < 12 {
			errs = append(errs, errors.New("MANAGER_PASSWORD must be at least 12 characters in production"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
