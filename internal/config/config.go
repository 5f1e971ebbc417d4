package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	Timezone    string

	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Bootstrap BootstrapConfig
	RateLimit RateLimitConfig
	Invoice   InvoiceConfig
	Slots     SlotConfig
	Calendar  CalendarConfig
	Email     EmailConfig
	SMS       SMSConfig
	Scheduler SchedulerConfig
}

// TelemetryConfig covers logging and OpenTelemetry export.
type TelemetryConfig struct {
	DeploymentEnv  string
	ServiceVersion string
	LogLevel       string
	LogFormat      string
	OtelEnabled    bool
	OTLPEndpoint   string
	OTLPProtocol   string
	SamplingRatio  float64
}

type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	SeedCatalog   bool
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PublicRate    float64
	PublicBurst   int
	LockTTL       time.Duration
}

type InvoiceConfig struct {
	TaxRateBps      int64
	DueDays         int
	NumberTemplate  string
	BusinessName    string
	BusinessAddress string
	BusinessEmail   string
}

type SlotConfig struct {
	HorizonDays     int
	StartHours      []int
	SlotHours       int
	ReleaseOnCancel bool
}

type CalendarConfig struct {
	Provider string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type SMSConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
}

type SchedulerConfig struct {
	Enabled     bool
	EnabledJobs []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "maidbook"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		Timezone:      getenv("BUSINESS_TIMEZONE", "America/Chicago"),
		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:  time.Duration(getenvInt64("AUTH_TOKEN_TTL_MINUTES", 60*24)) * time.Minute,

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "maidbook"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "maidbook.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 10)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 50)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),

		Telemetry: TelemetryConfig{
			DeploymentEnv:  strings.TrimSpace(os.Getenv("DEPLOYMENT_ENV")),
			ServiceVersion: strings.TrimSpace(os.Getenv("SERVICE_VERSION")),
			LogLevel:       strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:      strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:    getenvBool("OTEL_ENABLED", false),
			OTLPEndpoint:   strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
			OTLPProtocol:   otlpProtocol(),
			SamplingRatio:  getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		Bootstrap: BootstrapConfig{
			AdminEmail:    strings.ToLower(strings.TrimSpace(getenv("ADMIN_EMAIL", ""))),
			AdminPassword: getenv("ADMIN_PASSWORD", ""),
			AdminName:     getenv("ADMIN_NAME", "Administrator"),
			SeedCatalog:   getenvBool("SEED_CATALOG", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       int(getenvInt64("REDIS_DB", 0)),
			PublicRate:    getenvFloat("RATE_LIMIT_PUBLIC_RATE", 1),
			PublicBurst:   int(getenvInt64("RATE_LIMIT_PUBLIC_BURST", 10)),
			LockTTL:       time.Duration(getenvInt64("SCHEDULER_LOCK_TTL_SECONDS", 120)) * time.Second,
		},
		Invoice: InvoiceConfig{
			TaxRateBps:      getenvInt64("INVOICE_TAX_RATE_BPS", 825),
			DueDays:         int(getenvInt64("INVOICE_DUE_DAYS", 30)),
			NumberTemplate:  getenv("INVOICE_NUMBER_TEMPLATE", "INV-{YYYY}{MM}{DD}-{SEQ6}"),
			BusinessName:    getenv("BUSINESS_NAME", "Maids of Cyfair"),
			BusinessAddress: getenv("BUSINESS_ADDRESS", "Cypress, TX"),
			BusinessEmail:   getenv("BUSINESS_EMAIL", "billing@maidsofcyfair.com"),
		},
		Slots: SlotConfig{
			HorizonDays:     int(getenvInt64("SLOT_HORIZON_DAYS", 30)),
			StartHours:      parseInts(getenv("SLOT_START_HOURS", "8,10,12,14,16")),
			SlotHours:       int(getenvInt64("SLOT_HOURS", 2)),
			ReleaseOnCancel: getenvBool("SLOT_RELEASE_ON_CANCEL", false),
		},
		Calendar: CalendarConfig{
			Provider: strings.ToLower(getenv("CALENDAR_PROVIDER", "memory")),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     int(getenvInt64("SMTP_PORT", 587)),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@maidsofcyfair.com"),
		},
		SMS: SMSConfig{
			TwilioAccountSID: strings.TrimSpace(getenv("TWILIO_ACCOUNT_SID", "")),
			TwilioAuthToken:  strings.TrimSpace(getenv("TWILIO_AUTH_TOKEN", "")),
			TwilioFromNumber: strings.TrimSpace(getenv("TWILIO_PHONE_NUMBER", "")),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getenvBool("SCHEDULER_ENABLED", true),
			EnabledJobs: parseList(getenv("SCHEDULER_JOBS", "")),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location returns the business timezone used for slot dates.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

// otlpProtocol prefers the traces-specific protocol over the shared one.
func otlpProtocol() string {
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		return strings.ToLower(traces)
	}
	return strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseInts(raw string) []int {
	out := []int{}
	for _, p := range parseList(raw) {
		v, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
