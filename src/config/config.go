package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	LogLevel string

	GatewayBaseURL    string
	GatewayLoginURL   string
	GatewayPlatform   string
	GatewayAPIVersion int
	GatewayTimeout    time.Duration
	GatewayRatePerSec float64
	GatewayRateBurst  int

	Username string
	Password string
	UserID   string // optional, otherwise read from the session token

	BackendBaseURL      string
	BackendStockPlanURL string
	BackendTimeout      time.Duration
	BackendRatePerSec   float64
	BackendTokenURL     string
	BackendClientID     string
	BackendClientSecret string

	// Known backend data quirks, kept as named special cases.
	ValueTolerance     float64
	SkipAccountIDs     []string
	AccountTypeAliases map[string]string

	RunConcurrency   int
	LotsMaxPositions int
	ReportCacheTTL   time.Duration

	NotifierProvider     string
	MailgunDomain        string
	MailgunPrivateAPIKey string
	SenderEmail          string
	SenderName           string
	ReportRecipients     []string

	ServePort         string
	JWTSecret         string
	AccessTokenExpiry time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	Cfg = &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GatewayBaseURL:    strings.TrimRight(getEnv("GATEWAY_BASE_URL", "https://mobiletrade.sit.etrade.com"), "/"),
		GatewayLoginURL:   getEnv("GATEWAY_LOGIN_URL", ""),
		GatewayPlatform:   getEnv("GATEWAY_PLATFORM", "etm"),
		GatewayAPIVersion: getEnvAsInt("GATEWAY_API_VERSION", 1),
		GatewayTimeout:    getEnvAsDuration("GATEWAY_TIMEOUT", 20*time.Second),
		GatewayRatePerSec: getEnvAsFloat("GATEWAY_RATE_PER_SEC", 10),
		GatewayRateBurst:  getEnvAsInt("GATEWAY_RATE_BURST", 5),

		Username: getEnv("MGS_USERNAME", ""),
		Password: getEnv("MGS_PASSWORD", ""),
		UserID:   getEnv("MGS_USER_ID", ""),

		BackendBaseURL:      strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:9090"), "/"),
		BackendStockPlanURL: getEnv("BACKEND_STOCKPLAN_URL", ""),
		BackendTimeout:      getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
		BackendRatePerSec:   getEnvAsFloat("BACKEND_RATE_PER_SEC", 20),
		BackendTokenURL:     getEnv("BACKEND_TOKEN_URL", ""),
		BackendClientID:     getEnv("BACKEND_CLIENT_ID", ""),
		BackendClientSecret: getEnv("BACKEND_CLIENT_SECRET", ""),

		ValueTolerance:     getEnvAsFloat("VALUE_TOLERANCE", 0.05),
		SkipAccountIDs:     getEnvAsList("SKIP_ACCOUNT_IDS", "83851862"),
		AccountTypeAliases: parseAliases(getEnv("EAS_ALIAS", "EAS=Brokerage")),

		RunConcurrency:   getEnvAsInt("RUN_CONCURRENCY", 1),
		LotsMaxPositions: getEnvAsInt("LOTS_MAX_POSITIONS", 1),
		ReportCacheTTL:   getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),

		NotifierProvider:     strings.ToLower(getEnv("NOTIFIER_PROVIDER", "mock")),
		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:           getEnv("SENDER_NAME", "MGS Conformance"),
		ReportRecipients:     getEnvAsList("REPORT_RECIPIENTS", ""),

		ServePort:         getEnv("SERVE_PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
	}

	if Cfg.ValueTolerance < 0 {
		log.Printf("WARNING: VALUE_TOLERANCE must not be negative (%v). Using default 0.05.", Cfg.ValueTolerance)
		Cfg.ValueTolerance = 0.05
	}
	if Cfg.RunConcurrency < 1 {
		log.Printf("WARNING: RUN_CONCURRENCY must be at least 1 (%d). Using 1.", Cfg.RunConcurrency)
		Cfg.RunConcurrency = 1
	}

	if Cfg.NotifierProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when NOTIFIER_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when NOTIFIER_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
	}

	log.Printf("Configuration loaded: Gateway=%s, Backend=%s, LogLevel=%s, Tolerance=%v, Notifier=%s",
		Cfg.GatewayBaseURL, Cfg.BackendBaseURL, Cfg.LogLevel, Cfg.ValueTolerance, Cfg.NotifierProvider)
}

// IsSkippedAccount reports whether accountID is on the configured skip list.
func (c *AppConfig) IsSkippedAccount(accountID string) bool {
	for _, id := range c.SkipAccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Float value for %s not set or empty, using default: %v", key, fallback)
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	return splitList(getEnv(key, fallback))
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

// parseAliases reads "EXPECTED=ACTUAL,..." pairs.
func parseAliases(s string) map[string]string {
	aliases := make(map[string]string)
	for _, pair := range splitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			log.Printf("WARNING: Ignoring malformed alias '%s'", pair)
			continue
		}
		aliases[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return aliases
}
