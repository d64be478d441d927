package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	MailerSendAPIKey    string // when set, email goes through MailerSend instead of SMTP
	MailerSendFromName  string
	MailerSendFromEmail string

	SNSRegion string
	NATSURL   string // empty disables event publishing

	AllowedOrigins []string // CORS allowed origins
	AdminEmails    []string // addresses that sign up with the admin role

	// TrustProxyHeaders lets the per-IP limiter read X-Forwarded-For. Enable
	// only behind a load balancer that overwrites the header.
	TrustProxyHeaders bool

	OTP OTPConfig
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	OTPs     string
	Coupons  string
	Users    string
	Bookings string
	Settings string
}

// OTPConfig tunes code issuance and verification.
type OTPConfig struct {
	TTL            time.Duration
	ResendInterval time.Duration
	MaxAttempts    int
	Digits         int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			OTPs:     getEnv("DYNAMO_TABLE_OTPS", "otps"),
			Coupons:  getEnv("DYNAMO_TABLE_COUPONS", "coupons"),
			Users:    getEnv("DYNAMO_TABLE_USERS", "users"),
			Bookings: getEnv("DYNAMO_TABLE_BOOKINGS", "bookings"),
			Settings: getEnv("DYNAMO_TABLE_SETTINGS", "settings"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailerSendAPIKey:    getEnv("MAILERSEND_API_KEY", ""),
		MailerSendFromName:  getEnv("MAILERSEND_FROM_NAME", "Home Services"),
		MailerSendFromEmail: getEnv("MAILERSEND_FROM_EMAIL", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),
		NATSURL:   getEnv("NATS_URL", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AdminEmails:    getEnvList("ADMIN_EMAILS"),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		OTP: OTPConfig{
			TTL:            getEnvDuration("OTP_TTL", 60*time.Second),
			ResendInterval: getEnvDuration("OTP_RESEND_INTERVAL", 30*time.Second),
			MaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 3),
			Digits:         getEnvInt("OTP_DIGITS", 6),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, lower-casing and dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvDuration accepts Go duration strings ("90s", "2m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
