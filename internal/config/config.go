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

	DynamoTables  DynamoTables
	S3AuditBucket string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion      string
	PayoutTopicARN string // FIFO topic for disbursement authorizations

	SignupCodeTTL  time.Duration // validity window of a signup OTP
	PlatformFeeBps int           // default platform fee in basis points

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users          string
	Orders         string
	EscrowPayouts  string
	PendingSignups string
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
			Users:          getEnv("DYNAMO_TABLE_USERS", "users"),
			Orders:         getEnv("DYNAMO_TABLE_ORDERS", "orders"),
			EscrowPayouts:  getEnv("DYNAMO_TABLE_ESCROW_PAYOUTS", "escrow_payouts"),
			PendingSignups: getEnv("DYNAMO_TABLE_PENDING_SIGNUPS", "pending_signups"),
		},
		S3AuditBucket: getEnv("S3_AUDIT_BUCKET", "needcart-escrow-audit"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@needcart.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		PayoutTopicARN: getEnv("SNS_PAYOUT_TOPIC_ARN", ""),

		SignupCodeTTL:  time.Duration(getEnvInt("SIGNUP_CODE_TTL_SECONDS", 600)) * time.Second,
		PlatformFeeBps: getEnvInt("PLATFORM_FEE_BPS", 1500),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
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
