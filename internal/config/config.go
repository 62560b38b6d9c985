package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// GatewayConfig is injected into the signature verifier; secrets are never
// read from ambient state at verification time.
type GatewayConfig struct {
	Name    string `validate:"required"`
	Secret  string `validate:"required"`
	MaxSkew time.Duration
}

type SMTPConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	TLSMode       string // "", "tls", "starttls"
	SkipVerifyTLS bool
}

type MailtrapConfig struct {
	APIURL   string
	APIToken string
}

// AlertsConfig enables ops email alerts when To is non-empty.
type AlertsConfig struct {
	From string
	To   []string
}

type ArchiveConfig struct {
	Backend  string `validate:"omitempty,oneof=local s3"`
	LocalDir string
	S3Region string
	S3Bucket string
	S3Prefix string
}

type Config struct {
	Addr     string `validate:"required"`
	DBDriver string `validate:"required,oneof=mysql sqlite"`
	DBDSN    string `validate:"required"`

	OpsAPIToken string `validate:"required,min=16"`

	Gateways []GatewayConfig `validate:"required,min=1,dive"`

	WebhookTimeout time.Duration

	Archive ArchiveConfig

	MailerDriver string `validate:"omitempty,oneof=smtp mailtrap"`
	SMTP         SMTPConfig
	Mailtrap     MailtrapConfig
	Alerts       AlertsConfig
}

var validate = validator.New()

// Load assembles the configuration from environment variables. A gateway is
// enabled by setting its webhook secret.
func Load() (Config, error) {
	cfg := Config{
		Addr:           getenv("ADDR", ":8080"),
		DBDriver:       getenv("DB_DRIVER", "mysql"),
		DBDSN:          os.Getenv("DB_DSN"),
		OpsAPIToken:    os.Getenv("OPS_API_TOKEN"),
		WebhookTimeout: secondsEnv("WEBHOOK_TIMEOUT", 10*time.Second),
		Archive: ArchiveConfig{
			Backend:  os.Getenv("ARCHIVE_BACKEND"),
			LocalDir: getenv("ARCHIVE_LOCAL_DIR", "data/archive"),
			S3Region: os.Getenv("ARCHIVE_S3_REGION"),
			S3Bucket: os.Getenv("ARCHIVE_S3_BUCKET"),
			S3Prefix: os.Getenv("ARCHIVE_S3_PREFIX"),
		},
		MailerDriver: getenv("MAILER_DRIVER", "smtp"),
		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          getenv("SMTP_PORT", "1025"),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			TLSMode:       os.Getenv("SMTP_TLS_MODE"),
			SkipVerifyTLS: boolEnv("SMTP_SKIP_VERIFY_TLS"),
		},
		Mailtrap: MailtrapConfig{
			APIURL:   os.Getenv("MAILTRAP_API_URL"),
			APIToken: os.Getenv("MAILTRAP_API_TOKEN"),
		},
		Alerts: AlertsConfig{
			From: os.Getenv("ALERT_FROM"),
			To:   listEnv("ALERT_TO"),
		},
	}

	if s := os.Getenv("STRIPE_WEBHOOK_SECRET"); s != "" {
		cfg.Gateways = append(cfg.Gateways, GatewayConfig{
			Name:    "stripe",
			Secret:  s,
			MaxSkew: secondsEnv("STRIPE_MAX_SKEW", 5*time.Minute),
		})
	}
	if s := os.Getenv("RAZORPAY_WEBHOOK_SECRET"); s != "" {
		cfg.Gateways = append(cfg.Gateways, GatewayConfig{
			Name:    "razorpay",
			Secret:  s,
			MaxSkew: secondsEnv("RAZORPAY_MAX_SKEW", 0),
		})
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.Archive.Backend == "s3" && cfg.Archive.S3Bucket == "" {
		return Config{}, fmt.Errorf("config: ARCHIVE_BACKEND=s3 requires ARCHIVE_S3_BUCKET")
	}
	if len(cfg.Alerts.To) > 0 {
		if cfg.Alerts.From == "" {
			return Config{}, fmt.Errorf("config: ALERT_TO set but ALERT_FROM missing")
		}
		switch cfg.MailerDriver {
		case "mailtrap":
			if cfg.Mailtrap.APIURL == "" || cfg.Mailtrap.APIToken == "" {
				return Config{}, fmt.Errorf("config: MAILER_DRIVER=mailtrap requires MAILTRAP_API_URL and MAILTRAP_API_TOKEN")
			}
		default:
			if cfg.SMTP.Host == "" {
				return Config{}, fmt.Errorf("config: ALERT_TO set but SMTP_HOST missing")
			}
		}
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func secondsEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func boolEnv(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func listEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
