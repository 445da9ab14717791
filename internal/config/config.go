package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps 1:1 to a documented env var.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	// Local store
	DataDir string `mapstructure:"DATA_DIR"`

	// Cloud store. Sync runs disabled when the project is empty, so a
	// register can operate stand-alone forever.
	FirestoreProjectID   string `mapstructure:"FIRESTORE_PROJECT_ID"`
	FirestoreCredentials string `mapstructure:"FIRESTORE_CREDENTIALS"`
	CompanyID            string `mapstructure:"COMPANY_ID"`
	DeviceID             string `mapstructure:"DEVICE_ID"`

	// Sync
	SyncIntervalSeconds int    `mapstructure:"SYNC_INTERVAL_SECONDS"`
	ConnectivityURL     string `mapstructure:"CONNECTIVITY_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// AFIP sidecar
	AFIPSidecarURL string `mapstructure:"AFIP_SIDECAR_URL"`
	AFIPCUITEmisor string `mapstructure:"AFIP_CUIT_EMISOR"`
	AFIPPuntoVenta int    `mapstructure:"AFIP_PUNTO_VENTA"`

	// Payment terminal provider
	TerminalURL    string `mapstructure:"TERMINAL_URL"`
	TerminalAPIKey string `mapstructure:"TERMINAL_API_KEY"`

	// SMTP closing reports
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	SMTPTo       string `mapstructure:"SMTP_TO"` // comma separated
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", 8100)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("WORKER_POOL_SIZE", 3)
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 30)
	viper.SetDefault("CONNECTIVITY_URL", "https://firestore.googleapis.com")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 12)
	viper.SetDefault("AFIP_SIDECAR_URL", "http://localhost:8001")
	viper.SetDefault("AFIP_PUNTO_VENTA", 1)
	viper.SetDefault("SMTP_PORT", 587)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SMTPRecipients splits SMTP_TO into a recipient list.
func (c *Config) SMTPRecipients() []string {
	if c.SMTPTo == "" {
		return nil
	}
	parts := strings.Split(c.SMTPTo, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
