package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"glasspro-backend/utils"
)

// DefaultConfigPath is read when CONFIG_PATH is unset. The file is optional.
const DefaultConfigPath = "config.yaml"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is loaded from YAML, then overridden by environment variables.
type Config struct {
	Port              string   `yaml:"port"`
	StoreDriver       string   `yaml:"storeDriver"`
	DatabaseURL       string   `yaml:"databaseURL"`
	RedisAddr         string   `yaml:"redisAddr"`
	RedisPassword     string   `yaml:"redisPassword"`
	JWTSecret         string   `yaml:"jwtSecret"`
	JWTExpiryHours    int      `yaml:"jwtExpiryHours"`
	TwilioAccountSID  string   `yaml:"twilioAccountSid"`
	TwilioAuthToken   string   `yaml:"twilioAuthToken"`
	TwilioPhoneNumber string   `yaml:"twilioPhoneNumber"`
	ArchiveSchedule   string   `yaml:"archiveSchedule"`
	ArchiveAfterDays  int      `yaml:"archiveAfterDays"`
	LogLevel          string   `yaml:"logLevel"`
	AllowedOrigins    []string `yaml:"allowedOrigins"`
}

func Default() Config {
	return Config{
		Port:             "8080",
		StoreDriver:      StoreMemory,
		JWTExpiryHours:   72,
		ArchiveSchedule:  "0 3 * * *",
		ArchiveAfterDays: 30,
		LogLevel:         "info",
		AllowedOrigins:   []string{"http://localhost:3000"},
	}
}

// Load reads path (or CONFIG_PATH, or config.yaml). A missing default file
// is not an error; a missing file that was asked for is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = utils.GenerateJWTSecret()
		utils.Logger.Warn("JWT_SECRET not set; using a random secret, issued tokens will not survive a restart")
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.StoreDriver = strings.ToLower(v)
	}
	if v := os.Getenv("DB_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_EXPIRY_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.JWTExpiryHours = n
		}
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.TwilioAccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.TwilioAuthToken = v
	}
	if v := os.Getenv("TWILIO_PHONE_NUMBER"); v != "" {
		cfg.TwilioPhoneNumber = v
	}
	if v := os.Getenv("ARCHIVE_SCHEDULE"); v != "" {
		cfg.ArchiveSchedule = v
	}
	if v := os.Getenv("ARCHIVE_AFTER_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ArchiveAfterDays = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required")
	}
	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("config: databaseURL is required for the postgres store (set DB_URL)")
		}
	default:
		return fmt.Errorf("config: unknown storeDriver %q (want memory or postgres)", cfg.StoreDriver)
	}
	if cfg.JWTExpiryHours <= 0 {
		return errors.New("config: jwtExpiryHours must be > 0")
	}
	if cfg.ArchiveAfterDays < 0 {
		return errors.New("config: archiveAfterDays must be >= 0")
	}
	if _, err := cron.ParseStandard(cfg.ArchiveSchedule); err != nil {
		return fmt.Errorf("config: invalid archiveSchedule %q: %w", cfg.ArchiveSchedule, err)
	}
	return nil
}

func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// SMSEnabled reports whether all Twilio settings are present.
func (c Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
