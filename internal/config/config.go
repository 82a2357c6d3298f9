package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMock      = "mock"
	DriverDirectory = "directory"

	defaultConfigPath = "config/config.yml"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type CredentialsConfig struct {
	Driver    string `yaml:"driver"`
	MockDelay string `yaml:"mock_delay"`
}

type OTPConfig struct {
	TTL    string `yaml:"ttl"`
	Length int    `yaml:"length"`
	Tick   string `yaml:"tick"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type PasswordConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

type ConfigFile struct {
	App         AppConfig         `yaml:"app"`
	Credentials CredentialsConfig `yaml:"credentials"`
	OTP         OTPConfig         `yaml:"otp"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Twilio      TwilioConfig      `yaml:"twilio"`
	Password    PasswordConfig    `yaml:"password"`
}

type Config struct {
	Port              string
	GinMode           string
	CredentialsDriver string
	MockDelay         time.Duration
	OTP_TTL           time.Duration
	OTP_Length        int
	OTP_Tick          time.Duration
	DBDriver          string
	DSN               string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	TwilioSID         string
	TwilioToken       string
	TwilioFrom        string
	BcryptCost        int
}

// Defaults returns the file-level settings used when no config file exists
func Defaults() ConfigFile {
	return ConfigFile{
		App:         AppConfig{Port: 8080, GinMode: "release"},
		Credentials: CredentialsConfig{Driver: DriverMock, MockDelay: "1s"},
		OTP:         OTPConfig{TTL: "5m", Length: 6, Tick: "1s"},
		Database:    DatabaseConfig{Driver: "postgres"},
		Redis:       RedisConfig{Addr: "localhost:6379"},
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads .env, then the file named by CHAINGUARD_CONFIG (or
// config/config.yml), then applies environment overrides. A missing default
// file is not an error; a missing explicit file is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CHAINGUARD_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	file, err := loadConfigFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		d := Defaults()
		file = &d
	}
	return FromFile(file)
}

// FromFile flattens file and applies environment overrides
func FromFile(file *ConfigFile) (*Config, error) {
	otpTTL, err := time.ParseDuration(env("OTP_TTL", file.OTP.TTL))
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	tick, err := time.ParseDuration(env("OTP_TICK", file.OTP.Tick))
	if err != nil {
		return nil, fmt.Errorf("invalid OTP tick: %w", err)
	}

	mockDelay, err := time.ParseDuration(env("CREDENTIALS_MOCK_DELAY", file.Credentials.MockDelay))
	if err != nil {
		return nil, fmt.Errorf("invalid mock delay: %w", err)
	}

	redisDB, err := strconv.Atoi(env("REDIS_DB", strconv.Itoa(file.Redis.DB)))
	if err != nil {
		return nil, fmt.Errorf("invalid redis db: %w", err)
	}

	cfg := &Config{
		Port:              env("PORT", strconv.Itoa(file.App.Port)),
		GinMode:           env("GIN_MODE", file.App.GinMode),
		CredentialsDriver: env("CREDENTIALS_DRIVER", file.Credentials.Driver),
		MockDelay:         mockDelay,
		OTP_TTL:           otpTTL,
		OTP_Length:        file.OTP.Length,
		OTP_Tick:          tick,
		DBDriver:          env("DATABASE_DRIVER", file.Database.Driver),
		DSN:               env("DATABASE_DSN", file.Database.DSN),
		RedisAddr:         env("REDIS_ADDR", file.Redis.Addr),
		RedisPassword:     env("REDIS_PASSWORD", file.Redis.Password),
		RedisDB:           redisDB,
		TwilioSID:         env("TWILIO_ACCOUNT_SID", file.Twilio.AccountSID),
		TwilioToken:       env("TWILIO_AUTH_TOKEN", file.Twilio.AuthToken),
		TwilioFrom:        env("TWILIO_FROM_NUMBER", file.Twilio.FromNumber),
		BcryptCost:        file.Password.BcryptCost,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CredentialsDriver {
	case DriverMock:
	case DriverDirectory:
		if c.DSN == "" {
			return fmt.Errorf("credentials driver %q requires database.dsn", c.CredentialsDriver)
		}
		if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
			return fmt.Errorf("unknown database driver %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown credentials driver %q", c.CredentialsDriver)
	}
	if c.OTP_Length != 0 && c.OTP_Length != 6 {
		return fmt.Errorf("otp length must be 6, got %d", c.OTP_Length)
	}
	if c.OTP_TTL <= 0 {
		return fmt.Errorf("otp ttl must be positive")
	}
	return nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	config := Defaults()
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
