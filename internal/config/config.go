package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

type Duration struct{ time.Duration }

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// [Duration] implements [encoding.TextUnmarshaler] for env overrides
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DbName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

func (p PostgresConfig) DbUrl() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     p.DbName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

type JwtConfig struct {
	Secret string `json:"secret" env:"MAZE_JWT_SECRET"`
	Issuer string `json:"issuer" env:"MAZE_JWT_ISSUER"`
}

type Config struct {
	Mode           string          `json:"mode" env:"MAZE_MODE"`
	Addr           string          `json:"addr" env:"MAZE_ADDR"`
	DatabaseUrl    string          `json:"database_url" env:"DATABASE_URL"`
	Postgres       *PostgresConfig `json:"postgres"`
	Jwt            JwtConfig       `json:"jwt"`
	AllowedOrigins []string        `json:"allowed_origins" env:"MAZE_ALLOWED_ORIGINS" envSeparator:","`
	LogFile        string          `json:"log_file" env:"MAZE_LOG_FILE"`
	MaxAttempts    int             `json:"max_attempts" env:"MAZE_MAX_ATTEMPTS"`
	TickInterval   Duration        `json:"tick_interval" env:"MAZE_TICK_INTERVAL"`
	RoundTTL       Duration        `json:"round_ttl" env:"MAZE_ROUND_TTL"`
}

func Default() *Config {
	return &Config{
		Mode:         "development",
		Addr:         ":8080",
		MaxAttempts:  200,
		TickInterval: Duration{time.Second},
		RoundTTL:     Duration{30 * time.Minute},
	}
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":          c.Mode,
		"addr":          c.Addr,
		"database":      c.DatabaseURL() != "",
		"jwt_issuer":    c.Jwt.Issuer,
		"jwt_enabled":   c.Jwt.Secret != "",
		"origins":       c.AllowedOrigins,
		"log_file":      c.LogFile,
		"max_attempts":  c.MaxAttempts,
		"tick_interval": c.TickInterval.String(),
		"round_ttl":     c.RoundTTL.String(),
	}
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

// DatabaseURL is empty when no records database is configured.
func (c Config) DatabaseURL() string {
	if c.DatabaseUrl != "" {
		return c.DatabaseUrl
	}
	if c.Postgres != nil {
		return c.Postgres.DbUrl()
	}
	return ""
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must be set")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, have %d", c.MaxAttempts)
	}
	if c.TickInterval.Duration <= 0 {
		return fmt.Errorf("tick_interval must be positive, have %s", c.TickInterval)
	}
	if c.RoundTTL.Duration <= 0 {
		return fmt.Errorf("round_ttl must be positive, have %s", c.RoundTTL)
	}
	return nil
}

func ReadConfig(path string, config *Config) error {
	if b, err := os.ReadFile(path); err != nil {
		return err
	} else {
		return json.Unmarshal(b, config)
	}
}

// Load layers the config file (if any) and then the environment over the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("unable to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
