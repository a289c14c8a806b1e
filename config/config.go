package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete bridge configuration. Secrets may live in the file
// for development, but environment variables always win so deployments never
// need credentials on disk.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Venue   VenueConfig   `json:"venue" yaml:"venue"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`
	Auth    AuthConfig    `json:"auth" yaml:"auth"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP listener parameters.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// VenueConfig contains the terminal gateway endpoint and account credentials.
// All credential fields are required; a missing one is a startup-time fatal
// error, never a call-time one.
type VenueConfig struct {
	GatewayURL string `json:"gateway_url" yaml:"gateway_url"`
	Login      string `json:"login" yaml:"login"`
	Password   string `json:"password" yaml:"password"`
	Server     string `json:"server" yaml:"server"`

	// SerializeOperations holds a process-wide lock across each
	// connect/operate/disconnect cycle, for venues that do not tolerate
	// overlapping sessions from one process.
	SerializeOperations bool `json:"serialize_operations" yaml:"serialize_operations"`
}

// LedgerConfig contains persistence parameters.
type LedgerConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// AuthConfig contains token verification and admin override secrets.
type AuthConfig struct {
	JWTSecret   string `json:"jwt_secret" yaml:"jwt_secret"`
	AdminSecret string `json:"admin_secret" yaml:"admin_secret"`
}

// LoggingConfig contains logger parameters.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug|info|warn|error
	Format string `json:"format" yaml:"format"` // json|console
}

// LoadFromFile loads configuration from a YAML or JSON file, applies
// environment overrides, and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv lets environment variables take precedence over file
// values for secrets and deployment-specific endpoints.
func (c *Config) overrideWithEnv() {
	for env, dst := range map[string]*string{
		"TERMINAL_URL": &c.Venue.GatewayURL,
		"MT5_LOGIN":    &c.Venue.Login,
		"MT5_PASSWORD": &c.Venue.Password,
		"MT5_SERVER":   &c.Venue.Server,
		"DB_PATH":      &c.Ledger.DBPath,
		"JWT_SECRET":   &c.Auth.JWTSecret,
		"ADMIN_SECRET": &c.Auth.AdminSecret,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Venue.GatewayURL == "" {
		return fmt.Errorf("venue.gateway_url is required")
	}
	if c.Venue.Login == "" || c.Venue.Password == "" || c.Venue.Server == "" {
		return fmt.Errorf("venue credentials are incomplete: login, password, and server are all required")
	}
	if c.Ledger.DBPath == "" {
		return fmt.Errorf("ledger.db_path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error")
	}
	return nil
}

// Default returns a configuration with development defaults. Credentials and
// secrets have no defaults on purpose.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Venue:  VenueConfig{GatewayURL: "http://localhost:18812"},
		Ledger: LedgerConfig{DBPath: "./tradebridge.db"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
