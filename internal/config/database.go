package config

import (
	"fmt"
	"strconv"

	"github.com/onboardkit/harness/internal/db"
)

// Database environment variables
const (
	EnvDBHost     = "DB_HOST"
	EnvDBPort     = "DB_PORT"
	EnvDBUser     = "DB_USER"
	EnvDBPassword = "DB_PASSWORD"
	EnvDBName     = "DB_NAME"
	EnvDBSSLMode  = "DB_SSL_MODE"
)

// DatabaseConfig represents the connection settings of the seed database
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// NewDatabaseConfig reads the database configuration from the environment,
// falling back to the db package defaults
func NewDatabaseConfig() (*DatabaseConfig, error) {
	port, err := strconv.Atoi(GetEnv(EnvDBPort, strconv.Itoa(db.DefaultPort)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvDBPort, err)
	}
	cfg := &DatabaseConfig{
		Host:     GetEnv(EnvDBHost, db.DefaultHost),
		Port:     port,
		User:     GetEnv(EnvDBUser, db.DefaultUser),
		Password: GetEnv(EnvDBPassword, db.DefaultPassword),
		Name:     GetEnv(EnvDBName, db.DefaultDBName),
		SSLMode:  GetEnv(EnvDBSSLMode, "disable"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase loads .env and reads the database configuration
func LoadDatabase() (*DatabaseConfig, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return NewDatabaseConfig()
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.Name == "" {
		return fmt.Errorf("database name is required")
	}
	switch c.SSLMode {
	case "disable", "require":
	default:
		return fmt.Errorf("unsupported ssl mode: %s", c.SSLMode)
	}
	return nil
}

// Options converts the configuration to db connection options
func (c *DatabaseConfig) Options() db.Options {
	ssl := c.SSLMode == "require"
	return db.Options{
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		DBName:     c.Name,
		SSLEnabled: &ssl,
	}
}

// GetEnvironmentVars returns the environment variables describing this configuration
func (c *DatabaseConfig) GetEnvironmentVars() map[string]string {
	return map[string]string{
		EnvDBHost:     c.Host,
		EnvDBPort:     strconv.Itoa(c.Port),
		EnvDBUser:     c.User,
		EnvDBPassword: c.Password,
		EnvDBName:     c.Name,
		EnvDBSSLMode:  c.SSLMode,
	}
}
