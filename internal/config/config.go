package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

const DefaultTokenExpiration = 7 * 24 * time.Hour

type Config struct {
	DatabaseDSN     string
	ServerAddr      string
	SigningKey      []byte
	AllowedOrigins  []string
	TokenExpiration time.Duration
}

// EnvSettings is populated from CAMPUS_* environment variables and
// supplies the defaults for the command line flags.
type EnvSettings struct {
	Addr           string        `envconfig:"ADDR" default:"localhost:8000"`
	DSN            string        `envconfig:"DSN" default:"host=localhost user=postgres password=postgres dbname=campus sslmode=disable"`
	SigningKey     string        `envconfig:"SIGNING_KEY"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	Migrate        bool          `envconfig:"MIGRATE" default:"true"`
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("empty secret")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if len(allowedOrigins) == 0 {
		return nil, fmt.Errorf("at least one allowed origin is required")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		DatabaseDSN:     databaseDSN,
		ServerAddr:      serverAddr,
		SigningKey:      signingKey,
		AllowedOrigins:  allowedOrigins,
		TokenExpiration: DefaultTokenExpiration,
	}, nil
}
