package config

import (
	"os"
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	var (
		addr = "localhost:8080"
		dsn  = "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"
		key  = "c29tZV9zZWNyZXQ="
		orig = []string{"http://localhost:5173"}
	)

	tcases := []struct {
		name string
		addr string
		dsn  string
		key  string
		orig []string
		err  bool
	}{
		{
			name: "valid config",
			addr: addr,
			dsn:  dsn,
			key:  key,
			orig: orig,
		},
		{
			name: "empty address",
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty DSN",
			addr: addr,
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty signing key",
			addr: addr,
			dsn:  dsn,
			orig: orig,
			err:  true,
		},
		{
			name: "no allowed origins",
			addr: addr,
			dsn:  dsn,
			key:  key,
			err:  true,
		},
		{
			name: "signing key not base64",
			addr: addr,
			dsn:  dsn,
			key:  "not base64!",
			orig: orig,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := NewConfig(tc.addr, tc.dsn, tc.key, tc.orig)
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			require.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, tc.addr, config.ServerAddr, "expected server address to match")
			assert.Equal(t, tc.dsn, config.DatabaseDSN, "expected database DSN to match")
			assert.Equal(t, tc.orig, config.AllowedOrigins, "expected allowed origins to match")
			assert.Equal(t, []byte("some_secret"), config.SigningKey, "expected signing key to be decoded")
			assert.Equal(t, DefaultTokenExpiration, config.TokenExpiration)
		})
	}
}

func Test_decodeSigningKey(t *testing.T) {
	tcases := []struct {
		name         string
		base64Secret string
		expectedKey  []byte
		expectError  bool
	}{
		{
			name:         "valid base64 secret",
			base64Secret: "c29tZV9zZWNyZXQ=",
			expectedKey:  []byte("some_secret"),
		},
		{
			name:         "invalid base64 secret",
			base64Secret: "invalid_base64",
			expectError:  true,
		},
		{
			name:         "empty base64 secret",
			base64Secret: "",
			expectError:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := decodeSigningSecret(tc.base64Secret)
			if tc.expectError {
				assert.Error(t, err, "expected error for base64 secret: %s", tc.base64Secret)
				return
			}
			assert.NoError(t, err, "expected no error for base64 secret: %s", tc.base64Secret)
			assert.Equal(t, tc.expectedKey, key, "expected decoded key to match for base64 secret: %s", tc.base64Secret)
		})
	}
}

func TestEnvSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("CAMPUS_ADDR")
		os.Unsetenv("CAMPUS_ALLOWED_ORIGINS")
		os.Unsetenv("CAMPUS_TOKEN_TTL")
		os.Unsetenv("CAMPUS_MIGRATE")

		var env EnvSettings
		require.NoError(t, envconfig.Process("campus", &env))
		assert.Equal(t, "localhost:8000", env.Addr)
		assert.Equal(t, []string{"http://localhost:5173"}, env.AllowedOrigins)
		assert.Equal(t, 7*24*time.Hour, env.TokenTTL)
		assert.True(t, env.Migrate)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CAMPUS_ADDR", ":9000")
		t.Setenv("CAMPUS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
		t.Setenv("CAMPUS_TOKEN_TTL", "1h")
		t.Setenv("CAMPUS_MIGRATE", "false")

		var env EnvSettings
		require.NoError(t, envconfig.Process("campus", &env))
		assert.Equal(t, ":9000", env.Addr)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.AllowedOrigins)
		assert.Equal(t, time.Hour, env.TokenTTL)
		assert.False(t, env.Migrate)
	})
}
