package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
server:
  addr: ":9090"
venue:
  gateway_url: http://localhost:18812
  login: "12345"
  password: hunter2
  server: Broker-Demo
  serialize_operations: true
ledger:
  db_path: /tmp/test.db
auth:
  jwt_secret: sekrit
  admin_secret: admin
`

func TestLoadFromFileYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", validYAML)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "12345", cfg.Venue.Login)
	assert.Equal(t, "Broker-Demo", cfg.Venue.Server)
	assert.True(t, cfg.Venue.SerializeOperations)
	assert.Equal(t, "/tmp/test.db", cfg.Ledger.DBPath)
	assert.Equal(t, "sekrit", cfg.Auth.JWTSecret)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"server": {"addr": ":8080"},
		"venue": {"gateway_url": "http://localhost:1", "login": "l", "password": "p", "server": "s"},
		"ledger": {"db_path": "x.db"},
		"auth": {"jwt_secret": "k"}
	}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "l", cfg.Venue.Login)
}

func TestMissingCredentialsIsFatal(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
venue:
  gateway_url: http://localhost:18812
  login: "12345"
ledger:
  db_path: x.db
auth:
  jwt_secret: k
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("MT5_PASSWORD", "from-env")
	t.Setenv("JWT_SECRET", "env-secret")

	path := writeConfig(t, "config.yaml", validYAML)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Venue.Password)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	// Untouched fields keep their file values.
	assert.Equal(t, "12345", cfg.Venue.Login)
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Venue.Login, cfg.Venue.Password, cfg.Venue.Server = "l", "p", "s"
	cfg.Auth.JWTSecret = "k"

	cfg.Logging.Level = "verbose"
	require.Error(t, cfg.Validate())

	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Validate())
}
