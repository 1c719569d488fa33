package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_DefaultsAndFile(t *testing.T) {
	t.Setenv("SMILES_JWT_SECRET", "test-secret")

	path := writeConfig(t, `
server:
  port: 9090
database:
  host: db.internal
  name: smiles
email:
  batch_pause: 250ms
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "Africa/Johannesburg", cfg.Clinic.Timezone)
	assert.Equal(t, 250*time.Millisecond, cfg.Email.BatchPause)
	assert.Equal(t, "stub", cfg.Email.Provider)
	assert.Equal(t, "demo", cfg.Storage.Provider)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Contains(t, cfg.CORS.AllowedHeaders, "X-Client-ID")
}

func TestLoadConfig_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("SMILES_JWT_SECRET", "from-env")
	t.Setenv("SMILES_DB_PASSWORD", "hunter2")
	t.Setenv("SMILES_SENDGRID_API_KEY", "SG.key")
	t.Setenv("SMILES_REDIS_URL", "redis://cache:6379/1")

	path := writeConfig(t, `
jwt:
  secret: from-file
database:
  password: file-password
email:
  provider: sendgrid
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "hunter2", cfg.Database.Password)
	assert.Equal(t, "SG.key", cfg.Email.SendGrid.APIKey)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{
			name: "missing jwt secret",
			body: "server:\n  port: 8080\n",
		},
		{
			name: "unknown timezone",
			body: "clinic:\n  timezone: Mars/Olympus\n",
			env:  map[string]string{"SMILES_JWT_SECRET": "s"},
		},
		{
			name: "sendgrid without key",
			body: "email:\n  provider: sendgrid\n",
			env:  map[string]string{"SMILES_JWT_SECRET": "s"},
		},
		{
			name: "s3 without bucket",
			body: "storage:\n  provider: s3\n",
			env:  map[string]string{"SMILES_JWT_SECRET": "s"},
		},
		{
			name: "unknown email provider",
			body: "email:\n  provider: pigeon\n",
			env:  map[string]string{"SMILES_JWT_SECRET": "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SMILES_JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSNAndURL(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", c.URL())
}

func TestLoadConfig_AuthAndBooking(t *testing.T) {
	t.Setenv("SMILES_JWT_SECRET", "s")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Auth.DemoEnabled)
	assert.Equal(t, time.Minute, cfg.Auth.SessionCacheTTL)
	assert.Equal(t, 10000, cfg.Booking.MaxOpenWizards)

	cfg, err = LoadConfig(writeConfig(t, `
auth:
  demo_enabled: true
  session_cache_ttl: 15s
booking:
  max_open_wizards: 50
`))
	require.NoError(t, err)
	assert.True(t, cfg.Auth.DemoEnabled)
	assert.Equal(t, 15*time.Second, cfg.Auth.SessionCacheTTL)
	assert.Equal(t, 50, cfg.Booking.MaxOpenWizards)
}
