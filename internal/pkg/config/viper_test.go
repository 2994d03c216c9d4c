package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: mailbite
  timeout: 15
jwt:
  ttl_minutes: 5
  secret_b64: bWFpbGJpdGU=
  bad_b64: "not base64!"
modules:
  email:
    consumer_names: " email.job.processor, ,other "
    template_vars:
      shop_name: Mailbite Store
      from_address: noreply@mailbite.local
`

func TestViperFromBytes(t *testing.T) {
	t.Parallel()

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "mailbite", cfg.GetString("app.name"))
	assert.Equal(t, 15*time.Second, cfg.GetSecond("app.timeout"))
	assert.Equal(t, 5*time.Minute, cfg.GetMinute("jwt.ttl_minutes"))
	assert.Equal(t, []byte("mailbite"), cfg.GetBinary("jwt.secret_b64"))
	assert.Nil(t, cfg.GetBinary("jwt.bad_b64"))
	assert.Equal(t, []string{"email.job.processor", "other"}, cfg.GetArray("modules.email.consumer_names"))
	assert.Empty(t, cfg.GetArray("modules.email.missing"))
	assert.Equal(t, map[string]string{
		"shop_name":    "Mailbite Store",
		"from_address": "noreply@mailbite.local",
	}, cfg.GetStringMap("modules.email.template_vars"))
}

func TestViperFromBytesRequiresType(t *testing.T) {
	t.Parallel()

	_, err := NewViperFromBytes(" ", nil)
	assert.Error(t, err)
}

func TestNewViper_EnvOverride(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	t.Setenv("MAILBITE_APP_NAME", "from-env")

	// Act
	cfg, err := NewViper(path, "MAILBITE")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GetString("app.name"))
	assert.Equal(t, 15*time.Second, cfg.GetSecond("app.timeout"))
	require.NoError(t, cfg.Close())
}
