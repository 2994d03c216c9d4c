package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper implements Config. Reads are safe while the file is being reloaded.
type Viper struct {
	v *viper.Viper
}

// NewViper loads the file at path and reloads it on change. With a
// non-empty envPrefix, PREFIX_SECTION_KEY overrides section.key, so
// MAILBITE_MAIL_PASSWORD sets mail.password.
func NewViper(path, envPrefix string) (*Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	bindEnv(v, envPrefix)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", path, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes reads data in the given format ("yaml", "json", ...).
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: type is required")
	}

	v := viper.New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func bindEnv(v *viper.Viper, prefix string) {
	if prefix == "" {
		return
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func (c *Viper) GetBool(key string) bool { return c.v.GetBool(key) }

func (c *Viper) GetInt(key string) int { return c.v.GetInt(key) }

func (c *Viper) GetInt32(key string) int32 { return c.v.GetInt32(key) }

func (c *Viper) GetInt64(key string) int64 { return c.v.GetInt64(key) }

func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

func (c *Viper) GetString(key string) string { return c.v.GetString(key) }

func (c *Viper) GetSecond(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * time.Second
}

func (c *Viper) GetMinute(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * time.Minute
}

func (c *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(c.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

func (c *Viper) GetArray(key string) []string {
	var out []string
	for part := range strings.SplitSeq(c.v.GetString(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Viper) GetStringMap(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// Close is a no-op; the file watcher lives as long as the process.
func (c *Viper) Close() error { return nil }

var _ Config = (*Viper)(nil)
