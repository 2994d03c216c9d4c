// Package config reads service settings from a YAML file, with environment
// variables taking precedence.
package config

import (
	"io"
	"time"
)

// Config is a read-only view of the settings. Missing keys yield zero
// values; callers apply their own defaults.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetSecond and GetMinute read an integer count of that unit.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a base64 value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray splits a comma separated value, trimming each element and
	// dropping empty ones.
	GetArray(key string) []string

	// GetStringMap returns a nested section as a flat map. Keys come back
	// lowercased, e.g.
	//
	//	template_vars:
	//	  shop_name: Mailbite Store
	GetStringMap(key string) map[string]string
}
