package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
)

// ErrScanValueNotBytes indicates the database value is not JSON text.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// RedactedValue replaces secret values in a redacted copy.
const RedactedValue = "[REDACTED]"

// JSONMap is a JSON object stored in a jsonb column. Template variables of
// email jobs travel and persist in this shape.
// @swaggertype object
type JSONMap map[string]any

// Value stores a nil map as an empty object so NOT NULL jsonb columns accept it.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = v
	default:
		return fmt.Errorf("%w: got %T", ErrScanValueNotBytes, value)
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out
	return nil
}

// Merge returns a new map holding j overlaid with each of others in order.
// Neither j nor others is modified.
func (j JSONMap) Merge(others ...map[string]any) JSONMap {
	out := make(JSONMap, len(j))
	maps.Copy(out, j)
	for _, o := range others {
		maps.Copy(out, o)
	}
	return out
}

// Redacted returns a copy in which every top-level value whose key matches
// secret is replaced by RedactedValue.
func (j JSONMap) Redacted(secret func(key string) bool) JSONMap {
	out := make(JSONMap, len(j))
	for k, v := range j {
		if secret(k) {
			v = RedactedValue
		}
		out[k] = v
	}
	return out
}

// SecretKey reports keys that conventionally hold one-time secrets, such
// as verificationToken or passwordResetToken.
func SecretKey(key string) bool {
	k := strings.ToLower(key)
	return strings.HasSuffix(k, "token") || (strings.Contains(k, "password") && !strings.HasSuffix(k, "url"))
}
