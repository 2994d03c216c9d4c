package uid

import "github.com/google/uuid"

// UUID generates version 7 UUIDs. They are time ordered, so correlation
// IDs and broker message IDs sort by creation.
type UUID struct{}

func NewUUID() UUID { return UUID{} }

// Generate falls back to a random v4 UUID when the v7 clock read fails.
func (UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
