package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRules(t *testing.T) {
	t.Parallel()

	// Arrange
	entries := []string{"email-admin:email:*", " email-support : email : read ", "", "broken:email", "42:email-admin"}

	// Act
	policies := splitRules(entries, 3)
	roles := splitRules(entries, 2)

	// Assert
	assert.Equal(t, [][]string{
		{"email-admin", "email", "*"},
		{"email-support", "email", "read"},
	}, policies)
	assert.Equal(t, [][]string{
		{"broken", "email"},
		{"42", "email-admin"},
	}, roles)
}
