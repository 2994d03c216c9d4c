package entity

import (
	"strings"

	"github.com/shandysiswandi/mailbite/internal/pkg/goerror"
)

// Kind is an entity an email can be resent from.
type Kind string

const (
	KindOrder    Kind = "Order"
	KindCustomer Kind = "Customer"
)

var kinds = []Kind{KindOrder, KindCustomer}

// ErrInvalidEntityType is returned for entity types outside the registry.
var ErrInvalidEntityType = goerror.NewInvalidInput(nil, "entity_type", "invalid entity type")

func (k Kind) String() string {
	return string(k)
}

// ParseKind matches s case-insensitively against the supported kinds.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", ErrInvalidEntityType
}

// Kinds lists the supported entity kinds.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}
