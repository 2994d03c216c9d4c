// Package uid generates identifiers for records and correlation IDs.
package uid

// NumberID generates sortable numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
