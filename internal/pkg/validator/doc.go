// Package validator checks `validate` struct tags on usecase inputs and
// queued jobs. Violations come back keyed by snake_case field name with a
// translated English message, ready to return to API clients.
package validator
