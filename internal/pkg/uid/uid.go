// Package uid generates opaque string identifiers.
//
// Lock owner tokens and log correlation ids are taken from here so both can
// be swapped for deterministic values in tests.
package uid

// StringID produces unique string identifiers.
type StringID interface {
	Generate() string
}
