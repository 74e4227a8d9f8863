// Package clock provides a tiny time abstraction.
//
// Backup object keys are derived from the current time; callers take a
// Clocker so tests can pin that time with Fixed.
package clock
