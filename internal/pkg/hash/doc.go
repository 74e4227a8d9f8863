// Package hash provides helpers for hashing and verifying secrets.
//
// Typical usage is for password hashing: store only the hash, then verify user
// input by comparing the plaintext against the stored hash. The PBKDF2
// implementation produces the "base64(salt)|base64(key)" form persisted by the
// credential store.
package hash
