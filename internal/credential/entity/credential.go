package entity

import (
	"errors"
	"strings"
)

// ErrCorruptRecord is returned by ParseLine for a line that is not exactly
// two colon separated fields.
var ErrCorruptRecord = errors.New("credential: corrupt record")

// Credential is one stored username and its encoded password hash.
type Credential struct {
	Username     string
	PasswordHash string
}

// Key is the identity of the record: the trimmed, lower-cased username.
func (c Credential) Key() string {
	return NormalizeUsername(c.Username)
}

// Matches reports whether username identifies this record.
func (c Credential) Matches(username string) bool {
	return c.Key() == NormalizeUsername(username)
}

// Line encodes the record as "username:hash" without a line ending.
func (c Credential) Line() string {
	return c.Username + ":" + c.PasswordHash
}

// NormalizeUsername returns the identity form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ParseLine decodes one "username:hash" line. A trailing carriage return is
// ignored.
func ParseLine(line string) (Credential, error) {
	line = strings.TrimRight(line, "\r")

	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return Credential{}, ErrCorruptRecord
	}

	return Credential{Username: parts[0], PasswordHash: parts[1]}, nil
}

// ScanResult is the outcome of reading every line of a store.
type ScanResult struct {
	// Credentials holds the well-formed records in store order.
	Credentials []Credential
	// Corrupt counts non-blank lines that were dropped.
	Corrupt int
}

// ParseLines decodes lines, skipping blank ones and counting corrupt ones.
func ParseLines(lines []string) ScanResult {
	res := ScanResult{Credentials: make([]Credential, 0, len(lines))}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c, err := ParseLine(line)
		if err != nil {
			res.Corrupt++
			continue
		}
		res.Credentials = append(res.Credentials, c)
	}
	return res
}

// EncodeLines renders creds as newline terminated lines.
func EncodeLines(creds []Credential) []byte {
	var b strings.Builder
	for _, c := range creds {
		b.WriteString(c.Line())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// DecodeLines parses a whole store body.
func DecodeLines(data []byte) ScanResult {
	return ParseLines(strings.Split(string(data), "\n"))
}
