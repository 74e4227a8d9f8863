package usecase

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	pwUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwLower  = "abcdefghijkmnopqrstuvwxyz"
	pwDigit  = "23456789"
	pwSymbol = "!#$%&*+-=?@^_"

	minPasswordLength = 8
)

var errPasswordTooShort = errors.New("generated password length must be at least 8")

// generatePassword returns a random password holding at least one upper,
// lower, digit and symbol character.
func generatePassword(length int) (string, error) {
	if length < minPasswordLength {
		return "", errPasswordTooShort
	}

	classes := []string{pwUpper, pwLower, pwDigit, pwSymbol}
	all := pwUpper + pwLower + pwDigit + pwSymbol

	out := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed characters are not always first
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
