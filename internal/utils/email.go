package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Registration email errors, mapped to 400 responses by the auth handler.
var (
	ErrInvalidEmail   = errors.New("invalid email format")
	ErrNotSchoolEmail = errors.New("email must belong to the school domain")
)

// ValidateSchoolEmail checks that the address is well-formed and that its
// domain ends with the institutional suffix (e.g. "msu.edu", which also
// admits subdomains like "egr.msu.edu").
func ValidateSchoolEmail(email, domain string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ErrInvalidEmail
	}
	host := strings.ToLower(parts[1])
	want := strings.ToLower(domain)
	if host != want && !strings.HasSuffix(host, "."+want) {
		return ErrNotSchoolEmail
	}
	return nil
}

// GenerateVerificationCode returns a random 6-digit code for email
// verification.
func GenerateVerificationCode() (string, error) {
	// 100000..999999 inclusive
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
