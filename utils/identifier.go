package utils

import (
	"errors"
	"regexp"
	"strings"
)

// Identifier kinds accepted by the OTP flow.
const (
	IdentifierEmail = "email"
	IdentifierPhone = "phone"
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRegex = regexp.MustCompile(`^([+]?[\s0-9]+)?(\d{3}|[(]?[0-9]+[)])?([-]?[\s]?[0-9])+$`)
)

// NormalizeIdentifier validates the email/phone pair from a sign-in request
// and returns the canonical identifier with its kind. Exactly one of the two
// must be provided.
func NormalizeIdentifier(email, phone string) (identifier, kind string, err error) {
	email = strings.TrimSpace(strings.ToLower(email))
	phone = strings.TrimSpace(phone)

	switch {
	case email != "" && phone != "":
		return "", "", errors.New("provide either an email or a phone number, not both")
	case email != "":
		if !emailRegex.MatchString(email) {
			return "", "", errors.New("invalid email address")
		}
		return email, IdentifierEmail, nil
	case phone != "":
		if !phoneRegex.MatchString(phone) {
			return "", "", errors.New("invalid phone number format")
		}
		return strings.ReplaceAll(strings.ReplaceAll(phone, " ", ""), "-", ""), IdentifierPhone, nil
	default:
		return "", "", errors.New("an email or a phone number is required")
	}
}
