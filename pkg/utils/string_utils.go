package utils

import (
	"regexp"
	"strings"
)

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Turkish mobile numbers: optional +90 or 0 prefix, then 5 and nine digits.
var mobilePhoneRegex = regexp.MustCompile(`^(\+90|0)?(5\d{9})$`)

// NormalizePhone strips separators and returns the number as 5XXXXXXXXX.
// ok is false when the input is not a mobile number.
func NormalizePhone(phone string) (normalized string, ok bool) {
	m := mobilePhoneRegex.FindStringSubmatch(phoneSeparators.Replace(strings.TrimSpace(phone)))
	if m == nil {
		return "", false
	}
	return m[2], true
}
