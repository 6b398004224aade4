// Package validation provides the pure field-validation predicates used to
// gate form submission before any provider call is made. All functions are
// stateless and never return errors for invalid input.
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[1-9][0-9]{1,15}$`)
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	whitespace = regexp.MustCompile(`\s`)
)

// IsValidEmail reports whether s has a plausible local@domain.tld shape.
// It is deliberately not a full RFC 5322 validator: exotic but valid
// addresses may be rejected, obviously malformed strings never pass.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsValidPhoneNumber reports whether s, after stripping internal whitespace,
// is an optional leading + followed by 2-16 digits with a non-zero lead.
func IsValidPhoneNumber(s string) bool {
	return phoneRegex.MatchString(whitespace.ReplaceAllString(s, ""))
}

// IsValidURL reports whether s parses as an absolute URL carrying both a
// scheme and an authority component. A bare "ftp://" fails.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// IsRequired reports whether v counts as a present form value. Strings must
// have non-empty trimmed content; numbers and booleans are always present
// (including 0 and false); nil is absent.
func IsRequired(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(value) != ""
	case bool:
		return true
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// HasMinLength reports whether s has at least n characters (untrimmed).
func HasMinLength(s string, n int) bool {
	return utf8.RuneCountInString(s) >= n
}

// HasMaxLength reports whether s has at most n characters (untrimmed).
func HasMaxLength(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

// IsInRange reports whether lo <= x <= hi.
func IsInRange(x, lo, hi float64) bool {
	return x >= lo && x <= hi
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// IsValidDate reports whether s parses to a real calendar date. Strings with
// a plausible format but an out-of-range month or day (2023-02-30) fail.
func IsValidDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// IsValidCreditCard reports whether s passes the Luhn checksum after internal
// whitespace is stripped. Any remaining non-digit character fails.
func IsValidCreditCard(s string) bool {
	clean := whitespace.ReplaceAllString(s, "")
	if !digitsOnly.MatchString(clean) {
		return false
	}

	sum := 0
	double := false
	for i := len(clean) - 1; i >= 0; i-- {
		digit := int(clean[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}
