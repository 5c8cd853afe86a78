package service

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^(\+?91|0)?[6-9][0-9]{9}$`)

// ValidPincode reports whether s is a six-digit Indian postal code
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(s)
}

// ValidPhone reports whether s is an Indian mobile number, with or without
// the +91 or 0 prefix. Spaces and hyphens are ignored.
func ValidPhone(s string) bool {
	compact := strings.NewReplacer(" ", "", "-", "").Replace(s)
	return phonePattern.MatchString(compact)
}

// NormalizePhone reduces a phone number to its last ten digits so that
// "+91 98765-43210" and "9876543210" compare equal
func NormalizePhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}
