package ledger

import (
	"fmt"
	"strings"
)

const (
	accountNumberPrefix = "VB-"
	maxSequence         = 999_999_999_999_999
)

// AccountNumber derives a 16 digit account number from a store sequence.
// The first 15 digits are the zero padded sequence, the last is a Luhn check
// digit, rendered in groups of four.
func AccountNumber(seq int64) (string, error) {
	if seq < 1 || seq > maxSequence {
		return "", fmt.Errorf("account sequence %d out of range", seq)
	}
	payload := fmt.Sprintf("%015d", seq)
	digits := payload + string(rune('0'+luhnCheckDigit(payload)))

	var b strings.Builder
	b.WriteString(accountNumberPrefix)
	for i := 0; i < len(digits); i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(digits[i : i+4])
	}
	return b.String(), nil
}

// ValidAccountNumber reports whether s is well formed and its check digit matches.
func ValidAccountNumber(s string) bool {
	if !strings.HasPrefix(s, accountNumberPrefix) {
		return false
	}
	digits := strings.ReplaceAll(strings.TrimPrefix(s, accountNumberPrefix), "-", "")
	if len(digits) != 16 || len(s) != len(accountNumberPrefix)+19 {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return luhnCheckDigit(digits[:15]) == int(digits[15]-'0')
}

func luhnCheckDigit(payload string) int {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}
