/**
 * @description
 * Phone number normalization for Kenyan mobile-money destinations. Paystack
 * accepts either the international form (254...) or the local form (0...)
 * depending on the channel, so both are derived from whatever shape the
 * member supplied.
 */

package app

import "strings"

// NormalizedPhone holds both representations of a mobile-money number.
type NormalizedPhone struct {
	International string // 254712345678
	Local         string // 0712345678
}

// NormalizePhone converts a user-supplied phone number into its international
// and local forms. Input may carry a leading "+", "254", "0", or be a bare
// subscriber number.
func NormalizePhone(phone string) NormalizedPhone {
	cleaned := strings.TrimSpace(phone)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimPrefix(cleaned, "+")

	var international string
	switch {
	case strings.HasPrefix(cleaned, "254"):
		international = cleaned
	case strings.HasPrefix(cleaned, "0"):
		international = "254" + cleaned[1:]
	default:
		international = "254" + cleaned
	}

	var local string
	switch {
	case strings.HasPrefix(cleaned, "0"):
		local = cleaned
	case strings.HasPrefix(cleaned, "254"):
		local = "0" + cleaned[3:]
	default:
		local = "0" + cleaned
	}

	return NormalizedPhone{International: international, Local: local}
}
