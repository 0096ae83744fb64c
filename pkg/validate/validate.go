// Package validate holds the stateless input checks used at entity
// boundaries: Israeli national-ID checksums and formatting.
package validate

import "strings"

// cleanID strips spaces and hyphens from a candidate ID number.
func cleanID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidIsraeliID reports whether id passes the standard Israeli national-ID
// checksum: 9 digits, digits at odd 0-based positions doubled (minus 9 when
// the doubling exceeds 9), total divisible by 10. Total function: any
// malformed input yields false, never an error.
func ValidIsraeliID(id string) bool {
	s := cleanID(id)
	if len(s) != 9 || !allDigits(s) {
		return false
	}
	sum := 0
	for i, r := range s {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// FormatIDNumber renders a 9-digit ID as XXX-XX-XXXX. Anything else is
// returned cleaned but otherwise unchanged.
func FormatIDNumber(id string) string {
	s := cleanID(id)
	if len(s) != 9 || !allDigits(s) {
		return s
	}
	return s[:3] + "-" + s[3:5] + "-" + s[5:]
}
