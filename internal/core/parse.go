// Package core provides the receipt domain model and the allocation engine.
//
// This file contains parsing of detected price and percent text. Detected
// text comes from an OCR-style analysis service and is noisy: currency
// symbols, thousand separators and stray characters are common.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice extracts a decimal cost from detected price text by dropping
// every rune that is not a digit or a decimal point, then parsing the rest.
//
// Examples:
//
//	ParsePrice("$12.50 USD") -> 12.50, nil
//	ParsePrice("1,234.56")   -> 1234.56, nil
//	ParsePrice("N/A")        -> 0, ErrInvalidPrice
func ParsePrice(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, ErrInvalidPrice
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	if v < 0 {
		return 0, ErrNegativeCost
	}
	return v, nil
}

// ParsePercent parses a tax percentage such as "9%" or "21.0 %".
// A trailing percent sign is optional.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPercent
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidPercent
	}
	if v < 0 {
		return 0, ErrInvalidPercent
	}
	return v, nil
}
