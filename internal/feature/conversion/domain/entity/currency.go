package entity

import (
	"slices"
	"strings"
)

// SupportedBases are the base currencies exposed as commands (/eur, /usd, ...).
var SupportedBases = []string{"EUR", "USD", "AED", "PLN", "RUB"}

// IsSupportedBase reports whether code (any case) is one of SupportedBases.
func IsSupportedBase(code string) bool {
	return slices.Contains(SupportedBases, strings.ToUpper(code))
}
