package utils

import (
	"fmt"
	"strings"
)

// ErrInvalidSymbol reports a ticker symbol that failed validation.
type ErrInvalidSymbol struct {
	Symbol string
	Reason string
}

func (e *ErrInvalidSymbol) Error() string {
	return fmt.Sprintf("invalid symbol %q: %s", e.Symbol, e.Reason)
}

// NormalizeSymbol validates a user-input ticker and returns its canonical
// form: trimmed, uppercased, 1-5 alphabetic characters. Anything outside
// A-Z after trimming is rejected.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.TrimSpace(symbol)
	s = strings.ToUpper(s)

	if s == "" {
		return "", &ErrInvalidSymbol{Symbol: symbol, Reason: "empty"}
	}
	if len(s) > 5 {
		return "", &ErrInvalidSymbol{Symbol: symbol, Reason: "longer than 5 characters"}
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", &ErrInvalidSymbol{Symbol: symbol, Reason: "must contain only letters"}
		}
	}
	return s, nil
}

// IsValidSymbol reports whether the ticker would pass NormalizeSymbol.
func IsValidSymbol(symbol string) bool {
	_, err := NormalizeSymbol(symbol)
	return err == nil
}
