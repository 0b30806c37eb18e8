package enums

import (
	"fmt"
	"strings"
)

// LedgerScope selects which manual customer ledger an entry belongs to.
type LedgerScope string

const (
	LedgerScopeMonth    LedgerScope = "month"
	LedgerScopeLifetime LedgerScope = "lifetime"
)

// String implements fmt.Stringer.
func (s LedgerScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LedgerScope.
func (s LedgerScope) IsValid() bool {
	return s == LedgerScopeMonth || s == LedgerScopeLifetime
}

// ParseLedgerScope converts raw input into a LedgerScope; empty input means month.
func ParseLedgerScope(value string) (LedgerScope, error) {
	normalized := LedgerScope(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return LedgerScopeMonth, nil
	}
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid ledger scope %q", value)
}
