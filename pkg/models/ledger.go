package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is an admin-entered customer total that replaces the computed one.
type LedgerEntry struct {
	Name        string          `json:"name"`
	Room        string          `json:"room"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	OrdersCount int             `json:"ordersCount"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CustomerLedger holds manual overrides keyed by normalized customer key.
// Monthly entries are grouped by YYYY-MM.
type CustomerLedger struct {
	Monthly  map[string]map[string]LedgerEntry `json:"monthly"`
	Lifetime map[string]LedgerEntry            `json:"lifetime"`
}

// NewCustomerLedger returns an empty ledger with initialized maps.
func NewCustomerLedger() CustomerLedger {
	return CustomerLedger{
		Monthly:  map[string]map[string]LedgerEntry{},
		Lifetime: map[string]LedgerEntry{},
	}
}

// CustomerKey normalizes a customer identity: lowercased trimmed name and trimmed room.
func CustomerKey(name, room string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.TrimSpace(room)
}
