// Package ledger manages admin-entered customer totals that override the
// computed report rows.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/internal/period"
	"github.com/hostelmart/hostelmart-backend/internal/state"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

type stateStore interface {
	Update(ctx context.Context, fn func(*state.Snapshot) error) error
	View(fn func(*state.Snapshot))
}

// Service defines operations on the manual customer ledger.
type Service interface {
	Upsert(ctx context.Context, input UpsertInput) (Entry, error)
	Delete(ctx context.Context, input DeleteInput) error
	List(ctx context.Context, scope, month string) (ListResult, error)
}

// UpsertInput captures one manual customer total.
type UpsertInput struct {
	Scope       string
	Month       string
	Name        string
	Room        string
	TotalSpent  decimal.Decimal
	OrdersCount int
}

// DeleteInput identifies the entry to remove.
type DeleteInput struct {
	Scope string
	Month string
	Name  string
	Room  string
}

// Entry is a ledger row as returned to admins.
type Entry struct {
	Key   string            `json:"key"`
	Scope enums.LedgerScope `json:"scope"`
	Month string            `json:"month,omitempty"`
	models.LedgerEntry
}

// ListResult is every entry for a scope (and month when scoped monthly).
type ListResult struct {
	Scope   enums.LedgerScope `json:"scope"`
	Month   string            `json:"month,omitempty"`
	Entries []Entry           `json:"entries"`
}

type service struct {
	store stateStore
	logg  *logger.Logger
	loc   *time.Location
	now   func() time.Time
}

// NewService wires a ledger service. A nil clock uses time.Now.
func NewService(store stateStore, logg *logger.Logger, loc *time.Location, clock func() time.Time) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{store: store, logg: logg, loc: loc, now: clock}, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (Entry, error) {
	scope, month, err := s.resolveScope(input.Scope, input.Month)
	if err != nil {
		return Entry{}, err
	}
	key, err := customerKey(input.Name, input.Room)
	if err != nil {
		return Entry{}, err
	}
	if input.TotalSpent.IsNegative() {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "totalSpent must not be negative")
	}
	if input.OrdersCount < 0 {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "ordersCount must not be negative")
	}

	entry := models.LedgerEntry{
		Name:        strings.TrimSpace(input.Name),
		Room:        strings.TrimSpace(input.Room),
		TotalSpent:  input.TotalSpent,
		OrdersCount: input.OrdersCount,
		UpdatedAt:   s.now().UTC(),
	}
	err = s.store.Update(ctx, func(snap *state.Snapshot) error {
		switch scope {
		case enums.LedgerScopeLifetime:
			if snap.Ledger.Lifetime == nil {
				snap.Ledger.Lifetime = map[string]models.LedgerEntry{}
			}
			snap.Ledger.Lifetime[key] = entry
		default:
			if snap.Ledger.Monthly == nil {
				snap.Ledger.Monthly = map[string]map[string]models.LedgerEntry{}
			}
			entries := snap.Ledger.Monthly[month]
			if entries == nil {
				entries = map[string]models.LedgerEntry{}
				snap.Ledger.Monthly[month] = entries
			}
			entries[key] = entry
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"scope": string(scope),
		"month": month,
		"key":   key,
	}), "ledger.upserted")
	return Entry{Key: key, Scope: scope, Month: month, LedgerEntry: entry}, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	scope, month, err := s.resolveScope(input.Scope, input.Month)
	if err != nil {
		return err
	}
	key, err := customerKey(input.Name, input.Room)
	if err != nil {
		return err
	}

	err = s.store.Update(ctx, func(snap *state.Snapshot) error {
		entries := snap.Ledger.Lifetime
		if scope == enums.LedgerScopeMonth {
			entries = snap.Ledger.Monthly[month]
		}
		if _, ok := entries[key]; !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found")
		}
		delete(entries, key)
		if scope == enums.LedgerScopeMonth && len(entries) == 0 {
			delete(snap.Ledger.Monthly, month)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"scope": string(scope),
		"month": month,
		"key":   key,
	}), "ledger.deleted")
	return nil
}

func (s *service) List(ctx context.Context, scope, month string) (ListResult, error) {
	resolved, resolvedMonth, err := s.resolveScope(scope, month)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{Scope: resolved, Month: resolvedMonth, Entries: []Entry{}}
	s.store.View(func(snap *state.Snapshot) {
		entries := snap.Ledger.Lifetime
		if resolved == enums.LedgerScopeMonth {
			entries = snap.Ledger.Monthly[resolvedMonth]
		}
		for key, entry := range entries {
			result.Entries = append(result.Entries, Entry{Key: key, Scope: resolved, Month: resolvedMonth, LedgerEntry: entry})
		}
	})
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].Key < result.Entries[j].Key
	})
	return result, nil
}

// resolveScope parses the scope and, for monthly entries, the month. An empty
// month means the current store-local month; a malformed one is rejected.
func (s *service) resolveScope(rawScope, rawMonth string) (enums.LedgerScope, string, error) {
	scope, err := enums.ParseLedgerScope(rawScope)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scope must be month or lifetime")
	}
	if scope == enums.LedgerScopeLifetime {
		return scope, "", nil
	}
	month := strings.TrimSpace(rawMonth)
	if month == "" {
		return scope, period.Month(s.now(), s.loc), nil
	}
	if !period.IsValidMonth(month) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "month must be YYYY-MM").
			WithDetails(map[string]any{"month": rawMonth})
	}
	return scope, month, nil
}

func customerKey(name, room string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(room) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "room is required")
	}
	return models.CustomerKey(name, room), nil
}
