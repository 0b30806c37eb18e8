// Package inventory exposes admin reads and full replacements of stock,
// prices, distributor buckets and the store open flag.
package inventory

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/internal/catalog"
	"github.com/hostelmart/hostelmart-backend/internal/distributor"
	"github.com/hostelmart/hostelmart-backend/internal/state"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/types"
)

type stateStore interface {
	Update(ctx context.Context, fn func(*state.Snapshot) error) error
	View(fn func(*state.Snapshot))
}

// PriceKind selects the buy or sell price map.
type PriceKind string

const (
	BuyPrice  PriceKind = "buy"
	SellPrice PriceKind = "sell"
)

// Service defines inventory reads and admin replacements.
type Service interface {
	Stock(ctx context.Context) map[string]int
	ReplaceStock(ctx context.Context, stock map[string]types.Quantity) (map[string]int, error)
	Prices(ctx context.Context, kind PriceKind) (map[string]decimal.Decimal, error)
	ReplacePrices(ctx context.Context, kind PriceKind, prices map[string]decimal.Decimal) (map[string]decimal.Decimal, error)
	DistributorStock(ctx context.Context) map[string]map[string]int
	ReplaceDistributorStock(ctx context.Context, raw []byte) (map[string]map[string]int, error)
	StoreOpen(ctx context.Context) bool
	SetStoreOpen(ctx context.Context, open bool) (bool, error)
}

type service struct {
	store stateStore
	logg  *logger.Logger
}

// NewService wires the inventory service.
func NewService(store stateStore, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, logg: logg}, nil
}

func (s *service) Stock(ctx context.Context) map[string]int {
	var out map[string]int
	s.store.View(func(snap *state.Snapshot) {
		out = snap.Catalog.StockSnapshot()
	})
	return out
}

// ReplaceStock swaps the stock map wholesale. Counts must be whole numbers
// and may be negative. Buckets are renormalized against the new product set,
// so new products start at 0 and dropped products leave every bucket.
func (s *service) ReplaceStock(ctx context.Context, stock map[string]types.Quantity) (map[string]int, error) {
	if stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be an object of product counts")
	}
	next := make(map[string]int, len(stock))
	for name, qty := range stock {
		if !qty.Numeric || qty.Value != math.Trunc(qty.Value) || math.Abs(qty.Value) > math.MaxInt32 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock counts must be whole numbers").
				WithDetails(map[string]any{"item": name})
		}
		next[name] = qty.Int()
	}

	var out map[string]int
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		snap.Catalog.ReplaceStock(next)
		snap.Distributor = distributor.Normalize(snap.Distributor.Raw(), snap.Catalog.Products())
		out = snap.Catalog.StockSnapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "products", len(out)), "inventory.stock_replaced")
	return out, nil
}

func (s *service) Prices(ctx context.Context, kind PriceKind) (map[string]decimal.Decimal, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	var out map[string]decimal.Decimal
	s.store.View(func(snap *state.Snapshot) {
		out = catalog.CopyPrices(priceMap(snap.Catalog, kind))
	})
	return out, nil
}

func (s *service) ReplacePrices(ctx context.Context, kind PriceKind, prices map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	if prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must be an object of product prices")
	}
	for name, price := range prices {
		if price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative").
				WithDetails(map[string]any{"item": name})
		}
	}

	var out map[string]decimal.Decimal
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		switch kind {
		case BuyPrice:
			snap.Catalog.ReplaceBuyPrices(prices)
		case SellPrice:
			snap.Catalog.ReplaceSellPrices(prices)
		}
		out = catalog.CopyPrices(priceMap(snap.Catalog, kind))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"kind":     string(kind),
		"products": len(out),
	}), "inventory.prices_replaced")
	return out, nil
}

func (s *service) DistributorStock(ctx context.Context) map[string]map[string]int {
	var out map[string]map[string]int
	s.store.View(func(snap *state.Snapshot) {
		out = snap.Distributor.Raw()
	})
	return out
}

// ReplaceDistributorStock normalizes the posted document against the known
// products. Malformed input resets every bucket to zero.
func (s *service) ReplaceDistributorStock(ctx context.Context, raw []byte) (map[string]map[string]int, error) {
	parsed := distributor.ParseRaw(raw)
	var out map[string]map[string]int
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		snap.Distributor = distributor.Normalize(parsed, snap.Catalog.Products())
		out = snap.Distributor.Raw()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "inventory.distributor_replaced")
	return out, nil
}

func (s *service) StoreOpen(ctx context.Context) bool {
	var open bool
	s.store.View(func(snap *state.Snapshot) {
		open = snap.StoreOpen
	})
	return open
}

func (s *service) SetStoreOpen(ctx context.Context, open bool) (bool, error) {
	changed := false
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		if snap.StoreOpen == open {
			return state.ErrUnchanged
		}
		snap.StoreOpen = open
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.logg.Info(s.logg.WithField(ctx, "open", open), "store.status_changed")
	}
	return open, nil
}

func validKind(kind PriceKind) error {
	if kind != BuyPrice && kind != SellPrice {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown price kind")
	}
	return nil
}

func priceMap(cat *catalog.Catalog, kind PriceKind) map[string]decimal.Decimal {
	if kind == BuyPrice {
		return cat.BuyPrices
	}
	return cat.SellPrices
}
