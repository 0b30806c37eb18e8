// Package state owns the in-memory shop snapshot. Every read and mutation
// goes through State so handlers never touch the shared maps directly.
package state

import (
	"github.com/hostelmart/hostelmart-backend/internal/catalog"
	"github.com/hostelmart/hostelmart-backend/internal/distributor"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

// Snapshot is the complete mutable shop state. It is persisted wholesale.
type Snapshot struct {
	Catalog       *catalog.Catalog
	Distributor   distributor.Stock
	Orders        []*models.Order
	Ledger        models.CustomerLedger
	StoreOpen     bool
	Subscriptions []models.PushSubscription
}

// NewSnapshot returns the first-boot state: default catalog, empty buckets, store open.
func NewSnapshot() *Snapshot {
	cat := catalog.Default()
	return &Snapshot{
		Catalog:     cat,
		Distributor: distributor.Normalize(nil, cat.Products()),
		Orders:      []*models.Order{},
		Ledger:      models.NewCustomerLedger(),
		StoreOpen:   true,
	}
}

// FindOrder returns the order with the given id, or nil.
func (s *Snapshot) FindOrder(id int64) *models.Order {
	for i := len(s.Orders) - 1; i >= 0; i-- {
		if s.Orders[i].ID == id {
			return s.Orders[i]
		}
	}
	return nil
}

// LastOrderID returns the largest id in the log, zero when empty.
func (s *Snapshot) LastOrderID() int64 {
	var last int64
	for _, order := range s.Orders {
		if order.ID > last {
			last = order.ID
		}
	}
	return last
}

// CloneOrders deep-copies the order log.
func (s *Snapshot) CloneOrders() []models.Order {
	out := make([]models.Order, 0, len(s.Orders))
	for _, order := range s.Orders {
		out = append(out, order.Clone())
	}
	return out
}
