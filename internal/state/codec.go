package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/internal/catalog"
	"github.com/hostelmart/hostelmart-backend/internal/distributor"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
	"github.com/hostelmart/hostelmart-backend/pkg/types"
)

// TimeLayout renders the human-readable order time in the store timezone.
const TimeLayout = "02/01/2006, 3:04:05 pm"

type document struct {
	Stock             map[string]int             `json:"stock"`
	BuyPrices         map[string]decimal.Decimal `json:"buyPrice"`
	SellPrices        map[string]decimal.Decimal `json:"sellPrice"`
	Orders            []*models.Order            `json:"orders"`
	DistributorStock  map[string]map[string]int  `json:"distributorStock"`
	CustomerLedger    models.CustomerLedger      `json:"manualCustomerSpend"`
	StoreOpen         bool                       `json:"storeOpen"`
	PushSubscriptions []models.PushSubscription  `json:"pushSubscriptions"`
}

// storedDocument is the permissive read side of document. Every field is
// optional so snapshots written by older releases still load.
type storedDocument struct {
	Stock             map[string]int             `json:"stock"`
	BuyPrices         map[string]decimal.Decimal `json:"buyPrice"`
	SellPrices        map[string]decimal.Decimal `json:"sellPrice"`
	Orders            []storedOrder              `json:"orders"`
	DistributorStock  json.RawMessage            `json:"distributorStock"`
	CustomerLedger    *models.CustomerLedger     `json:"manualCustomerSpend"`
	StoreOpen         *bool                      `json:"storeOpen"`
	PushSubscriptions []models.PushSubscription  `json:"pushSubscriptions"`
}

type storedOrder struct {
	ID                       int64             `json:"id"`
	Name                     types.LooseString `json:"name"`
	Room                     types.LooseString `json:"room"`
	Hostel                   types.LooseString `json:"hostel"`
	Mode                     string            `json:"mode"`
	Items                    []storedItem      `json:"items"`
	DeliveryCharge           *decimal.Decimal  `json:"deliveryCharge"`
	Total                    *decimal.Decimal  `json:"total"`
	Profit                   *decimal.Decimal  `json:"profit"`
	Status                   string            `json:"status"`
	Time                     string            `json:"time"`
	CreatedAt                *time.Time        `json:"createdAt"`
	AcceptedAt               *time.Time        `json:"acceptedAt"`
	CancelledAt              *time.Time        `json:"cancelledAt"`
	AdjustedAt               *time.Time        `json:"adjustedAt"`
	CollectFromRoom          string            `json:"collectFromRoom"`
	ExcludeFromCustomerStats bool              `json:"excludeFromCustomerStats"`
	ExcludeFromProfitStats   bool              `json:"excludeFromProfitStats"`
}

type storedItem struct {
	Name             string           `json:"name"`
	Qty              types.Quantity   `json:"qty"`
	Price            *decimal.Decimal `json:"price"`
	SellPriceAtOrder *decimal.Decimal `json:"sellPriceAtOrder"`
	BuyPriceAtOrder  *decimal.Decimal `json:"buyPriceAtOrder"`
}

// Encode serialises a snapshot into the persisted document.
func Encode(snap *Snapshot) ([]byte, error) {
	doc := document{
		Stock:             snap.Catalog.Stock,
		BuyPrices:         snap.Catalog.BuyPrices,
		SellPrices:        snap.Catalog.SellPrices,
		Orders:            snap.Orders,
		DistributorStock:  snap.Distributor.Raw(),
		CustomerLedger:    snap.Ledger,
		StoreOpen:         snap.StoreOpen,
		PushSubscriptions: snap.Subscriptions,
	}
	if doc.Orders == nil {
		doc.Orders = []*models.Order{}
	}
	if doc.PushSubscriptions == nil {
		doc.PushSubscriptions = []models.PushSubscription{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}

// DecodeResult carries the decoded snapshot and how many orders needed backfill.
type DecodeResult struct {
	Snapshot         *Snapshot
	BackfilledOrders int
}

// Decode parses a persisted document. Missing sections fall back to the
// first-boot defaults and legacy orders are backfilled once here.
func Decode(payload []byte, loc *time.Location) (DecodeResult, error) {
	var doc storedDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return DecodeResult{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	defaults := catalog.Default()
	cat := &catalog.Catalog{Stock: doc.Stock, BuyPrices: doc.BuyPrices, SellPrices: doc.SellPrices}
	if cat.Stock == nil {
		cat.Stock = defaults.Stock
	}
	if cat.SellPrices == nil {
		cat.SellPrices = defaults.SellPrices
	}
	if cat.BuyPrices == nil {
		cat.BuyPrices = defaults.BuyPrices
	}
	cat.EnsureMaps()

	snap := &Snapshot{
		Catalog:       cat,
		Distributor:   distributor.Normalize(distributor.ParseRaw(doc.DistributorStock), cat.Products()),
		Orders:        make([]*models.Order, 0, len(doc.Orders)),
		Ledger:        models.NewCustomerLedger(),
		StoreOpen:     true,
		Subscriptions: doc.PushSubscriptions,
	}
	if doc.CustomerLedger != nil {
		if doc.CustomerLedger.Monthly != nil {
			snap.Ledger.Monthly = doc.CustomerLedger.Monthly
		}
		if doc.CustomerLedger.Lifetime != nil {
			snap.Ledger.Lifetime = doc.CustomerLedger.Lifetime
		}
	}
	if doc.StoreOpen != nil {
		snap.StoreOpen = *doc.StoreOpen
	}

	result := DecodeResult{Snapshot: snap}
	for _, stored := range doc.Orders {
		order, filled := backfillOrder(stored, loc)
		if filled {
			result.BackfilledOrders++
		}
		snap.Orders = append(snap.Orders, order)
	}
	return result, nil
}

// backfillOrder upgrades an order written before price-at-order, status and
// bucket tracking existed. It reports whether any field had to be derived.
func backfillOrder(stored storedOrder, loc *time.Location) (*models.Order, bool) {
	filled := false
	order := &models.Order{
		ID:                       stored.ID,
		Name:                     stored.Name.String(),
		Room:                     stored.Room.String(),
		Hostel:                   stored.Hostel.String(),
		Time:                     stored.Time,
		AcceptedAt:               stored.AcceptedAt,
		CancelledAt:              stored.CancelledAt,
		AdjustedAt:               stored.AdjustedAt,
		ExcludeFromCustomerStats: stored.ExcludeFromCustomerStats,
		ExcludeFromProfitStats:   stored.ExcludeFromProfitStats,
		Items:                    make([]models.LineItem, 0, len(stored.Items)),
	}

	for _, raw := range stored.Items {
		item := models.LineItem{Name: raw.Name}
		if raw.Qty.Numeric && raw.Qty.Valid() {
			item.Qty = raw.Qty.Int()
		}
		switch {
		case raw.SellPriceAtOrder != nil:
			item.SellPriceAtOrder = *raw.SellPriceAtOrder
		case raw.Price != nil:
			item.SellPriceAtOrder = *raw.Price
			filled = true
		default:
			filled = true
		}
		if raw.BuyPriceAtOrder != nil {
			item.BuyPriceAtOrder = *raw.BuyPriceAtOrder
		} else {
			item.BuyPriceAtOrder = decimal.Zero
			filled = true
		}
		if raw.Price != nil {
			item.Price = *raw.Price
		} else {
			item.Price = item.SellPriceAtOrder
		}
		order.Items = append(order.Items, item)
	}
	subtotal, profit := models.SumItems(order.Items)

	if stored.DeliveryCharge != nil {
		order.DeliveryCharge = *stored.DeliveryCharge
	} else {
		filled = true
		order.DeliveryCharge = decimal.Zero
		if stored.Total != nil && stored.Total.GreaterThan(subtotal) {
			order.DeliveryCharge = stored.Total.Sub(subtotal)
		}
	}

	if mode, err := enums.ParseDeliveryMode(stored.Mode); err == nil {
		order.Mode = mode
	} else {
		filled = true
		order.Mode = enums.DeliveryModePickup
		if order.DeliveryCharge.IsPositive() {
			order.Mode = enums.DeliveryModeDelivery
		}
	}

	if stored.Total != nil {
		order.Total = *stored.Total
	} else {
		filled = true
		order.Total = subtotal.Add(order.DeliveryCharge)
	}
	if stored.Profit != nil {
		order.Profit = *stored.Profit
	} else {
		filled = true
		order.Profit = profit
	}

	if status, err := enums.ParseOrderStatus(stored.Status); err == nil {
		order.Status = status
	} else {
		filled = true
		order.Status = enums.OrderStatusActive
		if stored.CancelledAt != nil {
			order.Status = enums.OrderStatusCancelled
		}
	}

	if bucket, err := enums.ParseDistributorBucket(stored.CollectFromRoom); err == nil {
		order.CollectFromRoom = bucket
	} else {
		filled = true
		order.CollectFromRoom = distributor.ResolveBucket(order.Room)
	}

	if stored.CreatedAt != nil {
		order.CreatedAt = stored.CreatedAt.UTC()
	} else {
		filled = true
		order.CreatedAt = time.UnixMilli(stored.ID).UTC()
	}
	if order.Time == "" {
		filled = true
		order.Time = order.CreatedAt.In(loc).Format(TimeLayout)
	}
	return order, filled
}
