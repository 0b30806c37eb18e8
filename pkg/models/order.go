package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/pkg/enums"
)

func init() {
	// Clients read prices and totals as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// LineItem snapshots a product at the moment the order was placed.
type LineItem struct {
	Name             string          `json:"name"`
	Qty              int             `json:"qty"`
	Price            decimal.Decimal `json:"price"`
	SellPriceAtOrder decimal.Decimal `json:"sellPriceAtOrder"`
	BuyPriceAtOrder  decimal.Decimal `json:"buyPriceAtOrder"`
}

// Subtotal is the sell-side amount of the line.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.SellPriceAtOrder.Mul(decimal.NewFromInt(int64(li.Qty)))
}

// Profit is the margin of the line at order-time prices.
func (li LineItem) Profit() decimal.Decimal {
	return li.SellPriceAtOrder.Sub(li.BuyPriceAtOrder).Mul(decimal.NewFromInt(int64(li.Qty)))
}

// Order is a settled customer order.
type Order struct {
	ID                       int64                   `json:"id"`
	Name                     string                  `json:"name"`
	Room                     string                  `json:"room"`
	Hostel                   string                  `json:"hostel"`
	Mode                     enums.DeliveryMode      `json:"mode"`
	Items                    []LineItem              `json:"items"`
	DeliveryCharge           decimal.Decimal         `json:"deliveryCharge"`
	Total                    decimal.Decimal         `json:"total"`
	Profit                   decimal.Decimal         `json:"profit"`
	Status                   enums.OrderStatus       `json:"status"`
	Time                     string                  `json:"time"`
	CreatedAt                time.Time               `json:"createdAt"`
	AcceptedAt               *time.Time              `json:"acceptedAt,omitempty"`
	CancelledAt              *time.Time              `json:"cancelledAt,omitempty"`
	AdjustedAt               *time.Time              `json:"adjustedAt,omitempty"`
	CollectFromRoom          enums.DistributorBucket `json:"collectFromRoom"`
	ExcludeFromCustomerStats bool                    `json:"excludeFromCustomerStats,omitempty"`
	ExcludeFromProfitStats   bool                    `json:"excludeFromProfitStats,omitempty"`
}

// IsCancelled reports whether the order reached the terminal state.
func (o *Order) IsCancelled() bool {
	return o.Status == enums.OrderStatusCancelled
}

// ReportProfit is the profit counted by reports.
func (o *Order) ReportProfit() decimal.Decimal {
	if o.ExcludeFromProfitStats {
		return decimal.Zero
	}
	return o.Profit
}

// Clone returns a deep copy safe to hand out of the shared state.
func (o *Order) Clone() Order {
	out := *o
	out.Items = append([]LineItem(nil), o.Items...)
	out.AcceptedAt = cloneTime(o.AcceptedAt)
	out.CancelledAt = cloneTime(o.CancelledAt)
	out.AdjustedAt = cloneTime(o.AdjustedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// SumItems returns the subtotal and profit of a set of line items.
func SumItems(items []LineItem) (subtotal, profit decimal.Decimal) {
	subtotal, profit = decimal.Zero, decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
		profit = profit.Add(item.Profit())
	}
	return subtotal, profit
}
