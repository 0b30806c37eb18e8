package orders

import (
	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
	"github.com/hostelmart/hostelmart-backend/pkg/types"
)

// PlaceInput is a customer order as submitted. A nil Items slice means the
// list was missing from the request.
type PlaceInput struct {
	Name   string
	Room   string
	Hostel string
	Mode   string
	Items  []ItemInput
}

// ItemInput is one requested product. Price is only used for products the
// catalog has no sell price for.
type ItemInput struct {
	Name  string
	Qty   types.Quantity
	Price *decimal.Decimal
}

// PlaceResult is returned to the customer after settlement.
type PlaceResult struct {
	OrderID        int64
	CancelWindowMs int64
	Order          models.Order
}

// CancelInput is a customer cancel request; both ids must match.
type CancelInput struct {
	OrderID        int64
	ConfirmOrderID int64
}

// AdjustInput maps product names to their new, lower quantity.
type AdjustInput struct {
	OrderID int64
	Items   map[string]types.Quantity
}

// AdjustResult reports whether the order actually changed.
type AdjustResult struct {
	Order   models.Order
	Changed bool
}

// ExclusionKind selects which report an order is hidden from.
type ExclusionKind string

const (
	ExcludeCustomerStats ExclusionKind = "customer"
	ExcludeProfitStats   ExclusionKind = "profit"
)

// ExcludeInput flags every order of Month. A malformed month means the current one.
type ExcludeInput struct {
	Month string
	Kind  ExclusionKind
}

// ExcludeResult carries the resolved month and the count of newly flagged orders.
type ExcludeResult struct {
	Month   string
	Flagged int
}

func feeFor(mode enums.DeliveryMode, deliveryFee decimal.Decimal) decimal.Decimal {
	if mode == enums.DeliveryModeDelivery {
		return deliveryFee
	}
	return decimal.Zero
}
