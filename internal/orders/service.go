package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/internal/distributor"
	"github.com/hostelmart/hostelmart-backend/internal/period"
	"github.com/hostelmart/hostelmart-backend/internal/state"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/metrics"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

// Service settles customer orders and drives their lifecycle.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (PlaceResult, error)
	CustomerCancel(ctx context.Context, input CancelInput) (models.Order, error)
	AdminDecision(ctx context.Context, orderID int64, action enums.AdminOrderAction) (models.Order, error)
	Adjust(ctx context.Context, input AdjustInput) (AdjustResult, error)
	ExcludeMonth(ctx context.Context, input ExcludeInput) (ExcludeResult, error)
	List(ctx context.Context) []models.Order
}

// Config carries the shop rules applied at settlement.
type Config struct {
	DeliveryFee  decimal.Decimal
	CancelWindow time.Duration
	Location     *time.Location
	Clock        func() time.Time
}

type service struct {
	store    stateStore
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.ShopMetrics
	fee      decimal.Decimal
	window   time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(store stateStore, notifier Notifier, logg *logger.Logger, shopMetrics *metrics.ShopMetrics, cfg Config) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.CancelWindow <= 0 {
		return nil, fmt.Errorf("cancel window must be positive")
	}
	if cfg.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &service{
		store:    store,
		notifier: notifier,
		logg:     logg,
		metrics:  shopMetrics,
		fee:      cfg.DeliveryFee,
		window:   cfg.CancelWindow,
		loc:      cfg.Location,
		now:      cfg.Clock,
	}, nil
}

func (s *service) Place(ctx context.Context, input PlaceInput) (PlaceResult, error) {
	if input.Items == nil {
		return PlaceResult{}, pkgerrors.New(pkgerrors.CodeValidation, "items must be a list")
	}
	mode := enums.DeliveryModePickup
	if strings.TrimSpace(input.Mode) != "" {
		parsed, err := enums.ParseDeliveryMode(input.Mode)
		if err != nil {
			return PlaceResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "mode must be pickup or delivery")
		}
		mode = parsed
	}
	for _, item := range input.Items {
		if !item.Qty.Valid() {
			return PlaceResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a whole non-negative number").
				WithDetails(map[string]any{"item": item.Name, "qty": item.Qty.Value})
		}
		if item.Price != nil && item.Price.IsNegative() {
			return PlaceResult{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").
				WithDetails(map[string]any{"item": item.Name})
		}
	}

	room := strings.TrimSpace(input.Room)
	var placed models.Order
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		if !snap.StoreOpen {
			return pkgerrors.New(pkgerrors.CodeConflict, "store is closed")
		}
		now := s.now()
		bucket := distributor.ResolveBucket(room)

		items := make([]models.LineItem, 0, len(input.Items))
		for _, in := range input.Items {
			sell, priced := snap.Catalog.SellPrice(in.Name)
			if !priced {
				sell = decimal.Zero
				if in.Price != nil {
					sell = *in.Price
				}
			}
			qty := in.Qty.Int()
			items = append(items, models.LineItem{
				Name:             in.Name,
				Qty:              qty,
				Price:            sell,
				SellPriceAtOrder: sell,
				BuyPriceAtOrder:  snap.Catalog.BuyPrice(in.Name),
			})
			if snap.Catalog.AdjustStock(in.Name, -qty) {
				snap.Distributor.Adjust(bucket, in.Name, -qty)
			}
		}

		subtotal, profit := models.SumItems(items)
		fee := feeFor(mode, s.fee)
		order := &models.Order{
			ID:              nextOrderID(now, snap.LastOrderID()),
			Name:            strings.TrimSpace(input.Name),
			Room:            room,
			Hostel:          strings.TrimSpace(input.Hostel),
			Mode:            mode,
			Items:           items,
			DeliveryCharge:  fee,
			Total:           subtotal.Add(fee),
			Profit:          profit,
			Status:          enums.OrderStatusActive,
			Time:            now.In(s.loc).Format(state.TimeLayout),
			CreatedAt:       now.UTC(),
			CollectFromRoom: bucket,
		}
		snap.Orders = append(snap.Orders, order)
		placed = order.Clone()
		return nil
	})
	if err != nil {
		return PlaceResult{}, err
	}

	s.metrics.IncOrderPlaced(string(placed.Mode))
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, placed.ID), map[string]any{
		"room":   placed.Room,
		"bucket": string(placed.CollectFromRoom),
		"total":  placed.Total.String(),
		"items":  len(placed.Items),
	})
	s.logg.Info(logCtx, "order.placed")
	s.notifier.OrderPlaced(ctx, placed)

	return PlaceResult{
		OrderID:        placed.ID,
		CancelWindowMs: s.window.Milliseconds(),
		Order:          placed,
	}, nil
}

func (s *service) CustomerCancel(ctx context.Context, input CancelInput) (models.Order, error) {
	if input.OrderID == 0 {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "orderId required")
	}
	if input.OrderID != input.ConfirmOrderID {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeOrderIDMismatch, "confirmOrderId does not match orderId")
	}

	var cancelled models.Order
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		order, err := findOpenOrder(snap, input.OrderID)
		if err != nil {
			return err
		}
		now := s.now()
		if elapsed := now.Sub(order.CreatedAt); elapsed > s.window {
			return pkgerrors.New(pkgerrors.CodeCancelExpired, "cancel window has passed").
				WithDetails(map[string]any{
					"elapsedMs":      elapsed.Milliseconds(),
					"cancelWindowMs": s.window.Milliseconds(),
				})
		}
		cancelOrder(snap, order, now)
		cancelled = order.Clone()
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	s.logTransition(ctx, cancelled, "customer")
	return cancelled, nil
}

func (s *service) AdminDecision(ctx context.Context, orderID int64, action enums.AdminOrderAction) (models.Order, error) {
	if orderID == 0 {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "orderId required")
	}
	if action != enums.AdminOrderActionAccept && action != enums.AdminOrderActionCancel {
		return models.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "action must be accept or cancel")
	}

	var result models.Order
	changed := false
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		order, err := findOpenOrder(snap, orderID)
		if err != nil {
			return err
		}
		now := s.now()
		switch action {
		case enums.AdminOrderActionAccept:
			if order.Status == enums.OrderStatusAccepted {
				result = order.Clone()
				return state.ErrUnchanged
			}
			order.Status = enums.OrderStatusAccepted
			stamp := now.UTC()
			order.AcceptedAt = &stamp
		case enums.AdminOrderActionCancel:
			cancelOrder(snap, order, now)
		}
		changed = true
		result = order.Clone()
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	if changed {
		s.logTransition(ctx, result, "admin")
	}
	return result, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (AdjustResult, error) {
	if input.OrderID == 0 {
		return AdjustResult{}, pkgerrors.New(pkgerrors.CodeValidation, "orderId required")
	}
	if input.Items == nil {
		return AdjustResult{}, pkgerrors.New(pkgerrors.CodeValidation, "items must be an object of product quantities")
	}
	targets := make(map[string]int, len(input.Items))
	for name, qty := range input.Items {
		if !qty.Numeric || qty.Value != float64(int64(qty.Value)) {
			return AdjustResult{}, pkgerrors.New(pkgerrors.CodeValidation, "target quantity must be a whole number").
				WithDetails(map[string]any{"item": name})
		}
		targets[name] = int(qty.Value)
	}

	var result AdjustResult
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		order, err := findOpenOrder(snap, input.OrderID)
		if err != nil {
			return err
		}

		reduced := false
		remaining := make([]models.LineItem, 0, len(order.Items))
		for _, item := range order.Items {
			if target, ok := targets[item.Name]; ok {
				target = clamp(target, 0, item.Qty)
				if diff := item.Qty - target; diff > 0 {
					reduced = true
					restock(snap, order.CollectFromRoom, item.Name, diff)
					item.Qty = target
				}
			}
			if item.Qty > 0 {
				remaining = append(remaining, item)
			}
		}
		if !reduced {
			result = AdjustResult{Order: order.Clone()}
			return state.ErrUnchanged
		}

		now := s.now().UTC()
		order.Items = remaining
		if len(remaining) == 0 {
			order.Status = enums.OrderStatusCancelled
			order.DeliveryCharge = decimal.Zero
			order.Total = decimal.Zero
			order.Profit = decimal.Zero
			order.CancelledAt = &now
		} else {
			subtotal, profit := models.SumItems(remaining)
			fee := feeFor(order.Mode, s.fee)
			order.Status = enums.OrderStatusPartiallyAdjusted
			order.DeliveryCharge = fee
			order.Total = subtotal.Add(fee)
			order.Profit = profit
			order.AdjustedAt = &now
		}
		result = AdjustResult{Order: order.Clone(), Changed: true}
		return nil
	})
	if err != nil {
		return AdjustResult{}, err
	}
	if result.Changed {
		s.metrics.IncOrderAdjusted()
		s.logTransition(ctx, result.Order, "adjustment")
	}
	return result, nil
}

func (s *service) ExcludeMonth(ctx context.Context, input ExcludeInput) (ExcludeResult, error) {
	if input.Kind != ExcludeCustomerStats && input.Kind != ExcludeProfitStats {
		return ExcludeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown exclusion kind")
	}
	month := period.ParseMonth(strings.TrimSpace(input.Month), s.now(), s.loc)

	flagged := 0
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		for _, order := range snap.Orders {
			if period.Month(order.CreatedAt, s.loc) != month {
				continue
			}
			switch input.Kind {
			case ExcludeCustomerStats:
				if !order.ExcludeFromCustomerStats {
					order.ExcludeFromCustomerStats = true
					flagged++
				}
			case ExcludeProfitStats:
				if !order.ExcludeFromProfitStats {
					order.ExcludeFromProfitStats = true
					flagged++
				}
			}
		}
		if flagged == 0 {
			return state.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return ExcludeResult{}, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"month": month, "kind": string(input.Kind), "flagged": flagged})
	s.logg.Info(logCtx, "orders.excluded")
	return ExcludeResult{Month: month, Flagged: flagged}, nil
}

func (s *service) List(ctx context.Context) []models.Order {
	var out []models.Order
	s.store.View(func(snap *state.Snapshot) {
		out = snap.CloneOrders()
	})
	return out
}

func (s *service) logTransition(ctx context.Context, order models.Order, source string) {
	if order.IsCancelled() {
		s.metrics.IncOrderCancelled(source)
	}
	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID), map[string]any{
		"status": string(order.Status),
		"source": source,
	})
	s.logg.Info(logCtx, "order."+string(order.Status))
}

func findOpenOrder(snap *state.Snapshot, id int64) (*models.Order, error) {
	order := snap.FindOrder(id)
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.IsCancelled() {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyCancelled, "order already cancelled")
	}
	return order, nil
}

// cancelOrder returns every unit to the catalog and the order's bucket.
func cancelOrder(snap *state.Snapshot, order *models.Order, now time.Time) {
	for _, item := range order.Items {
		restock(snap, order.CollectFromRoom, item.Name, item.Qty)
	}
	stamp := now.UTC()
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &stamp
}

// restock mirrors settlement: the bucket only moves when the catalog knows the product.
func restock(snap *state.Snapshot, bucket enums.DistributorBucket, name string, qty int) {
	if qty <= 0 {
		return
	}
	if snap.Catalog.AdjustStock(name, qty) {
		snap.Distributor.Adjust(bucket, name, qty)
	}
}

// nextOrderID uses wall-clock milliseconds and never repeats or goes backwards.
func nextOrderID(now time.Time, last int64) int64 {
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	return id
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
