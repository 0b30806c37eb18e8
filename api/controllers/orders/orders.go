package orders

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/api/responses"
	"github.com/hostelmart/hostelmart-backend/api/validators"
	internalorders "github.com/hostelmart/hostelmart-backend/internal/orders"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/types"
)

type adminVerifier interface {
	Verify(password string) error
}

type placeOrderItem struct {
	Name  types.LooseString `json:"name"`
	Qty   types.Quantity    `json:"qty"`
	Price *decimal.Decimal  `json:"price"`
}

type placeOrderRequest struct {
	Name   types.LooseString `json:"name"`
	Room   types.LooseString `json:"room"`
	Hostel types.LooseString `json:"hostel"`
	Mode   string            `json:"mode"`
	Items  *[]placeOrderItem `json:"items"`

	// Older storefronts still post these; totals are always recomputed.
	DeliveryCharge json.RawMessage `json:"deliveryCharge,omitempty"`
	Total          json.RawMessage `json:"total,omitempty"`
}

type cancelOrderRequest struct {
	OrderID        types.LooseString `json:"orderId"`
	ConfirmOrderID types.LooseString `json:"confirmOrderId"`
}

type orderStatusRequest struct {
	Password string            `json:"password"`
	OrderID  types.LooseString `json:"orderId"`
	Action   string            `json:"action"`
}

type adjustOrderRequest struct {
	Password string                    `json:"password"`
	OrderID  types.LooseString         `json:"orderId"`
	Items    map[string]types.Quantity `json:"items"`
}

type resetMonthRequest struct {
	Password string `json:"password"`
	Month    string `json:"month"`
}

// Place settles a customer order.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.PlaceInput{
			Name:   validators.SanitizeString(req.Name.String(), validators.MaxNameLength),
			Room:   validators.SanitizeString(req.Room.String(), validators.MaxRoomLength),
			Hostel: validators.SanitizeString(req.Hostel.String(), validators.MaxHostelLength),
			Mode:   req.Mode,
		}
		if req.Items != nil {
			input.Items = make([]internalorders.ItemInput, 0, len(*req.Items))
			for _, item := range *req.Items {
				input.Items = append(input.Items, internalorders.ItemInput{
					Name:  item.Name.String(),
					Qty:   item.Qty,
					Price: item.Price,
				})
			}
		}

		result, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{
			"orderId":        result.OrderID,
			"cancelWindowMs": result.CancelWindowMs,
			"order":          result.Order,
		})
	}
}

// Cancel is the customer self-cancel inside the cancel window.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(req.OrderID, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmID, err := parseOrderID(req.ConfirmOrderID, "confirmOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CustomerCancel(r.Context(), internalorders.CancelInput{OrderID: orderID, ConfirmOrderID: confirmID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"order": order})
	}
}

// AdminStatus accepts or cancels an order on the admin's behalf.
func AdminStatus(svc internalorders.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.RequireAdmin(gate, r, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(req.OrderID, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseAdminOrderAction(req.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "action must be accept or cancel"))
			return
		}

		order, err := svc.AdminDecision(r.Context(), orderID, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"order": order})
	}
}

// Adjust lowers item quantities on an open order.
func Adjust(svc internalorders.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adjustOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.RequireAdmin(gate, r, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(req.OrderID, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Adjust(r.Context(), internalorders.AdjustInput{OrderID: orderID, Items: req.Items})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"order": result.Order, "changed": result.Changed})
	}
}

// List returns the full order log.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.List(r.Context()))
	}
}

// ResetCustomerMoney hides a month's orders from customer reports.
func ResetCustomerMoney(svc internalorders.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return resetMonth(svc, gate, logg, internalorders.ExcludeCustomerStats)
}

// ResetProfit zeroes a month's profit in reports.
func ResetProfit(svc internalorders.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return resetMonth(svc, gate, logg, internalorders.ExcludeProfitStats)
}

func resetMonth(svc internalorders.Service, gate adminVerifier, logg *logger.Logger, kind internalorders.ExclusionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetMonthRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.RequireAdmin(gate, r, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ExcludeMonth(r.Context(), internalorders.ExcludeInput{Month: req.Month, Kind: kind})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"month": result.Month, "flagged": result.Flagged})
	}
}

// parseOrderID accepts the id as a JSON number or numeric string. An empty
// value yields 0 so the service reports the missing id.
func parseOrderID(raw types.LooseString, field string) (int64, error) {
	value := strings.TrimSpace(raw.String())
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a numeric order id").
			WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
