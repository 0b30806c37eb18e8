package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/api/responses"
	"github.com/hostelmart/hostelmart-backend/api/validators"
	"github.com/hostelmart/hostelmart-backend/internal/ledger"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/types"
)

type upsertSpendRequest struct {
	Password    string            `json:"password"`
	Scope       string            `json:"scope"`
	Month       string            `json:"month"`
	Name        types.LooseString `json:"name"`
	Room        types.LooseString `json:"room"`
	TotalSpent  *decimal.Decimal  `json:"totalSpent" validate:"required"`
	OrdersCount int               `json:"ordersCount" validate:"min=0"`
}

type deleteSpendRequest struct {
	Password string            `json:"password"`
	Scope    string            `json:"scope"`
	Month    string            `json:"month"`
	Name     types.LooseString `json:"name"`
	Room     types.LooseString `json:"room"`
}

// ListCustomerSpend takes the password from the header or ?password=.
func ListCustomerSpend(svc ledger.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validators.RequireAdmin(gate, r, validators.QueryString(r, "password")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), validators.QueryString(r, "scope"), validators.MonthQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, list)
	}
}

func UpsertCustomerSpend(svc ledger.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertSpendRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.RequireAdmin(gate, r, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Upsert(r.Context(), ledger.UpsertInput{
			Scope:       req.Scope,
			Month:       req.Month,
			Name:        validators.SanitizeString(req.Name.String(), validators.MaxNameLength),
			Room:        validators.SanitizeString(req.Room.String(), validators.MaxRoomLength),
			TotalSpent:  *req.TotalSpent,
			OrdersCount: req.OrdersCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"entry": entry})
	}
}

func DeleteCustomerSpend(svc ledger.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deleteSpendRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.RequireAdmin(gate, r, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		err := svc.Delete(r.Context(), ledger.DeleteInput{
			Scope: req.Scope,
			Month: req.Month,
			Name:  validators.SanitizeString(req.Name.String(), validators.MaxNameLength),
			Room:  validators.SanitizeString(req.Room.String(), validators.MaxRoomLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, nil)
	}
}
