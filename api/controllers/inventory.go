package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/api/responses"
	"github.com/hostelmart/hostelmart-backend/api/validators"
	"github.com/hostelmart/hostelmart-backend/internal/inventory"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/types"
)

type adminVerifier interface {
	Verify(password string) error
}

type storeStatusRequest struct {
	Password string `json:"password"`
	Open     *bool  `json:"open" validate:"required"`
}

func GetStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.Stock(r.Context()))
	}
}

// ReplaceStock accepts {password, stock:{...}} or the product map inline next to password.
func ReplaceStock(svc inventory.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := adminMapBody(w, r, gate, logg, "stock")
		if !ok {
			return
		}
		out, ok := replaceStock(w, r, svc, logg, raw)
		if !ok {
			return
		}
		responses.WriteOK(w, map[string]any{"stock": out})
	}
}

// SaveStock replaces stock without an admin check. Any password in the body
// is ignored.
func SaveStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := validators.ReadJSONBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, raw, err := validators.SplitAdminMap(fields, "stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, ok := replaceStock(w, r, svc, logg, raw)
		if !ok {
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{"status": responses.StatusSaved, "stock": out})
	}
}

func replaceStock(w http.ResponseWriter, r *http.Request, svc inventory.Service, logg *logger.Logger, raw json.RawMessage) (map[string]int, bool) {
	var stock map[string]types.Quantity
	if err := validators.DecodeRaw(raw, &stock, "stock"); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	out, err := svc.ReplaceStock(r.Context(), stock)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return out, true
}

func GetPrices(svc inventory.Service, kind inventory.PriceKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := svc.Prices(r.Context(), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, prices)
	}
}

func ReplacePrices(svc inventory.Service, kind inventory.PriceKind, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := adminMapBody(w, r, gate, logg, "prices")
		if !ok {
			return
		}
		var prices map[string]decimal.Decimal
		if err := validators.DecodeRaw(raw, &prices, "prices"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.ReplacePrices(r.Context(), kind, prices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"prices": out})
	}
}

func GetDistributorStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, svc.DistributorStock(r.Context()))
	}
}

// ReplaceDistributorStock normalizes whatever bucket document is posted.
func ReplaceDistributorStock(svc inventory.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := adminMapBody(w, r, gate, logg, "distributorStock")
		if !ok {
			return
		}
		out, err := svc.ReplaceDistributorStock(r.Context(), raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"distributorStock": out})
	}
}

func GetStoreStatus(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]bool{"open": svc.StoreOpen(r.Context())})
	}
}

func SetStoreStatus(svc inventory.Service, gate adminVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.RequireAdmin(gate, r, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		open, err := svc.SetStoreOpen(r.Context(), *req.Open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"open": open})
	}
}

// adminMapBody reads a map-shaped admin body and verifies the password. It
// writes the error response itself and reports whether to continue.
func adminMapBody(w http.ResponseWriter, r *http.Request, gate adminVerifier, logg *logger.Logger, key string) (json.RawMessage, bool) {
	fields, err := validators.ReadJSONBody(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	password, raw, err := validators.SplitAdminMap(fields, key)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	if err := validators.RequireAdmin(gate, r, password); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	if len(raw) == 0 {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, key+" is required"))
		return nil, false
	}
	return raw, true
}
