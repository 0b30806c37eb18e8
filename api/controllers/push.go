package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/hostelmart/hostelmart-backend/api/responses"
	"github.com/hostelmart/hostelmart-backend/api/validators"
	"github.com/hostelmart/hostelmart-backend/internal/push"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

// subscribeRequest is the browser's PushSubscription.toJSON() output.
type subscribeRequest struct {
	Endpoint       string          `json:"endpoint" validate:"required,url"`
	ExpirationTime json.RawMessage `json:"expirationTime,omitempty"`
	Keys           models.PushKeys `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

func PushPublicKey(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]string{"publicKey": svc.PublicKey()})
	}
}

func PushSubscribe(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Subscribe(r.Context(), push.SubscribeInput{Endpoint: req.Endpoint, Keys: req.Keys})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"created": result.Created, "subscriptions": result.Total})
	}
}

func PushUnsubscribe(svc push.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unsubscribeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		removed, err := svc.Unsubscribe(r.Context(), req.Endpoint)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"removed": removed})
	}
}
