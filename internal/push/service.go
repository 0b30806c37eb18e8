// Package push manages browser push subscriptions and broadcasts new-order
// notifications to them.
package push

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hostelmart/hostelmart-backend/internal/state"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

type stateStore interface {
	Update(ctx context.Context, fn func(*state.Snapshot) error) error
	View(fn func(*state.Snapshot))
}

// Service defines the subscription endpoints.
type Service interface {
	PublicKey() string
	Subscribe(ctx context.Context, input SubscribeInput) (SubscribeResult, error)
	Unsubscribe(ctx context.Context, endpoint string) (bool, error)
}

// SubscribeInput mirrors the browser PushSubscription JSON.
type SubscribeInput struct {
	Endpoint string
	Keys     models.PushKeys
}

// SubscribeResult reports whether the endpoint was new.
type SubscribeResult struct {
	Created bool `json:"created"`
	Total   int  `json:"total"`
}

type service struct {
	store     stateStore
	publicKey string
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the subscription registry. publicKey is the VAPID
// application server key handed to browsers.
func NewService(store stateStore, publicKey string, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if strings.TrimSpace(publicKey) == "" {
		return nil, fmt.Errorf("vapid public key required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, publicKey: publicKey, logg: logg, now: time.Now}, nil
}

func (s *service) PublicKey() string {
	return s.publicKey
}

// Subscribe stores the subscription. An endpoint that is already known has
// its keys refreshed.
func (s *service) Subscribe(ctx context.Context, input SubscribeInput) (SubscribeResult, error) {
	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" {
		return SubscribeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "endpoint is required")
	}
	if strings.TrimSpace(input.Keys.P256dh) == "" || strings.TrimSpace(input.Keys.Auth) == "" {
		return SubscribeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "keys.p256dh and keys.auth are required")
	}

	var result SubscribeResult
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		for i := range snap.Subscriptions {
			if snap.Subscriptions[i].Endpoint != endpoint {
				continue
			}
			result.Total = len(snap.Subscriptions)
			if snap.Subscriptions[i].Keys == input.Keys {
				return state.ErrUnchanged
			}
			snap.Subscriptions[i].Keys = input.Keys
			return nil
		}
		snap.Subscriptions = append(snap.Subscriptions, models.PushSubscription{
			Endpoint:  endpoint,
			Keys:      input.Keys,
			CreatedAt: s.now().UTC(),
		})
		result.Created = true
		result.Total = len(snap.Subscriptions)
		return nil
	})
	if err != nil {
		return SubscribeResult{}, err
	}
	if result.Created {
		s.logg.Info(s.logg.WithField(ctx, "subscriptions", result.Total), "push.subscribed")
	}
	return result, nil
}

// Unsubscribe removes the endpoint and reports whether it was present.
func (s *service) Unsubscribe(ctx context.Context, endpoint string) (bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "endpoint is required")
	}
	removed := false
	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		kept, n := without(snap.Subscriptions, map[string]struct{}{endpoint: {}})
		if n == 0 {
			return state.ErrUnchanged
		}
		snap.Subscriptions = kept
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.logg.Info(ctx, "push.unsubscribed")
	}
	return removed, nil
}

func without(subs []models.PushSubscription, endpoints map[string]struct{}) ([]models.PushSubscription, int) {
	kept := make([]models.PushSubscription, 0, len(subs))
	for _, sub := range subs {
		if _, drop := endpoints[sub.Endpoint]; drop {
			continue
		}
		kept = append(kept, sub)
	}
	return kept, len(subs) - len(kept)
}
