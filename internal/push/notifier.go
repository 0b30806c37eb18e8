package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hostelmart/hostelmart-backend/internal/state"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/metrics"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

const (
	resultSent   = "sent"
	resultPruned = "pruned"
	resultFailed = "failed"
)

// Payload is the JSON document the service worker renders.
type Payload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	URL     string `json:"url"`
	OrderID int64  `json:"orderId"`
}

// NewOrderPayload describes a freshly placed order.
func NewOrderPayload(order models.Order) Payload {
	units := 0
	for _, item := range order.Items {
		units += item.Qty
	}
	return Payload{
		Title:   "New Order",
		Body:    fmt.Sprintf("%s (room %s): %d item(s), total %s", order.Name, order.Room, units, order.Total.String()),
		URL:     "/admin",
		OrderID: order.ID,
	}
}

// Notifier broadcasts placed orders to every subscription in the background.
type Notifier struct {
	store   stateStore
	sender  Sender
	logg    *logger.Logger
	metrics *metrics.ShopMetrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotifier wires the broadcaster. timeout bounds one whole broadcast.
func NewNotifier(store stateStore, sender Sender, logg *logger.Logger, shopMetrics *metrics.ShopMetrics, timeout time.Duration) (*Notifier, error) {
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{store: store, sender: sender, logg: logg, metrics: shopMetrics, timeout: timeout}, nil
}

// OrderPlaced returns immediately; delivery runs on its own goroutine and
// outlives the request context.
func (n *Notifier) OrderPlaced(ctx context.Context, order models.Order) {
	var subs []models.PushSubscription
	n.store.View(func(snap *state.Snapshot) {
		subs = append(subs, snap.Subscriptions...)
	})
	if len(subs) == 0 {
		return
	}
	payload, err := json.Marshal(NewOrderPayload(order))
	if err != nil {
		n.logg.Error(ctx, "push.encode_failed", err)
		return
	}

	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.broadcast(detached, subs, payload)
	}()
}

// Wait blocks until in-flight broadcasts finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) broadcast(ctx context.Context, subs []models.PushSubscription, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	gone := map[string]struct{}{}
	for _, sub := range subs {
		status, err := n.sender.Send(ctx, sub, payload)
		switch {
		case err != nil:
			n.metrics.IncPushDelivery(resultFailed)
			n.logg.WarnErr(n.logg.WithField(ctx, "endpoint", sub.Endpoint), "push.delivery_failed", err)
		case status == http.StatusNotFound || status == http.StatusGone:
			gone[sub.Endpoint] = struct{}{}
			n.metrics.IncPushDelivery(resultPruned)
		case status >= http.StatusBadRequest:
			n.metrics.IncPushDelivery(resultFailed)
			n.logg.Warn(n.logg.WithFields(ctx, map[string]any{
				"endpoint": sub.Endpoint,
				"status":   status,
			}), "push.delivery_rejected")
		default:
			n.metrics.IncPushDelivery(resultSent)
		}
	}
	if len(gone) == 0 {
		return
	}

	pruned := 0
	err := n.store.Update(ctx, func(snap *state.Snapshot) error {
		kept, removed := without(snap.Subscriptions, gone)
		if removed == 0 {
			return state.ErrUnchanged
		}
		snap.Subscriptions = kept
		pruned = removed
		return nil
	})
	if err != nil {
		n.logg.Error(ctx, "push.prune_failed", err)
		return
	}
	if pruned > 0 {
		n.logg.Info(n.logg.WithField(ctx, "pruned", pruned), "push.subscriptions_pruned")
	}
}
