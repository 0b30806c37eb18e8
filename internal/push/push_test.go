package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hostelmart/hostelmart-backend/internal/state"
	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

type fakeSender struct {
	mu       sync.Mutex
	sendFn   func(sub models.PushSubscription) (int, error)
	payloads [][]byte
	targets  []string
}

func (f *fakeSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.targets = append(f.targets, sub.Endpoint)
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(sub)
	}
	return http.StatusCreated, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func keys() models.PushKeys {
	return models.PushKeys{P256dh: "p256", Auth: "auth"}
}

func TestSubscribeDedupesByEndpoint(t *testing.T) {
	st := state.New(nil)
	saves := 0
	st.OnChange(func() { saves++ })
	svc, err := NewService(st, "public", testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, SubscribeInput{Endpoint: "https://push/a", Keys: keys()})
	if err != nil || !first.Created || first.Total != 1 {
		t.Fatalf("unexpected first subscribe %+v, %v", first, err)
	}
	again, err := svc.Subscribe(ctx, SubscribeInput{Endpoint: " https://push/a ", Keys: keys()})
	if err != nil || again.Created || again.Total != 1 {
		t.Fatalf("duplicate should not be added %+v, %v", again, err)
	}
	if saves != 1 {
		t.Fatalf("identical resubscribe must not persist, got %d saves", saves)
	}

	rotated := models.PushKeys{P256dh: "new", Auth: "auth"}
	if _, err := svc.Subscribe(ctx, SubscribeInput{Endpoint: "https://push/a", Keys: rotated}); err != nil {
		t.Fatalf("rotate keys: %v", err)
	}
	st.View(func(snap *state.Snapshot) {
		if len(snap.Subscriptions) != 1 || snap.Subscriptions[0].Keys != rotated {
			t.Fatalf("expected refreshed keys, got %+v", snap.Subscriptions)
		}
	})
	if svc.PublicKey() != "public" {
		t.Fatalf("unexpected public key %q", svc.PublicKey())
	}
}

func TestSubscribeValidation(t *testing.T) {
	svc, _ := NewService(state.New(nil), "public", testLogger())
	inputs := []SubscribeInput{
		{Keys: keys()},
		{Endpoint: "https://push/a"},
		{Endpoint: "https://push/a", Keys: models.PushKeys{P256dh: "x"}},
	}
	for _, input := range inputs {
		if _, err := svc.Subscribe(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	st := state.New(nil)
	svc, _ := NewService(st, "public", testLogger())
	ctx := context.Background()
	_, _ = svc.Subscribe(ctx, SubscribeInput{Endpoint: "https://push/a", Keys: keys()})

	removed, err := svc.Unsubscribe(ctx, "https://push/a")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v, %v", removed, err)
	}
	removed, err = svc.Unsubscribe(ctx, "https://push/a")
	if err != nil || removed {
		t.Fatalf("second removal should be a no-op, got %v, %v", removed, err)
	}
	if _, err := svc.Unsubscribe(ctx, ""); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNotifierBroadcastsAndPrunesGoneSubscriptions(t *testing.T) {
	st := state.New(nil)
	st.Update(context.Background(), func(snap *state.Snapshot) error {
		snap.Subscriptions = []models.PushSubscription{
			{Endpoint: "https://push/ok", Keys: keys()},
			{Endpoint: "https://push/gone", Keys: keys()},
			{Endpoint: "https://push/missing", Keys: keys()},
			{Endpoint: "https://push/flaky", Keys: keys()},
		}
		return nil
	})
	saves := 0
	st.OnChange(func() { saves++ })

	sender := &fakeSender{sendFn: func(sub models.PushSubscription) (int, error) {
		switch sub.Endpoint {
		case "https://push/gone":
			return http.StatusGone, nil
		case "https://push/missing":
			return http.StatusNotFound, nil
		case "https://push/flaky":
			return 0, errors.New("timeout")
		}
		return http.StatusCreated, nil
	}}
	notifier, err := NewNotifier(st, sender, testLogger(), nil, 0)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifier.OrderPlaced(ctx, models.Order{
		ID:    1716200000000,
		Name:  "Sam",
		Room:  "104",
		Items: []models.LineItem{{Name: "Maggi", Qty: 2}},
		Total: decimal.NewFromInt(50),
	})
	cancel()
	notifier.Wait()

	if len(sender.targets) != 4 {
		t.Fatalf("expected every subscription to be tried, got %v", sender.targets)
	}
	var payload Payload
	if err := json.Unmarshal(sender.payloads[0], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Title != "New Order" || payload.URL != "/admin" || payload.OrderID != 1716200000000 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Body != "Sam (room 104): 2 item(s), total 50" {
		t.Fatalf("unexpected body %q", payload.Body)
	}

	st.View(func(snap *state.Snapshot) {
		if len(snap.Subscriptions) != 2 {
			t.Fatalf("expected 404/410 endpoints pruned, got %+v", snap.Subscriptions)
		}
		for _, sub := range snap.Subscriptions {
			if sub.Endpoint == "https://push/gone" || sub.Endpoint == "https://push/missing" {
				t.Fatalf("stale endpoint kept: %s", sub.Endpoint)
			}
		}
	})
	if saves != 1 {
		t.Fatalf("expected pruning to persist once, got %d", saves)
	}
}

func TestNotifierSkipsWhenNoSubscriptions(t *testing.T) {
	sender := &fakeSender{}
	notifier, _ := NewNotifier(state.New(nil), sender, testLogger(), nil, 0)
	notifier.OrderPlaced(context.Background(), models.Order{ID: 1})
	notifier.Wait()
	if len(sender.targets) != 0 {
		t.Fatalf("expected no sends, got %v", sender.targets)
	}
}

func TestGenerateKeysFeedsSender(t *testing.T) {
	pair, err := GenerateKeys()
	if err != nil {
		t.Fatalf("generate keys: %v", err)
	}
	if pair.Public == "" || pair.Private == "" {
		t.Fatalf("expected both keys, got %+v", pair)
	}
	if _, err := NewWebPushSender(pair, "mailto:admin@example.com", 0, nil); err != nil {
		t.Fatalf("new sender: %v", err)
	}
	if _, err := NewWebPushSender(Keys{}, "", 0, nil); err == nil {
		t.Fatal("expected error for missing keys")
	}
}

func TestConstructorsValidate(t *testing.T) {
	if _, err := NewService(nil, "k", testLogger()); err == nil {
		t.Fatal("expected nil store error")
	}
	if _, err := NewService(state.New(nil), "", testLogger()); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := NewNotifier(state.New(nil), nil, testLogger(), nil, 0); err == nil {
		t.Fatal("expected nil sender error")
	}
}
