package state

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelmart/hostelmart-backend/internal/storage"
	"github.com/hostelmart/hostelmart-backend/pkg/enums"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/models"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "state-test", Output: io.Discard})
}

type memoryStore struct {
	mu      sync.Mutex
	payload []byte
	saves   int32
	saveErr error
}

func (m *memoryStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payload == nil {
		return nil, storage.ErrNoSnapshot
	}
	return append([]byte(nil), m.payload...), nil
}

func (m *memoryStore) Save(_ context.Context, payload []byte) error {
	atomic.AddInt32(&m.saves, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.payload = append([]byte(nil), payload...)
	return nil
}

func TestUpdateSchedulesOnSuccessOnly(t *testing.T) {
	st := New(nil)
	var calls int
	st.OnChange(func() { calls++ })

	require.NoError(t, st.Update(context.Background(), func(s *Snapshot) error {
		s.StoreOpen = false
		return nil
	}))
	require.NoError(t, st.Update(context.Background(), func(*Snapshot) error {
		return ErrUnchanged
	}))
	boom := errors.New("boom")
	assert.ErrorIs(t, st.Update(context.Background(), func(*Snapshot) error { return boom }), boom)

	assert.Equal(t, 1, calls)
	st.View(func(s *Snapshot) { assert.False(t, s.StoreOpen) })
}

func TestUpdateHonoursCancelledContext(t *testing.T) {
	st := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := st.Update(ctx, func(*Snapshot) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	snap := NewSnapshot()
	created := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
	accepted := created.Add(time.Minute)
	snap.Orders = append(snap.Orders, &models.Order{
		ID:   created.UnixMilli(),
		Name: "Sam",
		Room: "104",
		Mode: enums.DeliveryModeDelivery,
		Items: []models.LineItem{{
			Name: "Maggi", Qty: 2,
			Price:            decimal.NewFromInt(20),
			SellPriceAtOrder: decimal.NewFromInt(20),
			BuyPriceAtOrder:  decimal.NewFromInt(12),
		}},
		DeliveryCharge:  decimal.NewFromInt(10),
		Total:           decimal.NewFromInt(50),
		Profit:          decimal.NewFromInt(16),
		Status:          enums.OrderStatusAccepted,
		Time:            "03/05/2024, 3:30:00 pm",
		CreatedAt:       created,
		AcceptedAt:      &accepted,
		CollectFromRoom: enums.DistributorBucket104,
	})
	snap.Distributor[enums.DistributorBucket104]["Maggi"] = -2
	snap.Catalog.Stock["Maggi"] = 22
	snap.StoreOpen = false
	snap.Ledger.Monthly["2024-05"] = map[string]models.LedgerEntry{
		"sam|104": {Name: "Sam", Room: "104", TotalSpent: decimal.NewFromInt(500), OrdersCount: 3, UpdatedAt: created},
	}
	snap.Subscriptions = []models.PushSubscription{{Endpoint: "https://push.example/1", Keys: models.PushKeys{P256dh: "p", Auth: "a"}, CreatedAt: created}}

	payload, err := Encode(snap)
	require.NoError(t, err)

	result, err := Decode(payload, time.UTC)
	require.NoError(t, err)
	assert.Zero(t, result.BackfilledOrders)

	got := result.Snapshot
	assert.Equal(t, snap.Catalog.Stock, got.Catalog.Stock)
	assert.Equal(t, snap.Distributor.Raw(), got.Distributor.Raw())
	assert.False(t, got.StoreOpen)
	require.Len(t, got.Orders, 1)
	order := got.Orders[0]
	assert.Equal(t, enums.OrderStatusAccepted, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(50)))
	assert.True(t, order.Profit.Equal(decimal.NewFromInt(16)))
	assert.True(t, order.CreatedAt.Equal(created))
	require.NotNil(t, order.AcceptedAt)
	assert.True(t, order.AcceptedAt.Equal(accepted))
	assert.Equal(t, "03/05/2024, 3:30:00 pm", order.Time)
	assert.True(t, got.Ledger.Monthly["2024-05"]["sam|104"].TotalSpent.Equal(decimal.NewFromInt(500)))
	require.Len(t, got.Subscriptions, 1)
	assert.Equal(t, "https://push.example/1", got.Subscriptions[0].Endpoint)

	again, err := Encode(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(again))
}

func TestDecodeBackfillsLegacyOrders(t *testing.T) {
	payload := []byte(`{
		"stock": {"Maggi": 10, "Kurkure": 4},
		"buyPrice": {"Maggi": 12},
		"sellPrice": {"Maggi": 20, "Kurkure": 20},
		"orders": [{
			"id": 1714730400000,
			"name": "Asha",
			"room": 412,
			"mode": "delivery",
			"items": [{"name":"Maggi","qty":"2","price":18}, {"name":"Kurkure","qty":1,"price":20}],
			"deliveryCharge": 10,
			"total": 66
		}]
	}`)

	result, err := Decode(payload, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BackfilledOrders)

	snap := result.Snapshot
	assert.True(t, snap.StoreOpen, "missing store flag defaults to open")
	assert.Len(t, snap.Distributor, 3)
	assert.Equal(t, 0, snap.Distributor[enums.DistributorBucket407]["Kurkure"])

	order := snap.Orders[0]
	assert.Equal(t, "412", order.Room)
	assert.Equal(t, enums.OrderStatusActive, order.Status)
	assert.Equal(t, enums.DistributorBucket407, order.CollectFromRoom)
	assert.True(t, order.CreatedAt.Equal(time.UnixMilli(1714730400000)))
	assert.NotEmpty(t, order.Time)

	maggi := order.Items[0]
	assert.Equal(t, 2, maggi.Qty)
	assert.True(t, maggi.SellPriceAtOrder.Equal(decimal.NewFromInt(18)), "legacy price becomes the price at order")
	assert.True(t, maggi.BuyPriceAtOrder.IsZero(), "missing buy price is not taken from the current catalog")
	assert.True(t, order.Items[1].BuyPriceAtOrder.IsZero())

	// (18-0)*2 + (20-0)*1
	assert.True(t, order.Profit.Equal(decimal.NewFromInt(56)), "profit recomputed, got %s", order.Profit)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(66)), "stored total is kept")
}

func TestDecodeLegacyProfitIgnoresLaterBuyPrice(t *testing.T) {
	payload := []byte(`{
		"stock": {"Maggi": 10},
		"buyPrice": {"Maggi": 15},
		"sellPrice": {"Maggi": 20},
		"orders": [{"id": 1714730400000, "name": "Ravi", "room": "104", "mode": "pickup",
			"items": [{"name": "Maggi", "qty": 2, "price": 12}], "deliveryCharge": 0, "total": 24}]
	}`)

	result, err := Decode(payload, time.UTC)
	require.NoError(t, err)

	order := result.Snapshot.Orders[0]
	assert.True(t, order.Items[0].BuyPriceAtOrder.IsZero())
	assert.True(t, order.Items[0].SellPriceAtOrder.Equal(decimal.NewFromInt(12)))
	assert.True(t, order.Profit.Equal(decimal.NewFromInt(24)), "profit must not go negative from a later buy price, got %s", order.Profit)
}

func TestDecodeDerivesLegacyModeAndStatus(t *testing.T) {
	payload := []byte(`{"orders":[{"id":1,"room":"abc","items":[{"name":"Maggi","qty":1,"price":20}],"total":30,"cancelledAt":"2024-05-01T00:00:00Z"}]}`)
	result, err := Decode(payload, nil)
	require.NoError(t, err)

	order := result.Snapshot.Orders[0]
	assert.Equal(t, enums.DeliveryModeDelivery, order.Mode)
	assert.True(t, order.DeliveryCharge.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.Equal(t, enums.DistributorBucket607, order.CollectFromRoom)
	assert.Equal(t, 24, result.Snapshot.Catalog.Stock["Maggi"], "missing stock falls back to defaults")
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"), time.UTC)
	assert.Error(t, err)
}

func TestLoadSeedsDefaultsWhenEmpty(t *testing.T) {
	st, fresh, err := Load(context.Background(), &memoryStore{}, time.UTC, testLogger())
	require.NoError(t, err)
	assert.True(t, fresh)
	st.View(func(s *Snapshot) {
		assert.Equal(t, 24, s.Catalog.Stock["Maggi"])
		assert.True(t, s.StoreOpen)
	})
}

func TestPersisterFlushWritesLatestSnapshot(t *testing.T) {
	store := &memoryStore{}
	st := New(nil)
	p, err := NewPersister(PersisterConfig{State: st, Saver: store, Backend: "memory", Logger: testLogger()})
	require.NoError(t, err)

	require.NoError(t, st.Update(context.Background(), func(s *Snapshot) error {
		s.Catalog.Stock["Maggi"] = 3
		return nil
	}))
	require.NoError(t, p.Flush(context.Background()))

	reloaded, fresh, err := Load(context.Background(), store, time.UTC, testLogger())
	require.NoError(t, err)
	assert.False(t, fresh)
	reloaded.View(func(s *Snapshot) { assert.Equal(t, 3, s.Catalog.Stock["Maggi"]) })
}

func TestPersisterRunCoalescesAndSaves(t *testing.T) {
	store := &memoryStore{}
	st := New(nil)
	p, err := NewPersister(PersisterConfig{State: st, Saver: store, Logger: testLogger()})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p.Schedule()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&store.saves) >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.saves), "queued schedules coalesce into one write")
}

func TestPersisterFailureKeepsMemoryState(t *testing.T) {
	store := &memoryStore{saveErr: errors.New("disk full")}
	st := New(nil)
	p, err := NewPersister(PersisterConfig{State: st, Saver: store, Logger: testLogger()})
	require.NoError(t, err)

	require.NoError(t, st.Update(context.Background(), func(s *Snapshot) error {
		s.StoreOpen = false
		return nil
	}))
	assert.Error(t, p.Flush(context.Background()))
	st.View(func(s *Snapshot) { assert.False(t, s.StoreOpen) })
}

func TestNewPersisterValidatesDeps(t *testing.T) {
	_, err := NewPersister(PersisterConfig{})
	assert.Error(t, err)
	_, err = NewPersister(PersisterConfig{State: New(nil)})
	assert.Error(t, err)
	_, err = NewPersister(PersisterConfig{State: New(nil), Saver: &memoryStore{}})
	assert.Error(t, err)
}
