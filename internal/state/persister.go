package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hostelmart/hostelmart-backend/internal/storage"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/metrics"
)

// Saver is the write half of a storage backend.
type Saver interface {
	Save(ctx context.Context, payload []byte) error
}

// Loader is the read half of a storage backend.
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
}

// PersisterConfig wires a Persister.
type PersisterConfig struct {
	State   *State
	Saver   Saver
	Backend string
	Logger  *logger.Logger
	Metrics *metrics.ShopMetrics
	Timeout time.Duration
}

// Persister mirrors the state to durable storage in the background. Bursts
// of mutations coalesce into one write of the latest snapshot.
type Persister struct {
	state   *State
	saver   Saver
	backend string
	logg    *logger.Logger
	metrics *metrics.ShopMetrics
	timeout time.Duration
	pending chan struct{}
	saveMu  sync.Mutex
}

// NewPersister validates the config and hooks the persister onto the state.
func NewPersister(cfg PersisterConfig) (*Persister, error) {
	if cfg.State == nil {
		return nil, errors.New("state required")
	}
	if cfg.Saver == nil {
		return nil, errors.New("saver required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	p := &Persister{
		state:   cfg.State,
		saver:   cfg.Saver,
		backend: cfg.Backend,
		logg:    cfg.Logger,
		metrics: cfg.Metrics,
		timeout: cfg.Timeout,
		pending: make(chan struct{}, 1),
	}
	cfg.State.OnChange(p.Schedule)
	return p, nil
}

// Schedule marks the snapshot dirty. It never blocks.
func (p *Persister) Schedule() {
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

// Run writes dirty snapshots until ctx is cancelled. A save in flight when
// ctx ends is allowed to finish.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.pending:
			_ = p.save(context.WithoutCancel(ctx))
		}
	}
}

// Flush writes the current snapshot synchronously.
func (p *Persister) Flush(ctx context.Context) error {
	select {
	case <-p.pending:
	default:
	}
	return p.save(ctx)
}

func (p *Persister) save(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	payload, err := p.state.Encode()
	if err == nil {
		err = p.saver.Save(ctx, payload)
	}
	p.metrics.ObservePersist(p.backend, time.Since(start), err)
	if err != nil {
		logCtx := p.logg.WithField(ctx, "backend", p.backend)
		p.logg.Error(logCtx, "snapshot.persist_failed", err)
		return err
	}
	return nil
}

// Load restores the state from storage. An empty store yields the first-boot
// defaults and fresh is true so the caller can write them out.
func Load(ctx context.Context, loader Loader, loc *time.Location, logg *logger.Logger) (st *State, fresh bool, err error) {
	payload, err := loader.Load(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		if logg != nil {
			logg.Info(ctx, "snapshot.seeded_defaults")
		}
		return New(nil), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	result, err := Decode(payload, loc)
	if err != nil {
		return nil, false, err
	}
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"orders":            len(result.Snapshot.Orders),
			"backfilled_orders": result.BackfilledOrders,
		})
		logg.Info(logCtx, "snapshot.loaded")
	}
	return New(result.Snapshot), result.BackfilledOrders > 0, nil
}
