// Package sqlstore keeps the snapshot in a single row of store_snapshots,
// on Postgres or SQLite through GORM.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hostelmart/hostelmart-backend/internal/storage"
	"github.com/hostelmart/hostelmart-backend/pkg/db"
	"github.com/hostelmart/hostelmart-backend/pkg/db/models"
)

// DefaultSnapshotID names the row holding the shop state.
const DefaultSnapshotID = "shop"

// Store upserts the snapshot row on every save.
type Store struct {
	client *db.Client
	id     string
	now    func() time.Time
}

var _ storage.Backend = (*Store)(nil)

// New wraps a db client. An empty id uses DefaultSnapshotID.
func New(client *db.Client, id string) (*Store, error) {
	if client == nil {
		return nil, errors.New("db client required")
	}
	if id == "" {
		id = DefaultSnapshotID
	}
	return &Store{client: client, id: id, now: time.Now}, nil
}

// EnsureSchema creates the snapshot table when goose migrations are not used.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(&models.StoreSnapshot{})
}

// Load returns the stored payload or ErrNoSnapshot.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var row models.StoreSnapshot
	err := s.client.DB().WithContext(ctx).Where("id = ?", s.id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot row: %w", err)
	}
	return []byte(row.Payload), nil
}

// Save upserts the payload and bumps the row revision.
func (s *Store) Save(ctx context.Context, payload []byte) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var current models.StoreSnapshot
		err := tx.Where("id = ?", s.id).Take(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("read snapshot revision: %w", err)
		}
		row := models.StoreSnapshot{
			ID:        s.id,
			Payload:   string(payload),
			Revision:  current.Revision + 1,
			UpdatedAt: s.now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "revision", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("upsert snapshot row: %w", err)
		}
		return nil
	})
}

// Revision reports how many times the row has been written.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var row models.StoreSnapshot
	err := s.client.DB().WithContext(ctx).Select("revision").Where("id = ?", s.id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return row.Revision, err
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.client.Close()
}
