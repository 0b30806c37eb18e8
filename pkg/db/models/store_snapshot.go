package models

import "time"

// StoreSnapshot is the single-row table holding the encoded shop state.
type StoreSnapshot struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	Revision  int64     `gorm:"column:revision;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName pins the table created by the goose migration.
func (StoreSnapshot) TableName() string { return "store_snapshots" }
