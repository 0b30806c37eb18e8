// Package storage defines the durable mirror of the shop snapshot. Backends
// store one opaque JSON document and never interpret it.
package storage

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Backend persists the encoded snapshot wholesale.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Ping(ctx context.Context) error
	Close() error
}
