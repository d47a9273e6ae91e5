// Package state persists PositionSnapshots between runs so the step
// take-profit floor and armed flag survive restarts.
package state

import (
	"errors"
	"fmt"
	"strings"

	"autotrade/internal/model"
)

var ErrNotFound = errors.New("position not found")

// Store holds at most one snapshot per symbol. Implementations are safe for
// concurrent use.
type Store interface {
	Get(symbol string) (model.PositionSnapshot, bool)
	Put(snapshot model.PositionSnapshot) error
	Delete(symbol string) error
	All() []model.PositionSnapshot
	Close() error
}

const (
	BackendJSON   = "json"
	BackendBadger = "badger"
)

// Open returns the store for backend. For json, path is the positions file;
// for badger it is the database directory.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return OpenFile(path)
	case BackendBadger:
		return OpenBadger(path)
	default:
		return nil, fmt.Errorf("unknown state backend: %s", backend)
	}
}
