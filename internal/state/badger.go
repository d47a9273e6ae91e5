package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"autotrade/internal/model"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "position/"

// BadgerStore keeps one JSON snapshot per symbol under position/<SYMBOL>.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens the database in dir. An empty dir keeps it in memory.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(symbol string) (model.PositionSnapshot, bool) {
	var snapshot model.PositionSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + symbol))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snapshot)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.PositionSnapshot{}, false
	}
	if err != nil {
		slog.Error("read position failed", "symbol", symbol, "error", err)
		return model.PositionSnapshot{}, false
	}
	return snapshot, true
}

func (s *BadgerStore) Put(snapshot model.PositionSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+snapshot.Symbol), data)
	})
}

func (s *BadgerStore) Delete(symbol string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + symbol))
	})
}

// All returns the snapshots in key order, which is symbol order.
func (s *BadgerStore) All() []model.PositionSnapshot {
	var out []model.PositionSnapshot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var snapshot model.PositionSnapshot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snapshot)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, snapshot)
		}
		return nil
	})
	if err != nil {
		slog.Error("list positions failed", "error", err)
	}
	return out
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
