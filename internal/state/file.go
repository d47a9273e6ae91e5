package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"autotrade/internal/model"
)

type positionsFile struct {
	Positions []model.PositionSnapshot `json:"positions"`
}

// FileStore keeps snapshots in memory and rewrites the positions file after
// every mutation.
type FileStore struct {
	mu        sync.RWMutex
	path      string
	positions map[string]model.PositionSnapshot
}

// OpenFile loads path if it exists. A missing file starts an empty store.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path:      path,
		positions: map[string]model.PositionSnapshot{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Get(symbol string) (model.PositionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.positions[symbol]
	return snapshot, ok
}

func (s *FileStore) Put(snapshot model.PositionSnapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := maps.Clone(s.positions)
	next[snapshot.Symbol] = snapshot
	return s.commit(next)
}

func (s *FileStore) Delete(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[symbol]; !ok {
		return nil
	}
	next := maps.Clone(s.positions)
	delete(next, symbol)
	return s.commit(next)
}

// All returns the snapshots ordered by symbol.
func (s *FileStore) All() []model.PositionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PositionSnapshot, 0, len(s.positions))
	for _, snapshot := range s.positions {
		out = append(out, snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writePositions(s.path, s.positions)
}

// commit persists next and only then makes it the live map, so a failed
// write leaves memory matching the file.
func (s *FileStore) commit(next map[string]model.PositionSnapshot) error {
	if err := writePositions(s.path, next); err != nil {
		return err
	}
	s.positions = next
	return nil
}

func writePositions(path string, positions map[string]model.PositionSnapshot) error {
	doc := positionsFile{Positions: make([]model.PositionSnapshot, 0, len(positions))}
	for _, snapshot := range positions {
		doc.Positions = append(doc.Positions, snapshot)
	}
	sort.Slice(doc.Positions, func(i, j int) bool { return doc.Positions[i].Symbol < doc.Positions[j].Symbol })

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace positions: %w", err)
	}
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}
	var doc positionsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	for _, snapshot := range doc.Positions {
		s.positions[snapshot.Symbol] = snapshot
	}
	return nil
}
