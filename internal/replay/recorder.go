package replay

import (
	"context"
	"sync"

	"autotrade/internal/model"
)

// Recorder collects bars during a run and writes them as parquet on Close.
type Recorder struct {
	mu   sync.Mutex
	path string
	bars []model.BarRow
}

func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

func (r *Recorder) WriteBar(_ context.Context, bar model.BarRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bars = append(r.bars, bar)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bars) == 0 {
		return nil
	}
	return WriteParquet(r.path, r.bars)
}
