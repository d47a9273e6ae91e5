package md

import (
	"sort"
	"sync"

	"autotrade/internal/model"
)

// History keeps the most recent bars per symbol for inspection.
type History struct {
	mu      sync.RWMutex
	depth   int
	buffers map[string]*RingBuffer[model.BarRow]
}

func NewHistory(depth int) *History {
	return &History{
		depth:   depth,
		buffers: make(map[string]*RingBuffer[model.BarRow]),
	}
}

func (h *History) Add(bar model.BarRow) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.buffers[bar.Symbol]
	if !ok {
		buf = NewRingBuffer[model.BarRow](h.depth)
		h.buffers[bar.Symbol] = buf
	}
	buf.Add(bar)
}

// Bars returns the retained bars for symbol, oldest first.
func (h *History) Bars(symbol string) []model.BarRow {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buf, ok := h.buffers[symbol]
	if !ok {
		return nil
	}
	return buf.Values()
}

func (h *History) Symbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	symbols := make([]string, 0, len(h.buffers))
	for symbol := range h.buffers {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Latest returns the most recent bar for symbol.
func (h *History) Latest(symbol string) (model.BarRow, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buf, ok := h.buffers[symbol]
	if !ok {
		return model.BarRow{}, false
	}
	return buf.Last()
}
