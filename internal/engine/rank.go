package engine

import (
	"sort"

	"autotrade/internal/model"
)

// MinuteRanker buffers entry signals of one minute and releases them ranked
// once a later minute shows up.
type MinuteRanker struct {
	minute  string
	pending []model.EntrySignal
}

// Observe notes that a bar for minuteKey arrived. If it closes the buffered
// minute, the buffered signals are returned ranked.
func (r *MinuteRanker) Observe(minuteKey string) []model.EntrySignal {
	if r.minute == "" {
		r.minute = minuteKey
		return nil
	}
	if minuteKey <= r.minute {
		return nil
	}
	ranked := r.Flush()
	r.minute = minuteKey
	return ranked
}

// Add buffers sig under its own minute, flushing an older minute first. A
// signal for a minute that was already closed is released on its own.
func (r *MinuteRanker) Add(sig model.EntrySignal) []model.EntrySignal {
	if r.minute != "" && sig.MinuteKey < r.minute {
		return []model.EntrySignal{sig}
	}
	ranked := r.Observe(sig.MinuteKey)
	r.pending = append(r.pending, sig)
	return ranked
}

// Flush returns the buffered signals ranked and clears the buffer.
func (r *MinuteRanker) Flush() []model.EntrySignal {
	if len(r.pending) == 0 {
		return nil
	}
	ranked := Rank(r.pending)
	r.pending = nil
	return ranked
}

// Rank orders signals by score, highest first; ties go to the lower symbol.
func Rank(signals []model.EntrySignal) []model.EntrySignal {
	out := make([]model.EntrySignal, len(signals))
	copy(out, signals)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
