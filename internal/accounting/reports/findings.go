package reports

import (
	"sort"
	"time"
)

// Finding is any row that can be ranked for anomaly display.
type Finding interface {
	// Magnitude is the ranking weight, typically the absolute difference.
	Magnitude() float64
	// Occurred is the row date; the zero time is allowed for point-in-time rows.
	Occurred() time.Time
	// Imbalanced reports whether the row violates its invariant.
	Imbalanced() bool
}

// Select filters, ranks and truncates findings. ModeUnbalanced keeps only
// imbalanced rows ordered by magnitude descending; ModeAll keeps everything
// ordered by date descending then magnitude descending. At most topN rows are
// returned; topN <= 0 keeps all survivors.
func Select[T Finding](items []T, mode Mode, topN int) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if mode == ModeUnbalanced && !item.Imbalanced() {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if mode == ModeAll && !out[i].Occurred().Equal(out[j].Occurred()) {
			return out[i].Occurred().After(out[j].Occurred())
		}
		return out[i].Magnitude() > out[j].Magnitude()
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
