package periods

import "time"

// Granularity selects month or year scoped reporting.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Valid reports whether the granularity token is recognised.
func (g Granularity) Valid() bool {
	return g == GranularityMonth || g == GranularityYear
}

// Period is the resolved reporting window. Effective carries the snapshot
// period (YYYYMM) backing point-in-time sections; it is empty when no snapshot
// exists in scope, in which case balance-sheet and equity sections report empty
// results while transactional sections still compute over Start..End.
type Period struct {
	Granularity    Granularity
	Token          string
	Start          time.Time
	End            time.Time
	Label          string
	Effective      string
	EffectiveLabel string
}
