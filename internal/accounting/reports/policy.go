package reports

import "math"

// Mode selects which rows survive finding selection.
type Mode string

const (
	// ModeUnbalanced keeps only imbalanced rows, ranked by absolute difference.
	ModeUnbalanced Mode = "unbalanced"
	// ModeAll keeps every row, ranked by date then absolute difference.
	ModeAll Mode = "all"
)

// Valid reports whether the mode token is recognised.
func (m Mode) Valid() bool {
	return m == ModeUnbalanced || m == ModeAll
}

// Policy carries the tunable constants of the reconciliation engine. The
// defaults mirror the operational values; they are configuration, not law.
type Policy struct {
	ToleranceFloor float64
	ToleranceRatio float64
	TopN           int
	FindingsMode   Mode
}

// DefaultPolicy returns the operational defaults.
func DefaultPolicy() Policy {
	return Policy{
		ToleranceFloor: 1,
		ToleranceRatio: 1e-5,
		TopN:           10,
		FindingsMode:   ModeUnbalanced,
	}
}

// Tolerance computes the acceptance band for a comparison against base.
func (p Policy) Tolerance(base float64) float64 {
	return math.Max(p.ToleranceFloor, math.Abs(base)*p.ToleranceRatio)
}

// Mode resolves the effective findings mode, falling back to the policy
// default when the override is empty or unknown.
func (p Policy) Mode(override Mode) Mode {
	if override.Valid() {
		return override
	}
	if p.FindingsMode.Valid() {
		return p.FindingsMode
	}
	return ModeUnbalanced
}
