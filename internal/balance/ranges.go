// Package balance holds the value ranges shared by every simulation system.
// Each system owns its own tuning; only the bounds that several packages must
// agree on live here.
package balance

// Relationship and profile ranges. The neutral baseline for all three is 0.
const (
	TrustMin     = -100.0
	TrustMax     = 100.0
	SuspicionMin = 0.0
	SuspicionMax = 100.0
	ClosenessMin = -100.0
	ClosenessMax = 100.0

	Neutral = 0.0
)

// Memory event ranges.
const (
	ImpactMin     = -10.0
	ImpactMax     = 10.0
	ImportanceMin = 0.0
	ImportanceMax = 10.0
)

// Journal score range (threat and bond).
const (
	ScoreMin = 0.0
	ScoreMax = 100.0
)

// Alliance strength range.
const (
	StrengthMin = 0.0
	StrengthMax = 100.0
)

// Rating range. RatingBaseline is where ambient buzz pulls the rating back to.
const (
	RatingMin      = 0.0
	RatingMax      = 10.0
	RatingBaseline = 5.0
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampTrust bounds a trust value.
func ClampTrust(v float64) float64 { return Clamp(v, TrustMin, TrustMax) }

// ClampSuspicion bounds a suspicion value.
func ClampSuspicion(v float64) float64 { return Clamp(v, SuspicionMin, SuspicionMax) }

// ClampCloseness bounds a closeness value.
func ClampCloseness(v float64) float64 { return Clamp(v, ClosenessMin, ClosenessMax) }

// ClampRating bounds a rating value.
func ClampRating(v float64) float64 { return Clamp(v, RatingMin, RatingMax) }

// Symmetric bounds v to [-limit, limit].
func Symmetric(v, limit float64) float64 { return Clamp(v, -limit, limit) }
