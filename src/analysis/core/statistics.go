package core

import (
	"math"

	"github.com/guregu/null/v6"
)

// -----------------------------------------------------------------------------

// NullableMean averages the valid, finite values. It returns null when there
// are none, so an absent input never turns into a zero.
func NullableMean(values []null.Float) null.Float {
	sum := 0.0
	n := 0
	for _, v := range values {
		if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
			continue
		}
		sum += v.Float64
		n++
	}

	if n == 0 {
		return null.Float{}
	}
	return null.FloatFrom(sum / float64(n))
}

// -----------------------------------------------------------------------------

// SumTreatingNullAsZero adds the valid values and counts null as zero.
func SumTreatingNullAsZero(values []null.Int) int64 {
	var total int64
	for _, v := range values {
		if v.Valid {
			total += v.Int64
		}
	}
	return total
}

// -----------------------------------------------------------------------------

// SafeRatio divides numerator by denominator, returning null for a zero
// denominator.
func SafeRatio(numerator, denominator int64) null.Float {
	if denominator == 0 {
		return null.Float{}
	}
	return null.FloatFrom(float64(numerator) / float64(denominator))
}
