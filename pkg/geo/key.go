package geo

import (
	"math"
	"strconv"
)

// RoundMM rounds v to the nearest millimetre. Halves round toward +Inf and
// negative zero collapses to zero, so keys built from the result are stable.
func RoundMM(v float64) float64 {
	r := math.Floor(v*1000+0.5) / 1000
	if r == 0 {
		return 0
	}
	return r
}

// RoundPoint rounds both coordinates of p to the nearest millimetre.
func RoundPoint(p Point2D) Point2D {
	return Point2D{X: RoundMM(p.X), Z: RoundMM(p.Z)}
}

// PointKey formats p as "x,z" after millimetre rounding.
func PointKey(p Point2D) string {
	return formatMM(p.X) + "," + formatMM(p.Z)
}

// SegmentKey is the level-free identity of an undirected segment: the two
// endpoint keys in lexicographic order joined by "|".
func SegmentKey(a, b Point2D) string {
	ka, kb := PointKey(a), PointKey(b)
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}

// EdgeKey is the identity of a wall on a floor level. Two edges share a key
// exactly when they sit on the same level and their endpoints agree to 1mm
// regardless of direction.
func EdgeKey(level int, a, b Point2D) string {
	return strconv.Itoa(level) + "#" + SegmentKey(a, b)
}

func formatMM(v float64) string {
	return strconv.FormatFloat(RoundMM(v), 'f', -1, 64)
}
