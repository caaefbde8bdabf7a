package geo

import "github.com/paulmach/orb"

// Bounds is an axis-aligned box in the XZ plane. It wraps orb.Bound with
// orb's X mapped to X and orb's Y mapped to Z.
type Bounds struct {
	orb.Bound
}

// NewBounds builds a box from its extremes. Swapped extremes are reordered.
func NewBounds(minX, minZ, maxX, maxZ float64) Bounds {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minZ > maxZ {
		minZ, maxZ = maxZ, minZ
	}
	return Bounds{orb.Bound{Min: orb.Point{minX, minZ}, Max: orb.Point{maxX, maxZ}}}
}

func (b Bounds) MinX() float64 { return b.Min[0] }
func (b Bounds) MinZ() float64 { return b.Min[1] }
func (b Bounds) MaxX() float64 { return b.Max[0] }
func (b Bounds) MaxZ() float64 { return b.Max[1] }

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{b.Bound.Union(o.Bound)}
}

// Pad grows the box by d on every side.
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{b.Bound.Pad(d)}
}

// ContainsPoint reports whether p lies inside or on the boundary of b.
func (b Bounds) ContainsPoint(p Point2D) bool {
	return b.Bound.Contains(toOrb(p))
}

// IntersectsSegment reports whether any part of s lies inside or on b.
// An endpoint inside accepts immediately; a segment whose extent misses the
// box on either axis is rejected; otherwise s is tested against each box edge.
func (b Bounds) IntersectsSegment(s Segment) bool {
	if b.ContainsPoint(s.A) || b.ContainsPoint(s.B) {
		return true
	}
	minX, minZ, maxX, maxZ := b.MinX(), b.MinZ(), b.MaxX(), b.MaxZ()
	if (s.A.X < minX && s.B.X < minX) || (s.A.X > maxX && s.B.X > maxX) ||
		(s.A.Z < minZ && s.B.Z < minZ) || (s.A.Z > maxZ && s.B.Z > maxZ) {
		return false
	}
	c0, c1, c2, c3 := Pt(minX, minZ), Pt(maxX, minZ), Pt(maxX, maxZ), Pt(minX, maxZ)
	return s.Intersects(Seg(c0, c1)) ||
		s.Intersects(Seg(c1, c2)) ||
		s.Intersects(Seg(c2, c3)) ||
		s.Intersects(Seg(c3, c0))
}

func toOrb(p Point2D) orb.Point {
	return orb.Point{p.X, p.Z}
}
