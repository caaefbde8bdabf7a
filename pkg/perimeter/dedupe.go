package perimeter

import (
	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

// dedupe keeps one strip per edge key: the last derived strip if the key has
// any, otherwise the last one inserted. Survivors keep their relative order.
// It returns the strips and the number removed.
func dedupe(strips []plan.WallStrip) ([]plan.WallStrip, int) {
	return collapse(strips, false)
}

// dedupeMerging is dedupe for the rebuild, where welding can fold the walls
// of two rooms onto one key. A derived survivor takes over the openings of
// the derived strips it displaces, in insertion order.
func dedupeMerging(strips []plan.WallStrip) ([]plan.WallStrip, int) {
	return collapse(strips, true)
}

func collapse(strips []plan.WallStrip, mergeOpenings bool) ([]plan.WallStrip, int) {
	winner := make(map[string]int, len(strips))
	count := make(map[string]int, len(strips))
	keys := make([]string, len(strips))
	for i, s := range strips {
		k := s.Key()
		keys[i] = k
		count[k]++
		cur, seen := winner[k]
		if !seen || replaces(s, strips[cur]) {
			winner[k] = i
		}
	}
	if len(winner) == len(strips) {
		return strips, 0
	}

	var pooled map[string][]plan.ResolvedOpening
	if mergeOpenings {
		pooled = make(map[string][]plan.ResolvedOpening)
		for i, s := range strips {
			k := keys[i]
			if count[k] > 1 && s.Source.IsDerived() && strips[winner[k]].Source.IsDerived() {
				pooled[k] = appendOpenings(pooled[k], s.Openings)
			}
		}
	}

	out := make([]plan.WallStrip, 0, len(winner))
	for i, s := range strips {
		if winner[keys[i]] != i {
			continue
		}
		if ops, ok := pooled[keys[i]]; ok {
			s.Openings = ops
		}
		out = append(out, s)
	}
	return out, len(strips) - len(out)
}

// appendOpenings appends the openings not already in dst. Two openings are
// the same when their type matches and their endpoints agree to the
// millimetre, in either direction.
func appendOpenings(dst, src []plan.ResolvedOpening) []plan.ResolvedOpening {
	for _, o := range src {
		dup := false
		for _, d := range dst {
			if sameOpening(o, d) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, o)
		}
	}
	return dst
}

func sameOpening(a, b plan.ResolvedOpening) bool {
	if a.Type != b.Type {
		return false
	}
	return geo.SegmentKey(geo.Pt(a.X0, a.Z0), geo.Pt(a.X1, a.Z1)) ==
		geo.SegmentKey(geo.Pt(b.X0, b.Z0), geo.Pt(b.X1, b.Z1))
}

// replaces reports whether a later strip displaces the current holder of
// its key. A user-drawn strip never displaces a derived one.
func replaces(later, current plan.WallStrip) bool {
	switch later.Source.Kind {
	case plan.RoomDerived, plan.GarageDerived:
		return true
	case plan.UserDrawn:
		return !current.Source.IsDerived()
	}
	panic("perimeter: unhandled source kind " + later.Source.Kind.String())
}
