package perimeter

import (
	"sort"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

type endpoint struct {
	level int
	p     geo.Point2D
	strip int
	which int
	user  bool
}

// weld snaps near-coincident endpoints on the same level to one point.
// Endpoints are swept in (level, x, z) order; a cluster grows while the next
// point lies within tol of the cluster's first point, so the result depends
// on that order. Clusters of two or more move to their centroid rounded to
// 1mm. User-drawn endpoints never move: a cluster holding one snaps its
// derived members onto the first user-drawn endpoint instead. Derived
// strips that collapse to a point are dropped. weld returns the strips and
// the number of endpoints moved.
func weld(strips []plan.WallStrip, tol float64) ([]plan.WallStrip, int) {
	pts := make([]endpoint, 0, 2*len(strips))
	for i, s := range strips {
		user := !s.Source.IsDerived()
		pts = append(pts,
			endpoint{level: s.Level, p: s.A(), strip: i, which: 0, user: user},
			endpoint{level: s.Level, p: s.B(), strip: i, which: 1, user: user},
		)
	}
	sort.SliceStable(pts, func(i, j int) bool {
		a, b := pts[i], pts[j]
		if a.level != b.level {
			return a.level < b.level
		}
		if a.p.X != b.p.X {
			return a.p.X < b.p.X
		}
		return a.p.Z < b.p.Z
	})

	moved := 0
	for i := 0; i < len(pts); {
		first := pts[i]
		j := i + 1
		for j < len(pts) && pts[j].level == first.level && pts[j].p.Distance(first.p) <= tol {
			j++
		}
		if j-i >= 2 {
			moved += snapCluster(strips, pts[i:j])
		}
		i = j
	}

	out := strips[:0]
	for _, s := range strips {
		if s.Source.IsDerived() && s.A() == s.B() {
			continue
		}
		out = append(out, s)
	}
	return out, moved
}

func snapCluster(strips []plan.WallStrip, cluster []endpoint) int {
	target, anchored := geo.Point2D{}, false
	for _, ep := range cluster {
		if ep.user {
			target, anchored = ep.p, true
			break
		}
	}
	if !anchored {
		var sx, sz float64
		for _, ep := range cluster {
			sx += ep.p.X
			sz += ep.p.Z
		}
		n := float64(len(cluster))
		target = geo.RoundPoint(geo.Pt(sx/n, sz/n))
	}

	moved := 0
	for _, ep := range cluster {
		if ep.user {
			continue
		}
		if ep.p != target {
			moved++
		}
		strips[ep.strip].SetEndpoint(ep.which, target)
	}
	return moved
}

// yieldToUser drops derived strips whose key matches a user-drawn strip, so
// a user-drawn wall coincident with a room edge stands in for it.
func yieldToUser(strips []plan.WallStrip) ([]plan.WallStrip, int) {
	userKeys := make(map[string]struct{})
	for _, s := range strips {
		if !s.Source.IsDerived() {
			userKeys[s.Key()] = struct{}{}
		}
	}
	if len(userKeys) == 0 {
		return strips, 0
	}
	out := strips[:0]
	removed := 0
	for _, s := range strips {
		if _, ok := userKeys[s.Key()]; ok && s.Source.IsDerived() {
			removed++
			continue
		}
		out = append(out, s)
	}
	return out, removed
}
