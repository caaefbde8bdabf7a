package footprint

import (
	"math"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

const (
	// openingDistEps is how far an opening endpoint may sit off the edge line.
	openingDistEps = 0.06
	// openingParamSlack lets endpoints overhang the edge ends slightly.
	openingParamSlack = 1e-3
	// rectEdgeEps is the tolerance for matching a named rectangle side.
	rectEdgeEps = 1e-6
)

// ProjectOpenings assigns each opening of the room to the single outline
// edge it lies on. The result maps edge Index to its resolved openings, in
// the room's opening order. Openings that match no edge, or whose type is
// unknown, are dropped.
func ProjectOpenings(r plan.Room, o Outline) map[int][]plan.ResolvedOpening {
	if len(r.Openings) == 0 {
		return nil
	}
	out := make(map[int][]plan.ResolvedOpening)
	for _, op := range r.Openings {
		if op.Type.Validate() != nil {
			continue
		}
		for _, e := range o.Edges {
			if resolved, ok := matchOpening(op, e, o.Rect); ok {
				out[e.Index] = append(out[e.Index], resolved)
				break
			}
		}
	}
	return out
}

func matchOpening(op plan.Opening, e Edge, rect *Rect) (plan.ResolvedOpening, bool) {
	if a, b, ok := op.WorldEndpoints(); ok {
		if onEdge(a, b, e.Segment()) {
			return op.Resolve(a, b), true
		}
		return plan.ResolvedOpening{}, false
	}
	if rect == nil {
		return plan.ResolvedOpening{}, false
	}
	side, start, end, ok := op.EdgeRange()
	if !ok {
		return plan.ResolvedOpening{}, false
	}
	a, b, ok := rectSideSpan(*rect, e, side, start, end)
	if !ok {
		return plan.ResolvedOpening{}, false
	}
	return op.Resolve(a, b), true
}

func onEdge(a, b geo.Point2D, s geo.Segment) bool {
	pa, okA := s.Project(a)
	pb, okB := s.Project(b)
	if !okA || !okB {
		return false
	}
	return pa.Distance <= openingDistEps && pb.Distance <= openingDistEps &&
		pa.T >= -openingParamSlack && pb.T <= 1+openingParamSlack
}

// rectSideSpan converts an offset range along a named rectangle side into
// world endpoints, provided e is that side. Offsets run from the minX corner
// for Z sides and from the minZ corner for X sides, in the rectangle's local
// frame.
func rectSideSpan(r Rect, e Edge, side plan.RectEdge, start, end float64) (geo.Point2D, geo.Point2D, bool) {
	la, lb := r.ToLocal(e.A), r.ToLocal(e.B)
	xL, xR, zT, zB := -r.HalfW, r.HalfW, -r.HalfD, r.HalfD

	var s, t geo.Point2D
	switch side {
	case plan.EdgeMinZ:
		if !both(la.Z, lb.Z, zT) {
			return geo.Point2D{}, geo.Point2D{}, false
		}
		s, t = geo.Pt(xL+start, zT), geo.Pt(xL+end, zT)
	case plan.EdgeMaxZ:
		if !both(la.Z, lb.Z, zB) {
			return geo.Point2D{}, geo.Point2D{}, false
		}
		s, t = geo.Pt(xL+start, zB), geo.Pt(xL+end, zB)
	case plan.EdgeMinX:
		if !both(la.X, lb.X, xL) {
			return geo.Point2D{}, geo.Point2D{}, false
		}
		s, t = geo.Pt(xL, zT+start), geo.Pt(xL, zT+end)
	case plan.EdgeMaxX:
		if !both(la.X, lb.X, xR) {
			return geo.Point2D{}, geo.Point2D{}, false
		}
		s, t = geo.Pt(xR, zT+start), geo.Pt(xR, zT+end)
	default:
		return geo.Point2D{}, geo.Point2D{}, false
	}
	return r.ToWorld(s), r.ToWorld(t), true
}

func both(a, b, want float64) bool {
	return math.Abs(a-want) <= rectEdgeEps && math.Abs(b-want) <= rectEdgeEps
}
