// Package footprint turns rooms and garages into the ordered boundary edges
// that wall strips are generated from, and places room openings on those
// edges.
package footprint

import (
	"errors"
	"fmt"
	"math"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

// Reasons an entity is skipped by the extractor.
var (
	ErrNonFinite       = errors.New("non-finite coordinates")
	ErrTooFewVertices  = errors.New("footprint has fewer than 3 vertices")
	ErrBadDimensions   = errors.New("width and depth must be positive")
	ErrMissingEntityID = errors.New("entity has no id")
)

// Edge is one boundary edge of a footprint, in footprint order.
type Edge struct {
	A, B  geo.Point2D
	Index int // position in the unfiltered edge ring
}

// Segment returns the edge as a geo.Segment.
func (e Edge) Segment() geo.Segment { return geo.Seg(e.A, e.B) }

// Key returns the level-qualified edge key.
func (e Edge) Key(level int) string { return geo.EdgeKey(level, e.A, e.B) }

// Outline is the extracted boundary of one room or garage.
type Outline struct {
	Level   int
	Polygon geo.Polygon // full footprint ring, including excluded edges
	Edges   []Edge      // edges that receive walls
	Rect    *Rect       // set for rectangle rooms and garages
}

// InteriorLeft reports whether the interior lies to the left of each edge,
// which holds for counterclockwise rings.
func (o Outline) InteriorLeft() bool {
	return o.Polygon.IsCounterClockwise()
}

// OuterFaceLeft reports which side of e faces outward for rendering. Edges
// running along the footprint's longer axis flip the interior side.
func (o Outline) OuterFaceLeft(e Edge) bool {
	alongLonger := e.Segment().XDominant() == o.Polygon.LongerAxisIsX()
	return alongLonger != o.InteriorLeft()
}

// Rect is the centre, half extents and rotation of a rectangular entity.
type Rect struct {
	Center       geo.Point2D
	HalfW, HalfD float64
	Rotation     float64 // radians
}

// Corners returns the four rotated corners in edge order:
// (-hw,-hd), (hw,-hd), (hw,hd), (-hw,hd).
func (r Rect) Corners() []geo.Point2D {
	local := []geo.Point2D{
		geo.Pt(-r.HalfW, -r.HalfD),
		geo.Pt(r.HalfW, -r.HalfD),
		geo.Pt(r.HalfW, r.HalfD),
		geo.Pt(-r.HalfW, r.HalfD),
	}
	out := make([]geo.Point2D, len(local))
	for i, p := range local {
		out[i] = r.ToWorld(p)
	}
	return out
}

// ToWorld maps a point from the rectangle's local frame to world space.
func (r Rect) ToWorld(p geo.Point2D) geo.Point2D {
	if r.Rotation == 0 {
		return r.Center.Add(p)
	}
	return r.Center.Add(p.Rotate(r.Rotation))
}

// ToLocal maps a world point into the rectangle's local frame.
func (r Rect) ToLocal(p geo.Point2D) geo.Point2D {
	d := p.Sub(r.Center)
	if r.Rotation == 0 {
		return d
	}
	return d.Rotate(-r.Rotation)
}

func newRect(x, z, width, depth, rotationDeg float64) Rect {
	return Rect{
		Center:   geo.Pt(x, z),
		HalfW:    width / 2,
		HalfD:    depth / 2,
		Rotation: geo.Radians(rotationDeg),
	}
}

// CheckRoom returns the reason a room cannot produce walls, or nil.
func CheckRoom(r plan.Room) error {
	if r.ID == "" {
		return ErrMissingEntityID
	}
	if r.HasFootprint() {
		if len(r.Footprint) < 3 {
			return fmt.Errorf("%w (got %d)", ErrTooFewVertices, len(r.Footprint))
		}
		if !geo.NewPolygon(r.Footprint...).IsFinite() {
			return ErrNonFinite
		}
		return nil
	}
	return checkRect(r.X, r.Z, r.Width, r.Depth, r.Rotation)
}

// CheckGarage returns the reason a garage cannot produce walls, or nil.
func CheckGarage(g plan.Garage) error {
	if g.ID == "" {
		return ErrMissingEntityID
	}
	return checkRect(g.X, g.Z, g.Width, g.Depth, g.Rotation)
}

func checkRect(x, z, width, depth, rotation float64) error {
	for _, v := range []float64{x, z, width, depth, rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	if width <= 0 || depth <= 0 {
		return fmt.Errorf("%w (got %gx%g)", ErrBadDimensions, width, depth)
	}
	return nil
}

// ExtractRoom returns the outline of a room. Polygon rooms produce one edge
// per vertex, closing back to the first; rectangle rooms produce four.
func ExtractRoom(r plan.Room) (Outline, error) {
	if err := CheckRoom(r); err != nil {
		return Outline{}, err
	}
	if r.HasFootprint() {
		poly := geo.NewPolygon(r.Footprint...)
		return Outline{Level: r.Level, Polygon: poly, Edges: ringEdges(poly)}, nil
	}
	rect := newRect(r.X, r.Z, r.Width, r.Depth, r.Rotation)
	poly := geo.NewPolygon(rect.Corners()...)
	return Outline{Level: r.Level, Polygon: poly, Edges: ringEdges(poly), Rect: &rect}, nil
}

// ExtractGarage returns the outline of a garage without its door face: the
// longest of the four rotated edges, the first one enumerated on ties.
func ExtractGarage(g plan.Garage) (Outline, error) {
	if err := CheckGarage(g); err != nil {
		return Outline{}, err
	}
	rect := newRect(g.X, g.Z, g.Width, g.Depth, g.Rotation)
	poly := geo.NewPolygon(rect.Corners()...)
	ring := ringEdges(poly)

	door := DoorEdge(ring)
	edges := make([]Edge, 0, len(ring)-1)
	for _, e := range ring {
		if e.Index != door {
			edges = append(edges, e)
		}
	}
	return Outline{Level: g.Level, Polygon: poly, Edges: edges, Rect: &rect}, nil
}

// lengthTieEps absorbs rotation round-off so equal sides tie.
const lengthTieEps = 1e-9

// DoorEdge returns the index of the longest edge, keeping the earliest on ties.
func DoorEdge(ring []Edge) int {
	best, bestLen := -1, -1.0
	for _, e := range ring {
		if l := e.Segment().Length(); l > bestLen+lengthTieEps {
			best, bestLen = e.Index, l
		}
	}
	return best
}

func ringEdges(poly geo.Polygon) []Edge {
	edges := make([]Edge, poly.Len())
	for i := range edges {
		a, b := poly.Edge(i)
		edges[i] = Edge{A: a, B: b, Index: i}
	}
	return edges
}
