package plan

import (
	"errors"
	"fmt"

	"github.com/JMS2088/gablok/pkg/geo"
)

// Default wall dimensions used when an entity leaves them unset.
const (
	DefaultRoomHeight   = 3.0
	DefaultGarageHeight = 2.6
)

// ErrUnknownOpeningType is returned for openings that are neither doors nor windows.
var ErrUnknownOpeningType = errors.New("unknown opening type")

// Room is a floor-plan room. When Footprint is empty the rectangle
// (X, Z, Width, Depth, Rotation) defines an implicit four-vertex polygon.
type Room struct {
	ID        string        `yaml:"id" json:"id"`
	Name      string        `yaml:"name,omitempty" json:"name,omitempty"`
	Level     int           `yaml:"level" json:"level"`
	Height    float64       `yaml:"height,omitempty" json:"height,omitempty"`
	X         float64       `yaml:"x" json:"x"`
	Z         float64       `yaml:"z" json:"z"`
	Width     float64       `yaml:"width" json:"width"`
	Depth     float64       `yaml:"depth" json:"depth"`
	Rotation  float64       `yaml:"rotation,omitempty" json:"rotation,omitempty"` // degrees
	Footprint []geo.Point2D `yaml:"footprint,omitempty" json:"footprint,omitempty"`
	Openings  []Opening     `yaml:"openings,omitempty" json:"openings,omitempty"`
}

// HasFootprint reports whether the room is described by an explicit polygon.
// A non-nil empty footprint is a polygon that collapsed during
// normalization; it still counts, so the room is skipped rather than
// rebuilt from its rectangle.
func (r Room) HasFootprint() bool {
	return r.Footprint != nil
}

// WallHeight returns the room height or the default when unset.
func (r Room) WallHeight() float64 {
	if r.Height > 0 {
		return r.Height
	}
	return DefaultRoomHeight
}

// Garage is always rectangular. Its longest side is the door face and never
// gets a wall.
type Garage struct {
	ID       string  `yaml:"id" json:"id"`
	Level    int     `yaml:"level" json:"level"`
	X        float64 `yaml:"x" json:"x"`
	Z        float64 `yaml:"z" json:"z"`
	Width    float64 `yaml:"width" json:"width"`
	Depth    float64 `yaml:"depth" json:"depth"`
	Rotation float64 `yaml:"rotation,omitempty" json:"rotation,omitempty"` // degrees
	Height   float64 `yaml:"height,omitempty" json:"height,omitempty"`
}

// WallHeight returns the garage height or the default when unset.
func (g Garage) WallHeight() float64 {
	if g.Height > 0 {
		return g.Height
	}
	return DefaultGarageHeight
}

// OpeningType identifies the kind of opening cut into a wall.
type OpeningType string

const (
	OpeningDoor   OpeningType = "door"
	OpeningWindow OpeningType = "window"
)

// Validate rejects unknown opening types.
func (t OpeningType) Validate() error {
	switch t {
	case OpeningDoor, OpeningWindow:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownOpeningType, string(t))
}

// DefaultSill returns the sill height used when an opening leaves it unset.
func (t OpeningType) DefaultSill() float64 {
	if t == OpeningDoor {
		return 0
	}
	return 0.9
}

// DefaultHeight returns the opening height used when an opening leaves it unset.
func (t OpeningType) DefaultHeight() float64 {
	if t == OpeningDoor {
		return 2.04
	}
	return 1.5
}

// RectEdge names one side of a rectangle room in its local frame.
type RectEdge string

const (
	EdgeMinX RectEdge = "minX"
	EdgeMaxX RectEdge = "maxX"
	EdgeMinZ RectEdge = "minZ"
	EdgeMaxZ RectEdge = "maxZ"
)

// Opening is a door or window record on a room. It is located either by
// world endpoints (X0..Z1) or, for rectangle rooms, by an offset range along
// a named edge.
type Opening struct {
	Type    OpeningType    `yaml:"type" json:"type"`
	X0      *float64       `yaml:"x0,omitempty" json:"x0,omitempty"`
	Z0      *float64       `yaml:"z0,omitempty" json:"z0,omitempty"`
	X1      *float64       `yaml:"x1,omitempty" json:"x1,omitempty"`
	Z1      *float64       `yaml:"z1,omitempty" json:"z1,omitempty"`
	Edge    RectEdge       `yaml:"edge,omitempty" json:"edge,omitempty"`
	StartM  *float64       `yaml:"start_m,omitempty" json:"start_m,omitempty"`
	EndM    *float64       `yaml:"end_m,omitempty" json:"end_m,omitempty"`
	SillM   *float64       `yaml:"sill_m,omitempty" json:"sill_m,omitempty"`
	HeightM *float64       `yaml:"height_m,omitempty" json:"height_m,omitempty"`
	Meta    map[string]any `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// WorldEndpoints returns the world-space endpoints when all four are set.
func (o Opening) WorldEndpoints() (geo.Point2D, geo.Point2D, bool) {
	if o.X0 == nil || o.Z0 == nil || o.X1 == nil || o.Z1 == nil {
		return geo.Point2D{}, geo.Point2D{}, false
	}
	return geo.Pt(*o.X0, *o.Z0), geo.Pt(*o.X1, *o.Z1), true
}

// EdgeRange returns the offsets along the named edge, ordered start <= end.
func (o Opening) EdgeRange() (RectEdge, float64, float64, bool) {
	if o.Edge == "" || o.StartM == nil || o.EndM == nil {
		return "", 0, 0, false
	}
	s, e := *o.StartM, *o.EndM
	if e < s {
		s, e = e, s
	}
	return o.Edge, s, e, true
}

// Resolve fixes the opening at world endpoints a→b and applies default
// sill and height.
func (o Opening) Resolve(a, b geo.Point2D) ResolvedOpening {
	sill := o.Type.DefaultSill()
	if o.SillM != nil {
		sill = *o.SillM
	}
	height := o.Type.DefaultHeight()
	if o.HeightM != nil {
		height = *o.HeightM
	}
	return ResolvedOpening{
		Type:    o.Type,
		X0:      a.X,
		Z0:      a.Z,
		X1:      b.X,
		Z1:      b.Z,
		SillM:   sill,
		HeightM: height,
		Meta:    o.Meta,
	}
}

// ResolvedOpening is an opening attached to a wall strip: world endpoints
// with sill and height filled in.
type ResolvedOpening struct {
	Type    OpeningType    `yaml:"type" json:"type"`
	X0      float64        `yaml:"x0" json:"x0"`
	Z0      float64        `yaml:"z0" json:"z0"`
	X1      float64        `yaml:"x1" json:"x1"`
	Z1      float64        `yaml:"z1" json:"z1"`
	SillM   float64        `yaml:"sill_m" json:"sill_m"`
	HeightM float64        `yaml:"height_m" json:"height_m"`
	Meta    map[string]any `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// F returns a pointer to v, for filling optional opening fields.
func F(v float64) *float64 {
	return &v
}
