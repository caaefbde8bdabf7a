package plan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JMS2088/gablok/pkg/geo"
)

// SourceKind discriminates the provenance of a wall strip.
type SourceKind int

const (
	UserDrawn SourceKind = iota
	RoomDerived
	GarageDerived
)

var sourceKindNames = map[SourceKind]string{
	UserDrawn:     "user",
	RoomDerived:   "room",
	GarageDerived: "garage",
}

func (k SourceKind) String() string {
	if s, ok := sourceKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k SourceKind) MarshalText() ([]byte, error) {
	if _, ok := sourceKindNames[k]; !ok {
		return nil, fmt.Errorf("invalid source kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SourceKind) UnmarshalText(b []byte) error {
	for kind, name := range sourceKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("invalid source kind %q", string(b))
}

// Source records who owns a wall strip. Derived strips carry the ID of the
// room or garage they were generated from; user-drawn strips have no owner.
type Source struct {
	Kind    SourceKind `yaml:"kind" json:"kind"`
	OwnerID string     `yaml:"owner_id,omitempty" json:"owner_id,omitempty"`
}

// FromRoom tags a strip as generated from the room with the given ID.
func FromRoom(id string) Source { return Source{Kind: RoomDerived, OwnerID: id} }

// FromGarage tags a strip as generated from the garage with the given ID.
func FromGarage(id string) Source { return Source{Kind: GarageDerived, OwnerID: id} }

// FromUser tags a strip as drawn directly by the user.
func FromUser() Source { return Source{Kind: UserDrawn} }

// IsDerived reports whether the strip is regenerated from a room or garage.
func (s Source) IsDerived() bool {
	switch s.Kind {
	case RoomDerived, GarageDerived:
		return true
	case UserDrawn:
		return false
	}
	panic(fmt.Sprintf("plan: unhandled source kind %v", s.Kind))
}

// References reports whether the strip belongs to the entity with the given ID.
// User-drawn strips reference nothing.
func (s Source) References(entityID string) bool {
	return s.IsDerived() && s.OwnerID == entityID
}

func (s Source) String() string {
	if s.Kind == UserDrawn {
		return s.Kind.String()
	}
	return s.Kind.String() + ":" + s.OwnerID
}

// WallStrip is a single straight wall segment on one floor level.
type WallStrip struct {
	ID            string            `yaml:"id" json:"id"`
	X0            float64           `yaml:"x0" json:"x0"`
	Z0            float64           `yaml:"z0" json:"z0"`
	X1            float64           `yaml:"x1" json:"x1"`
	Z1            float64           `yaml:"z1" json:"z1"`
	Thickness     float64           `yaml:"thickness" json:"thickness"`
	Height        float64           `yaml:"height" json:"height"`
	BaseY         float64           `yaml:"base_y" json:"base_y"`
	Level         int               `yaml:"level" json:"level"`
	Openings      []ResolvedOpening `yaml:"openings,omitempty" json:"openings"`
	Source        Source            `yaml:"source" json:"source"`
	OuterFaceLeft bool              `yaml:"outer_face_left,omitempty" json:"outer_face_left"`
	InteriorLeft  bool              `yaml:"interior_left,omitempty" json:"interior_left"`
}

// A returns the start point.
func (w WallStrip) A() geo.Point2D { return geo.Pt(w.X0, w.Z0) }

// B returns the end point.
func (w WallStrip) B() geo.Point2D { return geo.Pt(w.X1, w.Z1) }

// Segment returns the strip centreline.
func (w WallStrip) Segment() geo.Segment { return geo.Seg(w.A(), w.B()) }

// Length returns the centreline length.
func (w WallStrip) Length() float64 { return w.A().Distance(w.B()) }

// Key returns the level-qualified, direction-free identity of the strip.
func (w WallStrip) Key() string {
	return geo.EdgeKey(w.Level, w.A(), w.B())
}

// SetEndpoint overwrites endpoint 0 (start) or 1 (end).
func (w *WallStrip) SetEndpoint(which int, p geo.Point2D) {
	if which == 0 {
		w.X0, w.Z0 = p.X, p.Z
		return
	}
	w.X1, w.Z1 = p.X, p.Z
}

// Clone returns a deep copy of the strip.
func (w WallStrip) Clone() WallStrip {
	c := w
	if w.Openings != nil {
		c.Openings = make([]ResolvedOpening, len(w.Openings))
		copy(c.Openings, w.Openings)
	}
	return c
}

var stripNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://gablok.app/wall-strip"))

// DerivedStripID is the stable handle of the strip a source generates for an
// edge key. Regenerating the same edge yields the same ID.
func DerivedStripID(src Source, key string) string {
	return uuid.NewSHA1(stripNamespace, []byte(src.String()+"|"+key)).String()
}

// NewStripID returns a fresh random handle for a user-drawn strip.
func NewStripID() string {
	return uuid.NewString()
}

// CloneStrips deep-copies a strip slice.
func CloneStrips(in []WallStrip) []WallStrip {
	out := make([]WallStrip, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
