// Package scene turns a wall strip collection into the 3D scene graph that
// renderers and exporters consume: one box per wall, one per opening, and a
// floor slab per room.
package scene

import "strconv"

// EntityType identifies the kind of entity.
type EntityType string

const (
	EntityWall   EntityType = "wall"
	EntityDoor   EntityType = "door"
	EntityWindow EntityType = "window"
	EntityFloor  EntityType = "floor"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox defines an axis-aligned bounding box.
type BoundingBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Entity is a single element in the scene graph. Position is the centre of
// the footprint at the entity's base; Dimensions are thickness (X), height
// (Y) and run length (Z) before rotation.
type Entity struct {
	ID         string         `json:"id"`
	Type       EntityType     `json:"type"`
	Position   Vec3           `json:"position"`
	Dimensions Vec3           `json:"dimensions"`
	Rotation   [4]float64     `json:"rotation"` // quaternion [x, y, z, w]
	Material   string         `json:"material"`
	Level      int            `json:"level"`
	Source     string         `json:"source,omitempty"`
	Owner      string         `json:"owner,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Children   []string       `json:"children,omitempty"`
}

// Graph is the complete scene graph.
type Graph struct {
	Metadata Metadata `json:"metadata"`
	Entities []Entity `json:"entities"`
	Groups   Groups   `json:"groups"`
}

// Metadata holds scene-level information.
type Metadata struct {
	GeneratedAt string      `json:"generated_at"`
	WallCount   int         `json:"wall_count"`
	Bounds      BoundingBox `json:"bounds"`
}

// Groups organizes entity IDs by various axes for fast filtering.
type Groups struct {
	Levels      map[string][]string     `json:"levels"`
	Sources     map[string][]string     `json:"sources"`
	Owners      map[string][]string     `json:"owners"`
	EntityTypes map[EntityType][]string `json:"entity_types"`
}

// NewGraph creates an empty scene graph.
func NewGraph() *Graph {
	return &Graph{
		Entities: []Entity{},
		Groups: Groups{
			Levels:      make(map[string][]string),
			Sources:     make(map[string][]string),
			Owners:      make(map[string][]string),
			EntityTypes: make(map[EntityType][]string),
		},
	}
}

// LevelKey is the group key of a floor level.
func LevelKey(level int) string {
	return strconv.Itoa(level)
}
