package plan

import "github.com/JMS2088/gablok/pkg/geo"

// DragContext describes an entity being moved interactively. Previous and
// Current are the entity's axis-aligned bounds before and after this frame.
type DragContext struct {
	EntityID string     `json:"entity_id"`
	Level    int        `json:"level"`
	Previous geo.Bounds `json:"previous"`
	Current  geo.Bounds `json:"current"`
}

// Scene is the aggregate the wall engine works on: the room and garage
// inputs, the wall strip collection derived from them, and the optional
// drag in progress.
type Scene struct {
	Rooms   []Room       `yaml:"rooms" json:"rooms"`
	Garages []Garage     `yaml:"garages" json:"garages"`
	Strips  []WallStrip  `yaml:"strips,omitempty" json:"strips"`
	Drag    *DragContext `yaml:"-" json:"drag,omitempty"`
}

// RoomByID returns the room with the given ID, or nil if not found.
func (s *Scene) RoomByID(id string) *Room {
	for i := range s.Rooms {
		if s.Rooms[i].ID == id {
			return &s.Rooms[i]
		}
	}
	return nil
}

// GarageByID returns the garage with the given ID, or nil if not found.
func (s *Scene) GarageByID(id string) *Garage {
	for i := range s.Garages {
		if s.Garages[i].ID == id {
			return &s.Garages[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		Rooms:   make([]Room, len(s.Rooms)),
		Garages: make([]Garage, len(s.Garages)),
		Strips:  CloneStrips(s.Strips),
	}
	for i, r := range s.Rooms {
		c.Rooms[i] = r.Clone()
	}
	copy(c.Garages, s.Garages)
	if s.Drag != nil {
		d := *s.Drag
		c.Drag = &d
	}
	return c
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	c := r
	if r.Footprint != nil {
		c.Footprint = make([]geo.Point2D, len(r.Footprint))
		copy(c.Footprint, r.Footprint)
	}
	if r.Openings != nil {
		c.Openings = make([]Opening, len(r.Openings))
		copy(c.Openings, r.Openings)
	}
	return c
}
