package scene

import (
	"fmt"
	"math"
	"time"

	"github.com/JMS2088/gablok/pkg/footprint"
	"github.com/JMS2088/gablok/pkg/plan"
)

const floorSlab = 0.05 // meters

// Assemble converts a scene's wall strips and rooms into a scene graph.
// storeyHeight places room floor slabs on their level.
func Assemble(s *plan.Scene, storeyHeight float64) *Graph {
	g := NewGraph()

	assembleFloors(s.Rooms, storeyHeight, g)
	assembleWalls(s.Strips, g)

	g.Metadata = Metadata{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		WallCount:   len(g.Groups.EntityTypes[EntityWall]),
		Bounds:      computeBounds(g.Entities),
	}

	return g
}

func assembleFloors(rooms []plan.Room, storeyHeight float64, g *Graph) {
	for _, r := range rooms {
		o, err := footprint.ExtractRoom(r)
		if err != nil {
			continue
		}

		var pos Vec3
		var dims Vec3
		rot := identityQuat()
		if o.Rect != nil {
			pos = Vec3{X: o.Rect.Center.X, Z: o.Rect.Center.Z}
			dims = Vec3{X: 2 * o.Rect.HalfW, Y: floorSlab, Z: 2 * o.Rect.HalfD}
			rot = yawQuat(-o.Rect.Rotation)
		} else {
			lo, hi := o.Polygon.BoundingBox()
			pos = Vec3{X: (lo.X + hi.X) / 2, Z: (lo.Z + hi.Z) / 2}
			dims = Vec3{X: hi.X - lo.X, Y: floorSlab, Z: hi.Z - lo.Z}
		}
		pos.Y = float64(r.Level) * storeyHeight

		meta := map[string]any{"area_sqm": o.Polygon.Area()}
		if r.Name != "" {
			meta["name"] = r.Name
		}
		addEntity(g, Entity{
			ID:         fmt.Sprintf("%s_floor", r.ID),
			Type:       EntityFloor,
			Position:   pos,
			Dimensions: dims,
			Rotation:   rot,
			Material:   "screed",
			Level:      r.Level,
			Source:     plan.RoomDerived.String(),
			Owner:      r.ID,
			Metadata:   meta,
		})
	}
}

func assembleWalls(strips []plan.WallStrip, g *Graph) {
	for _, st := range strips {
		dx := st.X1 - st.X0
		dz := st.Z1 - st.Z0
		length := math.Hypot(dx, dz)
		// Yaw turning local +Z onto the strip direction.
		rot := yawQuat(math.Atan2(dx, dz))

		var children []string
		for i, op := range st.Openings {
			id := fmt.Sprintf("%s_opening_%d", st.ID, i)
			children = append(children, id)
			addEntity(g, openingEntity(id, st, op, rot))
		}

		addEntity(g, Entity{
			ID:   st.ID,
			Type: EntityWall,
			Position: Vec3{
				X: (st.X0 + st.X1) / 2,
				Y: st.BaseY,
				Z: (st.Z0 + st.Z1) / 2,
			},
			Dimensions: Vec3{
				X: st.Thickness,
				Y: st.Height,
				Z: length,
			},
			Rotation: rot,
			Material: wallMaterial(st.Source.Kind),
			Level:    st.Level,
			Source:   st.Source.Kind.String(),
			Owner:    st.Source.OwnerID,
			Metadata: map[string]any{
				"key":             st.Key(),
				"outer_face_left": st.OuterFaceLeft,
				"interior_left":   st.InteriorLeft,
			},
			Children: children,
		})
	}
}

func openingEntity(id string, st plan.WallStrip, op plan.ResolvedOpening, rot [4]float64) Entity {
	eType := EntityWindow
	mat := "glass"
	if op.Type == plan.OpeningDoor {
		eType = EntityDoor
		mat = "timber"
	}
	meta := map[string]any{"wall": st.ID, "sill_m": op.SillM}
	for k, v := range op.Meta {
		if _, taken := meta[k]; !taken {
			meta[k] = v
		}
	}
	return Entity{
		ID:   id,
		Type: eType,
		Position: Vec3{
			X: (op.X0 + op.X1) / 2,
			Y: st.BaseY + op.SillM,
			Z: (op.Z0 + op.Z1) / 2,
		},
		Dimensions: Vec3{
			X: st.Thickness,
			Y: op.HeightM,
			Z: math.Hypot(op.X1-op.X0, op.Z1-op.Z0),
		},
		Rotation: rot,
		Material: mat,
		Level:    st.Level,
		Source:   st.Source.Kind.String(),
		Owner:    st.Source.OwnerID,
		Metadata: meta,
	}
}

func wallMaterial(k plan.SourceKind) string {
	switch k {
	case plan.RoomDerived:
		return "plaster"
	case plan.GarageDerived:
		return "blockwork"
	case plan.UserDrawn:
		return "timber_frame"
	}
	panic(fmt.Sprintf("scene: unhandled source kind %v", k))
}

// addEntity appends an entity and updates all group indices.
func addEntity(g *Graph, e Entity) {
	g.Entities = append(g.Entities, e)
	id := e.ID

	lk := LevelKey(e.Level)
	g.Groups.Levels[lk] = append(g.Groups.Levels[lk], id)
	if e.Source != "" {
		g.Groups.Sources[e.Source] = append(g.Groups.Sources[e.Source], id)
	}
	if e.Owner != "" {
		g.Groups.Owners[e.Owner] = append(g.Groups.Owners[e.Owner], id)
	}
	g.Groups.EntityTypes[e.Type] = append(g.Groups.EntityTypes[e.Type], id)
}

// computeBounds calculates the AABB of all entities, accounting for yaw.
func computeBounds(entities []Entity) BoundingBox {
	if len(entities) == 0 {
		return BoundingBox{}
	}
	minV := Vec3{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	maxV := Vec3{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}

	for _, e := range entities {
		halfX, halfZ := worldHalfExtents(e)

		loX := e.Position.X - halfX
		hiX := e.Position.X + halfX
		loY := e.Position.Y
		hiY := e.Position.Y + e.Dimensions.Y
		loZ := e.Position.Z - halfZ
		hiZ := e.Position.Z + halfZ

		if loX < minV.X {
			minV.X = loX
		}
		if hiX > maxV.X {
			maxV.X = hiX
		}
		if loY < minV.Y {
			minV.Y = loY
		}
		if hiY > maxV.Y {
			maxV.Y = hiY
		}
		if loZ < minV.Z {
			minV.Z = loZ
		}
		if hiZ > maxV.Z {
			maxV.Z = hiZ
		}
	}
	return BoundingBox{Min: minV, Max: maxV}
}

// worldHalfExtents returns the X and Z half extents of the entity's rotated
// footprint.
func worldHalfExtents(e Entity) (float64, float64) {
	hx, hz := e.Dimensions.X/2, e.Dimensions.Z/2
	yaw := 2 * math.Atan2(e.Rotation[1], e.Rotation[3])
	c, s := math.Abs(math.Cos(yaw)), math.Abs(math.Sin(yaw))
	return c*hx + s*hz, s*hx + c*hz
}

func identityQuat() [4]float64 {
	return [4]float64{0, 0, 0, 1}
}

func yawQuat(angle float64) [4]float64 {
	half := angle / 2
	return [4]float64{0, math.Sin(half), 0, math.Cos(half)}
}
