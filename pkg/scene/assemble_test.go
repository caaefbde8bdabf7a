package scene

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/perimeter"
	"github.com/JMS2088/gablok/pkg/plan"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func testScene() *plan.Scene {
	return &plan.Scene{
		Rooms: []plan.Room{
			{
				ID:        "r1",
				Name:      "Kitchen",
				Height:    3,
				Footprint: []geo.Point2D{geo.Pt(0, 0), geo.Pt(4, 0), geo.Pt(4, 3), geo.Pt(0, 3)},
				Openings: []plan.Opening{
					{Type: plan.OpeningDoor, X0: plan.F(1), Z0: plan.F(0), X1: plan.F(2), Z1: plan.F(0), Meta: map[string]any{"hinge": "left"}},
					{Type: plan.OpeningWindow, X0: plan.F(4), Z0: plan.F(1), X1: plan.F(4), Z1: plan.F(2)},
				},
			},
			{ID: "r2", Level: 1, X: 2, Z: 1.5, Width: 4, Depth: 3, Rotation: 45},
		},
		Garages: []plan.Garage{{ID: "g1", X: 10, Z: 10, Width: 6, Depth: 4}},
		Strips: []plan.WallStrip{
			{ID: "u1", X0: -3, Z0: 0, X1: -3, Z1: 5, Thickness: 0.1, Height: 2, Source: plan.FromUser()},
		},
	}
}

func assembleTestGraph(t testing.TB) *Graph {
	t.Helper()
	e := perimeter.New(testScene(), perimeter.WithLogger(log.New(&bytes.Buffer{}, "", 0)))
	e.RebuildPerimeter(0.3)
	return Assemble(e.Scene(), e.Config().StoreyHeight)
}

func entityByID(g *Graph, id string) (Entity, bool) {
	for _, e := range g.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

func TestAssembleProducesGraph(t *testing.T) {
	g := assembleTestGraph(t)
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	// 4 + 4 room walls, 3 garage walls, 1 user wall
	if got := len(g.Groups.EntityTypes[EntityWall]); got != 12 {
		t.Errorf("expected 12 walls, got %d", got)
	}
	if g.Metadata.WallCount != 12 {
		t.Errorf("expected wall_count 12, got %d", g.Metadata.WallCount)
	}
	if got := len(g.Groups.EntityTypes[EntityFloor]); got != 2 {
		t.Errorf("expected 2 floors, got %d", got)
	}
	if len(g.Groups.EntityTypes[EntityDoor]) != 1 || len(g.Groups.EntityTypes[EntityWindow]) != 1 {
		t.Errorf("expected 1 door and 1 window, got %v", g.Groups.EntityTypes)
	}
	if g.Metadata.GeneratedAt == "" {
		t.Error("generated_at is empty")
	}
}

func TestAssembleWallPlacement(t *testing.T) {
	g := assembleTestGraph(t)
	id := plan.DerivedStripID(plan.FromRoom("r1"), geo.EdgeKey(0, geo.Pt(0, 0), geo.Pt(4, 0)))
	w, ok := entityByID(g, id)
	if !ok {
		t.Fatalf("wall %s not found", id)
	}

	if w.Position != (Vec3{X: 2, Y: 0, Z: 0}) {
		t.Errorf("position = %+v", w.Position)
	}
	if w.Dimensions != (Vec3{X: 0.3, Y: 3, Z: 4}) {
		t.Errorf("dimensions = %+v", w.Dimensions)
	}
	// Running along +X is a quarter turn from +Z.
	want := yawQuat(math.Pi / 2)
	for i := range want {
		if !approxEqual(w.Rotation[i], want[i], 1e-12) {
			t.Errorf("rotation = %v, want %v", w.Rotation, want)
			break
		}
	}
	if w.Material != "plaster" || w.Source != "room" || w.Owner != "r1" {
		t.Errorf("unexpected wall tags: %s %s %s", w.Material, w.Source, w.Owner)
	}
	if len(w.Children) != 1 {
		t.Fatalf("expected 1 child, got %v", w.Children)
	}

	door, ok := entityByID(g, w.Children[0])
	if !ok {
		t.Fatalf("door %s not found", w.Children[0])
	}
	if door.Type != EntityDoor || door.Position != (Vec3{X: 1.5, Y: 0, Z: 0}) {
		t.Errorf("door = %+v", door)
	}
	if door.Dimensions.Y != 2.04 || door.Dimensions.Z != 1 {
		t.Errorf("door dimensions = %+v", door.Dimensions)
	}
	if door.Metadata["hinge"] != "left" || door.Metadata["wall"] != w.ID {
		t.Errorf("door metadata = %v", door.Metadata)
	}
}

func TestAssembleWindowSill(t *testing.T) {
	g := assembleTestGraph(t)
	for _, id := range g.Groups.EntityTypes[EntityWindow] {
		win, _ := entityByID(g, id)
		if win.Position.Y != 0.9 || win.Dimensions.Y != 1.5 {
			t.Errorf("window %s placed at y=%.2f h=%.2f", id, win.Position.Y, win.Dimensions.Y)
		}
	}
}

func TestAssembleGroupsPopulated(t *testing.T) {
	g := assembleTestGraph(t)

	for _, lk := range []string{"0", "1"} {
		if len(g.Groups.Levels[lk]) == 0 {
			t.Errorf("level %s group is empty", lk)
		}
	}
	for _, src := range []string{"room", "garage", "user"} {
		if len(g.Groups.Sources[src]) == 0 {
			t.Errorf("source %s group is empty", src)
		}
	}
	if len(g.Groups.Owners["g1"]) != 3 {
		t.Errorf("expected 3 garage walls, got %v", g.Groups.Owners["g1"])
	}
}

func TestAssembleUpperLevel(t *testing.T) {
	g := assembleTestGraph(t)
	for _, id := range g.Groups.Levels["1"] {
		e, _ := entityByID(g, id)
		if e.Position.Y != 3.5 {
			t.Errorf("entity %s on level 1 at y=%.2f", id, e.Position.Y)
		}
	}
	floor, ok := entityByID(g, "r2_floor")
	if !ok {
		t.Fatal("r2_floor not found")
	}
	if floor.Dimensions.X != 4 || floor.Dimensions.Z != 3 {
		t.Errorf("floor dimensions = %+v", floor.Dimensions)
	}
}

func TestAssembleBoundsEncloseEntities(t *testing.T) {
	g := assembleTestGraph(t)
	b := g.Metadata.Bounds

	for _, e := range g.Entities {
		hx, hz := worldHalfExtents(e)
		if e.Position.X-hx < b.Min.X-1e-9 || e.Position.X+hx > b.Max.X+1e-9 ||
			e.Position.Z-hz < b.Min.Z-1e-9 || e.Position.Z+hz > b.Max.Z+1e-9 {
			t.Errorf("entity %s outside bounds %+v", e.ID, b)
		}
	}
	if b.Max.Y != 3.5+3 {
		t.Errorf("expected top at 6.5, got %.2f", b.Max.Y)
	}
}

func TestAssembleUniqueEntityIDs(t *testing.T) {
	g := assembleTestGraph(t)
	seen := map[string]bool{}
	for _, e := range g.Entities {
		if seen[e.ID] {
			t.Errorf("duplicate entity ID: %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestAssembleEmptyScene(t *testing.T) {
	g := Assemble(&plan.Scene{}, 3.5)
	if len(g.Entities) != 0 {
		t.Errorf("expected no entities, got %d", len(g.Entities))
	}
	if g.Metadata.Bounds != (BoundingBox{}) {
		t.Errorf("expected zero bounds, got %+v", g.Metadata.Bounds)
	}
}
