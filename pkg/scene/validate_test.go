package scene

import (
	"testing"
)

func validGraph() *Graph {
	g := NewGraph()
	g.Entities = []Entity{
		{
			ID:         "wall-1",
			Type:       EntityWall,
			Position:   Vec3{X: 2, Y: 0, Z: 0},
			Dimensions: Vec3{X: 0.3, Y: 3, Z: 4},
			Rotation:   yawQuat(1.5707963267948966),
			Material:   "plaster",
			Source:     "room",
			Owner:      "r1",
			Children:   []string{"door-1"},
		},
		{
			ID:         "door-1",
			Type:       EntityDoor,
			Position:   Vec3{X: 1.5, Y: 0, Z: 0},
			Dimensions: Vec3{X: 0.3, Y: 2.04, Z: 1},
			Rotation:   yawQuat(1.5707963267948966),
			Material:   "timber",
			Source:     "room",
			Owner:      "r1",
		},
	}
	g.Groups.Levels["0"] = []string{"wall-1", "door-1"}
	g.Groups.Sources["room"] = []string{"wall-1", "door-1"}
	g.Groups.Owners["r1"] = []string{"wall-1", "door-1"}
	g.Groups.EntityTypes[EntityWall] = []string{"wall-1"}
	g.Groups.EntityTypes[EntityDoor] = []string{"door-1"}
	g.Metadata = Metadata{
		WallCount: 1,
		Bounds: BoundingBox{
			Min: Vec3{X: 0, Y: 0, Z: -0.15},
			Max: Vec3{X: 4, Y: 3, Z: 0.15},
		},
	}
	return g
}

func TestValidateGraph_Valid(t *testing.T) {
	r := ValidateGraph(validGraph())
	if !r.Valid || len(r.Warnings) != 0 {
		t.Errorf("expected clean report, got %s", r.Summary)
		for _, e := range r.Errors {
			t.Logf("  error: %s", e.Message)
		}
		for _, w := range r.Warnings {
			t.Logf("  warning: %s", w.Message)
		}
	}
}

func TestValidateGraph_Nil(t *testing.T) {
	r := ValidateGraph(nil)
	if r.Valid {
		t.Error("expected invalid for nil graph")
	}
}

func TestValidateGraph_DuplicateID(t *testing.T) {
	g := validGraph()
	g.Entities = append(g.Entities, g.Entities[0])
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for duplicate ID")
	}
}

func TestValidateGraph_OrphanedGroupReference(t *testing.T) {
	g := validGraph()
	g.Groups.Owners["r1"] = append(g.Groups.Owners["r1"], "nonexistent")
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for orphaned group reference")
	}
}

func TestValidateGraph_MissingGroupMembership(t *testing.T) {
	g := validGraph()
	g.Groups.Levels["0"] = []string{"wall-1"}
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for missing group membership")
	}
}

func TestValidateGraph_MissingGroup(t *testing.T) {
	g := validGraph()
	delete(g.Groups.Sources, "room")
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for missing sources group")
	}
}

func TestValidateGraph_EmptyID(t *testing.T) {
	g := validGraph()
	g.Entities = append(g.Entities, Entity{
		ID:         "",
		Type:       EntityWall,
		Dimensions: Vec3{X: 0.3, Y: 3, Z: 1},
		Rotation:   identityQuat(),
	})
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for empty ID")
	}
}

func TestValidateGraph_MissingChild(t *testing.T) {
	g := validGraph()
	g.Entities[0].Children = append(g.Entities[0].Children, "window-9")
	r := ValidateGraph(g)
	if r.Valid {
		t.Error("expected invalid for missing child")
	}
}

func TestValidateGraph_ZeroDimensionWarning(t *testing.T) {
	g := validGraph()
	g.Entities[0].Dimensions.Y = 0
	r := ValidateGraph(g)
	if len(r.Warnings) == 0 {
		t.Error("expected warning for zero dimension")
	}
}

func TestValidateGraph_OutsideBoundsWarning(t *testing.T) {
	g := validGraph()
	g.Metadata.Bounds.Max.X = 3
	r := ValidateGraph(g)
	if len(r.Warnings) == 0 {
		t.Error("expected warning for entity outside bounds")
	}
}

func TestValidateGraph_RealGraph(t *testing.T) {
	g := assembleTestGraph(t)
	r := ValidateGraph(g)
	if !r.Valid {
		t.Errorf("real graph validation failed: %d errors", len(r.Errors))
		for _, e := range r.Errors {
			t.Logf("  error: %s", e.Message)
		}
	}
	t.Logf("validated %d entities: %s", len(g.Entities), r.Summary)
}
