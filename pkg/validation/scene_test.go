package validation

import (
	"testing"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

func TestValidateSceneClean(t *testing.T) {
	s := &plan.Scene{
		Rooms: []plan.Room{{
			ID:        "r1",
			Footprint: []geo.Point2D{geo.Pt(0, 0), geo.Pt(4, 0), geo.Pt(4, 3), geo.Pt(0, 3)},
			Openings: []plan.Opening{{
				Type: plan.OpeningDoor, X0: plan.F(1), Z0: plan.F(0), X1: plan.F(2), Z1: plan.F(0),
			}},
		}},
		Garages: []plan.Garage{{ID: "g1", X: 10, Z: 10, Width: 6, Depth: 4}},
	}
	r := ValidateScene(s)
	if !r.Valid || !r.Empty() {
		t.Errorf("expected clean report, got %s", r.Summary)
	}
}

func TestValidateSceneFindings(t *testing.T) {
	s := &plan.Scene{
		Rooms: []plan.Room{
			{ID: "dup", Width: 2, Depth: 2, Openings: []plan.Opening{
				{Type: "hatch", Edge: plan.EdgeMinX, StartM: plan.F(0), EndM: plan.F(1)},
				{Type: plan.OpeningWindow, X0: plan.F(9), Z0: plan.F(9), X1: plan.F(10), Z1: plan.F(9)},
			}},
			{ID: "flat", Width: 0, Depth: 2},
		},
		Garages: []plan.Garage{
			{ID: "dup", Width: 3, Depth: 3},
			{ID: "g2", Width: 3},
		},
	}
	r := ValidateScene(s)
	if r.Valid {
		t.Fatal("expected invalid report")
	}
	// duplicate id + bad opening type
	if len(r.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d: %+v", len(r.Errors), r.Errors)
	}
	// zero-width room + zero-depth garage
	if len(r.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d: %+v", len(r.Warnings), r.Warnings)
	}
	// window far from any edge
	if len(r.Info) != 1 {
		t.Errorf("expected 1 info, got %d: %+v", len(r.Info), r.Info)
	}
}

func TestValidateSceneNil(t *testing.T) {
	if ValidateScene(nil).Valid {
		t.Error("nil scene should be invalid")
	}
}
