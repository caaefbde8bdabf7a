package validation

import (
	"fmt"

	"github.com/JMS2088/gablok/pkg/footprint"
	"github.com/JMS2088/gablok/pkg/plan"
)

// ValidateScene checks the editor-supplied rooms and garages before the wall
// engine sees them. Malformed entities are warnings because the engine skips
// them and carries on; duplicate IDs and bad opening types are errors.
// Openings that sit on no wall are reported as info.
func ValidateScene(s *plan.Scene) *Report {
	r := NewReport()
	if s == nil {
		r.AddError(Result{Level: LevelEntity, Message: "scene is nil"})
		return r
	}

	validateIDs(s, r)
	validateRooms(s, r)
	validateGarages(s, r)
	return r
}

func validateIDs(s *plan.Scene, r *Report) {
	seen := make(map[string]string)
	check := func(kind, id, path string) {
		if id == "" {
			return
		}
		if prev, ok := seen[id]; ok {
			r.AddError(Result{
				Level:       LevelEntity,
				Message:     fmt.Sprintf("%s id %q already used by %s", kind, id, prev),
				Path:        path,
				EntityID:    id,
				ActualValue: id,
				Expected:    "unique id across rooms and garages",
			})
			return
		}
		seen[id] = path
	}
	for i, rm := range s.Rooms {
		check("room", rm.ID, fmt.Sprintf("rooms[%d]", i))
	}
	for i, g := range s.Garages {
		check("garage", g.ID, fmt.Sprintf("garages[%d]", i))
	}
}

func validateRooms(s *plan.Scene, r *Report) {
	for i, rm := range s.Rooms {
		path := fmt.Sprintf("rooms[%d]", i)
		outline, err := footprint.ExtractRoom(rm)
		if err != nil {
			r.AddWarning(Result{
				Level:       LevelEntity,
				Message:     fmt.Sprintf("room %q will be skipped: %v", rm.ID, err),
				Path:        path,
				EntityID:    rm.ID,
				ActualValue: err.Error(),
			})
			continue
		}

		projected := footprint.ProjectOpenings(rm, outline)
		placed := 0
		for _, ops := range projected {
			placed += len(ops)
		}
		for j, o := range rm.Openings {
			if err := o.Type.Validate(); err != nil {
				r.AddError(Result{
					Level:       LevelEntity,
					Message:     err.Error(),
					Path:        fmt.Sprintf("%s.openings[%d].type", path, j),
					EntityID:    rm.ID,
					ActualValue: string(o.Type),
					Expected:    "door or window",
				})
			}
		}
		if missing := len(rm.Openings) - placed; missing > 0 {
			r.AddInfo(Result{
				Level:       LevelEntity,
				Message:     fmt.Sprintf("room %q has %d opening(s) that sit on no wall and will be dropped", rm.ID, missing),
				Path:        path + ".openings",
				EntityID:    rm.ID,
				ActualValue: missing,
				Suggestions: []string{"Move the opening onto a room edge (within 6cm)"},
			})
		}
	}
}

func validateGarages(s *plan.Scene, r *Report) {
	for i, g := range s.Garages {
		if err := footprint.CheckGarage(g); err != nil {
			r.AddWarning(Result{
				Level:       LevelEntity,
				Message:     fmt.Sprintf("garage %q will be skipped: %v", g.ID, err),
				Path:        fmt.Sprintf("garages[%d]", i),
				EntityID:    g.ID,
				ActualValue: err.Error(),
			})
		}
	}
}
