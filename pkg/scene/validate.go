package scene

import (
	"fmt"

	"github.com/JMS2088/gablok/pkg/validation"
)

// ValidateGraph performs structural validation on a scene graph.
// It checks entity integrity, group index consistency, child links, and
// bounds enclosure.
func ValidateGraph(g *Graph) *validation.Report {
	r := validation.NewReport()

	if g == nil {
		r.AddError(validation.Result{
			Level:   validation.LevelGraph,
			Message: "scene graph is nil",
		})
		return r
	}

	validateEntityIDs(g, r)
	validateGroupIndices(g, r)
	validateGroupMembership(g, r)
	validateChildren(g, r)
	validateBoundsEnclosure(g, r)
	validateEntityDimensions(g, r)

	return r
}

func validateEntityIDs(g *Graph, r *validation.Report) {
	seen := make(map[string]int, len(g.Entities))

	for i, e := range g.Entities {
		if e.ID == "" {
			r.AddError(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("entity at index %d has empty ID", i),
				Path:        fmt.Sprintf("entities[%d].id", i),
				ActualValue: "",
				Expected:    "non-empty string",
			})
			continue
		}
		if prev, exists := seen[e.ID]; exists {
			r.AddError(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("duplicate entity ID %q at indices %d and %d", e.ID, prev, i),
				Path:        fmt.Sprintf("entities[%d].id", i),
				EntityID:    e.ID,
				ActualValue: e.ID,
			})
		}
		seen[e.ID] = i
	}
}

func validateGroupIndices(g *Graph, r *validation.Report) {
	entityIDs := make(map[string]bool, len(g.Entities))
	for _, e := range g.Entities {
		entityIDs[e.ID] = true
	}

	checkGroup := func(groupType, groupName string, ids []string) {
		for _, id := range ids {
			if !entityIDs[id] {
				r.AddError(validation.Result{
					Level:       validation.LevelGraph,
					Message:     fmt.Sprintf("group %s.%s references non-existent entity %q", groupType, groupName, id),
					Path:        fmt.Sprintf("groups.%s.%s", groupType, groupName),
					ActualValue: id,
					Expected:    "existing entity ID",
				})
			}
		}
	}

	for name, ids := range g.Groups.Levels {
		checkGroup("levels", name, ids)
	}
	for name, ids := range g.Groups.Sources {
		checkGroup("sources", name, ids)
	}
	for name, ids := range g.Groups.Owners {
		checkGroup("owners", name, ids)
	}
	for name, ids := range g.Groups.EntityTypes {
		checkGroup("entity_types", string(name), ids)
	}
}

func memberSets[K ~string](groups map[K][]string) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(groups))
	for name, ids := range groups {
		m := make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		out[string(name)] = m
	}
	return out
}

func validateGroupMembership(g *Graph, r *validation.Report) {
	levels := memberSets(g.Groups.Levels)
	types := memberSets(g.Groups.EntityTypes)
	sources := memberSets(g.Groups.Sources)
	owners := memberSets(g.Groups.Owners)

	check := func(e Entity, group, name string, members map[string]map[string]bool) {
		m, ok := members[name]
		if !ok {
			r.AddError(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("entity %q has %s %q but no such group exists", e.ID, group, name),
				Path:        "groups." + group,
				EntityID:    e.ID,
				ActualValue: name,
			})
			return
		}
		if !m[e.ID] {
			r.AddError(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("entity %q has %s %q but is not in that group", e.ID, group, name),
				Path:        fmt.Sprintf("groups.%s.%s", group, name),
				EntityID:    e.ID,
				ActualValue: e.ID,
			})
		}
	}

	for _, e := range g.Entities {
		if e.ID == "" {
			continue
		}
		check(e, "levels", LevelKey(e.Level), levels)
		if e.Type != "" {
			check(e, "entity_types", string(e.Type), types)
		}
		if e.Source != "" {
			check(e, "sources", e.Source, sources)
		}
		if e.Owner != "" {
			check(e, "owners", e.Owner, owners)
		}
	}
}

func validateChildren(g *Graph, r *validation.Report) {
	byID := make(map[string]Entity, len(g.Entities))
	for _, e := range g.Entities {
		byID[e.ID] = e
	}
	for _, e := range g.Entities {
		for _, c := range e.Children {
			child, ok := byID[c]
			if !ok {
				r.AddError(validation.Result{
					Level:       validation.LevelGraph,
					Message:     fmt.Sprintf("entity %q lists missing child %q", e.ID, c),
					Path:        fmt.Sprintf("entities.%s.children", e.ID),
					EntityID:    e.ID,
					ActualValue: c,
				})
				continue
			}
			if child.Level != e.Level {
				r.AddWarning(validation.Result{
					Level:       validation.LevelGraph,
					Message:     fmt.Sprintf("child %q is on level %d but its wall %q is on level %d", c, child.Level, e.ID, e.Level),
					Path:        fmt.Sprintf("entities.%s.level", c),
					EntityID:    c,
					ActualValue: child.Level,
				})
			}
		}
	}
}

func validateBoundsEnclosure(g *Graph, r *validation.Report) {
	bounds := g.Metadata.Bounds
	tolerance := 0.01

	for _, e := range g.Entities {
		halfX, halfZ := worldHalfExtents(e)

		if e.Position.X-halfX < bounds.Min.X-tolerance || e.Position.X+halfX > bounds.Max.X+tolerance {
			r.AddWarning(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("entity %q X extent [%.2f, %.2f] outside scene bounds [%.2f, %.2f]", e.ID, e.Position.X-halfX, e.Position.X+halfX, bounds.Min.X, bounds.Max.X),
				Path:        "metadata.bounds",
				EntityID:    e.ID,
				ActualValue: e.Position.X,
			})
			break
		}
		if e.Position.Z-halfZ < bounds.Min.Z-tolerance || e.Position.Z+halfZ > bounds.Max.Z+tolerance {
			r.AddWarning(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("entity %q Z extent [%.2f, %.2f] outside scene bounds [%.2f, %.2f]", e.ID, e.Position.Z-halfZ, e.Position.Z+halfZ, bounds.Min.Z, bounds.Max.Z),
				Path:        "metadata.bounds",
				EntityID:    e.ID,
				ActualValue: e.Position.Z,
			})
			break
		}
	}
}

func validateEntityDimensions(g *Graph, r *validation.Report) {
	for _, e := range g.Entities {
		if e.Dimensions.X <= 0 || e.Dimensions.Y <= 0 || e.Dimensions.Z <= 0 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelGraph,
				Message:     fmt.Sprintf("entity %q has zero or negative dimension (%.2f, %.2f, %.2f)", e.ID, e.Dimensions.X, e.Dimensions.Y, e.Dimensions.Z),
				Path:        fmt.Sprintf("entities.%s.dimensions", e.ID),
				EntityID:    e.ID,
				ActualValue: fmt.Sprintf("%.2f x %.2f x %.2f", e.Dimensions.X, e.Dimensions.Y, e.Dimensions.Z),
				Expected:    "all dimensions > 0",
			})
		}
	}
}
