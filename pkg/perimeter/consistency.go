package perimeter

import (
	"fmt"
	"math"
	"sort"

	"github.com/JMS2088/gablok/pkg/footprint"
	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
	"github.com/JMS2088/gablok/pkg/validation"
)

// Consistency compares the perimeter the rooms and garages of one level call
// for with the strips actually present there.
type Consistency struct {
	Level          int      `json:"level"`
	ExpectedCount  int      `json:"expected_count"`
	ActualCount    int      `json:"actual_count"`
	UserStrips     int      `json:"user_strips"`
	MissingCount   int      `json:"missing_count"`
	ExtraCount     int      `json:"extra_count"`
	WeldedCount    int      `json:"welded_count"`
	Missing        []string `json:"missing"`
	Extra          []string `json:"extra"`
	ExpectedLength float64  `json:"expected_length"`
	ActualLength   float64  `json:"actual_length"`
	LengthDiff     float64  `json:"length_diff"`
	FloorArea      float64  `json:"floor_area"`
	Points         int      `json:"points"`
}

// OK reports whether every expected edge is covered and no derived strip is
// left over.
func (c Consistency) OK() bool {
	return c.MissingCount == 0 && c.ExtraCount == 0
}

// CheckConsistency diffs the expected edge keys of level against the strips
// on it. An expected edge whose strip was moved by welding still counts as
// covered when both endpoints lie within tol. User-drawn strips that match
// no edge are free-standing walls, not extras.
func CheckConsistency(s *plan.Scene, level int, tol float64) Consistency {
	live := collectPerimeter(s, validation.NewReport())
	c := Consistency{Level: level, Missing: []string{}, Extra: []string{}}

	expected := make(map[string]geo.Segment)
	for _, pe := range live.edges {
		if pe.outline.Level != level {
			continue
		}
		if _, dup := expected[pe.key]; !dup {
			expected[pe.key] = pe.edge.Segment()
		}
	}
	for _, r := range s.Rooms {
		if r.Level != level {
			continue
		}
		if o, ok := roomOutline(r); ok {
			c.FloorArea += o.Area()
		}
	}

	actual := make(map[string]plan.WallStrip)
	points := make(map[string]struct{})
	for _, st := range s.Strips {
		if st.Level != level {
			continue
		}
		c.ActualLength += st.Length()
		points[geo.PointKey(st.A())] = struct{}{}
		points[geo.PointKey(st.B())] = struct{}{}
		if !st.Source.IsDerived() {
			c.UserStrips++
		}
		actual[st.Key()] = st
	}

	matched := make(map[string]struct{})
	for key, seg := range expected {
		c.ExpectedLength += seg.Length()
		if _, ok := actual[key]; ok {
			matched[key] = struct{}{}
			continue
		}
		if k, ok := nearStrip(actual, seg, tol); ok {
			matched[k] = struct{}{}
			c.WeldedCount++
			continue
		}
		c.Missing = append(c.Missing, key)
	}
	for key, st := range actual {
		if _, ok := matched[key]; ok || !st.Source.IsDerived() {
			continue
		}
		c.Extra = append(c.Extra, key)
	}
	sort.Strings(c.Missing)
	sort.Strings(c.Extra)

	c.ExpectedCount = len(expected)
	c.ActualCount = len(actual)
	c.MissingCount = len(c.Missing)
	c.ExtraCount = len(c.Extra)
	c.Points = len(points)
	c.ExpectedLength = round3(c.ExpectedLength)
	c.ActualLength = round3(c.ActualLength)
	c.LengthDiff = round3(c.ActualLength - c.ExpectedLength)
	c.FloorArea = round3(c.FloorArea)
	return c
}

func nearStrip(actual map[string]plan.WallStrip, seg geo.Segment, tol float64) (string, bool) {
	for key, st := range actual {
		a, b := st.A(), st.B()
		if (a.Distance(seg.A) <= tol && b.Distance(seg.B) <= tol) ||
			(a.Distance(seg.B) <= tol && b.Distance(seg.A) <= tol) {
			return key, true
		}
	}
	return "", false
}

func roomOutline(r plan.Room) (geo.Polygon, bool) {
	o, err := footprint.ExtractRoom(r)
	if err != nil {
		return geo.Polygon{}, false
	}
	return o.Polygon, true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Validate checks the strip invariants on every level of the scene:
// completeness and leftover strips via CheckConsistency, and at most one
// derived strip per edge key. Skipped entities appear as warnings.
func Validate(s *plan.Scene, tol float64) *validation.Report {
	report := validation.NewReport()
	collectPerimeter(s, report)

	derived := make(map[string]int)
	for _, st := range s.Strips {
		if st.Source.IsDerived() {
			derived[st.Key()]++
		}
	}
	dupKeys := make([]string, 0)
	for k, n := range derived {
		if n > 1 {
			dupKeys = append(dupKeys, k)
		}
	}
	sort.Strings(dupKeys)
	for _, k := range dupKeys {
		report.AddError(validation.Result{
			Level:       validation.LevelInvariant,
			Message:     fmt.Sprintf("%d derived strips share edge %s", derived[k], k),
			Path:        "strips",
			ActualValue: derived[k],
			Expected:    "at most 1",
			Suggestions: []string{"Run dedupe"},
		})
	}

	for _, level := range Levels(s) {
		c := CheckConsistency(s, level, tol)
		for _, k := range c.Missing {
			report.AddError(validation.Result{
				Level:       validation.LevelConsistency,
				Message:     fmt.Sprintf("edge %s has no wall strip", k),
				Path:        fmt.Sprintf("levels[%d]", level),
				ActualValue: k,
				Suggestions: []string{"Rebuild the perimeter"},
			})
		}
		for _, k := range c.Extra {
			report.AddWarning(validation.Result{
				Level:       validation.LevelConsistency,
				Message:     fmt.Sprintf("derived strip %s matches no room or garage edge", k),
				Path:        fmt.Sprintf("levels[%d]", level),
				ActualValue: k,
				Suggestions: []string{"Rebuild the perimeter"},
			})
		}
	}
	return report
}

// Levels returns every level used by an entity or strip, ascending.
func Levels(s *plan.Scene) []int {
	seen := make(map[int]struct{})
	for _, r := range s.Rooms {
		seen[r.Level] = struct{}{}
	}
	for _, g := range s.Garages {
		seen[g.Level] = struct{}{}
	}
	for _, st := range s.Strips {
		seen[st.Level] = struct{}{}
	}
	levels := make([]int, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// Consistency runs CheckConsistency on the engine's scene.
func (e *Engine) Consistency(level int) Consistency {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CheckConsistency(e.scene, level, e.cfg.WeldTolerance)
}

// Validate runs Validate on the engine's scene.
func (e *Engine) Validate() *validation.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Validate(e.scene, e.cfg.WeldTolerance)
}
