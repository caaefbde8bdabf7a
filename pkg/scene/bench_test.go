package scene

import (
	"bytes"
	"fmt"
	"log"
	"testing"

	"github.com/JMS2088/gablok/pkg/perimeter"
	"github.com/JMS2088/gablok/pkg/plan"
)

// gridScene lays out n×n adjoining 4x3 rooms with a door on every south
// wall, plus one garage per row.
func gridScene(n int) *plan.Scene {
	s := &plan.Scene{}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x, z := float64(i)*4+2, float64(j)*3+1.5
			s.Rooms = append(s.Rooms, plan.Room{
				ID:    fmt.Sprintf("room-%d-%d", i, j),
				X:     x,
				Z:     z,
				Width: 4,
				Depth: 3,
				Openings: []plan.Opening{{
					Type:   plan.OpeningDoor,
					Edge:   plan.EdgeMinZ,
					StartM: plan.F(1),
					EndM:   plan.F(2),
				}},
			})
		}
		s.Garages = append(s.Garages, plan.Garage{
			ID: fmt.Sprintf("garage-%d", i), X: float64(i)*7 + 3, Z: -6, Width: 6, Depth: 4,
		})
	}
	return s
}

func runFullPipeline(t testing.TB, n int) *Graph {
	t.Helper()
	e := perimeter.New(gridScene(n), perimeter.WithLogger(log.New(&bytes.Buffer{}, "", 0)))
	res := e.RebuildPerimeter(0.3)
	if !res.Report.Valid {
		t.Fatalf("rebuild failed for %dx%d grid: %s", n, n, res.Report.Summary)
	}
	return Assemble(e.Scene(), e.Config().StoreyHeight)
}

func TestLargeGrid(t *testing.T) {
	g := runFullPipeline(t, 20)
	// Shared walls between neighbours collapse to one strip.
	wantWalls := 2*20*21 + 3*20
	if got := len(g.Groups.EntityTypes[EntityWall]); got != wantWalls {
		t.Errorf("expected %d walls, got %d", wantWalls, got)
	}
	r := ValidateGraph(g)
	if !r.Valid {
		t.Errorf("grid graph invalid: %s", r.Summary)
	}
	t.Logf("20x20 grid: %d entities", len(g.Entities))
}

func BenchmarkFullPipeline10(b *testing.B) {
	for b.Loop() {
		runFullPipeline(b, 10)
	}
}

func BenchmarkFullPipeline30(b *testing.B) {
	for b.Loop() {
		runFullPipeline(b, 30)
	}
}

func BenchmarkFullPipeline60(b *testing.B) {
	for b.Loop() {
		runFullPipeline(b, 60)
	}
}
