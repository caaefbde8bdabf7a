package perimeter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
	"github.com/JMS2088/gablok/pkg/validation"
)

func TestConsistencyAfterRebuild(t *testing.T) {
	neighbour := plan.Room{
		ID:        "r2",
		Footprint: []geo.Point2D{geo.Pt(0, 3.003), geo.Pt(4, 3.003), geo.Pt(4, 6), geo.Pt(0, 6)},
	}
	user := plan.WallStrip{ID: "u1", X0: 10, Z0: 0, X1: 12, Z1: 0, Thickness: 0.1, Height: 2, Source: plan.FromUser()}
	e := New(&plan.Scene{
		Rooms:   []plan.Room{room4x3("r1"), neighbour},
		Garages: []plan.Garage{{ID: "g1", X: 10, Z: 10, Width: 6, Depth: 4}},
		Strips:  []plan.WallStrip{user},
	}, WithLogger(quietLogger()))
	e.RebuildPerimeter(0.3)

	c := e.Consistency(0)
	assert.True(t, c.OK(), "missing=%v extra=%v", c.Missing, c.Extra)
	assert.Equal(t, 11, c.ExpectedCount)
	assert.Equal(t, 1, c.UserStrips)
	assert.Equal(t, 6, c.WeldedCount, "both rooms' walls meeting the shared edge moved")
	assert.InDelta(t, 24.0, c.FloorArea, 0.02)

	report := e.Validate()
	assert.True(t, report.Valid, report.Summary)
	assert.Empty(t, report.Warnings)
}

func TestConsistencyFindsGaps(t *testing.T) {
	r := room4x3("r1")
	src := plan.FromRoom("r1")
	s := &plan.Scene{
		Rooms: []plan.Room{r},
		Strips: []plan.WallStrip{
			strip("a", src, 0, 0, 4, 0),
			strip("b", src, 4, 0, 0, 0),
			strip("c", src, 4, 0, 4, 3),
			strip("d", src, 4, 3, 0, 3),
			strip("ghost", plan.FromRoom("gone"), 10, 10, 11, 10),
		},
	}

	c := CheckConsistency(s, 0, 0.005)
	assert.Equal(t, 4, c.ExpectedCount)
	assert.Equal(t, 4, c.ActualCount)
	assert.Equal(t, []string{"0#0,0|0,3"}, c.Missing)
	assert.Equal(t, []string{"0#10,10|11,10"}, c.Extra)
	assert.Equal(t, 14.0, c.ExpectedLength)
	assert.Equal(t, 16.0, c.ActualLength)
	assert.Equal(t, 2.0, c.LengthDiff)
	assert.False(t, c.OK())

	report := Validate(s, 0.005)
	require.False(t, report.Valid)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, validation.LevelInvariant, report.Errors[0].Level)
	assert.Equal(t, validation.LevelConsistency, report.Errors[1].Level)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "0#10,10|11,10")
}

func TestConsistencyOtherLevelIsEmpty(t *testing.T) {
	s := &plan.Scene{Rooms: []plan.Room{room4x3("r1")}}
	c := CheckConsistency(s, 3, 0.005)
	assert.Zero(t, c.ExpectedCount)
	assert.True(t, c.OK())
	assert.Empty(t, c.Missing)
}
