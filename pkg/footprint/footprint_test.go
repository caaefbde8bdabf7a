package footprint

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JMS2088/gablok/pkg/geo"
	"github.com/JMS2088/gablok/pkg/plan"
)

func approxPt(t *testing.T, want, got geo.Point2D) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func TestExtractPolygonRoom(t *testing.T) {
	r := plan.Room{
		ID:        "r1",
		Footprint: []geo.Point2D{geo.Pt(0, 0), geo.Pt(4, 0), geo.Pt(4, 3), geo.Pt(0, 3)},
	}
	o, err := ExtractRoom(r)
	require.NoError(t, err)
	require.Len(t, o.Edges, 4)

	want := [][2]geo.Point2D{
		{geo.Pt(0, 0), geo.Pt(4, 0)},
		{geo.Pt(4, 0), geo.Pt(4, 3)},
		{geo.Pt(4, 3), geo.Pt(0, 3)},
		{geo.Pt(0, 3), geo.Pt(0, 0)},
	}
	for i, e := range o.Edges {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, want[i][0], e.A)
		assert.Equal(t, want[i][1], e.B)
	}
	assert.Nil(t, o.Rect)
	assert.True(t, o.InteriorLeft())
}

func TestExtractRectangleRoom(t *testing.T) {
	r := plan.Room{ID: "r", X: 2, Z: 1, Width: 4, Depth: 2}
	o, err := ExtractRoom(r)
	require.NoError(t, err)
	require.Len(t, o.Edges, 4)
	approxPt(t, geo.Pt(0, 0), o.Edges[0].A)
	approxPt(t, geo.Pt(4, 0), o.Edges[0].B)
	approxPt(t, geo.Pt(4, 2), o.Edges[1].B)
	approxPt(t, geo.Pt(0, 2), o.Edges[2].B)
	require.NotNil(t, o.Rect)
}

func TestExtractRotatedRoom(t *testing.T) {
	r := plan.Room{ID: "r", Width: 2, Depth: 2, Rotation: 90}
	o, err := ExtractRoom(r)
	require.NoError(t, err)
	// Rotating (-1,-1) by 90 degrees gives (1,-1).
	approxPt(t, geo.Pt(1, -1), o.Edges[0].A)
	approxPt(t, geo.Pt(1, 1), o.Edges[0].B)
}

func TestGarageScenario(t *testing.T) {
	g := plan.Garage{ID: "g", X: 10, Z: 10, Width: 6, Depth: 4, Height: 2.6}
	o, err := ExtractGarage(g)
	require.NoError(t, err)

	corners := o.Polygon.Vertices
	approxPt(t, geo.Pt(7, 8), corners[0])
	approxPt(t, geo.Pt(13, 8), corners[1])
	approxPt(t, geo.Pt(13, 12), corners[2])
	approxPt(t, geo.Pt(7, 12), corners[3])

	require.Len(t, o.Edges, 3)
	for _, e := range o.Edges {
		assert.NotEqual(t, 0, e.Index, "first 6m edge is the door face")
	}
	assert.Equal(t, 2, o.Edges[1].Index, "the other 6m edge keeps its wall")
}

func TestGarageDoorEdgeSquareTieBreak(t *testing.T) {
	for _, rot := range []float64{0, 30, 45, 90, 137} {
		g := plan.Garage{ID: "g", Width: 5, Depth: 5, Rotation: rot}
		o, err := ExtractGarage(g)
		require.NoError(t, err)
		require.Len(t, o.Edges, 3, "rotation %v", rot)
		assert.Equal(t, 1, o.Edges[0].Index, "rotation %v: edge 0 should be omitted", rot)
	}
}

func TestGarageDoorEdgeDeepGarage(t *testing.T) {
	// Depth is the long side, so edge 1 (the first depth edge) is the door.
	g := plan.Garage{ID: "g", Width: 3, Depth: 7}
	o, err := ExtractGarage(g)
	require.NoError(t, err)
	idx := []int{}
	for _, e := range o.Edges {
		idx = append(idx, e.Index)
	}
	assert.Equal(t, []int{0, 2, 3}, idx)
}

func TestCheckRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		room plan.Room
		want error
	}{
		{"no id", plan.Room{Width: 1, Depth: 1}, ErrMissingEntityID},
		{"zero width", plan.Room{ID: "r", Width: 0, Depth: 1}, ErrBadDimensions},
		{"negative depth", plan.Room{ID: "r", Width: 2, Depth: -1}, ErrBadDimensions},
		{"nan centre", plan.Room{ID: "r", X: math.NaN(), Width: 1, Depth: 1}, ErrNonFinite},
		{"two vertices", plan.Room{ID: "r", Footprint: []geo.Point2D{geo.Pt(0, 0), geo.Pt(1, 0)}}, ErrTooFewVertices},
		{"collapsed", plan.Room{ID: "r", Footprint: []geo.Point2D{}}, ErrTooFewVertices},
		{"inf vertex", plan.Room{ID: "r", Footprint: []geo.Point2D{geo.Pt(0, 0), geo.Pt(math.Inf(1), 0), geo.Pt(1, 1)}}, ErrNonFinite},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ExtractRoom(c.room)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}

	_, err := ExtractGarage(plan.Garage{ID: "g", Width: 2})
	assert.ErrorIs(t, err, ErrBadDimensions)
}

func TestOuterFaceLeft(t *testing.T) {
	// 4x3 CCW room: X is the longer axis, interior on the left.
	o, err := ExtractRoom(plan.Room{
		ID:        "r",
		Footprint: []geo.Point2D{geo.Pt(0, 0), geo.Pt(4, 0), geo.Pt(4, 3), geo.Pt(0, 3)},
	})
	require.NoError(t, err)
	// Edges along X flip the interior side; edges along Z keep it.
	assert.False(t, o.OuterFaceLeft(o.Edges[0]))
	assert.True(t, o.OuterFaceLeft(o.Edges[1]))
	assert.False(t, o.OuterFaceLeft(o.Edges[2]))
	assert.True(t, o.OuterFaceLeft(o.Edges[3]))
}
