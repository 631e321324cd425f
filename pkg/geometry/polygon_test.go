package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHullDropsInteriorPoints(t *testing.T) {
	pts := []Point2D{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
		{X: 2, Y: 2}, {X: 1, Y: 3}, {X: 3, Y: 1},
	}

	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	for _, p := range hull {
		assert.Contains(t, []Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}, p)
	}
}

func TestConvexHullDegenerateInputs(t *testing.T) {
	assert.Empty(t, ConvexHull(nil))
	two := []Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}}
	assert.Equal(t, two, ConvexHull(two))
}

func TestPolygonArea(t *testing.T) {
	square := []Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	assert.InDelta(t, 16, PolygonArea(square), 1e-9)

	// Clockwise order gives the same absolute area.
	clockwise := []Point2D{{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}}
	assert.InDelta(t, 16, PolygonArea(clockwise), 1e-9)

	triangle := []Point2D{{X: 0, Y: 0}, {X: 6, Y: 0}, {X: 0, Y: 3}}
	assert.InDelta(t, 9, PolygonArea(triangle), 1e-9)

	assert.Zero(t, PolygonArea([]Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}}))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5, Point2D{X: 0, Y: 0}.Distance(Point2D{X: 3, Y: 4}), 1e-9)
}
