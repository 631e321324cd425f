package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsFromRing(t *testing.T, w, h int, ring image.Rectangle) *LabelMap {
	t.Helper()
	mask := image.NewGray16(image.Rect(0, 0, w, h))
	drawRing(mask, ring)
	return LabelOutline(mask)
}

func TestRegionsDescriptors(t *testing.T) {
	m := labelsFromRing(t, 20, 20, image.Rect(4, 4, 12, 12))
	regions := Regions(m)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, 49, r.Area)
	assert.Equal(t, 7, r.Width())
	assert.Equal(t, 7, r.Height())
	assert.Equal(t, image.Rect(5, 5, 12, 12), r.Bounds)

	// A filled square is symmetric and convex.
	assert.InDelta(t, 0, r.Eccentricity, 1e-9)
	assert.InDelta(t, 1, r.Solidity, 0.3)
}

func TestRegionsElongatedEccentricity(t *testing.T) {
	m := labelsFromRing(t, 40, 20, image.Rect(2, 4, 36, 10))
	regions := Regions(m)
	require.Len(t, regions, 1)

	// A 33x5 bar is strongly elongated.
	assert.Greater(t, regions[0].Eccentricity, 0.9)
	assert.Less(t, regions[0].Eccentricity, 1.0)
}

func TestRegionsSortedByLabel(t *testing.T) {
	mask := image.NewGray16(image.Rect(0, 0, 40, 20))
	drawRing(mask, image.Rect(2, 2, 10, 10))
	drawRing(mask, image.Rect(14, 2, 22, 10))
	drawRing(mask, image.Rect(26, 2, 34, 10))

	regions := Regions(LabelOutline(mask))
	require.Len(t, regions, 3)
	for i := 1; i < len(regions); i++ {
		assert.Less(t, regions[i-1].Label, regions[i].Label)
	}
}

func TestCropMasksOutsidePixels(t *testing.T) {
	intensity := image.NewGray16(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			intensity.SetGray16(x, y, color.Gray16{Y: 1000})
		}
	}

	// L-shaped component: a 3x3 block plus a 1-pixel tail, enclosed by hand.
	m := &LabelMap{W: 20, H: 20, labels: make([]int32, 400)}
	for y := 5; y < 8; y++ {
		for x := 5; x < 8; x++ {
			m.set(x, y, 1)
		}
	}
	m.set(8, 5, 1)

	regions := Regions(m)
	require.Len(t, regions, 1)

	crop := regions[0].Crop(intensity)
	assert.Equal(t, image.Rect(0, 0, 4, 3), crop.Bounds())
	// Component pixels keep their intensity, the rest of the box is zero.
	assert.EqualValues(t, 1000, crop.Gray16At(0, 0).Y)
	assert.EqualValues(t, 1000, crop.Gray16At(3, 0).Y)
	assert.EqualValues(t, 0, crop.Gray16At(3, 1).Y)
	assert.EqualValues(t, 0, crop.Gray16At(3, 2).Y)
}

func TestFilterStrictThresholds(t *testing.T) {
	r := &Region{
		Area:         100,
		Bounds:       image.Rect(0, 0, 10, 10),
		Eccentricity: 0.5,
		Solidity:     0.9,
	}

	assert.True(t, Filter{}.Accept(r), "zero filter accepts everything")

	// Exactly at a max threshold is rejected; one above passes.
	assert.False(t, Filter{MaxArea: 100}.Accept(r))
	assert.True(t, Filter{MaxArea: 101}.Accept(r))

	assert.False(t, Filter{MaxEccentricity: 0.5}.Accept(r))
	assert.True(t, Filter{MaxEccentricity: 0.51}.Accept(r))

	assert.False(t, Filter{MaxBBoxArea: 100}.Accept(r))
	assert.True(t, Filter{MaxBBoxArea: 101}.Accept(r))

	// Exactly at the min threshold is rejected; one below passes.
	assert.False(t, Filter{MinSolidity: 0.9}.Accept(r))
	assert.True(t, Filter{MinSolidity: 0.89}.Accept(r))
}
