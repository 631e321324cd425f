package segment

import (
	"image"
	"math"
	"sort"

	"nuclei-pipeline/pkg/geometry"
)

// Region is one connected component of a label map together with the shape
// descriptors the filter evaluates. Regions are ephemeral: only accepted ones
// are cropped and recorded, the rest are discarded after evaluation.
type Region struct {
	Label        int32
	Area         int
	Bounds       image.Rectangle
	Eccentricity float64
	Solidity     float64

	pixels []image.Point
}

// Width returns the bounding-box width in pixels.
func (r *Region) Width() int { return r.Bounds.Dx() }

// Height returns the bounding-box height in pixels.
func (r *Region) Height() int { return r.Bounds.Dy() }

// Regions collects the connected components of a label map in ascending
// label order and computes their shape descriptors.
func Regions(m *LabelMap) []Region {
	byLabel := make(map[int32]*Region)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			label := m.At(x, y)
			if label <= 0 {
				continue
			}
			r, ok := byLabel[label]
			if !ok {
				r = &Region{
					Label:  label,
					Bounds: image.Rect(x, y, x+1, y+1),
				}
				byLabel[label] = r
			}
			r.Area++
			r.pixels = append(r.pixels, image.Point{X: x, Y: y})
			r.Bounds = r.Bounds.Union(image.Rect(x, y, x+1, y+1))
		}
	}

	regions := make([]Region, 0, len(byLabel))
	for _, r := range byLabel {
		r.Eccentricity = eccentricity(r.pixels)
		r.Solidity = solidity(r.Area, r.pixels)
		regions = append(regions, *r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Label < regions[j].Label })
	return regions
}

// Crop extracts the region's bounding-box window from the intensity image.
// Pixels inside the box but outside the labeled component are zeroed, so only
// the component itself retains its original intensity.
func (r *Region) Crop(intensity *image.Gray16) *image.Gray16 {
	crop := image.NewGray16(image.Rect(0, 0, r.Bounds.Dx(), r.Bounds.Dy()))
	min := intensity.Bounds().Min
	for _, p := range r.pixels {
		v := intensity.Gray16At(min.X+p.X, min.Y+p.Y)
		crop.SetGray16(p.X-r.Bounds.Min.X, p.Y-r.Bounds.Min.Y, v)
	}
	return crop
}

// eccentricity computes the eccentricity of the ellipse with the same
// second-order central moments as the pixel set: sqrt(1 - l2/l1) for the
// eigenvalues l1 >= l2 of the normalized covariance. A circle yields 0, a
// line segment approaches 1.
func eccentricity(pixels []image.Point) float64 {
	n := float64(len(pixels))
	if n == 0 {
		return 0
	}

	var cx, cy float64
	for _, p := range pixels {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	cx /= n
	cy /= n

	var mxx, myy, mxy float64
	for _, p := range pixels {
		dx := float64(p.X) - cx
		dy := float64(p.Y) - cy
		mxx += dx * dx
		myy += dy * dy
		mxy += dx * dy
	}
	mxx /= n
	myy /= n
	mxy /= n

	common := math.Sqrt((mxx-myy)*(mxx-myy) + 4*mxy*mxy)
	l1 := (mxx + myy + common) / 2
	l2 := (mxx + myy - common) / 2
	if l1 <= 0 {
		return 0
	}
	return math.Sqrt(1 - l2/l1)
}

// solidity is the ratio of the region area to its convex hull area, the hull
// being taken over the pixel centers. Thin regions can degenerate to a hull
// with near-zero area; the ratio is clamped to 1.
func solidity(area int, pixels []image.Point) float64 {
	pts := make([]geometry.Point2D, len(pixels))
	for i, p := range pixels {
		pts[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	hull := geometry.ConvexHull(pts)
	hullArea := geometry.PolygonArea(hull)
	if hullArea <= 0 {
		return 1
	}
	s := float64(area) / hullArea
	if s > 1 {
		s = 1
	}
	return s
}
