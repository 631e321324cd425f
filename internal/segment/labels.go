// Package segment converts outline masks into labeled nucleus regions,
// filters them by shape, and extracts per-nucleus intensity crops.
package segment

import "image"

// LabelMap assigns an integer label to every pixel of an image. Label 0 is
// background; connected components carry labels >= 1.
type LabelMap struct {
	W, H   int
	labels []int32
}

// At returns the label at (x, y).
func (m *LabelMap) At(x, y int) int32 {
	return m.labels[y*m.W+x]
}

func (m *LabelMap) set(x, y int, v int32) {
	m.labels[y*m.W+x] = v
}

// LabelOutline converts a nucleus outline mask into a label map. Outline
// pixels (any nonzero intensity) act as barriers: 4-connected components of
// non-outline pixels receive distinct labels. Components touching the image
// border are cleared to background: the inter-nucleus space always reaches
// the border, and border-truncated nuclei are not usable crops either.
func LabelOutline(outline *image.Gray16) *LabelMap {
	bounds := outline.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	m := &LabelMap{W: w, H: h, labels: make([]int32, w*h)}

	// Mark barriers with -1 so the fill below only visits open pixels.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if outline.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y > 0 {
				m.set(x, y, -1)
			}
		}
	}

	next := int32(1)
	stack := make([]image.Point, 0, 256)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) != 0 {
				continue
			}

			// Stack-based flood fill, 4-connectivity.
			label := next
			next++
			touchesBorder := false
			stack = append(stack[:0], image.Point{X: x, Y: y})
			m.set(x, y, label)
			filled := stack[:0:0]
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				filled = append(filled, p)
				if p.X == 0 || p.X == w-1 || p.Y == 0 || p.Y == h-1 {
					touchesBorder = true
				}
				for _, q := range [4]image.Point{
					{X: p.X - 1, Y: p.Y},
					{X: p.X + 1, Y: p.Y},
					{X: p.X, Y: p.Y - 1},
					{X: p.X, Y: p.Y + 1},
				} {
					if q.X < 0 || q.X >= w || q.Y < 0 || q.Y >= h {
						continue
					}
					if m.At(q.X, q.Y) == 0 {
						m.set(q.X, q.Y, label)
						stack = append(stack, q)
					}
				}
			}

			if touchesBorder {
				// Sentinel, not 0: the scan must never refill these
				// pixels. Folded into background with the barriers.
				for _, p := range filled {
					m.set(p.X, p.Y, -2)
				}
				next--
			}
		}
	}

	// Barriers and border-cleared components become background.
	for i, v := range m.labels {
		if v < 0 {
			m.labels[i] = 0
		}
	}
	return m
}

// RemoveSmallObjects clears every component with fewer than minArea pixels to
// background. Labels of the survivors are unchanged. A minArea <= 1 is a
// no-op.
func (m *LabelMap) RemoveSmallObjects(minArea int) {
	if minArea <= 1 {
		return
	}
	areas := make(map[int32]int)
	for _, v := range m.labels {
		if v > 0 {
			areas[v]++
		}
	}
	for i, v := range m.labels {
		if v > 0 && areas[v] < minArea {
			m.labels[i] = 0
		}
	}
}

// LabelCount returns the number of distinct foreground labels.
func (m *LabelMap) LabelCount() int {
	seen := make(map[int32]bool)
	for _, v := range m.labels {
		if v > 0 {
			seen[v] = true
		}
	}
	return len(seen)
}

// UniqueCount returns the number of distinct label values, background 0
// included when present. The persisted per-image nucleus count uses this
// convention, so on typical masks it is the foreground count plus one.
func (m *LabelMap) UniqueCount() int {
	seen := make(map[int32]bool)
	for _, v := range m.labels {
		seen[v] = true
	}
	return len(seen)
}
