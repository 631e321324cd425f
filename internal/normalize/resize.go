package normalize

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Resize scales img to exactly w x h pixels using bilinear interpolation.
// No intensity rescaling is applied; output stays 16-bit.
func Resize(img *image.Gray16, w, h int) (*image.Gray16, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("resize: empty source image")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("resize: invalid target size %dx%d", w, h)
	}

	src := gocv.NewMatWithSize(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV16UC1)
	defer src.Close()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := img.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
			src.SetShortAt(y, x, int16(v))
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)

	out := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint16(dst.GetShortAt(y, x))
			out.Pix[out.PixOffset(x, y)] = uint8(v >> 8)
			out.Pix[out.PixOffset(x, y)+1] = uint8(v)
		}
	}
	return out, nil
}
