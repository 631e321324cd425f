// Package normalize turns variable-size nucleus crops into uniform training
// inputs, either by padding onto a fixed canvas or by resizing to a target
// resolution.
//
// Padded output is rescaled to 8-bit using the per-image observed min/max.
// Absolute intensity comparability across images is therefore not preserved;
// this matches the trained models' expectations and must not be "fixed".
package normalize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrCropTooLarge is returned when a crop does not fit the pad target size.
var ErrCropTooLarge = errors.New("crop exceeds pad target size")

// Pad places img at the top-left corner of a zero-background canvas of
// w x h pixels. The anchor is fixed for all crops in a run.
func Pad(img *image.Gray16, w, h int) (*image.Gray16, error) {
	bounds := img.Bounds()
	if bounds.Dx() > w || bounds.Dy() > h {
		return nil, fmt.Errorf("pad %dx%d image to %dx%d: %w", bounds.Dx(), bounds.Dy(), w, h, ErrCropTooLarge)
	}

	canvas := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			canvas.SetGray16(x, y, img.Gray16At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return canvas, nil
}

// RescaleToUint8 maps img to 8-bit range using its own min/max: rescale to
// [0,1], clip, quantize to [0,255]. A constant image maps to all zeros.
func RescaleToUint8(img *image.Gray16) *image.Gray {
	bounds := img.Bounds()
	lo, hi := uint16(65535), uint16(0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := img.Gray16At(x, y).Y
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if hi == lo {
		return out
	}

	span := float64(hi - lo)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := float64(img.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y-lo) / span
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v * 255)})
		}
	}
	return out
}
