// Package imgio provides loading and saving of microscopy images. Frames and
// nucleus crops are 16-bit single-channel TIFFs; PNG and JPEG are accepted on
// the read path for convenience.
package imgio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/tiff"
)

// Load decodes the image at path and returns it as 16-bit grayscale.
func Load(path string) (*image.Gray16, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return ToGray16(img), nil
}

// Save encodes img as an uncompressed TIFF at path, creating parent
// directories as needed.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}
	defer file.Close()

	if err := tiff.Encode(file, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	return nil
}

// ToGray16 converts an arbitrary decoded image to 16-bit grayscale. A Gray16
// source is returned unchanged.
func ToGray16(img image.Image) *image.Gray16 {
	if g, ok := img.(*image.Gray16); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray16(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// BT.601 luma weights on the 16-bit channel values.
			v := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
			gray.SetGray16(x, y, color.Gray16{Y: uint16(v)})
		}
	}
	return gray
}

// ListFiles returns all regular files below root, sorted lexically. Plate
// directories nest one level deep, so the sort groups files by plate.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Stem splits a filename at its first extension separator, returning the part
// before the first "." and the remainder (including the dot). The second
// return is empty when the name has no extension.
func Stem(filename string) (string, string) {
	idx := strings.Index(filename, ".")
	if idx < 0 {
		return filename, ""
	}
	return filename[:idx], filename[idx:]
}
