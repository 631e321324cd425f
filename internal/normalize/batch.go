package normalize

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"nuclei-pipeline/internal/imgio"
	"nuclei-pipeline/internal/segment"
)

// PadAll pads and rescales every crop under inputDir (one subdirectory per
// plate) onto a size.W x size.H canvas, writing 8-bit TIFFs under
// <outputDir>/padded_nuclei/<plate>/<file>. Returns the number written.
func PadAll(inputDir, outputDir string, size segment.PadSize) (int, error) {
	files, err := imgio.ListFiles(inputDir)
	if err != nil {
		return 0, err
	}

	outRoot := filepath.Join(outputDir, "padded_nuclei")
	written := 0
	for _, file := range files {
		img, err := imgio.Load(file)
		if err != nil {
			return written, err
		}
		padded, err := Pad(img, size.W, size.H)
		if err != nil {
			return written, fmt.Errorf("padding %s: %w", file, err)
		}

		plate := filepath.Base(filepath.Dir(file))
		dst := filepath.Join(outRoot, plate, filepath.Base(file))
		if err := imgio.Save(dst, RescaleToUint8(padded)); err != nil {
			return written, err
		}
		written++
	}
	slog.Info("padded crops written", "count", written, "dir", outRoot,
		"width", size.W, "height", size.H)
	return written, nil
}

// ResizeAll resizes every crop under inputDir to w x h, writing 16-bit TIFFs
// under <outputDir>/resized_images/<plate>/<file>. No intensity rescaling.
func ResizeAll(inputDir, outputDir string, w, h int) (int, error) {
	files, err := imgio.ListFiles(inputDir)
	if err != nil {
		return 0, err
	}

	outRoot := filepath.Join(outputDir, "resized_images")
	written := 0
	for _, file := range files {
		img, err := imgio.Load(file)
		if err != nil {
			return written, err
		}
		resized, err := Resize(img, w, h)
		if err != nil {
			return written, fmt.Errorf("resizing %s: %w", file, err)
		}

		plate := filepath.Base(filepath.Dir(file))
		dst := filepath.Join(outRoot, plate, filepath.Base(file))
		if err := imgio.Save(dst, resized); err != nil {
			return written, err
		}
		written++
	}
	slog.Info("resized images written", "count", written, "dir", outRoot)
	return written, nil
}
