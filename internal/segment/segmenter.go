package segment

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"nuclei-pipeline/internal/imgio"
	"nuclei-pipeline/internal/metadata"
)

// Config parameterizes a segmentation run.
type Config struct {
	// ImageInputDir holds the illumination-corrected intensity images,
	// one subdirectory per plate.
	ImageInputDir string
	// OutlineInputDir holds the nucleus outline masks, parallel layout.
	OutlineInputDir string
	// OutputDir receives segmented_nuclei/<plate>/ crops and the two
	// metadata CSVs.
	OutputDir string

	Cols metadata.Columns

	// MinArea clears components below this pixel count before the region
	// count is recorded; independent of Filter.
	MinArea int
	Filter  Filter
}

// PadSize is the canvas size derived from the largest accepted crop:
// (max width + 1, max height + 1). Every accepted crop is strictly smaller
// than the pad size in both dimensions.
type PadSize struct {
	W, H int
}

// Result summarizes a segmentation run.
type Result struct {
	PadSize    PadSize
	NucleiMeta *metadata.Table
	ImageMeta  *metadata.Table
	Accepted   int

	NucleiMetaFile string
	ImageMetaFile  string
}

// Run segments every image row of meta. For each image it labels the outline
// mask, drops small components, records the surviving component count, shape-
// filters the remaining regions, and writes one masked intensity crop plus
// one nucleus metadata row per accepted region.
//
// A missing intensity or outline file aborts the whole run: skipping a single
// image would desynchronize the nucleus table from the written crops, and the
// row-per-accepted-region invariant is enforced by construction only.
func Run(meta *metadata.Table, cfg Config) (*Result, error) {
	imageMeta := meta.Clone()
	nucleiMeta := metadata.NewTable(meta.Columns)

	plateIdx, err := meta.ColumnIndex(cfg.Cols.Plate)
	if err != nil {
		return nil, err
	}
	fileIdx, err := meta.ColumnIndex(cfg.Cols.IllumImage)
	if err != nil {
		return nil, err
	}
	outlineIdx, err := meta.ColumnIndex(cfg.Cols.NucleiOutline)
	if err != nil {
		return nil, err
	}
	if _, err := meta.ColumnIndex(cfg.Cols.NucleiCount); err != nil {
		return nil, err
	}

	outRoot := filepath.Join(cfg.OutputDir, "segmented_nuclei")
	maxW, maxH := 0, 0
	accepted := 0

	for i, row := range meta.Rows {
		plate := row[plateIdx]
		imageName := row[fileIdx]
		outlineName := row[outlineIdx]

		intensity, err := imgio.Load(filepath.Join(cfg.ImageInputDir, plate, imageName))
		if err != nil {
			return nil, fmt.Errorf("segmenting %s/%s: %w", plate, imageName, err)
		}
		outline, err := imgio.Load(filepath.Join(cfg.OutlineInputDir, plate, outlineName))
		if err != nil {
			return nil, fmt.Errorf("segmenting %s/%s: %w", plate, imageName, err)
		}

		labels := LabelOutline(outline)
		labels.RemoveSmallObjects(cfg.MinArea)
		if err := imageMeta.SetCell(i, cfg.Cols.NucleiCount, strconv.Itoa(labels.UniqueCount())); err != nil {
			return nil, err
		}

		stem, ext := imgio.Stem(imageName)
		for _, region := range Regions(labels) {
			if !cfg.Filter.Accept(&region) {
				continue
			}

			if w := region.Width(); w > maxW {
				maxW = w
			}
			if h := region.Height(); h > maxH {
				maxH = h
			}

			cropName := fmt.Sprintf("%s_%d%s", stem, region.Label, ext)
			cropPath := filepath.Join(outRoot, plate, cropName)
			if err := imgio.Save(cropPath, region.Crop(intensity)); err != nil {
				return nil, fmt.Errorf("segmenting %s/%s: %w", plate, imageName, err)
			}

			nucleusRow := make([]string, len(row))
			copy(nucleusRow, row)
			nucleusRow[fileIdx] = cropName
			if err := nucleiMeta.AppendRow(nucleusRow); err != nil {
				return nil, err
			}
			accepted++
		}

		slog.Debug("segmented image", "plate", plate, "image", imageName, "nuclei", labels.LabelCount())
	}

	renamedNuclei, err := metadata.RenameToTarget(nucleiMeta, nil, nil)
	if err != nil {
		return nil, err
	}
	renamedImages, err := metadata.RenameToTarget(imageMeta,
		[]string{cfg.Cols.NucleiOutline, cfg.Cols.NucleiCount},
		[]string{"nuclei_outline_file", "nuclei_count"})
	if err != nil {
		return nil, err
	}

	res := &Result{
		PadSize:        PadSize{W: maxW + 1, H: maxH + 1},
		NucleiMeta:     renamedNuclei,
		ImageMeta:      renamedImages,
		Accepted:       accepted,
		NucleiMetaFile: filepath.Join(cfg.OutputDir, "nuclei_metadata.csv"),
		ImageMetaFile:  filepath.Join(cfg.OutputDir, "image_metadata.csv"),
	}

	if err := res.NucleiMeta.Save(res.NucleiMetaFile); err != nil {
		return nil, err
	}
	if err := res.ImageMeta.Save(res.ImageMetaFile); err != nil {
		return nil, err
	}

	slog.Info("segmentation complete",
		"images", meta.Len(), "nuclei", accepted,
		"pad_width", res.PadSize.W, "pad_height", res.PadSize.H)
	return res, nil
}
