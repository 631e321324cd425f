package segment

import (
	"image"
	"image/color"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuclei-pipeline/internal/imgio"
	"nuclei-pipeline/internal/metadata"
)

// newSourceTable builds a metadata table carrying the full source schema for
// one image per row, with placeholder annotation values.
func newSourceTable(t *testing.T, rows [][3]string) *metadata.Table {
	t.Helper()
	cols := append(metadata.SelectedSourceColumns(),
		"Image_FileName_NucleiOutlines", "Image_Count_Nuclei")
	table := metadata.NewTable(cols)

	for _, r := range rows {
		plate, imageFile, outlineFile := r[0], r[1], r[2]
		row := make([]string, len(cols))
		for i, c := range cols {
			switch c {
			case "Image_Metadata_Plate":
				row[i] = plate
			case "Image_FileName_IllumHoechst":
				row[i] = imageFile
			case "Image_FileName_NucleiOutlines":
				row[i] = outlineFile
			case "Image_Metadata_GeneSymbol":
				row[i] = "TP53"
			default:
				row[i] = "x"
			}
		}
		require.NoError(t, table.AppendRow(row))
	}
	return table
}

func writeTestImages(t *testing.T, imageDir, outlineDir, plate, imageName, outlineName string, rings []image.Rectangle) {
	t.Helper()

	intensity := image.NewGray16(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			intensity.SetGray16(x, y, color.Gray16{Y: uint16(200 + x + y)})
		}
	}
	outline := image.NewGray16(image.Rect(0, 0, 64, 64))
	for _, r := range rings {
		drawRing(outline, r)
	}

	require.NoError(t, imgio.Save(filepath.Join(imageDir, plate, imageName), intensity))
	require.NoError(t, imgio.Save(filepath.Join(outlineDir, plate, outlineName), outline))
}

func TestRunSegmentsAndWritesTables(t *testing.T) {
	imageDir := t.TempDir()
	outlineDir := t.TempDir()
	outDir := t.TempDir()

	// Two nuclei: 7x7 interior and 15x11 interior.
	writeTestImages(t, imageDir, outlineDir, "P1", "w1.tif", "w1_outlines.tif",
		[]image.Rectangle{image.Rect(4, 4, 12, 12), image.Rect(20, 20, 36, 32)})

	meta := newSourceTable(t, [][3]string{{"P1", "w1.tif", "w1_outlines.tif"}})

	res, err := Run(meta, Config{
		ImageInputDir:   imageDir,
		OutlineInputDir: outlineDir,
		OutputDir:       outDir,
		Cols:            metadata.DefaultColumns(),
		MinArea:         10,
	})
	require.NoError(t, err)

	// The 7x7 nucleus survives MinArea 10; both regions are accepted by the
	// zero filter.
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 2, res.NucleiMeta.Len())
	assert.Equal(t, 1, res.ImageMeta.Len())

	// Pad size is one larger than the largest accepted crop.
	assert.Equal(t, 16, res.PadSize.W)
	assert.Equal(t, 12, res.PadSize.H)

	// Output tables use the published schema.
	assert.Contains(t, res.NucleiMeta.Columns, "plate")
	assert.Contains(t, res.NucleiMeta.Columns, "image_file")
	assert.NotContains(t, res.NucleiMeta.Columns, "Image_Metadata_Plate")
	assert.Contains(t, res.ImageMeta.Columns, "nuclei_count")
	assert.Contains(t, res.ImageMeta.Columns, "nuclei_outline_file")
	assert.NotContains(t, res.NucleiMeta.Columns, "nuclei_count")

	// The persisted count is over distinct label values, background
	// included: two nuclei plus the zero background.
	count, err := res.ImageMeta.Cell(0, "nuclei_count")
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	// Crop files exist under <out>/segmented_nuclei/<plate>/ and are named
	// <stem>_<label><ext>.
	files, err := res.NucleiMeta.Column("image_file")
	require.NoError(t, err)
	for _, f := range files {
		crop, err := imgio.Load(filepath.Join(outDir, "segmented_nuclei", "P1", f))
		require.NoError(t, err)
		assert.Positive(t, crop.Bounds().Dx())
	}

	// The saved CSVs reload.
	reloaded, err := metadata.LoadTable(res.NucleiMetaFile)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	_, err = metadata.LoadTable(res.ImageMetaFile)
	require.NoError(t, err)
}

func TestRunShapeFilterLimitsAccepted(t *testing.T) {
	imageDir := t.TempDir()
	outlineDir := t.TempDir()

	writeTestImages(t, imageDir, outlineDir, "P1", "w1.tif", "w1_outlines.tif",
		[]image.Rectangle{image.Rect(4, 4, 12, 12), image.Rect(20, 20, 36, 32)})

	meta := newSourceTable(t, [][3]string{{"P1", "w1.tif", "w1_outlines.tif"}})

	res, err := Run(meta, Config{
		ImageInputDir:   imageDir,
		OutlineInputDir: outlineDir,
		OutputDir:       t.TempDir(),
		Cols:            metadata.DefaultColumns(),
		Filter:          Filter{MaxArea: 100},
	})
	require.NoError(t, err)

	// Only the small nucleus passes MaxArea, but the recorded per-image
	// count still reflects both components plus the background value.
	assert.Equal(t, 1, res.Accepted)
	count, err := res.ImageMeta.Cell(0, "nuclei_count")
	require.NoError(t, err)
	n, err := strconv.Atoi(count)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunMissingImageIsFatal(t *testing.T) {
	meta := newSourceTable(t, [][3]string{{"P1", "missing.tif", "missing_outlines.tif"}})

	_, err := Run(meta, Config{
		ImageInputDir:   t.TempDir(),
		OutlineInputDir: t.TempDir(),
		OutputDir:       t.TempDir(),
		Cols:            metadata.DefaultColumns(),
	})
	require.Error(t, err)
}
