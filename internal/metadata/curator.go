package metadata

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoExtension is returned when a raw image filename has no "." extension
// separator to insert the illumination-correction suffix before.
var ErrNoExtension = errors.New("filename has no extension separator")

// Columns names the metadata columns the curator operates on. The input CSV
// may carry any superset of these.
type Columns struct {
	RawImage      string
	IllumImage    string
	Plate         string
	Well          string
	BlurryFlag    string
	SaturatedFlag string
	NucleiOutline string
	NucleiCount   string
}

// DefaultColumns returns the assay's standard column names.
func DefaultColumns() Columns {
	return Columns{
		RawImage:      "Image_FileName_OrigHoechst",
		IllumImage:    "Image_FileName_IllumHoechst",
		Plate:         "Image_Metadata_Plate",
		Well:          "Image_Metadata_Well",
		BlurryFlag:    "Image_Metadata_QCFlag_isBlurry",
		SaturatedFlag: "Image_Metadata_QCFlag_isSaturated",
		NucleiOutline: "Image_FileName_NucleiOutlines",
		NucleiCount:   "Image_Count_Nuclei",
	}
}

// Curator filters and normalizes the per-image plate metadata ahead of
// segmentation and dataset construction. All state is per-run; a Curator is
// not safe for concurrent use.
type Curator struct {
	imageInputDir string
	outputDir     string
	cols          Columns

	// Meta is the working metadata table, mutated in place by the
	// curation steps.
	Meta *Table
}

// NewCurator loads the metadata CSV and prepares a curation run.
func NewCurator(imageInputDir, metadataFile, outputDir string, cols Columns) (*Curator, error) {
	meta, err := LoadTable(metadataFile)
	if err != nil {
		return nil, err
	}
	return &Curator{
		imageInputDir: imageInputDir,
		outputDir:     outputDir,
		cols:          cols,
		Meta:          meta,
	}, nil
}

// DeriveIlluminationFilenames fills the illumination-corrected filename
// column by inserting suffix immediately before the first "." of each raw
// filename. The derivation is deterministic; a filename without an extension
// separator is a fatal metadata error.
func (c *Curator) DeriveIlluminationFilenames(suffix string) error {
	raw, err := c.Meta.Column(c.cols.RawImage)
	if err != nil {
		return err
	}

	illum := make([]string, len(raw))
	for i, name := range raw {
		idx := strings.Index(name, ".")
		if idx < 0 {
			return fmt.Errorf("derive illumination filename for %q: %w", name, ErrNoExtension)
		}
		illum[i] = name[:idx] + suffix + name[idx:]
	}
	return c.Meta.SetColumn(c.cols.IllumImage, illum)
}

// FilterQualityFlags drops every row whose blurry or saturated QC flag is
// nonzero. The comparison is exact equality with zero, no tolerance.
func (c *Curator) FilterQualityFlags() error {
	bi, err := c.Meta.ColumnIndex(c.cols.BlurryFlag)
	if err != nil {
		return err
	}
	si, err := c.Meta.ColumnIndex(c.cols.SaturatedFlag)
	if err != nil {
		return err
	}

	c.Meta.Filter(func(row []string) bool {
		return flagIsZero(row[bi]) && flagIsZero(row[si])
	})
	return nil
}

func flagIsZero(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 0
}

// RemoveOutliers drops rows matching any excluded plate, exact (plate, well)
// pair, or well id across all plates, in that order. Nil slices skip the
// corresponding filter.
func (c *Curator) RemoveOutliers(plates []string, plateWells [][2]string, wells []string) error {
	pi, err := c.Meta.ColumnIndex(c.cols.Plate)
	if err != nil {
		return err
	}
	wi, err := c.Meta.ColumnIndex(c.cols.Well)
	if err != nil {
		return err
	}

	if plates != nil {
		excluded := toSet(plates)
		c.Meta.Filter(func(row []string) bool {
			return !excluded[row[pi]]
		})
	}
	if plateWells != nil {
		excluded := make(map[[2]string]bool, len(plateWells))
		for _, pw := range plateWells {
			excluded[pw] = true
		}
		c.Meta.Filter(func(row []string) bool {
			return !excluded[[2]string{row[pi], row[wi]}]
		})
	}
	if wells != nil {
		excluded := toSet(wells)
		c.Meta.Filter(func(row []string) bool {
			return !excluded[row[wi]]
		})
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// CopyFilteredImages copies the illumination-corrected file of every
// surviving row from <input>/<plate>/<file> to <output>/filtered/<plate>/<file>.
// A missing source file is logged and skipped; the batch continues. Returns
// the number of files copied.
func (c *Curator) CopyFilteredImages() (int, error) {
	pi, err := c.Meta.ColumnIndex(c.cols.Plate)
	if err != nil {
		return 0, err
	}
	fi, err := c.Meta.ColumnIndex(c.cols.IllumImage)
	if err != nil {
		return 0, err
	}

	outRoot := filepath.Join(c.outputDir, "filtered")
	copied := 0
	for _, row := range c.Meta.Rows {
		plate, name := row[pi], row[fi]
		src := filepath.Join(c.imageInputDir, plate, name)
		dst := filepath.Join(outRoot, plate, name)

		if err := copyFile(src, dst); err != nil {
			slog.Error("failed to copy filtered image", "src", src, "error", err)
			continue
		}
		copied++
	}
	slog.Debug("filtered images copied", "count", copied, "dir", outRoot)
	return copied, nil
}

// OutlierSpec groups the three optional outlier exclusion lists.
type OutlierSpec struct {
	Plates     []string
	PlateWells [][2]string
	Wells      []string
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
