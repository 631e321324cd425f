// Package dataset exposes segmented nucleus crops as a uniform, randomly
// indexable collection of (id, image, label) samples for model training.
//
// One canonical transform pipeline is owned by the root dataset; subset and
// fold views hold a non-owning reference and delegate pipeline changes to the
// root. Changing the pipeline through any view therefore affects every other
// view sharing the same backing dataset. This shared-ownership behavior is
// deliberate: preprocessing has a single source of truth across folds.
package dataset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"slices"

	"nuclei-pipeline/internal/imgio"
	"nuclei-pipeline/internal/metadata"
)

// ControlClass is the sentinel label of control wells. It is always retained
// through target-list filtering.
const ControlClass = "EMPTY"

var (
	// ErrCountMismatch signals a desynchronization between the metadata
	// rows and the derived image path list.
	ErrCountMismatch = errors.New("image path count does not match metadata rows")
	// ErrNoTransformSupport is returned when a subset's backing object
	// cannot accept a transform pipeline.
	ErrNoTransformSupport = errors.New("backing dataset does not support transform pipelines")
)

// Sample is one dataset element.
type Sample struct {
	ID    string
	Image *Tensor
	Label int
}

// Indexed is the minimal random-access collection contract consumed by
// training loops: a known length and side-effect-free per-index access.
type Indexed interface {
	Len() int
	Get(i int) (Sample, error)
}

// Transformable is implemented by collections whose transform pipeline can
// be replaced after construction.
type Transformable interface {
	SetTransformPipeline(p *Pipeline) error
}

// Config parameterizes dataset construction.
type Config struct {
	ImageDir     string `mapstructure:"image_dir"`
	MetadataFile string `mapstructure:"metadata_file"`

	// Column names in the nucleus metadata table. Zero values fall back
	// to the pipeline's output schema.
	ImageFileCol string `mapstructure:"image_file_col"`
	PlateCol     string `mapstructure:"plate_col"`
	LabelCol     string `mapstructure:"label_col"`

	// TargetList restricts rows to the listed classes; the control class
	// is always implicitly included.
	TargetList []string `mapstructure:"target_list"`

	// NControlSamples undersamples the control class to exactly this
	// count. Zero disables undersampling.
	NControlSamples int `mapstructure:"n_control_samples"`

	Pipeline  *Pipeline `mapstructure:"-"`
	PseudoRGB bool      `mapstructure:"pseudo_rgb"`
	Seed      int64     `mapstructure:"seed"`
}

// NucleiImageDataset indexes nucleus crop files against their metadata and
// serves transformed samples. The file list, labels, and encoder are fixed
// at construction; Get is read-only and safe for concurrent workers.
type NucleiImageDataset struct {
	paths     []string
	labels    []int
	encoder   *LabelEncoder
	pipeline  *Pipeline
	pseudoRGB bool
}

// New builds a dataset from crops under cfg.ImageDir and the nucleus
// metadata CSV. Label encoding is fit after target filtering and
// undersampling, from the final retained label set; the integer-to-class
// mapping is therefore run-specific.
func New(cfg Config) (*NucleiImageDataset, error) {
	if cfg.ImageFileCol == "" {
		cfg.ImageFileCol = "image_file"
	}
	if cfg.PlateCol == "" {
		cfg.PlateCol = "plate"
	}
	if cfg.LabelCol == "" {
		cfg.LabelCol = "gene_symbol"
	}

	meta, err := metadata.LoadTable(cfg.MetadataFile)
	if err != nil {
		return nil, err
	}

	labelIdx, err := meta.ColumnIndex(cfg.LabelCol)
	if err != nil {
		return nil, err
	}

	if cfg.TargetList != nil {
		targets := slices.Clone(cfg.TargetList)
		if !slices.Contains(targets, ControlClass) {
			targets = append(targets, ControlClass)
		}
		meta.Filter(func(row []string) bool {
			return slices.Contains(targets, row[labelIdx])
		})
	}

	if cfg.NControlSamples > 0 {
		rawLabels, err := meta.Column(cfg.LabelCol)
		if err != nil {
			return nil, err
		}
		kept, err := Undersample(rawLabels, map[string]int{ControlClass: cfg.NControlSamples}, cfg.Seed)
		if err != nil {
			return nil, err
		}
		keep := make(map[int]bool, len(kept))
		for _, i := range kept {
			keep[i] = true
		}
		row := 0
		meta.Filter(func([]string) bool {
			ok := keep[row]
			row++
			return ok
		})
		slog.Debug("control class undersampled", "n_control", cfg.NControlSamples, "rows", meta.Len())
	}

	plates, err := meta.Column(cfg.PlateCol)
	if err != nil {
		return nil, err
	}
	files, err := meta.Column(cfg.ImageFileCol)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, meta.Len())
	for i := range files {
		paths = append(paths, filepath.Join(cfg.ImageDir, plates[i], files[i]))
	}
	if len(paths) != meta.Len() {
		return nil, fmt.Errorf("%d paths for %d metadata rows: %w", len(paths), meta.Len(), ErrCountMismatch)
	}

	rawLabels, err := meta.Column(cfg.LabelCol)
	if err != nil {
		return nil, err
	}
	encoder := FitLabelEncoder(rawLabels)
	labels, err := encoder.Transform(rawLabels)
	if err != nil {
		return nil, err
	}
	slog.Debug("label classes coded", "classes", encoder.Classes())

	ds := &NucleiImageDataset{
		paths:     paths,
		labels:    labels,
		encoder:   encoder,
		pseudoRGB: cfg.PseudoRGB,
	}
	if err := ds.SetTransformPipeline(cfg.Pipeline); err != nil {
		return nil, err
	}
	return ds, nil
}

// Len returns the number of samples.
func (d *NucleiImageDataset) Len() int { return len(d.paths) }

// Labels returns the encoded label of every sample, in index order.
func (d *NucleiImageDataset) Labels() []int {
	out := make([]int, len(d.labels))
	copy(out, d.labels)
	return out
}

// Encoder returns the fitted label encoder.
func (d *NucleiImageDataset) Encoder() *LabelEncoder { return d.encoder }

// SetTransformPipeline replaces the canonical transform pipeline. A nil
// pipeline resets to plain tensor conversion.
func (d *NucleiImageDataset) SetTransformPipeline(p *Pipeline) error {
	if p == nil {
		p = &Pipeline{}
	}
	d.pipeline = p
	return nil
}

// Get loads, transforms, and returns sample i.
func (d *NucleiImageDataset) Get(i int) (Sample, error) {
	if i < 0 || i >= len(d.paths) {
		return Sample{}, fmt.Errorf("sample index %d out of range (%d samples)", i, len(d.paths))
	}

	img, err := imgio.Load(d.paths[i])
	if err != nil {
		return Sample{}, err
	}

	var input image.Image = img
	if d.pseudoRGB {
		input = pseudoRGB(img)
	}

	return Sample{
		ID:    d.paths[i],
		Image: d.pipeline.Run(input),
		Label: d.labels[i],
	}, nil
}

// pseudoRGB replicates a single intensity channel into a 3-channel container
// (paste/broadcast, not per-channel filtering).
func pseudoRGB(img *image.Gray16) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA64(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := img.Gray16At(x, y).Y
			out.SetRGBA64(x, y, color.RGBA64{R: v, G: v, B: v, A: 65535})
		}
	}
	return out
}

// TransformableSubset is a restricted view over a subset of indices. It owns
// no transform pipeline of its own: pipeline changes are delegated to the
// backing dataset and shared with every other view of it.
type TransformableSubset struct {
	base    Indexed
	indices []int
}

// NewSubset creates a view of base restricted to the given indices.
func NewSubset(base Indexed, indices []int) *TransformableSubset {
	idc := make([]int, len(indices))
	copy(idc, indices)
	return &TransformableSubset{base: base, indices: idc}
}

// Len returns the view's sample count.
func (s *TransformableSubset) Len() int { return len(s.indices) }

// Get returns the i-th sample of the view.
func (s *TransformableSubset) Get(i int) (Sample, error) {
	if i < 0 || i >= len(s.indices) {
		return Sample{}, fmt.Errorf("subset index %d out of range (%d samples)", i, len(s.indices))
	}
	return s.base.Get(s.indices[i])
}

// SetTransformPipeline delegates to the backing dataset. The change is
// visible through every view sharing that dataset.
func (s *TransformableSubset) SetTransformPipeline(p *Pipeline) error {
	t, ok := s.base.(Transformable)
	if !ok {
		return fmt.Errorf("set transform on subset of %T: %w", s.base, ErrNoTransformSupport)
	}
	return t.SetTransformPipeline(p)
}
