// Package config loads and validates pipeline settings from a YAML file,
// environment variables, and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"nuclei-pipeline/internal/metadata"
)

// ColumnSettings names the source metadata columns. Empty fields fall back
// to the assay defaults.
type ColumnSettings struct {
	RawImage      string `mapstructure:"raw_image"`
	IllumImage    string `mapstructure:"illum_image"`
	Plate         string `mapstructure:"plate"`
	Well          string `mapstructure:"well"`
	BlurryFlag    string `mapstructure:"blurry_flag"`
	SaturatedFlag string `mapstructure:"saturated_flag"`
	NucleiOutline string `mapstructure:"nuclei_outline"`
	NucleiCount   string `mapstructure:"nuclei_count"`
}

// CurateSettings parameterizes metadata curation.
type CurateSettings struct {
	IllumSuffix string `mapstructure:"illum_suffix"`
	// OutlierPlateWells entries are "plate:well" pairs.
	OutlierPlates     []string `mapstructure:"outlier_plates"`
	OutlierPlateWells []string `mapstructure:"outlier_plate_wells"`
	OutlierWells      []string `mapstructure:"outlier_wells"`
	CopyImages        bool     `mapstructure:"copy_images"`
}

// SegmentSettings parameterizes nucleus segmentation.
type SegmentSettings struct {
	OutlineInputDir string  `mapstructure:"outline_input_dir"`
	MinArea         int     `mapstructure:"min_area"`
	MaxArea         int     `mapstructure:"max_area"`
	MaxEccentricity float64 `mapstructure:"max_eccentricity"`
	MaxBBoxArea     int     `mapstructure:"max_bbox_area"`
	MinSolidity     float64 `mapstructure:"min_solidity"`
}

// NormalizeSettings parameterizes padding and resizing.
type NormalizeSettings struct {
	PadWidth     int `mapstructure:"pad_width"`
	PadHeight    int `mapstructure:"pad_height"`
	ResizeWidth  int `mapstructure:"resize_width"`
	ResizeHeight int `mapstructure:"resize_height"`
}

// DatasetSettings parameterizes labeled dataset construction.
type DatasetSettings struct {
	ImageDir        string   `mapstructure:"image_dir"`
	MetadataFile    string   `mapstructure:"metadata_file"`
	ImageFileCol    string   `mapstructure:"image_file_col"`
	PlateCol        string   `mapstructure:"plate_col"`
	LabelCol        string   `mapstructure:"label_col"`
	TargetList      []string `mapstructure:"target_list"`
	NControlSamples int      `mapstructure:"n_control_samples"`
	PseudoRGB       bool     `mapstructure:"pseudo_rgb"`
	TransformPreset string   `mapstructure:"transform_preset"`
	TransformSize   int      `mapstructure:"transform_size"`
}

// EmbedSettings parameterizes encoder inference and latent storage.
type EmbedSettings struct {
	ModelPath    string `mapstructure:"model_path"`
	MetadataPath string `mapstructure:"metadata_path"`
	StorePath    string `mapstructure:"store_path"`
}

// Settings is the full pipeline configuration.
type Settings struct {
	Debug   bool `mapstructure:"debug"`
	LogJSON bool `mapstructure:"log_json"`

	ImageInputDir string `mapstructure:"image_input_dir"`
	MetadataFile  string `mapstructure:"metadata_file"`
	OutputDir     string `mapstructure:"output_dir"`
	Seed          int64  `mapstructure:"seed"`

	Columns   ColumnSettings    `mapstructure:"columns"`
	Curate    CurateSettings    `mapstructure:"curate"`
	Segment   SegmentSettings   `mapstructure:"segment"`
	Normalize NormalizeSettings `mapstructure:"normalize"`
	Dataset   DatasetSettings   `mapstructure:"dataset"`
	Embed     EmbedSettings     `mapstructure:"embed"`
}

// Load reads settings from cfgFile (or ./nuclei-pipeline.yaml when empty),
// with NUCLEI_-prefixed environment variables overriding file values. A
// missing config file is an error only when one was named explicitly.
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("nuclei-pipeline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("NUCLEI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "output")
	v.SetDefault("seed", 42)
	v.SetDefault("curate.illum_suffix", "_illum_corrected")
	v.SetDefault("curate.copy_images", true)
	v.SetDefault("segment.min_area", 15)
	v.SetDefault("dataset.n_control_samples", 0)
}

// MetadataColumns converts the column settings to the curator's column set,
// filling unset names with the assay defaults.
func (s *Settings) MetadataColumns() metadata.Columns {
	cols := metadata.DefaultColumns()
	if c := s.Columns.RawImage; c != "" {
		cols.RawImage = c
	}
	if c := s.Columns.IllumImage; c != "" {
		cols.IllumImage = c
	}
	if c := s.Columns.Plate; c != "" {
		cols.Plate = c
	}
	if c := s.Columns.Well; c != "" {
		cols.Well = c
	}
	if c := s.Columns.BlurryFlag; c != "" {
		cols.BlurryFlag = c
	}
	if c := s.Columns.SaturatedFlag; c != "" {
		cols.SaturatedFlag = c
	}
	if c := s.Columns.NucleiOutline; c != "" {
		cols.NucleiOutline = c
	}
	if c := s.Columns.NucleiCount; c != "" {
		cols.NucleiCount = c
	}
	return cols
}

// OutlierPlateWells parses the "plate:well" exclusion entries.
func (s *Settings) OutlierPlateWells() ([][2]string, error) {
	if len(s.Curate.OutlierPlateWells) == 0 {
		return nil, nil
	}
	pairs := make([][2]string, 0, len(s.Curate.OutlierPlateWells))
	for _, raw := range s.Curate.OutlierPlateWells {
		plate, well, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("outlier plate-well %q: want plate:well", raw)
		}
		pairs = append(pairs, [2]string{plate, well})
	}
	return pairs, nil
}

// ValidatePreprocess checks the fields the preprocess command needs.
func (s *Settings) ValidatePreprocess() error {
	if s.MetadataFile == "" {
		return errors.New("metadata_file is required")
	}
	if s.Curate.CopyImages && s.ImageInputDir == "" {
		return errors.New("image_input_dir is required when copying filtered images")
	}
	return nil
}

// ValidateSegment checks the fields the segment command needs.
func (s *Settings) ValidateSegment() error {
	if s.ImageInputDir == "" {
		return errors.New("image_input_dir is required")
	}
	if s.Segment.OutlineInputDir == "" {
		return errors.New("segment.outline_input_dir is required")
	}
	if s.MetadataFile == "" {
		return errors.New("metadata_file is required")
	}
	return nil
}

// ValidateDataset checks the fields dataset construction needs.
func (s *Settings) ValidateDataset() error {
	if s.Dataset.ImageDir == "" {
		return errors.New("dataset.image_dir is required")
	}
	if s.Dataset.MetadataFile == "" {
		return errors.New("dataset.metadata_file is required")
	}
	return nil
}

// ValidateEmbed checks the fields encoder inference needs.
func (s *Settings) ValidateEmbed() error {
	if err := s.ValidateDataset(); err != nil {
		return err
	}
	if s.Embed.ModelPath == "" {
		return errors.New("embed.model_path is required")
	}
	if s.Embed.MetadataPath == "" {
		return errors.New("embed.metadata_path is required")
	}
	if s.Embed.StorePath == "" {
		return errors.New("embed.store_path is required")
	}
	return nil
}

// InitLogging configures the process-wide slog default from the settings.
func (s *Settings) InitLogging() {
	level := slog.LevelInfo
	if s.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if s.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
