// Package experiment carries the typed configuration handed to the training
// collaborator and prepares datasets and cross-validation folds for it. The
// training loop itself (forward/backward pass, checkpointing) lives outside
// this repository; everything here is resolved and validated up front so a
// bad configuration fails before any data is touched.
package experiment

import (
	"errors"
	"fmt"

	"nuclei-pipeline/internal/dataset"
)

// ErrUnknownVariant is returned when a model, optimizer, or loss name is not
// in its closed variant set.
var ErrUnknownVariant = errors.New("unknown configuration variant")

// Model variants.
const (
	ModelAE  = "ae"
	ModelVAE = "vae"
)

// Optimizer variants.
const (
	OptimizerAdam    = "adam"
	OptimizerSGD     = "sgd"
	OptimizerRMSProp = "rmsprop"
)

// Loss variants.
const (
	LossMSE          = "mse"
	LossBCE          = "bce"
	LossCrossEntropy = "ce"
)

// ModelConfig names a model variant with its typed parameters.
type ModelConfig struct {
	Type      string `mapstructure:"type"`
	InputDim  int    `mapstructure:"input_dim"`
	LatentDim int    `mapstructure:"latent_dim"`
	Hidden    []int  `mapstructure:"hidden"`
}

// Validate checks the variant name and parameters.
func (c ModelConfig) Validate() error {
	switch c.Type {
	case ModelAE, ModelVAE:
	default:
		return fmt.Errorf("model type %q: %w", c.Type, ErrUnknownVariant)
	}
	if c.LatentDim <= 0 {
		return fmt.Errorf("model latent_dim must be positive, got %d", c.LatentDim)
	}
	return nil
}

// OptimizerConfig names an optimizer variant with its typed parameters.
type OptimizerConfig struct {
	Type        string  `mapstructure:"type"`
	LR          float64 `mapstructure:"lr"`
	WeightDecay float64 `mapstructure:"weight_decay"`
	Momentum    float64 `mapstructure:"momentum"`
}

// Validate checks the variant name and parameters.
func (c OptimizerConfig) Validate() error {
	switch c.Type {
	case OptimizerAdam, OptimizerSGD, OptimizerRMSProp:
	default:
		return fmt.Errorf("optimizer type %q: %w", c.Type, ErrUnknownVariant)
	}
	if c.LR <= 0 {
		return fmt.Errorf("optimizer lr must be positive, got %g", c.LR)
	}
	return nil
}

// LossConfig names a loss variant. Weights apply to the class-weighted
// cross-entropy variant only.
type LossConfig struct {
	Type    string    `mapstructure:"type"`
	Weights []float64 `mapstructure:"weights"`
}

// Validate checks the variant name.
func (c LossConfig) Validate() error {
	switch c.Type {
	case LossMSE, LossBCE, LossCrossEntropy:
	default:
		return fmt.Errorf("loss type %q: %w", c.Type, ErrUnknownVariant)
	}
	if len(c.Weights) > 0 && c.Type != LossCrossEntropy {
		return fmt.Errorf("loss weights are only valid for %q, not %q", LossCrossEntropy, c.Type)
	}
	return nil
}

// DataConfig binds the training loop's batch keys to a dataset
// configuration. DataKey/LabelKey name the sample fields the loop reads;
// IndexKey and ExtraFeatures are optional passthroughs.
type DataConfig struct {
	DataKey       string   `mapstructure:"data_key"`
	LabelKey      string   `mapstructure:"label_key"`
	IndexKey      string   `mapstructure:"index_key"`
	ExtraFeatures []string `mapstructure:"extra_features"`

	Dataset         dataset.Config `mapstructure:"dataset"`
	TransformPreset string         `mapstructure:"transform_preset"`
	TransformSize   int            `mapstructure:"transform_size"`
}

// Validate checks the required keys.
func (c DataConfig) Validate() error {
	if c.DataKey == "" {
		return errors.New("data_key is required")
	}
	if c.LabelKey == "" {
		return errors.New("label_key is required")
	}
	if c.Dataset.MetadataFile == "" {
		return errors.New("dataset metadata_file is required")
	}
	if c.Dataset.ImageDir == "" {
		return errors.New("dataset image_dir is required")
	}
	return nil
}

// Config is a complete experiment description.
type Config struct {
	OutputDir     string    `mapstructure:"output_dir"`
	NFolds        int       `mapstructure:"n_folds"`
	TrainValSplit []float64 `mapstructure:"train_val_split"`
	BatchSize     int       `mapstructure:"batch_size"`
	NumEpochs     int       `mapstructure:"num_epochs"`
	EarlyStopping int       `mapstructure:"early_stopping"`
	Seed          int64     `mapstructure:"seed"`

	Data      DataConfig      `mapstructure:"data"`
	Model     ModelConfig     `mapstructure:"model"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Loss      LossConfig      `mapstructure:"loss"`
}

// Validate resolves every variant and checks required fields, failing fast
// on the first problem.
func (c Config) Validate() error {
	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config: %w", err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model config: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer config: %w", err)
	}
	if err := c.Loss.Validate(); err != nil {
		return fmt.Errorf("loss config: %w", err)
	}
	if c.NFolds < 0 || c.NFolds == 1 {
		return fmt.Errorf("n_folds must be 0 (plain split) or >= 2, got %d", c.NFolds)
	}
	return nil
}
