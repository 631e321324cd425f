package experiment

import (
	"fmt"

	"nuclei-pipeline/internal/dataset"
)

// Fold is one cross-validation split: a training view and a held-out
// validation view of the same backing dataset.
type Fold struct {
	Train *dataset.TransformableSubset
	Val   *dataset.TransformableSubset
}

// Experiment is a validated configuration with its dataset resolved.
type Experiment struct {
	Config  Config
	Dataset *dataset.NucleiImageDataset
}

// New validates cfg, resolves its transform preset, and loads the dataset.
func New(cfg Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsCfg := cfg.Data.Dataset
	if dsCfg.Seed == 0 {
		dsCfg.Seed = cfg.Seed
	}
	pipeline, err := dataset.PipelinePreset(cfg.Data.TransformPreset, cfg.Data.TransformSize, cfg.Seed)
	if err != nil {
		return nil, err
	}
	dsCfg.Pipeline = pipeline

	ds, err := dataset.New(dsCfg)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}
	return &Experiment{Config: cfg, Dataset: ds}, nil
}

// Folds partitions the dataset for training. With NFolds >= 2 it returns
// stratified k-fold splits; otherwise it returns a single train/val split
// from TrainValSplit (defaulting to 80/20).
func (e *Experiment) Folds() ([]Fold, error) {
	labels := e.Dataset.Labels()

	if e.Config.NFolds >= 2 {
		holdouts, err := dataset.StratifiedKFold(labels, e.Config.NFolds, e.Config.Seed)
		if err != nil {
			return nil, err
		}
		folds := make([]Fold, 0, len(holdouts))
		for _, held := range holdouts {
			folds = append(folds, Fold{
				Train: dataset.NewSubset(e.Dataset, dataset.TrainIndices(len(labels), held)),
				Val:   dataset.NewSubset(e.Dataset, held),
			})
		}
		return folds, nil
	}

	fractions := e.Config.TrainValSplit
	if len(fractions) == 0 {
		fractions = []float64{0.8, 0.2}
	}
	groups, err := dataset.StratifiedSplit(labels, fractions, e.Config.Seed)
	if err != nil {
		return nil, err
	}
	return []Fold{{
		Train: dataset.NewSubset(e.Dataset, groups[0]),
		Val:   dataset.NewSubset(e.Dataset, groups[1]),
	}}, nil
}

// ClassWeights returns the loss weights for the class-weighted cross-entropy
// variant: configured weights if present, otherwise inverse-frequency weights
// derived from the dataset labels.
func (e *Experiment) ClassWeights() []float64 {
	if len(e.Config.Loss.Weights) > 0 {
		return e.Config.Loss.Weights
	}
	return dataset.LabelWeights(e.Dataset.Labels())
}
