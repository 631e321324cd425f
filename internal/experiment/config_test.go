package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuclei-pipeline/internal/dataset"
)

func validConfig() Config {
	return Config{
		NFolds: 5,
		Seed:   42,
		Data: DataConfig{
			DataKey:  "image",
			LabelKey: "label",
			Dataset: dataset.Config{
				ImageDir:     "crops",
				MetadataFile: "nuclei_metadata.csv",
			},
		},
		Model:     ModelConfig{Type: ModelVAE, LatentDim: 16},
		Optimizer: OptimizerConfig{Type: OptimizerAdam, LR: 1e-3},
		Loss:      LossConfig{Type: LossMSE},
	}
}

func TestValidateAcceptsKnownVariants(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	for _, m := range []string{ModelAE, ModelVAE} {
		cfg := validConfig()
		cfg.Model.Type = m
		assert.NoError(t, cfg.Validate(), "model %q", m)
	}
	for _, o := range []string{OptimizerAdam, OptimizerSGD, OptimizerRMSProp} {
		cfg := validConfig()
		cfg.Optimizer.Type = o
		assert.NoError(t, cfg.Validate(), "optimizer %q", o)
	}
	for _, l := range []string{LossMSE, LossBCE, LossCrossEntropy} {
		cfg := validConfig()
		cfg.Loss.Type = l
		assert.NoError(t, cfg.Validate(), "loss %q", l)
	}
}

func TestValidateRejectsUnknownVariants(t *testing.T) {
	cfg := validConfig()
	cfg.Model.Type = "transformer"
	require.ErrorIs(t, cfg.Validate(), ErrUnknownVariant)

	cfg = validConfig()
	cfg.Optimizer.Type = "adagrad"
	require.ErrorIs(t, cfg.Validate(), ErrUnknownVariant)

	cfg = validConfig()
	cfg.Loss.Type = "huber"
	require.ErrorIs(t, cfg.Validate(), ErrUnknownVariant)
}

func TestValidateLossWeightsOnlyForCrossEntropy(t *testing.T) {
	cfg := validConfig()
	cfg.Loss = LossConfig{Type: LossCrossEntropy, Weights: []float64{1, 2}}
	require.NoError(t, cfg.Validate())

	cfg.Loss = LossConfig{Type: LossMSE, Weights: []float64{1, 2}}
	require.Error(t, cfg.Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := validConfig()
	cfg.Data.DataKey = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Data.Dataset.MetadataFile = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Model.LatentDim = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Optimizer.LR = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.NFolds = 1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.NFolds = 0
	assert.NoError(t, cfg.Validate(), "0 folds means a plain train/val split")
}
