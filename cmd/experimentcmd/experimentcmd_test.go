package experimentcmd

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuclei-pipeline/internal/config"
	"nuclei-pipeline/internal/experiment"
	"nuclei-pipeline/internal/imgio"
)

// writeFixture writes one 8x8 crop per (plate, file, label) row plus the
// matching nucleus metadata CSV, returning the image dir and CSV path.
func writeFixture(t *testing.T, rows [][3]string) (string, string) {
	t.Helper()
	imageDir := t.TempDir()

	csv := ",plate,image_file,gene_symbol\n"
	for i, r := range rows {
		plate, file, label := r[0], r[1], r[2]
		img := image.NewGray16(image.Rect(0, 0, 8, 8))
		img.SetGray16(0, 0, color.Gray16{Y: uint16(500 * (i + 1))})
		require.NoError(t, imgio.Save(filepath.Join(imageDir, plate, file), img))
		csv += fmt.Sprintf("%d,%s,%s,%s\n", i, plate, file, label)
	}

	metaFile := filepath.Join(t.TempDir(), "nuclei_metadata.csv")
	require.NoError(t, os.WriteFile(metaFile, []byte(csv), 0644))
	return imageDir, metaFile
}

func writeExperimentYAML(t *testing.T, imageDir, metaFile, modelType string, nFolds int) string {
	t.Helper()
	yaml := fmt.Sprintf(`n_folds: %d
data:
  data_key: image
  label_key: label
  dataset:
    image_dir: %s
    metadata_file: %s
model:
  type: %s
  latent_dim: 8
optimizer:
  type: adam
  lr: 0.001
loss:
  type: mse
`, nFolds, imageDir, metaFile, modelType)

	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestCommandResolvesConfigAndFolds(t *testing.T) {
	imageDir, metaFile := writeFixture(t, [][3]string{
		{"P1", "n1.tif", "EMPTY"},
		{"P1", "n2.tif", "TP53"},
		{"P1", "n3.tif", "EMPTY"},
		{"P2", "n4.tif", "TP53"},
		{"P2", "n5.tif", "KRAS"},
		{"P2", "n6.tif", "KRAS"},
	})
	yamlFile := writeExperimentYAML(t, imageDir, metaFile, "ae", 2)

	cmd := Command(&config.Settings{Seed: 42})
	cmd.SetArgs([]string{"--experiment-config", yamlFile})
	require.NoError(t, cmd.Execute())
}

func TestCommandRejectsUnknownVariant(t *testing.T) {
	imageDir, metaFile := writeFixture(t, [][3]string{
		{"P1", "n1.tif", "EMPTY"},
		{"P1", "n2.tif", "TP53"},
	})
	yamlFile := writeExperimentYAML(t, imageDir, metaFile, "transformer", 0)

	cmd := Command(&config.Settings{Seed: 42})
	cmd.SetArgs([]string{"-e", yamlFile})
	err := cmd.Execute()
	require.ErrorIs(t, err, experiment.ErrUnknownVariant)
}

func TestCommandMissingConfigFile(t *testing.T) {
	cmd := Command(&config.Settings{})
	cmd.SetArgs([]string{"-e", filepath.Join(t.TempDir(), "no_such.yaml")})
	assert.Error(t, cmd.Execute())
}

func TestLoadConfigBindsNestedSections(t *testing.T) {
	imageDir, metaFile := writeFixture(t, [][3]string{{"P1", "n1.tif", "EMPTY"}})
	yamlFile := writeExperimentYAML(t, imageDir, metaFile, "vae", 3)

	cfg, err := loadConfig(yamlFile, 42)
	require.NoError(t, err)
	assert.Equal(t, "vae", cfg.Model.Type)
	assert.Equal(t, 3, cfg.NFolds)
	assert.Equal(t, imageDir, cfg.Data.Dataset.ImageDir)
	assert.Equal(t, metaFile, cfg.Data.Dataset.MetadataFile)

	// No seed in the file, so the pipeline-wide one applies.
	assert.EqualValues(t, 42, cfg.Seed)
}
