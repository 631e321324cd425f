package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadataCSV(t *testing.T, rows []string) string {
	t.Helper()
	header := "Image_FileName_OrigHoechst,Image_FileName_IllumHoechst," +
		"Image_Metadata_Plate,Image_Metadata_Well," +
		"Image_Metadata_QCFlag_isBlurry,Image_Metadata_QCFlag_isSaturated\n"
	content := header
	for _, r := range rows {
		content += r + "\n"
	}
	path := filepath.Join(t.TempDir(), "load_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestCurator(t *testing.T, imageDir string, rows []string) *Curator {
	t.Helper()
	c, err := NewCurator(imageDir, writeMetadataCSV(t, rows), t.TempDir(), DefaultColumns())
	require.NoError(t, err)
	return c
}

func TestDeriveIlluminationFilenames(t *testing.T) {
	c := newTestCurator(t, "", []string{
		"img_s1.tif,,P1,A01,0,0",
		"img_s2.ome.tif,,P1,A02,0,0",
	})

	require.NoError(t, c.DeriveIlluminationFilenames("_illum_corrected"))

	illum, err := c.Meta.Column("Image_FileName_IllumHoechst")
	require.NoError(t, err)
	// The suffix goes before the first dot, so multi-part extensions stay
	// behind it.
	assert.Equal(t, []string{
		"img_s1_illum_corrected.tif",
		"img_s2_illum_corrected.ome.tif",
	}, illum)
}

func TestDeriveIlluminationFilenamesNoExtension(t *testing.T) {
	c := newTestCurator(t, "", []string{"noext,,P1,A01,0,0"})
	err := c.DeriveIlluminationFilenames("_illum")
	require.ErrorIs(t, err, ErrNoExtension)
}

func TestFilterQualityFlags(t *testing.T) {
	c := newTestCurator(t, "", []string{
		"a.tif,,P1,A01,0,0",
		"b.tif,,P1,A02,1,0",
		"c.tif,,P1,A03,0,1.0",
		"d.tif,,P1,A04,0.0,0.0",
		"e.tif,,P1,A05,NaN,0",
	})

	require.NoError(t, c.FilterQualityFlags())

	// Only exactly-zero flags survive; 0.0 parses to zero, NaN does not.
	wells, err := c.Meta.Column("Image_Metadata_Well")
	require.NoError(t, err)
	assert.Equal(t, []string{"A01", "A04"}, wells)
}

func TestRemoveOutliers(t *testing.T) {
	c := newTestCurator(t, "", []string{
		"a.tif,,P1,A01,0,0",
		"b.tif,,P2,A01,0,0",
		"c.tif,,P2,B05,0,0",
		"d.tif,,P3,A01,0,0",
		"e.tif,,P3,C09,0,0",
	})

	err := c.RemoveOutliers(
		[]string{"P1"},
		[][2]string{{"P2", "B05"}},
		[]string{"C09"},
	)
	require.NoError(t, err)

	plates, err := c.Meta.Column("Image_Metadata_Plate")
	require.NoError(t, err)
	wells, err := c.Meta.Column("Image_Metadata_Well")
	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P3"}, plates)
	assert.Equal(t, []string{"A01", "A01"}, wells)
}

func TestRemoveOutliersNilSkipsFilters(t *testing.T) {
	c := newTestCurator(t, "", []string{
		"a.tif,,P1,A01,0,0",
		"b.tif,,P2,B01,0,0",
	})
	require.NoError(t, c.RemoveOutliers(nil, nil, nil))
	assert.Equal(t, 2, c.Meta.Len())
}

func TestCopyFilteredImagesSkipsMissing(t *testing.T) {
	imageDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(imageDir, "P1"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(imageDir, "P1", "a_illum.tif"), []byte("pixels"), 0644))

	c := newTestCurator(t, imageDir, []string{
		"a.tif,a_illum.tif,P1,A01,0,0",
		"b.tif,b_illum.tif,P1,A02,0,0",
	})

	copied, err := c.CopyFilteredImages()
	require.NoError(t, err)
	// The missing file is skipped, not fatal.
	assert.Equal(t, 1, copied)

	data, err := os.ReadFile(filepath.Join(c.outputDir, "filtered", "P1", "a_illum.tif"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}
