package latent

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuclei-pipeline/internal/embed"
)

// lineEmbeddings places points along the direction (1, 1, 0) with small
// orthogonal jitter, so the first principal component is known.
func lineEmbeddings(n int) []embed.Embedding {
	out := make([]embed.Embedding, n)
	for i := 0; i < n; i++ {
		s := float32(i)
		jitter := float32(0.01) * float32(i%3)
		out[i] = embed.Embedding{
			SampleID: fmt.Sprintf("s%d", i),
			Label:    i % 2,
			Vector:   []float32{s, s, jitter},
		}
	}
	return out
}

func TestFitPCAFirstComponent(t *testing.T) {
	pca, err := FitPCA(lineEmbeddings(20), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pca.NumComponents())

	variance := pca.ExplainedVariance()
	require.Len(t, variance, 2)
	// Almost all variance lies along the line.
	assert.Greater(t, variance[0]/(variance[0]+variance[1]), 0.99)
}

func TestProjectSeparatesAlongLine(t *testing.T) {
	embeddings := lineEmbeddings(20)
	pca, err := FitPCA(embeddings, 1)
	require.NoError(t, err)

	coords, err := pca.ProjectAll(embeddings)
	require.NoError(t, err)
	require.Len(t, coords, 20)

	// Successive points keep a constant spacing of sqrt(2) along PC1 (up to
	// jitter and an arbitrary global sign).
	for i := 1; i < len(coords); i++ {
		gap := math.Abs(coords[i][0] - coords[i-1][0])
		assert.InDelta(t, math.Sqrt2, gap, 0.05)
	}
}

func TestProjectDimMismatch(t *testing.T) {
	pca, err := FitPCA(lineEmbeddings(5), 1)
	require.NoError(t, err)
	_, err = pca.Project([]float32{1, 2})
	assert.Error(t, err)
}

func TestFitPCAErrors(t *testing.T) {
	_, err := FitPCA(lineEmbeddings(1), 1)
	assert.Error(t, err)
	_, err = FitPCA(lineEmbeddings(5), 4)
	assert.Error(t, err)
	_, err = FitPCA(lineEmbeddings(5), 0)
	assert.Error(t, err)
}

func TestWalkEndpointsAndSpacing(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{4, 8}

	points, err := Walk(a, b, 4)
	require.NoError(t, err)
	require.Len(t, points, 5)

	assert.Equal(t, a, points[0])
	assert.Equal(t, b, points[4])
	assert.InDelta(t, 2, points[2][0], 1e-6)
	assert.InDelta(t, 4, points[2][1], 1e-6)
}

func TestWalkErrors(t *testing.T) {
	_, err := Walk([]float32{1}, []float32{1, 2}, 3)
	assert.Error(t, err)
	_, err = Walk([]float32{1}, []float32{2}, 0)
	assert.Error(t, err)
}

func TestWalkBetweenFindsEndpointsByID(t *testing.T) {
	embeddings := lineEmbeddings(5)

	points, err := WalkBetween(embeddings, "s0", "s4", 2)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, embeddings[0].Vector, points[0])
	assert.Equal(t, embeddings[4].Vector, points[2])
}

func TestWalkBetweenUnknownID(t *testing.T) {
	embeddings := lineEmbeddings(5)

	_, err := WalkBetween(embeddings, "nope", "s4", 2)
	assert.ErrorContains(t, err, "nope")
	_, err = WalkBetween(embeddings, "s0", "nope", 2)
	assert.ErrorContains(t, err, "nope")
}
