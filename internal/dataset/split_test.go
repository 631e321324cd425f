package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classCounts(labels []int, indices []int) map[int]int {
	counts := make(map[int]int)
	for _, i := range indices {
		counts[labels[i]]++
	}
	return counts
}

func TestStratifiedKFoldPartitions(t *testing.T) {
	// 40 samples of class 0, 20 of class 1.
	labels := make([]int, 60)
	for i := 40; i < 60; i++ {
		labels[i] = 1
	}

	folds, err := StratifiedKFold(labels, 4, 7)
	require.NoError(t, err)
	require.Len(t, folds, 4)

	seen := make(map[int]bool)
	for _, fold := range folds {
		counts := classCounts(labels, fold)
		assert.Equal(t, 10, counts[0])
		assert.Equal(t, 5, counts[1])
		for _, i := range fold {
			assert.False(t, seen[i], "index %d assigned to two folds", i)
			seen[i] = true
		}
	}
	assert.Len(t, seen, 60)
}

func TestStratifiedKFoldTrainComplement(t *testing.T) {
	labels := []int{0, 0, 0, 1, 1, 1}
	folds, err := StratifiedKFold(labels, 3, 1)
	require.NoError(t, err)

	train := TrainIndices(len(labels), folds[0])
	assert.Len(t, train, len(labels)-len(folds[0]))
	for _, i := range train {
		assert.NotContains(t, folds[0], i)
	}
}

func TestStratifiedKFoldErrors(t *testing.T) {
	_, err := StratifiedKFold([]int{0, 1}, 1, 0)
	assert.Error(t, err)
	_, err = StratifiedKFold([]int{0, 1}, 3, 0)
	assert.Error(t, err)
}

func TestStratifiedSplitFractions(t *testing.T) {
	labels := make([]int, 100)
	for i := 50; i < 100; i++ {
		labels[i] = 1
	}

	groups, err := StratifiedSplit(labels, []float64{0.8, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Len(t, groups[0], 80)
	assert.Len(t, groups[1], 20)
	counts := classCounts(labels, groups[0])
	assert.Equal(t, 40, counts[0])
	assert.Equal(t, 40, counts[1])
}

func TestStratifiedSplitBadFractions(t *testing.T) {
	_, err := StratifiedSplit([]int{0, 1}, []float64{0.5, 0.3}, 0)
	assert.Error(t, err)
	_, err = StratifiedSplit([]int{0, 1}, []float64{1.0}, 0)
	assert.Error(t, err)
}

func TestLabelWeightsInverseFrequency(t *testing.T) {
	// Class 0 appears 3x as often as class 1.
	labels := []int{0, 0, 0, 0, 0, 0, 1, 1}
	weights := LabelWeights(labels)
	require.Len(t, weights, 2)

	// Rarer classes weigh more, and the weights sum to the class count.
	assert.Greater(t, weights[1], weights[0])
	assert.InDelta(t, 2.0, weights[0]+weights[1], 1e-9)
	assert.InDelta(t, 3.0, weights[1]/weights[0], 1e-9)
}
