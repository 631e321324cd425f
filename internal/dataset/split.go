package dataset

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// StratifiedKFold partitions sample indices into nFolds folds with
// near-equal class proportions. Within each class the assignment order is a
// seeded shuffle, so folds are reproducible for a given seed. The returned
// folds are the held-out index sets; TrainIndices derives the complement.
func StratifiedKFold(labels []int, nFolds int, seed int64) ([][]int, error) {
	if nFolds < 2 {
		return nil, fmt.Errorf("stratified k-fold needs at least 2 folds, got %d", nFolds)
	}
	if nFolds > len(labels) {
		return nil, fmt.Errorf("stratified k-fold: %d folds for %d samples", nFolds, len(labels))
	}

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, nFolds)
	for _, idc := range shuffledByClass(labels, rng) {
		for i, idx := range idc {
			f := i % nFolds
			folds[f] = append(folds[f], idx)
		}
	}
	return folds, nil
}

// TrainIndices returns all sample indices not present in the held-out fold.
func TrainIndices(n int, holdout []int) []int {
	held := make(map[int]bool, len(holdout))
	for _, i := range holdout {
		held[i] = true
	}
	var train []int
	for i := 0; i < n; i++ {
		if !held[i] {
			train = append(train, i)
		}
	}
	return train
}

// StratifiedSplit partitions sample indices into len(fractions) groups with
// near-equal class proportions; fractions must sum to 1. The final group
// absorbs rounding remainders.
func StratifiedSplit(labels []int, fractions []float64, seed int64) ([][]int, error) {
	if len(fractions) < 2 {
		return nil, fmt.Errorf("stratified split needs at least 2 fractions, got %d", len(fractions))
	}
	if sum := floats.Sum(fractions); sum < 0.999 || sum > 1.001 {
		return nil, fmt.Errorf("stratified split fractions sum to %.4f, want 1", sum)
	}

	rng := rand.New(rand.NewSource(seed))
	groups := make([][]int, len(fractions))
	for _, idc := range shuffledByClass(labels, rng) {
		start := 0
		for g := range fractions {
			count := int(fractions[g] * float64(len(idc)))
			if g == len(fractions)-1 {
				count = len(idc) - start
			}
			groups[g] = append(groups[g], idc[start:start+count]...)
			start += count
		}
	}
	return groups, nil
}

// LabelWeights returns one weight per sample class, inversely proportional
// to class frequency and normalized to sum to the class count.
func LabelWeights(labels []int) []float64 {
	nClasses := 0
	for _, l := range labels {
		if l+1 > nClasses {
			nClasses = l + 1
		}
	}
	counts := make([]float64, nClasses)
	for _, l := range labels {
		counts[l]++
	}

	weights := make([]float64, nClasses)
	for c, n := range counts {
		if n > 0 {
			weights[c] = float64(len(labels)) / n
		}
	}
	// Normalize so the weights sum to the number of classes.
	if s := floats.Sum(weights); s > 0 {
		floats.Scale(float64(nClasses)/s, weights)
	}
	return weights
}

// shuffledByClass groups sample indices by label and shuffles each group,
// iterating classes in ascending label order for a stable rng stream.
func shuffledByClass(labels []int, rng *rand.Rand) [][]int {
	maxLabel := -1
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	byClass := make([][]int, maxLabel+1)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	for _, idc := range byClass {
		rng.Shuffle(len(idc), func(i, j int) {
			idc[i], idc[j] = idc[j], idc[i]
		})
	}
	return byClass
}
