package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// ErrUndersample is returned when a requested per-class sample count exceeds
// the number of available rows for that class.
var ErrUndersample = errors.New("undersampling target exceeds available samples")

// Undersample selects row indices so that every class listed in targets is
// reduced to exactly its target count; classes absent from targets keep all
// their rows. Selection within a class is a seeded shuffle, so results are
// reproducible for a given seed. The returned indices are sorted ascending
// to preserve the original row order.
func Undersample(labels []string, targets map[string]int, seed int64) ([]int, error) {
	byClass := make(map[string][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	for class := range targets {
		if _, ok := byClass[class]; !ok {
			return nil, fmt.Errorf("undersample: class %q not present in labels", class)
		}
	}

	// Deterministic class iteration order keeps the rng stream stable.
	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	rng := rand.New(rand.NewSource(seed))
	var kept []int
	for _, class := range classes {
		idc := byClass[class]
		target, ok := targets[class]
		if !ok || target >= len(idc) {
			if ok && target > len(idc) {
				return nil, fmt.Errorf("undersample class %q to %d of %d rows: %w",
					class, target, len(idc), ErrUndersample)
			}
			kept = append(kept, idc...)
			continue
		}
		shuffled := make([]int, len(idc))
		copy(shuffled, idc)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		kept = append(kept, shuffled[:target]...)
	}

	sort.Ints(kept)
	return kept, nil
}
