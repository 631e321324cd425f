package dataset

import (
	"fmt"
	"sort"

	"nuclei-pipeline/internal/metadata"
)

// LabelEncoder is a bijection between class symbols and dense integers,
// fit from an observed label set. Classes are coded in sorted order, so the
// mapping is deterministic for a given set but changes whenever the class
// list changes. Encoders must be refit after any target filtering or
// undersampling.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder builds an encoder from the observed labels.
func FitLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns the class symbols in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Encode returns the integer code of a class symbol.
func (e *LabelEncoder) Encode(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("label %q not in fitted class set", label)
	}
	return code, nil
}

// Transform encodes a label slice.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	codes := make([]int, len(labels))
	for i, l := range labels {
		code, err := e.Encode(l)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// InverseTransform decodes integer codes back to class symbols.
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	labels := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.classes) {
			return nil, fmt.Errorf("label code %d out of range (%d classes)", c, len(e.classes))
		}
		labels[i] = e.classes[c]
	}
	return labels, nil
}

// AddEncodedLabelColumn re-reads a nucleus metadata CSV, appends an
// integer-encoded copy of labelCol under outCol, and writes the file back in
// place. The row index is preserved across the round trip.
func AddEncodedLabelColumn(metadataFile, labelCol, outCol string) error {
	table, err := metadata.LoadTable(metadataFile)
	if err != nil {
		return err
	}
	labels, err := table.Column(labelCol)
	if err != nil {
		return err
	}

	codes, err := FitLabelEncoder(labels).Transform(labels)
	if err != nil {
		return err
	}
	encoded := make([]string, len(codes))
	for i, c := range codes {
		encoded[i] = fmt.Sprintf("%d", c)
	}
	if err := table.SetColumn(outCol, encoded); err != nil {
		return err
	}
	return table.Save(metadataFile)
}
