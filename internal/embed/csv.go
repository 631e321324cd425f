package embed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV exports embeddings as sample_id, label, v0..v{n-1}, creating
// parent directories as needed. The SQLite store is the canonical sink; this
// is a convenience export for external tools.
func WriteCSV(path string, embeddings []Embedding) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create latents csv %s: %w", path, err)
	}
	defer file.Close()

	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0].Vector)
	}
	header := []string{"sample_id", "label"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("v%d", i))
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write latents csv %s: %w", path, err)
	}
	for _, e := range embeddings {
		rec := make([]string, 0, 2+dim)
		rec = append(rec, e.SampleID, strconv.Itoa(e.Label))
		for _, v := range e.Vector {
			rec = append(rec, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write latents csv %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush latents csv %s: %w", path, err)
	}
	return nil
}
