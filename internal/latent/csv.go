package latent

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteWalkCSV exports interpolation waypoints as step, v0..v{n-1}, creating
// parent directories as needed. The rows feed an external decoder that
// renders the waypoints back to images.
func WriteWalkCSV(path string, waypoints [][]float32) error {
	if len(waypoints) == 0 {
		return fmt.Errorf("no waypoints to write to %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create walk csv %s: %w", path, err)
	}
	defer file.Close()

	dim := len(waypoints[0])
	header := []string{"step"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("v%d", i))
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write walk csv %s: %w", path, err)
	}
	for s, wp := range waypoints {
		rec := make([]string, 0, 1+dim)
		rec = append(rec, strconv.Itoa(s))
		for _, v := range wp {
			rec = append(rec, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write walk csv %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush walk csv %s: %w", path, err)
	}
	return nil
}
