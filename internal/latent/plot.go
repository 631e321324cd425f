package latent

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"nuclei-pipeline/internal/embed"
)

// Label colors cycle through this palette.
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

// ScatterPlot writes a PNG scatter of the first two PCA coordinates, one
// series per label. classNames maps encoded labels back to class names for
// the legend; unknown labels fall back to the numeric code.
func ScatterPlot(embeddings []embed.Embedding, coords [][]float64, classNames []string, outFile string) error {
	if len(coords) != len(embeddings) {
		return fmt.Errorf("%d coordinate rows for %d embeddings", len(coords), len(embeddings))
	}

	byLabel := make(map[int]plotter.XYs)
	for i, e := range embeddings {
		if len(coords[i]) < 2 {
			return fmt.Errorf("coordinate row %d has %d components, want at least 2", i, len(coords[i]))
		}
		byLabel[e.Label] = append(byLabel[e.Label], plotter.XY{X: coords[i][0], Y: coords[i][1]})
	}

	labels := make([]int, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	p := plot.New()
	p.Title.Text = "Latent space, first two principal components"
	p.X.Label.Text = "PC1"
	p.Y.Label.Text = "PC2"

	for _, l := range labels {
		s, err := plotter.NewScatter(byLabel[l])
		if err != nil {
			return fmt.Errorf("build scatter series: %w", err)
		}
		s.GlyphStyle.Color = palette[l%len(palette)]
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)

		name := fmt.Sprintf("label %d", l)
		if l >= 0 && l < len(classNames) {
			name = classNames[l]
		}
		p.Legend.Add(name, s)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return fmt.Errorf("save scatter plot: %w", err)
	}
	return nil
}
