// Package latent analyzes stored embedding vectors: PCA projection for
// inspection plots and interpolation walks through latent space.
package latent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"nuclei-pipeline/internal/embed"
)

// PCA holds a fitted principal component basis.
type PCA struct {
	mean       []float64
	components *mat.Dense // dim x k, columns are principal axes
	variance   []float64  // explained variance per component
}

// FitPCA fits k principal components to the embedding vectors via SVD of the
// mean-centered data matrix.
func FitPCA(embeddings []embed.Embedding, k int) (*PCA, error) {
	n := len(embeddings)
	if n < 2 {
		return nil, fmt.Errorf("pca needs at least 2 vectors, got %d", n)
	}
	dim := len(embeddings[0].Vector)
	if k < 1 || k > dim || k > n {
		return nil, fmt.Errorf("pca with %d components for %d x %d data", k, n, dim)
	}

	mean := make([]float64, dim)
	for _, e := range embeddings {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("embedding %s has dim %d, want %d", e.SampleID, len(e.Vector), dim)
		}
		for j, v := range e.Vector {
			mean[j] += float64(v)
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	data := mat.NewDense(n, dim, nil)
	for i, e := range embeddings {
		for j, v := range e.Vector {
			data.Set(i, j, float64(v)-mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(data, mat.SVDThin) {
		return nil, fmt.Errorf("pca: svd factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	sigma := svd.Values(nil)

	components := mat.NewDense(dim, k, nil)
	variance := make([]float64, k)
	for c := 0; c < k; c++ {
		for j := 0; j < dim; j++ {
			components.Set(j, c, v.At(j, c))
		}
		variance[c] = sigma[c] * sigma[c] / float64(n-1)
	}

	return &PCA{mean: mean, components: components, variance: variance}, nil
}

// NumComponents returns the number of fitted components.
func (p *PCA) NumComponents() int {
	_, k := p.components.Dims()
	return k
}

// ExplainedVariance returns the variance captured by each component.
func (p *PCA) ExplainedVariance() []float64 {
	out := make([]float64, len(p.variance))
	copy(out, p.variance)
	return out
}

// Project maps one vector onto the component basis.
func (p *PCA) Project(vec []float32) ([]float64, error) {
	if len(vec) != len(p.mean) {
		return nil, fmt.Errorf("project vector of dim %d onto %d-dim basis", len(vec), len(p.mean))
	}
	centered := mat.NewVecDense(len(vec), nil)
	for j, v := range vec {
		centered.SetVec(j, float64(v)-p.mean[j])
	}
	_, k := p.components.Dims()
	out := mat.NewVecDense(k, nil)
	out.MulVec(p.components.T(), centered)
	return out.RawVector().Data, nil
}

// ProjectAll projects every embedding, returning an n x k coordinate matrix.
func (p *PCA) ProjectAll(embeddings []embed.Embedding) ([][]float64, error) {
	coords := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		c, err := p.Project(e.Vector)
		if err != nil {
			return nil, err
		}
		coords[i] = c
	}
	return coords, nil
}

// Walk returns steps+1 evenly spaced waypoints from a to b in latent space,
// endpoints included. The waypoints can be decoded back to images to inspect
// the learned manifold.
func Walk(a, b []float32, steps int) ([][]float32, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("walk endpoints have dims %d and %d", len(a), len(b))
	}
	if steps < 1 {
		return nil, fmt.Errorf("walk needs at least 1 step, got %d", steps)
	}
	out := make([][]float32, steps+1)
	for s := 0; s <= steps; s++ {
		t := float32(s) / float32(steps)
		wp := make([]float32, len(a))
		for j := range a {
			wp[j] = a[j] + t*(b[j]-a[j])
		}
		out[s] = wp
	}
	return out, nil
}

// WalkBetween interpolates between two stored embeddings identified by
// sample id.
func WalkBetween(embeddings []embed.Embedding, fromID, toID string, steps int) ([][]float32, error) {
	var a, b []float32
	for i := range embeddings {
		if embeddings[i].SampleID == fromID {
			a = embeddings[i].Vector
		}
		if embeddings[i].SampleID == toID {
			b = embeddings[i].Vector
		}
	}
	if a == nil {
		return nil, fmt.Errorf("walk endpoint %q is not in the run", fromID)
	}
	if b == nil {
		return nil, fmt.Errorf("walk endpoint %q is not in the run", toID)
	}
	return Walk(a, b, steps)
}
