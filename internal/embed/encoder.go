// Package embed runs a trained autoencoder's encoder half over nucleus crop
// datasets, producing one latent vector per sample.
package embed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"nuclei-pipeline/internal/dataset"
)

// Metadata describes an exported encoder: tensor names and fixed shapes.
// It is written next to the .onnx file at export time.
type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
}

// Embedding is one encoded sample.
type Embedding struct {
	SampleID string
	Label    int
	Vector   []float32
}

// Encoder wraps an ONNX encoder session with pre-allocated input and output
// tensors. Encode is not safe for concurrent use; the tensors are reused
// across calls.
type Encoder struct {
	session      *ort.AdvancedSession
	meta         Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewEncoder loads the model at modelPath and its shape metadata JSON at
// metadataPath.
func NewEncoder(modelPath, metadataPath string) (*Encoder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx environment: %w", err)
	}

	raw, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("read model metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse model metadata: %w", err)
	}
	if meta.InputName == "" {
		meta.InputName = "input"
	}
	if meta.OutputName == "" {
		meta.OutputName = "latent"
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Encoder{
		session:      session,
		meta:         meta,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// LatentDim returns the length of the produced latent vectors.
func (e *Encoder) LatentDim() int {
	dim := int64(1)
	for _, d := range e.meta.OutputShape[1:] {
		dim *= d
	}
	return int(dim)
}

// Encode runs one sample tensor through the encoder and returns a copy of
// the latent vector.
func (e *Encoder) Encode(t *dataset.Tensor) ([]float32, error) {
	in := e.inputTensor.GetData()
	if len(t.Data) != len(in) {
		return nil, fmt.Errorf("sample tensor has %d values, model input wants %d", len(t.Data), len(in))
	}
	copy(in, t.Data)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("encoder inference: %w", err)
	}

	out := e.outputTensor.GetData()
	vec := make([]float32, len(out))
	copy(vec, out)
	return vec, nil
}

// EncodeDataset encodes every sample of ds in index order.
func (e *Encoder) EncodeDataset(ds dataset.Indexed) ([]Embedding, error) {
	embeddings := make([]Embedding, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		sample, err := ds.Get(i)
		if err != nil {
			return nil, fmt.Errorf("load sample %d: %w", i, err)
		}
		vec, err := e.Encode(sample.Image)
		if err != nil {
			return nil, fmt.Errorf("encode sample %d: %w", i, err)
		}
		embeddings = append(embeddings, Embedding{
			SampleID: sample.ID,
			Label:    sample.Label,
			Vector:   vec,
		})
		if (i+1)%1000 == 0 {
			slog.Info("encoding progress", "done", i+1, "total", ds.Len())
		}
	}
	return embeddings, nil
}

// Close releases the session and its tensors.
func (e *Encoder) Close() {
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
	if e.session != nil {
		e.session.Destroy()
	}
	ort.DestroyEnvironment()
}
