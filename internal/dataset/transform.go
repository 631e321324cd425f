package dataset

import (
	"fmt"
	"image"
	"math/rand"
	"sync"

	"github.com/nfnt/resize"
)

// Tensor is a CHW float32 image tensor with values in unit range (before any
// normalization op).
type Tensor struct {
	C, H, W int
	Data    []float32
}

// NewTensor allocates a zero tensor.
func NewTensor(c, h, w int) *Tensor {
	return &Tensor{C: c, H: h, W: w, Data: make([]float32, c*h*w)}
}

// At returns the value at (channel, y, x).
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[c*t.H*t.W+y*t.W+x]
}

// Set writes the value at (channel, y, x).
func (t *Tensor) Set(c, y, x int, v float32) {
	t.Data[c*t.H*t.W+y*t.W+x] = v
}

// ImageOp transforms a decoded image before tensor conversion.
type ImageOp interface {
	Apply(image.Image) image.Image
}

// TensorOp transforms the converted tensor.
type TensorOp interface {
	Apply(*Tensor) *Tensor
}

// Pipeline is a transform chain: image ops, then tensor conversion, then
// tensor ops. The zero pipeline is plain tensor conversion, the equivalent
// of the default ToTensor-only chain.
type Pipeline struct {
	ImageOps  []ImageOp
	TensorOps []TensorOp
}

// NewPipeline builds a pipeline from image ops only.
func NewPipeline(ops ...ImageOp) *Pipeline {
	return &Pipeline{ImageOps: ops}
}

// Run applies the pipeline to a decoded image.
func (p *Pipeline) Run(img image.Image) *Tensor {
	for _, op := range p.ImageOps {
		img = op.Apply(img)
	}
	t := ToTensor(img)
	for _, op := range p.TensorOps {
		t = op.Apply(t)
	}
	return t
}

// ToTensor converts an image to a CHW float32 tensor in [0,1]. Grayscale
// sources produce a single channel; everything else produces three.
func ToTensor(img image.Image) *Tensor {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray16:
		t := NewTensor(1, h, w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
				t.Set(0, y, x, float32(v)/65535)
			}
		}
		return t
	case *image.Gray:
		t := NewTensor(1, h, w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
				t.Set(0, y, x, float32(v)/255)
			}
		}
		return t
	default:
		t := NewTensor(3, h, w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				t.Set(0, y, x, float32(r)/65535)
				t.Set(1, y, x, float32(g)/65535)
				t.Set(2, y, x, float32(b)/65535)
			}
		}
		return t
	}
}

// ResizeOp scales the image to exactly W x H using bilinear interpolation.
// This is the pure-Go path used inside data-loading workers; batch resizing
// of files on disk goes through internal/normalize instead.
type ResizeOp struct {
	W, H int
}

func (o ResizeOp) Apply(img image.Image) image.Image {
	return resize.Resize(uint(o.W), uint(o.H), img, resize.Bilinear)
}

// CenterCrop extracts the centered W x H window. A source smaller than the
// target in either dimension is returned unchanged in that dimension.
type CenterCrop struct {
	W, H int
}

func (o CenterCrop) Apply(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := o.W, o.H
	if w > bounds.Dx() {
		w = bounds.Dx()
	}
	if h > bounds.Dy() {
		h = bounds.Dy()
	}
	x0 := bounds.Min.X + (bounds.Dx()-w)/2
	y0 := bounds.Min.Y + (bounds.Dy()-h)/2

	if src, ok := img.(*image.Gray16); ok {
		gray := image.NewGray16(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				gray.SetGray16(x, y, src.Gray16At(x0+x, y0+y))
			}
		}
		return gray
	}
	out := image.NewRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, img.At(x0+x, y0+y))
		}
	}
	return out
}

// Normalize standardizes each channel: (v - Mean[c]) / Std[c]. Channels
// beyond the slice lengths reuse the first entry, so a single entry is
// broadcast. An op with no Mean or no Std entries is a no-op.
type Normalize struct {
	Mean, Std []float32
}

func (o Normalize) Apply(t *Tensor) *Tensor {
	if len(o.Mean) == 0 || len(o.Std) == 0 {
		return t
	}
	out := NewTensor(t.C, t.H, t.W)
	for c := 0; c < t.C; c++ {
		mean, std := o.Mean[0], o.Std[0]
		if c < len(o.Mean) {
			mean = o.Mean[c]
		}
		if c < len(o.Std) {
			std = o.Std[c]
		}
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				out.Set(c, y, x, (t.At(c, y, x)-mean)/std)
			}
		}
	}
	return out
}

// RandomFlip mirrors the tensor horizontally and/or vertically, each with
// probability 1/2. The rng is guarded by a mutex so sample access stays safe
// under concurrent data-loading workers.
type RandomFlip struct {
	Horizontal, Vertical bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFlip creates a seeded flip op.
func NewRandomFlip(horizontal, vertical bool, seed int64) *RandomFlip {
	return &RandomFlip{
		Horizontal: horizontal,
		Vertical:   vertical,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (o *RandomFlip) Apply(t *Tensor) *Tensor {
	o.mu.Lock()
	flipH := o.Horizontal && o.rng.Intn(2) == 1
	flipV := o.Vertical && o.rng.Intn(2) == 1
	o.mu.Unlock()
	if !flipH && !flipV {
		return t
	}

	out := NewTensor(t.C, t.H, t.W)
	for c := 0; c < t.C; c++ {
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				sy, sx := y, x
				if flipV {
					sy = t.H - 1 - y
				}
				if flipH {
					sx = t.W - 1 - x
				}
				out.Set(c, y, x, t.At(c, sy, sx))
			}
		}
	}
	return out
}

// ImageNet channel statistics, used by the imagenet presets.
var (
	imagenetMean = []float32{0.485, 0.456, 0.406}
	imagenetStd  = []float32{0.229, 0.224, 0.225}
)

// PipelinePreset resolves a named transform pipeline. Known presets:
//
//	""                   default, tensor conversion only
//	"imagenet_random"    resize + random flips + imagenet normalization
//	"imagenet_nonrandom" resize + imagenet normalization
//	"randomflips"        random flips only
func PipelinePreset(name string, size int, seed int64) (*Pipeline, error) {
	switch name {
	case "":
		return &Pipeline{}, nil
	case "imagenet_random":
		return &Pipeline{
			ImageOps:  []ImageOp{ResizeOp{W: size, H: size}},
			TensorOps: []TensorOp{NewRandomFlip(true, true, seed), Normalize{Mean: imagenetMean, Std: imagenetStd}},
		}, nil
	case "imagenet_nonrandom":
		return &Pipeline{
			ImageOps:  []ImageOp{ResizeOp{W: size, H: size}},
			TensorOps: []TensorOp{Normalize{Mean: imagenetMean, Std: imagenetStd}},
		}, nil
	case "randomflips":
		return &Pipeline{
			TensorOps: []TensorOp{NewRandomFlip(true, true, seed)},
		}, nil
	default:
		return nil, fmt.Errorf("unknown transform pipeline %q", name)
	}
}
