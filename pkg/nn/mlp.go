package nn

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Activation is applied element-wise after each layer.
type Activation interface {
	Sigma(x float64) float64
}

type identity struct{}

func (identity) Sigma(x float64) float64 { return x }

type sigmoid struct{}

func (sigmoid) Sigma(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

type relu struct{}

func (relu) Sigma(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

type tanh struct{}

func (tanh) Sigma(x float64) float64 { return math.Tanh(x) }

func activationByName(name string) (Activation, error) {
	switch name {
	case "", "identity", "linear":
		return identity{}, nil
	case "sigmoid":
		return sigmoid{}, nil
	case "relu":
		return relu{}, nil
	case "tanh":
		return tanh{}, nil
	}
	return nil, fmt.Errorf("unknown activation %q", name)
}

// LayerSpec is the YAML description of one dense layer. Weights has one row per
// output neuron.
type LayerSpec struct {
	Weights    [][]float64 `yaml:"weights"`
	Bias       []float64   `yaml:"bias"`
	Activation string      `yaml:"activation"`
}

// ModelSpec is the YAML description of a feed-forward network. InputOffset and
// InputScale, when present, normalize inputs as (x - offset) * scale.
type ModelSpec struct {
	Inputs      int         `yaml:"inputs"`
	InputOffset []float64   `yaml:"inputOffset,omitempty"`
	InputScale  []float64   `yaml:"inputScale,omitempty"`
	Layers      []LayerSpec `yaml:"layers"`
}

type layer struct {
	weights *mat.Dense
	bias    *mat.VecDense
	act     Activation
}

// Model is an immutable, validated network. Evaluation goes through handles from
// NewEvaluator, which own scratch buffers.
type Model struct {
	inputs int
	offset []float64
	scale  []float64
	layers []layer
}

// NewModel validates spec and builds the layer matrices.
func NewModel(spec ModelSpec) (*Model, error) {
	if spec.Inputs <= 0 {
		return nil, fmt.Errorf("model needs a positive input count, got %d", spec.Inputs)
	}
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("model has no layers")
	}
	if spec.InputOffset != nil && len(spec.InputOffset) != spec.Inputs {
		return nil, fmt.Errorf("inputOffset has %d values for %d inputs", len(spec.InputOffset), spec.Inputs)
	}
	if spec.InputScale != nil && len(spec.InputScale) != spec.Inputs {
		return nil, fmt.Errorf("inputScale has %d values for %d inputs", len(spec.InputScale), spec.Inputs)
	}

	m := &Model{inputs: spec.Inputs, offset: spec.InputOffset, scale: spec.InputScale}
	in := spec.Inputs
	for i, ls := range spec.Layers {
		rows := len(ls.Weights)
		if rows == 0 {
			return nil, fmt.Errorf("layer %d has no neurons", i)
		}
		flat := make([]float64, 0, rows*in)
		for r, row := range ls.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d neuron %d has %d weights, want %d", i, r, len(row), in)
			}
			flat = append(flat, row...)
		}
		if len(ls.Bias) != rows {
			return nil, fmt.Errorf("layer %d has %d biases for %d neurons", i, len(ls.Bias), rows)
		}
		act, err := activationByName(ls.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		m.layers = append(m.layers, layer{
			weights: mat.NewDense(rows, in, flat),
			bias:    mat.NewVecDense(rows, append([]float64(nil), ls.Bias...)),
			act:     act,
		})
		in = rows
	}
	return m, nil
}

// LoadModel reads a YAML model description.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file: %w", err)
	}
	var spec ModelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("error parsing model file: %w", err)
	}
	return NewModel(spec)
}

// Inputs returns the expected feature vector length.
func (m *Model) Inputs() int { return m.inputs }

// Outputs returns the score vector length.
func (m *Model) Outputs() int {
	r, _ := m.layers[len(m.layers)-1].weights.Dims()
	return r
}

// NewEvaluator returns a handle with its own scratch buffers. Handles must not be
// shared between goroutines.
func (m *Model) NewEvaluator() Evaluator {
	e := &mlp{model: m, input: mat.NewVecDense(m.inputs, nil)}
	for _, l := range m.layers {
		r, _ := l.weights.Dims()
		e.scratch = append(e.scratch, mat.NewVecDense(r, nil))
	}
	return e
}

// Factory returns a Factory producing fresh handles of m.
func (m *Model) Factory() Factory {
	return func() (Evaluator, error) { return m.NewEvaluator(), nil }
}

type mlp struct {
	model   *Model
	input   *mat.VecDense
	scratch []*mat.VecDense
}

// Evaluate implements Evaluator.
func (e *mlp) Evaluate(features []float64) ([]float64, error) {
	m := e.model
	if len(features) != m.inputs {
		return nil, fmt.Errorf("got %d features, model expects %d", len(features), m.inputs)
	}
	in := e.input.RawVector().Data
	for i, v := range features {
		if m.offset != nil {
			v -= m.offset[i]
		}
		if m.scale != nil {
			v *= m.scale[i]
		}
		in[i] = v
	}

	x := e.input
	for i, l := range m.layers {
		y := e.scratch[i]
		y.MulVec(l.weights, x)
		y.AddVec(y, l.bias)
		data := y.RawVector().Data
		for j := range data {
			data[j] = l.act.Sigma(data[j])
		}
		x = y
	}
	return append([]float64(nil), x.RawVector().Data...), nil
}
