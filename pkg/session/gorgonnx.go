package session

import (
	"context"
	"fmt"
	"os"
	"time"

	onnxgo "github.com/owulveryck/onnx-go"
	"github.com/owulveryck/onnx-go/backend/x/gorgonnx"
	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"gorgonia.org/tensor"
	"k8s.io/klog/v2"
)

func init() {
	Register(gorgonnxRuntime{})
}

// gorgonnxRuntime compiles models into a gorgonia expression graph.
type gorgonnxRuntime struct{}

func (gorgonnxRuntime) Name() string { return "gorgonnx" }

func (gorgonnxRuntime) Open(ctx context.Context, path string) (sess Session, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model")
	}
	var m onnx.ModelProto
	if err := onnx.Unmarshal(b, &m); err != nil {
		return nil, err
	}

	// The onnx-go decoder panics on some operators it cannot translate.
	defer func() {
		if r := recover(); r != nil {
			sess, err = nil, errors.Errorf("panic while compiling the graph: %v", r)
		}
	}()
	backend := gorgonnx.NewGraph()
	model := onnxgo.NewModel(backend)
	if err := model.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "failed to compile the graph")
	}
	inputs, outputs := graphInputs(m.GetGraph())
	return &gorgonnxSession{backend: backend, model: model, inputs: inputs, outputs: outputs}, nil
}

type gorgonnxSession struct {
	backend *gorgonnx.Graph
	model   *onnxgo.Model
	inputs  []string
	outputs []string
}

func (s *gorgonnxSession) InputNames() []string  { return s.inputs }
func (s *gorgonnxSession) OutputNames() []string { return s.outputs }

func (s *gorgonnxSession) Warmup(ctx context.Context, specs []TensorSpec) (err error) {
	byName, err := specsByName(specs, s.inputs)
	if err != nil {
		return err
	}
	if len(s.model.Input) != len(s.inputs) {
		return errors.Errorf("graph has %d inputs but the runtime expects %d", len(s.inputs), len(s.model.Input))
	}
	for i, name := range s.inputs {
		t, err := zeroDense(byName[name])
		if err != nil {
			return err
		}
		if err := s.model.SetInput(i, t); err != nil {
			return errors.Wrapf(err, "failed to set input %q", name)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic while running the graph: %v", r)
		}
	}()
	if err := s.backend.Run(); err != nil {
		return errors.Wrap(err, "failed to run the graph")
	}
	outputs, err := s.model.GetOutputTensors()
	if err != nil {
		return errors.Wrap(err, "failed to read outputs")
	}
	for i, out := range outputs {
		klog.V(2).Infof("Warm-up output %d: shape %v", i, out.Shape())
	}
	return nil
}

func (s *gorgonnxSession) Run(ctx context.Context, inputs map[string]Tensor) (out map[string]Tensor, err error) {
	if err := checkInputs(inputs, s.inputs); err != nil {
		return nil, err
	}
	if len(s.model.Input) != len(s.inputs) {
		return nil, errors.Errorf("graph has %d inputs but the runtime expects %d", len(s.inputs), len(s.model.Input))
	}
	for i, name := range s.inputs {
		in := inputs[name]
		var t *tensor.Dense
		if len(in.Shape) == 0 {
			t = tensor.New(tensor.FromScalar(in.Data[0]))
		} else {
			t = tensor.New(tensor.WithShape(intShape(in.Shape)...), tensor.WithBacking(append([]float32(nil), in.Data...)))
		}
		if err := s.model.SetInput(i, t); err != nil {
			return nil, errors.Wrapf(err, "failed to set input %q", name)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.Errorf("panic while running the graph: %v", r)
		}
	}()
	start := time.Now()
	if err := s.backend.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run the graph")
	}
	klog.V(2).Infof("gorgonnx run took %v", time.Since(start))
	outputs, err := s.model.GetOutputTensors()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read outputs")
	}
	out = make(map[string]Tensor, len(outputs))
	for i, t := range outputs {
		if i >= len(s.outputs) {
			break
		}
		var data []float32
		switch v := t.Data().(type) {
		case []float32:
			data = append(data, v...)
		case float32:
			data = []float32{v}
		default:
			return nil, errors.Errorf("output %q is %v, not FLOAT", s.outputs[i], t.Dtype())
		}
		out[s.outputs[i]] = Tensor{Shape: int64Shape(t.Shape()), Data: data}
	}
	return out, nil
}

func (s *gorgonnxSession) Close() error { return nil }

func zeroDense(spec TensorSpec) (*tensor.Dense, error) {
	var dt tensor.Dtype
	switch spec.Type {
	case onnx.TensorProto_FLOAT:
		dt = tensor.Float32
	case onnx.TensorProto_DOUBLE:
		dt = tensor.Float64
	case onnx.TensorProto_INT32:
		dt = tensor.Int32
	case onnx.TensorProto_INT64:
		dt = tensor.Int64
	case onnx.TensorProto_INT8:
		dt = tensor.Int8
	case onnx.TensorProto_UINT8:
		dt = tensor.Uint8
	case onnx.TensorProto_BOOL:
		dt = tensor.Bool
	default:
		return nil, errors.Errorf("input %q: %s tensors are not supported by gorgonnx", spec.Name, spec.Type)
	}
	shape := make([]int, len(spec.Shape))
	for i, d := range spec.Shape {
		shape[i] = int(d)
	}
	if len(shape) == 0 {
		return tensor.New(tensor.Of(dt), tensor.FromScalar(zeroScalar(dt))), nil
	}
	return tensor.New(tensor.Of(dt), tensor.WithShape(shape...)), nil
}

func zeroScalar(dt tensor.Dtype) any {
	switch dt {
	case tensor.Float32:
		return float32(0)
	case tensor.Float64:
		return float64(0)
	case tensor.Int32:
		return int32(0)
	case tensor.Int64:
		return int64(0)
	case tensor.Int8:
		return int8(0)
	case tensor.Uint8:
		return uint8(0)
	case tensor.Bool:
		return false
	}
	panic(fmt.Sprintf("no zero value for %v", dt))
}
