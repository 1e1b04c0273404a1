package session

import (
	"context"
	"time"

	"github.com/born-ml/born/backend/cpu"
	bornonnx "github.com/born-ml/born/onnx"
	borntensor "github.com/born-ml/born/tensor"
	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"k8s.io/klog/v2"
)

func init() {
	Register(bornRuntime{})
}

// bornRuntime loads models with born's ONNX importer on its CPU backend.
// Unsupported operators fail the load.
type bornRuntime struct{}

func (bornRuntime) Name() string { return "born" }

func (bornRuntime) Open(ctx context.Context, path string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := bornonnx.DefaultLoadOptions()
	opts.StrictMode = true
	model, err := bornonnx.Load(path, cpu.New(), opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model")
	}
	klog.V(2).Infof("born model opset %d, metadata %v", model.OpsetVersion(), model.Metadata())
	return &bornSession{model: model}, nil
}

type bornSession struct {
	model bornonnx.Model
}

func (s *bornSession) InputNames() []string  { return s.model.InputNames() }
func (s *bornSession) OutputNames() []string { return s.model.OutputNames() }

func (s *bornSession) Warmup(ctx context.Context, specs []TensorSpec) error {
	byName, err := specsByName(specs, s.InputNames())
	if err != nil {
		return err
	}
	inputs := make(map[string]*borntensor.RawTensor, len(byName))
	for _, name := range s.InputNames() {
		raw, err := zeroRaw(byName[name])
		if err != nil {
			return err
		}
		inputs[name] = raw
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	outputs, err := s.model.ForwardNamed(inputs)
	if err != nil {
		return errors.Wrap(err, "forward pass failed")
	}
	for name, out := range outputs {
		klog.V(2).Infof("Warm-up output %s: shape %v", name, out.Shape())
	}
	return nil
}

func (s *bornSession) Run(ctx context.Context, inputs map[string]Tensor) (out map[string]Tensor, err error) {
	if err := checkInputs(inputs, s.InputNames()); err != nil {
		return nil, err
	}
	raws := make(map[string]*borntensor.RawTensor, len(inputs))
	for _, name := range s.InputNames() {
		in := inputs[name]
		raw, err := borntensor.NewRaw(borntensor.Shape(intShape(in.Shape)), borntensor.Float32, borntensor.CPU)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q", name)
		}
		if raw.NumElements() > 0 {
			copy(raw.AsFloat32(), in.Data)
		}
		raws[name] = raw
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Backend kernels panic on shape mismatches.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.Errorf("panic during forward pass: %v", r)
		}
	}()
	start := time.Now()
	outputs, err := s.model.ForwardNamed(raws)
	if err != nil {
		return nil, errors.Wrap(err, "forward pass failed")
	}
	klog.V(2).Infof("born forward pass took %v", time.Since(start))
	out = make(map[string]Tensor, len(outputs))
	for name, raw := range outputs {
		if raw.DType() != borntensor.Float32 {
			return nil, errors.Errorf("output %q is %s, not FLOAT", name, raw.DType())
		}
		var data []float32
		if raw.NumElements() > 0 {
			data = append(data, raw.AsFloat32()...)
		}
		out[name] = Tensor{Shape: int64Shape(raw.Shape()), Data: data}
	}
	return out, nil
}

func (s *bornSession) Close() error { return nil }

func zeroRaw(spec TensorSpec) (*borntensor.RawTensor, error) {
	var dt borntensor.DataType
	switch spec.Type {
	case onnx.TensorProto_FLOAT:
		dt = borntensor.Float32
	case onnx.TensorProto_DOUBLE:
		dt = borntensor.Float64
	case onnx.TensorProto_INT32:
		dt = borntensor.Int32
	case onnx.TensorProto_INT64:
		dt = borntensor.Int64
	case onnx.TensorProto_UINT8:
		dt = borntensor.Uint8
	case onnx.TensorProto_BOOL:
		dt = borntensor.Bool
	default:
		return nil, errors.Errorf("input %q: %s tensors are not supported by born", spec.Name, spec.Type)
	}
	shape := make(borntensor.Shape, len(spec.Shape))
	for i, d := range spec.Shape {
		shape[i] = int(d)
	}
	raw, err := borntensor.NewRaw(shape, dt, borntensor.CPU)
	return raw, errors.Wrapf(err, "input %q", spec.Name)
}
