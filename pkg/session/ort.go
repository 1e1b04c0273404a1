//go:build cgo

package session

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	ort "github.com/yalue/onnxruntime_go"
	"k8s.io/klog/v2"
)

// LibraryPathEnv names the variable consulted when ORTLibraryPath is empty.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

func init() {
	Register(&ortRuntime{})
}

// ortRuntime runs models with the onnxruntime shared library. The
// environment is initialized once per process and never destroyed.
type ortRuntime struct {
	once    sync.Once
	initErr error
}

func (*ortRuntime) Name() string { return "ort" }

func (r *ortRuntime) setup() error {
	r.once.Do(func() {
		lib := ORTLibraryPath
		if lib == "" {
			lib = os.Getenv(LibraryPathEnv)
		}
		if lib == "" {
			r.initErr = errors.Errorf("onnxruntime library path is not set; use -ort-lib or %s", LibraryPathEnv)
			return
		}
		ort.SetSharedLibraryPath(lib)
		if err := ort.InitializeEnvironment(); err != nil {
			r.initErr = errors.Wrapf(err, "failed to initialize onnxruntime from %s", lib)
			return
		}
		klog.V(1).Infof("onnxruntime %s loaded from %s", ort.GetVersion(), lib)
	})
	return r.initErr
}

func (r *ortRuntime) Open(ctx context.Context, path string) (Session, error) {
	if err := r.setup(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input and output info")
	}
	s := &ortSession{}
	for _, in := range inputInfo {
		s.inputs = append(s.inputs, in.Name)
		klog.V(2).Infof("ort input %s: %s %v", in.Name, in.DataType, in.Dimensions)
	}
	for _, out := range outputInfo {
		s.outputs = append(s.outputs, out.Name)
	}
	s.session, err = ort.NewDynamicAdvancedSession(path, s.inputs, s.outputs, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}
	return s, nil
}

type ortSession struct {
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

func (s *ortSession) InputNames() []string  { return s.inputs }
func (s *ortSession) OutputNames() []string { return s.outputs }

func (s *ortSession) Warmup(ctx context.Context, specs []TensorSpec) error {
	byName, err := specsByName(specs, s.inputs)
	if err != nil {
		return err
	}
	var values []ort.Value
	defer func() {
		for _, v := range values {
			if v == nil {
				continue
			}
			if err := v.Destroy(); err != nil {
				klog.Errorf("Failed to release warm-up tensor: %v", err)
			}
		}
	}()
	inputs := make([]ort.Value, len(s.inputs))
	for i, name := range s.inputs {
		v, err := emptyTensor(byName[name])
		if err != nil {
			return err
		}
		inputs[i] = v
		values = append(values, v)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	outputs := make([]ort.Value, len(s.outputs))
	if err := s.session.Run(inputs, outputs); err != nil {
		return errors.Wrap(err, "run failed")
	}
	values = append(values, outputs...)
	return nil
}

func (s *ortSession) Run(ctx context.Context, inputs map[string]Tensor) (map[string]Tensor, error) {
	if err := checkInputs(inputs, s.inputs); err != nil {
		return nil, err
	}
	var values []ort.Value
	defer func() {
		for _, v := range values {
			if v == nil {
				continue
			}
			if err := v.Destroy(); err != nil {
				klog.Errorf("Failed to release tensor: %v", err)
			}
		}
	}()
	in := make([]ort.Value, len(s.inputs))
	for i, name := range s.inputs {
		t, err := ort.NewTensor(ort.NewShape(inputs[name].Shape...), inputs[name].Data)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q", name)
		}
		in[i] = t
		values = append(values, t)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs := make([]ort.Value, len(s.outputs))
	start := time.Now()
	err := s.session.Run(in, outputs)
	values = append(values, outputs...)
	if err != nil {
		return nil, errors.Wrap(err, "run failed")
	}
	klog.V(2).Infof("onnxruntime run took %v", time.Since(start))

	out := make(map[string]Tensor, len(outputs))
	for i, v := range outputs {
		t, ok := v.(*ort.Tensor[float32])
		if !ok {
			return nil, errors.Errorf("output %q is not a FLOAT tensor", s.outputs[i])
		}
		out[s.outputs[i]] = Tensor{
			Shape: append([]int64(nil), t.GetShape()...),
			Data:  append([]float32(nil), t.GetData()...),
		}
	}
	return out, nil
}

func (s *ortSession) Close() error {
	return errors.Wrap(s.session.Destroy(), "failed to destroy session")
}

func emptyTensor(spec TensorSpec) (ort.Value, error) {
	shape := ort.NewShape(spec.Shape...)
	switch spec.Type {
	case onnx.TensorProto_FLOAT:
		return ort.NewEmptyTensor[float32](shape)
	case onnx.TensorProto_DOUBLE:
		return ort.NewEmptyTensor[float64](shape)
	case onnx.TensorProto_INT8:
		return ort.NewEmptyTensor[int8](shape)
	case onnx.TensorProto_UINT8:
		return ort.NewEmptyTensor[uint8](shape)
	case onnx.TensorProto_INT16:
		return ort.NewEmptyTensor[int16](shape)
	case onnx.TensorProto_UINT16:
		return ort.NewEmptyTensor[uint16](shape)
	case onnx.TensorProto_INT32:
		return ort.NewEmptyTensor[int32](shape)
	case onnx.TensorProto_UINT32:
		return ort.NewEmptyTensor[uint32](shape)
	case onnx.TensorProto_INT64:
		return ort.NewEmptyTensor[int64](shape)
	case onnx.TensorProto_UINT64:
		return ort.NewEmptyTensor[uint64](shape)
	}
	return nil, errors.Errorf("input %q: %s tensors are not supported by onnxruntime warm-up", spec.Name, spec.Type)
}
