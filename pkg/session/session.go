// Package session compiles an ONNX model file into an executable inference
// session using one of the registered runtimes.
package session

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/modelerr"
	"k8s.io/klog/v2"
)

// DefaultRuntime is the runtime used when none is named.
const DefaultRuntime = "gorgonnx"

// ORTLibraryPath is the onnxruntime shared library loaded by the "ort"
// runtime. When empty, ONNXRUNTIME_SHARED_LIBRARY_PATH is used.
var ORTLibraryPath string

// Runtime compiles model files into sessions.
type Runtime interface {
	Name() string
	// Open reads the model at path and compiles it. Open does not retain
	// path after it returns.
	Open(ctx context.Context, path string) (Session, error)
}

// Session is a compiled model ready to run.
type Session interface {
	InputNames() []string
	OutputNames() []string
	// Warmup runs the session once on the given inputs and discards the
	// outputs.
	Warmup(ctx context.Context, inputs []TensorSpec) error
	// Run feeds one FLOAT tensor per input and returns the graph outputs
	// by name.
	Run(ctx context.Context, inputs map[string]Tensor) (map[string]Tensor, error)
	Close() error
}

// TensorSpec describes a zero-filled tensor fed to Warmup.
type TensorSpec struct {
	Name  string
	Type  onnx.TensorProto_DataType
	Shape []int64
}

// Tensor is a dense FLOAT tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Elements is the number of values the shape holds.
func (t Tensor) Elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

// checkInputs verifies that every name has a tensor whose data fills its
// shape.
func checkInputs(inputs map[string]Tensor, names []string) error {
	for _, name := range names {
		t, ok := inputs[name]
		if !ok {
			return errors.Errorf("no tensor for input %q", name)
		}
		if n := t.Elements(); n != len(t.Data) {
			return errors.Errorf("input %q has %d values, shape %v needs %d", name, len(t.Data), t.Shape, n)
		}
	}
	return nil
}

func intShape(shape []int64) []int {
	out := make([]int, len(shape))
	for i, d := range shape {
		out[i] = int(d)
	}
	return out
}

func int64Shape(shape []int) []int64 {
	out := make([]int64, len(shape))
	for i, d := range shape {
		out[i] = int64(d)
	}
	return out
}

var (
	mu       sync.RWMutex
	runtimes = make(map[string]Runtime)
)

// Register makes rt available under rt.Name(), replacing any runtime of
// the same name.
func Register(rt Runtime) {
	mu.Lock()
	defer mu.Unlock()
	runtimes[rt.Name()] = rt
}

// Lookup returns the runtime registered under name.
func Lookup(name string) (Runtime, error) {
	mu.RLock()
	rt, ok := runtimes[name]
	mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown runtime %q (available: %s)", name, strings.Join(Runtimes(), ", "))
	}
	return rt, nil
}

// Runtimes lists the registered runtime names in order.
func Runtimes() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(runtimes))
	for name := range runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Initialize compiles the model file at path with rt. The file is read
// again from disk, independently of any model already decoded from it.
func Initialize(ctx context.Context, path string, rt Runtime) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, modelerr.New(modelerr.KindSession, path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, modelerr.New(modelerr.KindIO, path, errors.Wrap(err, "failed to open model for the session"))
	}
	if info.IsDir() {
		return nil, modelerr.Newf(modelerr.KindIO, path, "is a directory")
	}

	logHost()
	klog.V(1).Infof("Creating %s session for %s", rt.Name(), path)
	sess, err := rt.Open(ctx, path)
	if err != nil {
		return nil, modelerr.New(modelerr.KindSession, path, errors.Wrapf(err, "%s runtime failed to create a session", rt.Name()))
	}
	klog.V(1).Infof("Session inputs %v, outputs %v", sess.InputNames(), sess.OutputNames())
	return sess, nil
}

func logHost() {
	if !klog.V(2).Enabled() {
		return
	}
	cpu := cpuid.CPU
	klog.Infof("Host CPU: %s, %d cores, %d threads", cpu.BrandName, cpu.PhysicalCores, cpu.LogicalCores)
	klog.Infof("SIMD: AVX2=%t FMA3=%t AVX512F=%t AVX512DQ=%t ASIMD=%t",
		cpu.Supports(cpuid.AVX2), cpu.Supports(cpuid.FMA3),
		cpu.Supports(cpuid.AVX512F), cpu.Supports(cpuid.AVX512DQ), cpu.Supports(cpuid.ASIMD))
}

// WarmupSpecs describes one input tensor for every graph input that is not
// backed by an initializer. Symbolic and unknown dimensions become 1.
func WarmupSpecs(g *onnx.GraphProto) ([]TensorSpec, error) {
	initialized := make(map[string]bool, len(g.GetInitializer()))
	for _, t := range g.GetInitializer() {
		initialized[t.GetName()] = true
	}
	var specs []TensorSpec
	for _, in := range g.GetInput() {
		if initialized[in.GetName()] {
			continue
		}
		tt := in.GetType().GetTensorType()
		if tt == nil {
			return nil, errors.Errorf("input %q is not a tensor", in.GetName())
		}
		spec := TensorSpec{Name: in.GetName(), Type: onnx.TensorProto_DataType(tt.GetElemType())}
		for _, d := range tt.GetShape().GetDim() {
			v := int64(1)
			if d.HasDimValue() && d.GetDimValue() > 0 {
				v = d.GetDimValue()
			}
			spec.Shape = append(spec.Shape, v)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// graphInputs returns the names of g's inputs that have no initializer,
// and the names of its outputs.
func graphInputs(g *onnx.GraphProto) (inputs, outputs []string) {
	initialized := make(map[string]bool, len(g.GetInitializer()))
	for _, t := range g.GetInitializer() {
		initialized[t.GetName()] = true
	}
	for _, in := range g.GetInput() {
		if !initialized[in.GetName()] {
			inputs = append(inputs, in.GetName())
		}
	}
	for _, out := range g.GetOutput() {
		outputs = append(outputs, out.GetName())
	}
	return inputs, outputs
}

// specsByName indexes specs and checks that every name has one.
func specsByName(specs []TensorSpec, names []string) (map[string]TensorSpec, error) {
	byName := make(map[string]TensorSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, errors.Errorf("no warm-up tensor for input %q", name)
		}
	}
	return byName, nil
}
