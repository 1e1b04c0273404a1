// Package checker validates the structure of an ONNX model: IR and opset
// rules, well-formed tensors, value infos and attributes, topological node
// order, operator schemas, single static assignment of values and a light
// element type consistency pass.
package checker

import (
	"fmt"

	"github.com/zerfoo/zverify/internal/onnx"
	"k8s.io/klog/v2"
)

// MaxIRVersion is the newest IR version the checker accepts.
const MaxIRVersion = onnx.IRVersion

// ValidationError describes the first structural problem found in a model.
type ValidationError struct {
	// Graph is the name of the graph containing the problem, if any.
	Graph string
	// Node is the node name, or "#i" for an unnamed node at index i.
	Node   string
	OpType string
	Msg    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Node != "":
		return fmt.Sprintf("graph %q: node %s (%s): %s", e.Graph, e.Node, e.OpType, e.Msg)
	case e.Graph != "":
		return fmt.Sprintf("graph %q: %s", e.Graph, e.Msg)
	}
	return e.Msg
}

// Option configures CheckModel.
type Option func(*options)

type options struct {
	skipTypes bool
	baseDir   string
}

// WithoutTypeCheck skips the element type and shape consistency pass.
func WithoutTypeCheck() Option {
	return func(o *options) { o.skipTypes = true }
}

// WithBaseDir resolves external tensor data against dir, normally the
// directory of the model file. Without it external data files are not
// opened, only their location entries are checked.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// CheckModel returns nil when m is structurally valid and the first
// *ValidationError otherwise. It never modifies m.
func CheckModel(m *onnx.ModelProto, opts ...Option) error {
	c := &checker{model: m}
	for _, opt := range opts {
		opt(&c.opts)
	}
	if err := c.checkModel(); err != nil {
		return err
	}
	if c.opts.skipTypes {
		klog.V(1).Info("Skipping type consistency checks")
		return nil
	}
	return c.inferGraph(m.GetGraph(), nil)
}

type checker struct {
	model     *onnx.ModelProto
	opts      options
	functions map[functionKey]*onnx.FunctionProto
}

func modelErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (c *checker) checkModel() error {
	m := c.model
	if m == nil {
		return modelErrorf("model is nil")
	}
	if m.IrVersion == nil {
		return modelErrorf("model ir_version is not set")
	}
	ir := m.GetIrVersion()
	if ir < 1 || ir > MaxIRVersion {
		return modelErrorf("model ir_version %d is outside the supported range [1, %d]", ir, MaxIRVersion)
	}

	seen := make(map[string]bool)
	for _, opset := range m.GetOpsetImport() {
		domain := onnx.CanonicalDomain(opset.GetDomain())
		if seen[domain] {
			return modelErrorf("opset_import lists domain %q more than once", domain)
		}
		seen[domain] = true
		if opset.GetVersion() < 1 {
			return modelErrorf("opset_import for domain %q has invalid version %d", domain, opset.GetVersion())
		}
	}
	if ir >= 3 && len(m.GetOpsetImport()) == 0 {
		return modelErrorf("model with IR version %d must import at least one opset", ir)
	}
	if m.Graph == nil {
		return modelErrorf("model graph is missing")
	}
	klog.V(2).Infof("Checking model: IR version %d, %d opset imports", ir, len(m.GetOpsetImport()))
	if err := c.checkFunctions(); err != nil {
		return err
	}
	if err := c.checkGraph(m.GetGraph(), nil); err != nil {
		return err
	}
	return c.checkTrainingInfo()
}
