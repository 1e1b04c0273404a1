package checker

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/registry"
	"k8s.io/klog/v2"
)

type graphChecker struct {
	*checker
	graph *onnx.GraphProto
	// defined holds every name visible at the current node: enclosing scopes,
	// graph inputs, initializers and outputs of earlier nodes.
	defined map[string]bool
	// local holds the names defined by this graph itself.
	local map[string]bool
}

func (g *graphChecker) errorf(format string, args ...any) error {
	return &ValidationError{Graph: g.graph.GetName(), Msg: fmt.Sprintf(format, args...)}
}

func (g *graphChecker) nodeErrorf(index int, node *onnx.NodeProto, format string, args ...any) error {
	return &ValidationError{
		Graph:  g.graph.GetName(),
		Node:   nodeLabel(index, node),
		OpType: node.GetOpType(),
		Msg:    fmt.Sprintf(format, args...),
	}
}

func nodeLabel(index int, node *onnx.NodeProto) string {
	if name := node.GetName(); name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("#%d", index)
}

// checkGraph validates graph. outer holds the names visible from enclosing
// graphs, nil for the main graph.
func (c *checker) checkGraph(graph *onnx.GraphProto, outer map[string]bool) error {
	g := &graphChecker{
		checker: c,
		graph:   graph,
		defined: make(map[string]bool, len(outer)+len(graph.GetInput())+len(graph.GetNode())),
		local:   make(map[string]bool),
	}
	for name := range outer {
		g.defined[name] = true
	}
	if graph.GetName() == "" {
		return g.errorf("graph name is empty")
	}

	for _, info := range graph.GetInput() {
		if err := g.checkValueInfo(info, "input", true); err != nil {
			return err
		}
		if g.local[info.GetName()] {
			return g.errorf("graph input %q is declared more than once", info.GetName())
		}
		g.local[info.GetName()] = true
	}
	for _, info := range graph.GetOutput() {
		if err := g.checkValueInfo(info, "output", true); err != nil {
			return err
		}
	}
	for _, info := range graph.GetValueInfo() {
		if err := g.checkValueInfo(info, "value_info", false); err != nil {
			return err
		}
	}

	inputs := make(map[string]bool, len(g.local))
	for name := range g.local {
		inputs[name] = true
	}
	initializers := make(map[string]bool, len(graph.GetInitializer()))
	for _, tensor := range graph.GetInitializer() {
		if tensor.GetName() == "" {
			return g.errorf("initializer has an empty name")
		}
		if err := c.checkTensor(tensor); err != nil {
			return g.errorf("initializer %q: %v", tensor.GetName(), err)
		}
		if initializers[tensor.GetName()] {
			return g.errorf("initializer %q is declared more than once", tensor.GetName())
		}
		initializers[tensor.GetName()] = true
		if c.model.GetIrVersion() < 4 && !inputs[tensor.GetName()] {
			return g.errorf("initializer %q is not a graph input, which IR version %d requires", tensor.GetName(), c.model.GetIrVersion())
		}
		g.local[tensor.GetName()] = true
	}
	for _, sparse := range graph.GetSparseInitializer() {
		if err := c.checkSparseTensor(sparse); err != nil {
			return g.errorf("sparse initializer: %v", err)
		}
		name := sparse.GetValues().GetName()
		if initializers[name] {
			return g.errorf("initializer %q is declared more than once", name)
		}
		initializers[name] = true
		g.local[name] = true
	}
	for name := range g.local {
		g.defined[name] = true
	}

	for i, node := range graph.GetNode() {
		if err := g.checkNode(i, node); err != nil {
			return err
		}
	}

	for _, info := range graph.GetOutput() {
		if !g.defined[info.GetName()] {
			return g.errorf("graph output %q is not produced by any node, input or initializer", info.GetName())
		}
	}
	return nil
}

// checkValueInfo validates a value info. Graph inputs and outputs must carry
// a full tensor type including its shape.
func (g *graphChecker) checkValueInfo(info *onnx.ValueInfoProto, kind string, requireShape bool) error {
	if info.GetName() == "" {
		return g.errorf("graph %s has an empty name", kind)
	}
	if info.GetType() == nil {
		return g.errorf("graph %s %q has no type", kind, info.GetName())
	}
	if err := checkType(info.GetType(), requireShape); err != nil {
		return g.errorf("graph %s %q: %v", kind, info.GetName(), err)
	}
	return nil
}

func checkType(tp *onnx.TypeProto, requireShape bool) error {
	switch tp.ValueCase() {
	case "tensor_type":
		tt := tp.GetTensorType()
		return checkTensorType(tt.ElemType, tt.GetShape(), requireShape)
	case "sparse_tensor_type":
		st := tp.GetSparseTensorType()
		return checkTensorType(st.ElemType, st.GetShape(), requireShape)
	case "sequence_type":
		elem := tp.GetSequenceType().GetElemType()
		if elem == nil {
			return errors.Errorf("sequence type has no elem_type")
		}
		return checkType(elem, false)
	case "optional_type":
		elem := tp.GetOptionalType().GetElemType()
		if elem == nil {
			return errors.Errorf("optional type has no elem_type")
		}
		return checkType(elem, false)
	case "map_type":
		mt := tp.GetMapType()
		if mt.KeyType == nil {
			return errors.Errorf("map type has no key_type")
		}
		switch onnx.TensorProto_DataType(mt.GetKeyType()) {
		case onnx.TensorProto_STRING, onnx.TensorProto_INT64, onnx.TensorProto_INT32, onnx.TensorProto_INT16,
			onnx.TensorProto_INT8, onnx.TensorProto_UINT64, onnx.TensorProto_UINT32, onnx.TensorProto_UINT16,
			onnx.TensorProto_UINT8:
		default:
			return errors.Errorf("map key_type %s is not an integer or string type", onnx.TensorProto_DataType(mt.GetKeyType()))
		}
		if mt.GetValueType() == nil {
			return errors.Errorf("map type has no value_type")
		}
		return checkType(mt.GetValueType(), false)
	}
	return errors.Errorf("type has no value set")
}

func checkTensorType(elem *int32, shape *onnx.TensorShapeProto, requireShape bool) error {
	if elem == nil {
		return errors.Errorf("tensor type has no elem_type")
	}
	if dt := onnx.TensorProto_DataType(*elem); !dt.Known() {
		return errors.Errorf("tensor elem_type %d is not a valid data type", *elem)
	}
	if shape == nil {
		if requireShape {
			return errors.Errorf("tensor type has no shape")
		}
		return nil
	}
	for i, dim := range shape.GetDim() {
		if dim.HasDimValue() && dim.GetDimValue() < 0 {
			return errors.Errorf("dimension %d has negative size %d", i, dim.GetDimValue())
		}
	}
	return nil
}

func (g *graphChecker) checkNode(index int, node *onnx.NodeProto) error {
	if node.GetOpType() == "" {
		return g.nodeErrorf(index, node, "op_type is empty")
	}
	if len(node.GetInput()) == 0 && len(node.GetOutput()) == 0 {
		return g.nodeErrorf(index, node, "node has neither inputs nor outputs")
	}
	domain := onnx.CanonicalDomain(node.GetDomain())
	opset, imported := g.model.OpsetVersion(domain)
	if !imported {
		return g.nodeErrorf(index, node, "domain %q is not imported by the model", domain)
	}

	seen := make(map[string]bool, len(node.GetAttribute()))
	for _, attr := range node.GetAttribute() {
		if seen[attr.GetName()] {
			return g.nodeErrorf(index, node, "attribute %q is set more than once", attr.GetName())
		}
		seen[attr.GetName()] = true
		if err := g.checkAttribute(attr); err != nil {
			return g.nodeErrorf(index, node, "%v", err)
		}
	}

	for _, input := range node.GetInput() {
		if input == "" {
			continue
		}
		if !g.defined[input] {
			return g.nodeErrorf(index, node, "input %q is not an output of any previous node, a graph input or an initializer; nodes must be topologically sorted", input)
		}
	}

	fn := g.function(domain, node.GetOpType(), node.GetOverload())
	schema, ok := registry.Lookup(domain, node.GetOpType(), opset)
	switch {
	case fn != nil:
		if n := len(node.GetInput()); n > len(fn.GetInput()) {
			return g.nodeErrorf(index, node, "%d inputs given, function accepts at most %d", n, len(fn.GetInput()))
		}
		if n := len(node.GetOutput()); n > len(fn.GetOutput()) {
			return g.nodeErrorf(index, node, "%d outputs given, function produces at most %d", n, len(fn.GetOutput()))
		}
	case ok:
		if err := checkSchema(schema, node); err != nil {
			return g.nodeErrorf(index, node, "%v", err)
		}
	case domain == "":
		if registry.Known(domain, node.GetOpType()) {
			return g.nodeErrorf(index, node, "operator %s is not available in opset %d", node.GetOpType(), opset)
		}
		return g.nodeErrorf(index, node, "no schema registered for operator %s in opset %d", node.GetOpType(), opset)
	default:
		klog.V(2).Infof("No schema for %s::%s, skipping schema checks", domain, node.GetOpType())
	}

	// Sub-graphs see every name defined so far.
	for _, attr := range node.GetAttribute() {
		for _, sub := range subgraphs(attr) {
			if err := g.checkGraph(sub, g.defined); err != nil {
				return err
			}
		}
	}

	for _, output := range node.GetOutput() {
		if output == "" {
			continue
		}
		if g.defined[output] {
			return g.nodeErrorf(index, node, "output %q is already defined; graphs must be in single static assignment form", output)
		}
		g.defined[output] = true
		g.local[output] = true
	}
	return nil
}

func checkSchema(schema *registry.Schema, node *onnx.NodeProto) error {
	if n := len(node.GetInput()); !schema.AcceptsInputs(n) {
		return errors.Errorf("%d inputs given, operator accepts %s", n, arity(schema.MinInputs, schema.MaxInputs))
	}
	if n := len(node.GetOutput()); !schema.AcceptsOutputs(n) {
		return errors.Errorf("%d outputs given, operator produces %s", n, arity(schema.MinOutputs, schema.MaxOutputs))
	}
	var missing []string
	for _, name := range schema.Required {
		if node.AttributeByName(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("required attribute %s is missing", strings.Join(missing, ", "))
	}
	return nil
}

func arity(lo, hi int) string {
	switch {
	case hi == registry.Unbounded:
		return fmt.Sprintf("at least %d", lo)
	case lo == hi:
		return fmt.Sprintf("exactly %d", lo)
	}
	return fmt.Sprintf("between %d and %d", lo, hi)
}

func subgraphs(attr *onnx.AttributeProto) []*onnx.GraphProto {
	var graphs []*onnx.GraphProto
	if attr.GetG() != nil {
		graphs = append(graphs, attr.GetG())
	}
	return append(graphs, attr.GetGraphs()...)
}
