package checker

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/registry"
)

// dim is one tensor dimension: a fixed size, a symbolic name, or unknown.
type dim struct {
	value int64
	param string
	known bool
}

func (d dim) String() string {
	switch {
	case d.known:
		return fmt.Sprint(d.value)
	case d.param != "":
		return d.param
	}
	return "?"
}

// sameAs reports whether d and o are provably the same size.
func (d dim) sameAs(o dim) bool {
	if d.known && o.known {
		return d.value == o.value
	}
	return d.param != "" && d.param == o.param
}

// conflicts reports whether d and o are provably different sizes.
func (d dim) conflicts(o dim) bool {
	return d.known && o.known && d.value != o.value
}

// valueType is what the checker knows about a tensor value. elem is
// UNDEFINED and shape nil when unknown.
type valueType struct {
	elem  onnx.TensorProto_DataType
	shape []dim
}

func (v *valueType) rankKnown() bool { return v != nil && v.shape != nil }

func shapeString(shape []dim) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = d.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func fromTypeProto(tp *onnx.TypeProto) *valueType {
	tt := tp.GetTensorType()
	if tt == nil {
		return nil
	}
	v := &valueType{elem: onnx.TensorProto_DataType(tt.GetElemType())}
	if shape := tt.GetShape(); shape != nil {
		v.shape = make([]dim, len(shape.GetDim()))
		for i, d := range shape.GetDim() {
			v.shape[i] = dim{value: d.GetDimValue(), param: d.GetDimParam(), known: d.HasDimValue()}
		}
	}
	return v
}

func fromTensor(t *onnx.TensorProto) *valueType {
	v := &valueType{elem: onnx.TensorProto_DataType(t.GetDataType()), shape: make([]dim, len(t.GetDims()))}
	for i, d := range t.GetDims() {
		v.shape[i] = dim{value: d, known: true}
	}
	return v
}

// inferGraph propagates element types and shapes through graph in node
// order and reports the first operator whose inputs are inconsistent.
// outer carries the value types of enclosing graphs.
func (c *checker) inferGraph(graph *onnx.GraphProto, outer map[string]*valueType) error {
	types := make(map[string]*valueType, len(outer)+len(graph.GetNode()))
	for name, v := range outer {
		types[name] = v
	}
	for _, info := range graph.GetInput() {
		if v := fromTypeProto(info.GetType()); v != nil {
			types[info.GetName()] = v
		}
	}
	for _, t := range graph.GetInitializer() {
		if _, ok := types[t.GetName()]; !ok {
			types[t.GetName()] = fromTensor(t)
		}
	}
	for _, st := range graph.GetSparseInitializer() {
		name := st.GetValues().GetName()
		if _, ok := types[name]; !ok {
			types[name] = fromTensor(&onnx.TensorProto{DataType: st.GetValues().DataType, Dims: st.GetDims()})
		}
	}
	declared := make(map[string]*valueType)
	for _, info := range graph.GetValueInfo() {
		if v := fromTypeProto(info.GetType()); v != nil {
			declared[info.GetName()] = v
		}
	}
	for _, info := range graph.GetOutput() {
		if v := fromTypeProto(info.GetType()); v != nil {
			declared[info.GetName()] = v
		}
	}

	for i, node := range graph.GetNode() {
		fail := func(format string, args ...any) error {
			return &ValidationError{
				Graph:  graph.GetName(),
				Node:   nodeLabel(i, node),
				OpType: node.GetOpType(),
				Msg:    fmt.Sprintf(format, args...),
			}
		}

		inputs := make([]*valueType, len(node.GetInput()))
		for j, name := range node.GetInput() {
			inputs[j] = types[name]
		}
		var out *valueType
		domain := onnx.CanonicalDomain(node.GetDomain())
		if opset, ok := c.model.OpsetVersion(domain); ok {
			if schema, ok := registry.Lookup(domain, node.GetOpType(), opset); ok {
				var err error
				if out, err = applyRule(schema.Rule, node, inputs); err != nil {
					return fail("%v", err)
				}
			}
		}

		for j, name := range node.GetOutput() {
			if name == "" {
				continue
			}
			want := declared[name]
			var got *valueType
			if j == 0 {
				got = out
			}
			if got != nil && want != nil && got.elem != onnx.TensorProto_UNDEFINED &&
				want.elem != onnx.TensorProto_UNDEFINED && got.elem != want.elem {
				return fail("inferred element type %s of %q disagrees with its declared type %s", got.elem, name, want.elem)
			}
			types[name] = merge(got, want)
		}

		for _, attr := range node.GetAttribute() {
			for _, sub := range subgraphs(attr) {
				if err := c.inferGraph(sub, types); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// merge combines an inferred and a declared type, preferring what was
// inferred.
func merge(inferred, declared *valueType) *valueType {
	switch {
	case inferred == nil:
		return declared
	case declared == nil:
		return inferred
	}
	v := &valueType{elem: inferred.elem, shape: inferred.shape}
	if v.elem == onnx.TensorProto_UNDEFINED {
		v.elem = declared.elem
	}
	if v.shape == nil {
		v.shape = declared.shape
	}
	return v
}

func applyRule(rule registry.Rule, node *onnx.NodeProto, inputs []*valueType) (*valueType, error) {
	switch rule {
	case registry.RuleUnary:
		if len(inputs) == 0 || inputs[0] == nil {
			return nil, nil
		}
		return &valueType{elem: inputs[0].elem, shape: inputs[0].shape}, nil
	case registry.RuleKeepType:
		if len(inputs) == 0 || inputs[0] == nil {
			return nil, nil
		}
		return &valueType{elem: inputs[0].elem}, nil
	case registry.RuleSameType:
		elem, err := sameElem(inputs)
		return &valueType{elem: elem}, err
	case registry.RuleElementwise, registry.RuleCompare:
		elem, err := sameElem(inputs)
		if err != nil {
			return nil, err
		}
		shape, err := broadcastAll(inputs)
		if err != nil {
			return nil, err
		}
		if rule == registry.RuleCompare {
			elem = onnx.TensorProto_BOOL
		}
		return &valueType{elem: elem, shape: shape}, nil
	case registry.RuleMatMul:
		return inferMatMul(inputs)
	case registry.RuleGemm:
		return inferGemm(node, inputs)
	case registry.RuleConv:
		return inferConv(node, inputs)
	case registry.RuleCast:
		return &valueType{elem: onnx.TensorProto_DataType(node.AttributeByName("to").GetI()), shape: shapeOf(inputs, 0)}, nil
	case registry.RuleInt64:
		v := &valueType{elem: onnx.TensorProto_INT64}
		if node.GetOpType() == "Shape" && len(inputs) > 0 && inputs[0].rankKnown() &&
			node.AttributeByName("start") == nil && node.AttributeByName("end") == nil {
			v.shape = []dim{{value: int64(len(inputs[0].shape)), known: true}}
		}
		return v, nil
	}
	return nil, nil
}

func shapeOf(inputs []*valueType, i int) []dim {
	if i < len(inputs) && inputs[i] != nil {
		return inputs[i].shape
	}
	return nil
}

// sameElem returns the common element type of the known inputs.
func sameElem(inputs []*valueType) (onnx.TensorProto_DataType, error) {
	elem := onnx.TensorProto_UNDEFINED
	for _, in := range inputs {
		if in == nil || in.elem == onnx.TensorProto_UNDEFINED {
			continue
		}
		if elem == onnx.TensorProto_UNDEFINED {
			elem = in.elem
			continue
		}
		if in.elem != elem {
			return elem, errors.Errorf("input element types differ: %s and %s", elem, in.elem)
		}
	}
	return elem, nil
}

// broadcastAll applies multidirectional broadcasting to every input shape.
// It returns nil when any input rank is unknown.
func broadcastAll(inputs []*valueType) ([]dim, error) {
	var out []dim
	for i, in := range inputs {
		if !in.rankKnown() {
			return nil, nil
		}
		if i == 0 {
			out = in.shape
			continue
		}
		var err error
		if out, err = broadcast(out, in.shape); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func broadcast(a, b []dim) ([]dim, error) {
	n := max(len(a), len(b))
	out := make([]dim, n)
	for i := range n {
		da, db := dim{value: 1, known: true}, dim{value: 1, known: true}
		if j := i - (n - len(a)); j >= 0 {
			da = a[j]
		}
		if j := i - (n - len(b)); j >= 0 {
			db = b[j]
		}
		switch {
		case da.known && da.value == 1:
			out[i] = db
		case db.known && db.value == 1:
			out[i] = da
		case da.conflicts(db):
			return nil, errors.Errorf("shapes %s and %s are not broadcastable", shapeString(a), shapeString(b))
		case da.known:
			out[i] = da
		case db.known:
			out[i] = db
		case da.sameAs(db):
			out[i] = da
		default:
			out[i] = dim{}
		}
	}
	return out, nil
}

func inferMatMul(inputs []*valueType) (*valueType, error) {
	elem, err := sameElem(inputs)
	if err != nil {
		return nil, err
	}
	v := &valueType{elem: elem}
	if len(inputs) < 2 || !inputs[0].rankKnown() || !inputs[1].rankKnown() {
		return v, nil
	}
	a, b := inputs[0].shape, inputs[1].shape
	if len(a) == 0 || len(b) == 0 {
		return nil, errors.Errorf("MatMul operands must not be scalars")
	}
	one := dim{value: 1, known: true}
	a2, b2 := a, b
	if len(a) == 1 {
		a2 = []dim{one, a[0]}
	}
	if len(b) == 1 {
		b2 = []dim{b[0], one}
	}
	k1, k2 := a2[len(a2)-1], b2[len(b2)-2]
	if k1.conflicts(k2) {
		return nil, errors.Errorf("inner dimensions do not match: %s and %s", shapeString(a), shapeString(b))
	}
	batch, err := broadcast(a2[:len(a2)-2], b2[:len(b2)-2])
	if err != nil {
		return nil, err
	}
	shape := append([]dim{}, batch...)
	if len(a) > 1 {
		shape = append(shape, a2[len(a2)-2])
	}
	if len(b) > 1 {
		shape = append(shape, b2[len(b2)-1])
	}
	v.shape = shape
	return v, nil
}

func inferGemm(node *onnx.NodeProto, inputs []*valueType) (*valueType, error) {
	elem, err := sameElem(inputs)
	if err != nil {
		return nil, err
	}
	v := &valueType{elem: elem}
	if len(inputs) < 2 || !inputs[0].rankKnown() || !inputs[1].rankKnown() {
		return v, nil
	}
	a, b := inputs[0].shape, inputs[1].shape
	if len(a) != 2 {
		return nil, errors.Errorf("operand A must be rank 2, got %s", shapeString(a))
	}
	if len(b) != 2 {
		return nil, errors.Errorf("operand B must be rank 2, got %s", shapeString(b))
	}
	m, k1 := a[0], a[1]
	if node.AttributeByName("transA").GetI() != 0 {
		m, k1 = a[1], a[0]
	}
	k2, n := b[0], b[1]
	if node.AttributeByName("transB").GetI() != 0 {
		k2, n = b[1], b[0]
	}
	if k1.conflicts(k2) {
		return nil, errors.Errorf("inner dimensions do not match: A %s and B %s", shapeString(a), shapeString(b))
	}
	v.shape = []dim{m, n}
	if len(inputs) > 2 && inputs[2].rankKnown() {
		if _, err := broadcast(inputs[2].shape, v.shape); err != nil {
			return nil, errors.Errorf("bias C %s does not broadcast to %s", shapeString(inputs[2].shape), shapeString(v.shape))
		}
	}
	return v, nil
}

func inferConv(node *onnx.NodeProto, inputs []*valueType) (*valueType, error) {
	elem, err := sameElem(inputs)
	if err != nil {
		return nil, err
	}
	v := &valueType{elem: elem}
	if len(inputs) < 2 || !inputs[0].rankKnown() || !inputs[1].rankKnown() {
		return v, nil
	}
	x, w := inputs[0].shape, inputs[1].shape
	if len(x) < 3 {
		return nil, errors.Errorf("input must have rank 3 or more, got %s", shapeString(x))
	}
	if len(x) != len(w) {
		return nil, errors.Errorf("input %s and weight %s ranks differ", shapeString(x), shapeString(w))
	}
	group := int64(1)
	if attr := node.AttributeByName("group"); attr != nil {
		group = attr.GetI()
	}
	if x[1].known && w[1].known && x[1].value != w[1].value*group {
		return nil, errors.Errorf("input channels %d do not match weight channels %d x group %d", x[1].value, w[1].value, group)
	}
	if len(inputs) > 2 && inputs[2].rankKnown() {
		bias := inputs[2].shape
		if len(bias) != 1 || bias[0].conflicts(w[0]) {
			return nil, errors.Errorf("bias %s does not match %s output channels", shapeString(bias), w[0])
		}
	}

	spatial := len(x) - 2
	v.shape = make([]dim, len(x))
	v.shape[0], v.shape[1] = x[0], w[0]
	autoPad := string(node.AttributeByName("auto_pad").GetS())
	kernel := intsOr(node, "kernel_shape", nil)
	strides := intsOr(node, "strides", nil)
	dilations := intsOr(node, "dilations", nil)
	pads := intsOr(node, "pads", nil)
	for i := range spatial {
		in, k := x[i+2], w[i+2]
		if len(kernel) == spatial {
			k = dim{value: kernel[i], known: true}
		}
		stride, dilation := at(strides, i, 1), at(dilations, i, 1)
		if !in.known || !k.known || stride <= 0 {
			continue
		}
		switch autoPad {
		case "", "NOTSET", "VALID":
			total := in.value
			if autoPad != "VALID" {
				total += at(pads, i, 0) + at(pads, i+spatial, 0)
			}
			kernelExtent := dilation*(k.value-1) + 1
			out := floorDiv(total-kernelExtent, stride) + 1
			if out <= 0 {
				return nil, errors.Errorf("spatial dimension %d of padded size %d is smaller than the dilated kernel %d", i, total, kernelExtent)
			}
			v.shape[i+2] = dim{value: out, known: true}
		case "SAME_UPPER", "SAME_LOWER":
			v.shape[i+2] = dim{value: (in.value + stride - 1) / stride, known: true}
		}
	}
	return v, nil
}

// floorDiv divides rounding towards negative infinity. b must be positive.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func intsOr(node *onnx.NodeProto, name string, def []int64) []int64 {
	if attr := node.AttributeByName(name); attr != nil {
		return attr.GetInts()
	}
	return def
}

func at(values []int64, i int, def int64) int64 {
	if i < len(values) {
		return values[i]
	}
	return def
}
