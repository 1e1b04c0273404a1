package checker

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/tensordata"
)

// checkTensor validates the data type, dims and payload of t.
func (c *checker) checkTensor(t *onnx.TensorProto) error {
	if t.DataType == nil || t.GetDataType() == int32(onnx.TensorProto_UNDEFINED) {
		return errors.Errorf("data_type is not set")
	}
	dt := onnx.TensorProto_DataType(t.GetDataType())
	if !dt.Known() {
		return errors.Errorf("data_type %d is not a valid data type", t.GetDataType())
	}
	n, err := tensordata.NumElements(t.GetDims())
	if err != nil {
		return err
	}
	fields := tensordata.Fields(t)

	if tensordata.IsExternal(t) {
		if len(fields) > 0 {
			return errors.Errorf("data_location is EXTERNAL but %s is set", fields[0].Name)
		}
		return c.checkExternal(t, dt, n)
	}
	if len(t.GetExternalData()) > 0 {
		return errors.Errorf("external_data is set but data_location is not EXTERNAL")
	}

	switch len(fields) {
	case 0:
		if n != 0 {
			return errors.Errorf("no value field is set for %d elements of %s", n, dt)
		}
		return nil
	case 1:
	default:
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		return errors.Errorf("exactly one value field must be set, found %s", strings.Join(names, ", "))
	}

	field := fields[0]
	if field.Name == tensordata.FieldRaw {
		expected, ok := tensordata.ByteLen(dt, n)
		if !ok {
			return errors.Errorf("%s values cannot be stored in raw_data", dt)
		}
		if int64(field.Count) != expected {
			return errors.Errorf("raw_data holds %d bytes, expected %d for %d elements of %s", field.Count, expected, n, dt)
		}
		return nil
	}
	if want := tensordata.TypedField(dt); field.Name != want {
		return errors.Errorf("%s values are stored in %s, expected %s", dt, field.Name, want)
	}
	if expected := tensordata.FieldCount(dt, n); int64(field.Count) != expected {
		return errors.Errorf("%s holds %d values, expected %d for dims %v", field.Name, field.Count, expected, t.GetDims())
	}
	return nil
}

func (c *checker) checkExternal(t *onnx.TensorProto, dt onnx.TensorProto_DataType, n int64) error {
	if dt == onnx.TensorProto_STRING {
		return errors.Errorf("STRING tensors cannot use external data")
	}
	ext, err := tensordata.ParseExternal(t)
	if err != nil {
		return err
	}
	if c.opts.baseDir == "" {
		_, err := ext.Resolve(".")
		return err
	}
	_, length, err := ext.Stat(c.opts.baseDir)
	if err != nil {
		return err
	}
	if expected, ok := tensordata.ByteLen(dt, n); ok && ext.Length >= 0 && length != expected {
		return errors.Errorf("external data length %d does not match %d bytes for %d elements of %s", length, expected, n, dt)
	}
	if ext.Checksum != "" {
		if _, err := tensordata.Load(t, c.opts.baseDir); err != nil {
			return err
		}
	}
	return nil
}

// checkSparseTensor validates a COO sparse tensor: rank-1 named values,
// positive dense dims and INT64 indices that are in range and strictly
// increasing, either linearized [NNZ] or coordinates [NNZ, rank].
func (c *checker) checkSparseTensor(st *onnx.SparseTensorProto) error {
	values := st.GetValues()
	if values == nil {
		return errors.New("sparse tensor has no values")
	}
	name := values.GetName()
	if name == "" {
		return errors.New("sparse tensor values have an empty name")
	}
	if err := c.checkTensor(values); err != nil {
		return errors.Wrapf(err, "sparse tensor %q values", name)
	}
	if len(values.GetDims()) != 1 {
		return errors.Errorf("sparse tensor %q values must have rank 1, got rank %d", name, len(values.GetDims()))
	}
	dims := st.GetDims()
	if len(dims) == 0 {
		return errors.Errorf("sparse tensor %q has no dims", name)
	}
	for i, d := range dims {
		if d <= 0 {
			return errors.Errorf("sparse tensor %q dimension %d must be positive, got %d", name, i, d)
		}
	}
	dense, err := tensordata.NumElements(dims)
	if err != nil {
		return err
	}
	nnz := values.GetDims()[0]
	if nnz > dense {
		return errors.Errorf("sparse tensor %q has %d values but only %d elements", name, nnz, dense)
	}

	indices := st.GetIndices()
	if indices == nil {
		if nnz == 0 {
			return nil
		}
		return errors.Errorf("sparse tensor %q has %d values but no indices", name, nnz)
	}
	if onnx.TensorProto_DataType(indices.GetDataType()) != onnx.TensorProto_INT64 {
		return errors.Errorf("sparse tensor %q indices must be INT64, got %s", name, onnx.TensorProto_DataType(indices.GetDataType()))
	}
	if err := c.checkTensor(indices); err != nil {
		return errors.Wrapf(err, "sparse tensor %q indices", name)
	}
	if tensordata.IsExternal(indices) {
		return nil
	}
	idx, err := tensordata.Int64s(indices)
	if err != nil {
		return err
	}

	shape := indices.GetDims()
	switch {
	case len(shape) == 1 && shape[0] == nnz:
		for i, v := range idx {
			if v < 0 || v >= dense {
				return errors.Errorf("sparse tensor %q index %d at position %d is out of range [0, %d)", name, v, i, dense)
			}
			if i > 0 && v <= idx[i-1] {
				return errors.Errorf("sparse tensor %q index %d at position %d is not in increasing order", name, v, i)
			}
		}
	case len(shape) == 2 && shape[0] == nnz && shape[1] == int64(len(dims)):
		rank := len(dims)
		prev := int64(-1)
		for i := int64(0); i < nnz; i++ {
			var linear int64
			for j, d := range dims {
				v := idx[int(i)*rank+j]
				if v < 0 || v >= d {
					return errors.Errorf("sparse tensor %q coordinate %d of value %d is %d, outside [0, %d)", name, j, i, v, d)
				}
				linear = linear*d + v
			}
			if linear <= prev {
				return errors.Errorf("sparse tensor %q value %d is not in lexicographic order", name, i)
			}
			prev = linear
		}
	default:
		return errors.Errorf("sparse tensor %q indices have shape %v, expected [%d] or [%d, %d]", name, shape, nnz, nnz, len(dims))
	}
	return nil
}

// checkAttribute validates that attr has a name and a type and that its
// single value field matches the type.
func (g *graphChecker) checkAttribute(attr *onnx.AttributeProto) error {
	if attr.GetName() == "" {
		return errors.Errorf("attribute has an empty name")
	}
	if attr.GetRefAttrName() != "" {
		return errors.Errorf("attribute %q refers to %q, which is only allowed inside functions", attr.GetName(), attr.GetRefAttrName())
	}

	set := attributeFields(attr)
	if len(set) > 1 {
		return errors.Errorf("attribute %q has more than one value field set (%s)", attr.GetName(), strings.Join(set, ", "))
	}

	typ := attr.GetType()
	if typ == onnx.AttributeProto_UNDEFINED {
		if g.model.GetIrVersion() >= 2 {
			return errors.Errorf("attribute %q has no type", attr.GetName())
		}
		if len(set) == 0 {
			return errors.Errorf("attribute %q has no value", attr.GetName())
		}
		return nil
	}
	want, ok := attributeField[typ]
	if !ok {
		return errors.Errorf("attribute %q has unknown type %d", attr.GetName(), int32(typ))
	}
	if len(set) == 0 {
		if isListType(typ) {
			return nil
		}
		return errors.Errorf("attribute %q of type %s has no value", attr.GetName(), typ)
	}
	if set[0] != want {
		return errors.Errorf("attribute %q of type %s has %s set, expected %s", attr.GetName(), typ, set[0], want)
	}

	switch typ {
	case onnx.AttributeProto_TENSOR:
		if err := g.checkTensor(attr.GetT()); err != nil {
			return errors.Errorf("attribute %q: tensor: %v", attr.GetName(), err)
		}
	case onnx.AttributeProto_TENSORS:
		for i, t := range attr.GetTensors() {
			if err := g.checkTensor(t); err != nil {
				return errors.Errorf("attribute %q: tensor %d: %v", attr.GetName(), i, err)
			}
		}
	case onnx.AttributeProto_SPARSE_TENSOR:
		if err := g.checkSparseTensor(attr.GetSparseTensor()); err != nil {
			return errors.Errorf("attribute %q: %v", attr.GetName(), err)
		}
	case onnx.AttributeProto_SPARSE_TENSORS:
		for i, t := range attr.GetSparseTensors() {
			if err := g.checkSparseTensor(t); err != nil {
				return errors.Errorf("attribute %q: sparse tensor %d: %v", attr.GetName(), i, err)
			}
		}
	case onnx.AttributeProto_TYPE_PROTO:
		if err := checkType(attr.GetTp(), false); err != nil {
			return errors.Errorf("attribute %q: %v", attr.GetName(), err)
		}
	}
	return nil
}

var attributeField = map[onnx.AttributeProto_AttributeType]string{
	onnx.AttributeProto_FLOAT:          "f",
	onnx.AttributeProto_INT:            "i",
	onnx.AttributeProto_STRING:         "s",
	onnx.AttributeProto_TENSOR:         "t",
	onnx.AttributeProto_GRAPH:          "g",
	onnx.AttributeProto_TYPE_PROTO:     "tp",
	onnx.AttributeProto_FLOATS:         "floats",
	onnx.AttributeProto_INTS:           "ints",
	onnx.AttributeProto_STRINGS:        "strings",
	onnx.AttributeProto_TENSORS:        "tensors",
	onnx.AttributeProto_GRAPHS:         "graphs",
	onnx.AttributeProto_TYPE_PROTOS:    "type_protos",
	onnx.AttributeProto_SPARSE_TENSOR:  "sparse_tensor",
	onnx.AttributeProto_SPARSE_TENSORS: "sparse_tensors",
}

func isListType(typ onnx.AttributeProto_AttributeType) bool {
	switch typ {
	case onnx.AttributeProto_FLOATS, onnx.AttributeProto_INTS, onnx.AttributeProto_STRINGS,
		onnx.AttributeProto_TENSORS, onnx.AttributeProto_GRAPHS, onnx.AttributeProto_TYPE_PROTOS,
		onnx.AttributeProto_SPARSE_TENSORS:
		return true
	}
	return false
}

func attributeFields(attr *onnx.AttributeProto) []string {
	var set []string
	add := func(name string, ok bool) {
		if ok {
			set = append(set, name)
		}
	}
	add("f", attr.F != nil)
	add("i", attr.I != nil)
	add("s", attr.S != nil)
	add("t", attr.T != nil)
	add("g", attr.G != nil)
	add("tp", attr.Tp != nil)
	add("floats", len(attr.Floats) > 0)
	add("ints", len(attr.Ints) > 0)
	add("strings", len(attr.Strings) > 0)
	add("tensors", len(attr.Tensors) > 0)
	add("graphs", len(attr.Graphs) > 0)
	add("type_protos", len(attr.TypeProtos) > 0)
	add("sparse_tensor", attr.SparseTensor != nil)
	add("sparse_tensors", len(attr.SparseTensors) > 0)
	return set
}
