package onnx

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Unmarshal parses the protobuf wire encoding of a ModelProto into m.
//
// Unknown fields are skipped. A known field that arrives with an unexpected
// wire type is skipped as well, the way generated protobuf code treats it.
// On error m is reset, so callers never observe a partial model.
func Unmarshal(b []byte, m *ModelProto) error {
	*m = ModelProto{}
	if err := decodeMessage(b, "ModelProto", m.decodeField); err != nil {
		*m = ModelProto{}
		return err
	}
	return nil
}

// fieldDecoder decodes the value of one field from the front of b and
// returns the number of bytes consumed. It returns -1 for fields it does
// not handle, which are then skipped.
type fieldDecoder func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func decodeMessage(b []byte, name string, decode fieldDecoder) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "%s: invalid tag", name)
		}
		b = b[n:]
		n, err := decode(num, typ, b)
		if err != nil {
			return errors.Wrapf(err, "%s field %d", name, num)
		}
		if n < 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "%s field %d", name, num)
			}
		}
		b = b[n:]
	}
	return nil
}

func (m *ModelProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeInt64(typ, b, &m.IrVersion)
	case 2:
		return consumeString(typ, b, &m.ProducerName)
	case 3:
		return consumeString(typ, b, &m.ProducerVersion)
	case 4:
		return consumeString(typ, b, &m.Domain)
	case 5:
		return consumeInt64(typ, b, &m.ModelVersion)
	case 6:
		return consumeString(typ, b, &m.DocString)
	case 7:
		if m.Graph == nil {
			m.Graph = &GraphProto{}
		}
		return consumeMessage(typ, b, "GraphProto", m.Graph.decodeField)
	case 8:
		opset := &OperatorSetIdProto{}
		n, err := consumeMessage(typ, b, "OperatorSetIdProto", opset.decodeField)
		if n > 0 {
			m.OpsetImport = append(m.OpsetImport, opset)
		}
		return n, err
	case 14:
		entry := &StringStringEntryProto{}
		n, err := consumeMessage(typ, b, "StringStringEntryProto", entry.decodeField)
		if n > 0 {
			m.MetadataProps = append(m.MetadataProps, entry)
		}
		return n, err
	case 20:
		info := &TrainingInfoProto{}
		n, err := consumeMessage(typ, b, "TrainingInfoProto", info.decodeField)
		if n > 0 {
			m.TrainingInfo = append(m.TrainingInfo, info)
		}
		return n, err
	case 25:
		fn := &FunctionProto{}
		n, err := consumeMessage(typ, b, "FunctionProto", fn.decodeField)
		if n > 0 {
			m.Functions = append(m.Functions, fn)
		}
		return n, err
	}
	return -1, nil
}

func (m *OperatorSetIdProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Domain)
	case 2:
		return consumeInt64(typ, b, &m.Version)
	}
	return -1, nil
}

func (m *StringStringEntryProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Key)
	case 2:
		return consumeString(typ, b, &m.Value)
	}
	return -1, nil
}

func (m *GraphProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		node := &NodeProto{}
		n, err := consumeMessage(typ, b, "NodeProto", node.decodeField)
		if n > 0 {
			m.Node = append(m.Node, node)
		}
		return n, err
	case 2:
		return consumeString(typ, b, &m.Name)
	case 5:
		tensor := &TensorProto{}
		n, err := consumeMessage(typ, b, "TensorProto", tensor.decodeField)
		if n > 0 {
			m.Initializer = append(m.Initializer, tensor)
		}
		return n, err
	case 10:
		return consumeString(typ, b, &m.DocString)
	case 11, 12, 13:
		info := &ValueInfoProto{}
		n, err := consumeMessage(typ, b, "ValueInfoProto", info.decodeField)
		if n > 0 {
			switch num {
			case 11:
				m.Input = append(m.Input, info)
			case 12:
				m.Output = append(m.Output, info)
			default:
				m.ValueInfo = append(m.ValueInfo, info)
			}
		}
		return n, err
	case 15:
		sparse := &SparseTensorProto{}
		n, err := consumeMessage(typ, b, "SparseTensorProto", sparse.decodeField)
		if n > 0 {
			m.SparseInitializer = append(m.SparseInitializer, sparse)
		}
		return n, err
	case 16:
		return appendEntry(typ, b, &m.MetadataProps)
	}
	return -1, nil
}

func (m *NodeProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return appendString(typ, b, &m.Input)
	case 2:
		return appendString(typ, b, &m.Output)
	case 3:
		return consumeString(typ, b, &m.Name)
	case 4:
		return consumeString(typ, b, &m.OpType)
	case 5:
		attr := &AttributeProto{}
		n, err := consumeMessage(typ, b, "AttributeProto", attr.decodeField)
		if n > 0 {
			m.Attribute = append(m.Attribute, attr)
		}
		return n, err
	case 6:
		return consumeString(typ, b, &m.DocString)
	case 7:
		return consumeString(typ, b, &m.Domain)
	case 8:
		return consumeString(typ, b, &m.Overload)
	case 9:
		return appendEntry(typ, b, &m.MetadataProps)
	}
	return -1, nil
}

func (m *AttributeProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Name)
	case 2:
		if typ != protowire.Fixed32Type {
			return -1, nil
		}
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		f := math.Float32frombits(v)
		m.F = &f
		return n, nil
	case 3:
		return consumeInt64(typ, b, &m.I)
	case 4:
		return consumeBytes(typ, b, &m.S)
	case 5:
		if m.T == nil {
			m.T = &TensorProto{}
		}
		return consumeMessage(typ, b, "TensorProto", m.T.decodeField)
	case 6:
		if m.G == nil {
			m.G = &GraphProto{}
		}
		return consumeMessage(typ, b, "GraphProto", m.G.decodeField)
	case 7:
		return appendFloat32s(typ, b, &m.Floats)
	case 8:
		return appendInt64s(typ, b, &m.Ints)
	case 9:
		if typ != protowire.BytesType {
			return -1, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		m.Strings = append(m.Strings, append([]byte{}, v...))
		return n, nil
	case 10:
		tensor := &TensorProto{}
		n, err := consumeMessage(typ, b, "TensorProto", tensor.decodeField)
		if n > 0 {
			m.Tensors = append(m.Tensors, tensor)
		}
		return n, err
	case 11:
		graph := &GraphProto{}
		n, err := consumeMessage(typ, b, "GraphProto", graph.decodeField)
		if n > 0 {
			m.Graphs = append(m.Graphs, graph)
		}
		return n, err
	case 13:
		return consumeString(typ, b, &m.DocString)
	case 14:
		if m.Tp == nil {
			m.Tp = &TypeProto{}
		}
		return consumeMessage(typ, b, "TypeProto", m.Tp.decodeField)
	case 15:
		tp := &TypeProto{}
		n, err := consumeMessage(typ, b, "TypeProto", tp.decodeField)
		if n > 0 {
			m.TypeProtos = append(m.TypeProtos, tp)
		}
		return n, err
	case 20:
		var v *int32
		n, err := consumeInt32(typ, b, &v)
		if v != nil {
			t := AttributeProto_AttributeType(*v)
			m.Type = &t
		}
		return n, err
	case 21:
		return consumeString(typ, b, &m.RefAttrName)
	case 22:
		if m.SparseTensor == nil {
			m.SparseTensor = &SparseTensorProto{}
		}
		return consumeMessage(typ, b, "SparseTensorProto", m.SparseTensor.decodeField)
	case 23:
		sparse := &SparseTensorProto{}
		n, err := consumeMessage(typ, b, "SparseTensorProto", sparse.decodeField)
		if n > 0 {
			m.SparseTensors = append(m.SparseTensors, sparse)
		}
		return n, err
	}
	return -1, nil
}

func (m *SparseTensorProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		if m.Values == nil {
			m.Values = &TensorProto{}
		}
		return consumeMessage(typ, b, "TensorProto", m.Values.decodeField)
	case 2:
		if m.Indices == nil {
			m.Indices = &TensorProto{}
		}
		return consumeMessage(typ, b, "TensorProto", m.Indices.decodeField)
	case 3:
		return appendInt64s(typ, b, &m.Dims)
	}
	return -1, nil
}

func (m *FunctionProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Name)
	case 4:
		return appendString(typ, b, &m.Input)
	case 5:
		return appendString(typ, b, &m.Output)
	case 6:
		return appendString(typ, b, &m.Attribute)
	case 7:
		node := &NodeProto{}
		n, err := consumeMessage(typ, b, "NodeProto", node.decodeField)
		if n > 0 {
			m.Node = append(m.Node, node)
		}
		return n, err
	case 8:
		return consumeString(typ, b, &m.DocString)
	case 9:
		opset := &OperatorSetIdProto{}
		n, err := consumeMessage(typ, b, "OperatorSetIdProto", opset.decodeField)
		if n > 0 {
			m.OpsetImport = append(m.OpsetImport, opset)
		}
		return n, err
	case 10:
		return consumeString(typ, b, &m.Domain)
	case 11:
		attr := &AttributeProto{}
		n, err := consumeMessage(typ, b, "AttributeProto", attr.decodeField)
		if n > 0 {
			m.AttributeProto = append(m.AttributeProto, attr)
		}
		return n, err
	case 12:
		info := &ValueInfoProto{}
		n, err := consumeMessage(typ, b, "ValueInfoProto", info.decodeField)
		if n > 0 {
			m.ValueInfo = append(m.ValueInfo, info)
		}
		return n, err
	case 13:
		return consumeString(typ, b, &m.Overload)
	case 14:
		return appendEntry(typ, b, &m.MetadataProps)
	}
	return -1, nil
}

func (m *TrainingInfoProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		if m.Initialization == nil {
			m.Initialization = &GraphProto{}
		}
		return consumeMessage(typ, b, "GraphProto", m.Initialization.decodeField)
	case 2:
		if m.Algorithm == nil {
			m.Algorithm = &GraphProto{}
		}
		return consumeMessage(typ, b, "GraphProto", m.Algorithm.decodeField)
	case 3:
		return appendEntry(typ, b, &m.InitializationBinding)
	case 4:
		return appendEntry(typ, b, &m.UpdateBinding)
	}
	return -1, nil
}

func (m *ValueInfoProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeString(typ, b, &m.Name)
	case 2:
		if m.Type == nil {
			m.Type = &TypeProto{}
		}
		return consumeMessage(typ, b, "TypeProto", m.Type.decodeField)
	case 3:
		return consumeString(typ, b, &m.DocString)
	}
	return -1, nil
}

func (m *TensorProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return appendInt64s(typ, b, &m.Dims)
	case 2:
		return consumeInt32(typ, b, &m.DataType)
	case 4:
		return appendFloat32s(typ, b, &m.FloatData)
	case 5:
		return appendInt32s(typ, b, &m.Int32Data)
	case 6:
		if typ != protowire.BytesType {
			return -1, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		m.StringData = append(m.StringData, append([]byte{}, v...))
		return n, nil
	case 7:
		return appendInt64s(typ, b, &m.Int64Data)
	case 8:
		return consumeString(typ, b, &m.Name)
	case 9:
		return consumeBytes(typ, b, &m.RawData)
	case 10:
		return appendFloat64s(typ, b, &m.DoubleData)
	case 11:
		return appendUint64s(typ, b, &m.Uint64Data)
	case 12:
		return consumeString(typ, b, &m.DocString)
	case 13:
		entry := &StringStringEntryProto{}
		n, err := consumeMessage(typ, b, "StringStringEntryProto", entry.decodeField)
		if n > 0 {
			m.ExternalData = append(m.ExternalData, entry)
		}
		return n, err
	case 14:
		var v *int32
		n, err := consumeInt32(typ, b, &v)
		if v != nil {
			loc := TensorProto_DataLocation(*v)
			m.DataLocation = &loc
		}
		return n, err
	}
	return -1, nil
}

func (m *TypeProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		v, ok := m.Value.(*TypeProto_TensorType)
		if !ok {
			v = &TypeProto_TensorType{TensorType: &TypeProto_Tensor{}}
		}
		n, err := consumeMessage(typ, b, "TypeProto.Tensor", v.TensorType.decodeField)
		if n > 0 {
			m.Value = v
		}
		return n, err
	case 4:
		v, ok := m.Value.(*TypeProto_SequenceType)
		if !ok {
			v = &TypeProto_SequenceType{SequenceType: &TypeProto_Sequence{}}
		}
		n, err := consumeMessage(typ, b, "TypeProto.Sequence", v.SequenceType.decodeField)
		if n > 0 {
			m.Value = v
		}
		return n, err
	case 5:
		v, ok := m.Value.(*TypeProto_MapType)
		if !ok {
			v = &TypeProto_MapType{MapType: &TypeProto_Map{}}
		}
		n, err := consumeMessage(typ, b, "TypeProto.Map", v.MapType.decodeField)
		if n > 0 {
			m.Value = v
		}
		return n, err
	case 6:
		return consumeString(typ, b, &m.Denotation)
	case 8:
		v, ok := m.Value.(*TypeProto_SparseTensorType)
		if !ok {
			v = &TypeProto_SparseTensorType{SparseTensorType: &TypeProto_SparseTensor{}}
		}
		n, err := consumeMessage(typ, b, "TypeProto.SparseTensor", v.SparseTensorType.decodeField)
		if n > 0 {
			m.Value = v
		}
		return n, err
	case 9:
		v, ok := m.Value.(*TypeProto_OptionalType)
		if !ok {
			v = &TypeProto_OptionalType{OptionalType: &TypeProto_Optional{}}
		}
		n, err := consumeMessage(typ, b, "TypeProto.Optional", v.OptionalType.decodeField)
		if n > 0 {
			m.Value = v
		}
		return n, err
	}
	return -1, nil
}

func (m *TypeProto_Tensor) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeInt32(typ, b, &m.ElemType)
	case 2:
		if m.Shape == nil {
			m.Shape = &TensorShapeProto{}
		}
		return consumeMessage(typ, b, "TensorShapeProto", m.Shape.decodeField)
	}
	return -1, nil
}

func (m *TypeProto_SparseTensor) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeInt32(typ, b, &m.ElemType)
	case 2:
		if m.Shape == nil {
			m.Shape = &TensorShapeProto{}
		}
		return consumeMessage(typ, b, "TensorShapeProto", m.Shape.decodeField)
	}
	return -1, nil
}

func (m *TypeProto_Sequence) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num != 1 {
		return -1, nil
	}
	if m.ElemType == nil {
		m.ElemType = &TypeProto{}
	}
	return consumeMessage(typ, b, "TypeProto", m.ElemType.decodeField)
}

func (m *TypeProto_Optional) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num != 1 {
		return -1, nil
	}
	if m.ElemType == nil {
		m.ElemType = &TypeProto{}
	}
	return consumeMessage(typ, b, "TypeProto", m.ElemType.decodeField)
}

func (m *TypeProto_Map) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return consumeInt32(typ, b, &m.KeyType)
	case 2:
		if m.ValueType == nil {
			m.ValueType = &TypeProto{}
		}
		return consumeMessage(typ, b, "TypeProto", m.ValueType.decodeField)
	}
	return -1, nil
}

func (m *TensorShapeProto) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num != 1 {
		return -1, nil
	}
	dim := &TensorShapeProto_Dimension{}
	n, err := consumeMessage(typ, b, "TensorShapeProto.Dimension", dim.decodeField)
	if n > 0 {
		m.Dim = append(m.Dim, dim)
	}
	return n, err
}

func (m *TensorShapeProto_Dimension) decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		var v *int64
		n, err := consumeInt64(typ, b, &v)
		if v != nil {
			m.Value = &TensorShapeProto_Dimension_DimValue{DimValue: *v}
		}
		return n, err
	case 2:
		var v *string
		n, err := consumeString(typ, b, &v)
		if v != nil {
			m.Value = &TensorShapeProto_Dimension_DimParam{DimParam: *v}
		}
		return n, err
	case 3:
		return consumeString(typ, b, &m.Denotation)
	}
	return -1, nil
}

// Scalar and repeated field helpers. Each returns -1 when the wire type
// does not match, so the caller skips the field.

func consumeMessage(typ protowire.Type, b []byte, name string, decode fieldDecoder) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, errors.Wrapf(protowire.ParseError(n), "%s", name)
	}
	if err := decodeMessage(v, name, decode); err != nil {
		return 0, err
	}
	return n, nil
}

func appendEntry(typ protowire.Type, b []byte, dst *[]*StringStringEntryProto) (int, error) {
	entry := &StringStringEntryProto{}
	n, err := consumeMessage(typ, b, "StringStringEntryProto", entry.decodeField)
	if n > 0 {
		*dst = append(*dst, entry)
	}
	return n, err
}

func consumeString(typ protowire.Type, b []byte, dst **string) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	s := string(v)
	*dst = &s
	return n, nil
}

func appendString(typ protowire.Type, b []byte, dst *[]string) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = append(*dst, string(v))
	return n, nil
}

// consumeBytes copies the payload so the model does not alias the input buffer.
func consumeBytes(typ protowire.Type, b []byte, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = append([]byte{}, v...)
	return n, nil
}

func consumeInt64(typ protowire.Type, b []byte, dst **int64) (int, error) {
	if typ != protowire.VarintType {
		return -1, nil
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	x := int64(v)
	*dst = &x
	return n, nil
}

func consumeInt32(typ protowire.Type, b []byte, dst **int32) (int, error) {
	if typ != protowire.VarintType {
		return -1, nil
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	x := int32(v)
	*dst = &x
	return n, nil
}

// appendVarints handles both the unpacked (one varint) and the packed
// (length-delimited run of varints) encodings of a repeated varint field.
func appendVarints(typ protowire.Type, b []byte, add func(uint64)) (int, error) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		add(v)
		return n, nil
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return 0, protowire.ParseError(m)
			}
			add(v)
			packed = packed[m:]
		}
		return n, nil
	}
	return -1, nil
}

func appendInt64s(typ protowire.Type, b []byte, dst *[]int64) (int, error) {
	return appendVarints(typ, b, func(v uint64) { *dst = append(*dst, int64(v)) })
}

func appendInt32s(typ protowire.Type, b []byte, dst *[]int32) (int, error) {
	return appendVarints(typ, b, func(v uint64) { *dst = append(*dst, int32(v)) })
}

func appendUint64s(typ protowire.Type, b []byte, dst *[]uint64) (int, error) {
	return appendVarints(typ, b, func(v uint64) { *dst = append(*dst, v) })
}

func appendFloat32s(typ protowire.Type, b []byte, dst *[]float32) (int, error) {
	switch typ {
	case protowire.Fixed32Type:
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = append(*dst, math.Float32frombits(v))
		return n, nil
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		if len(packed)%4 != 0 {
			return 0, errors.Errorf("packed float field has %d bytes, not a multiple of 4", len(packed))
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed32(packed)
			*dst = append(*dst, math.Float32frombits(v))
			packed = packed[m:]
		}
		return n, nil
	}
	return -1, nil
}

func appendFloat64s(typ protowire.Type, b []byte, dst *[]float64) (int, error) {
	switch typ {
	case protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = append(*dst, math.Float64frombits(v))
		return n, nil
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		if len(packed)%8 != 0 {
			return 0, errors.Errorf("packed double field has %d bytes, not a multiple of 8", len(packed))
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed64(packed)
			*dst = append(*dst, math.Float64frombits(v))
			packed = packed[m:]
		}
		return n, nil
	}
	return -1, nil
}
