package onnx

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal returns the protobuf wire encoding of m. Fields are written in
// field-number order and only when set, so decoding the result with
// Unmarshal yields an equal model.
func Marshal(m *ModelProto) []byte {
	return m.appendTo(nil)
}

func (m *ModelProto) appendTo(b []byte) []byte {
	if m == nil {
		return b
	}
	b = appendInt64Field(b, 1, m.IrVersion)
	b = appendStringField(b, 2, m.ProducerName)
	b = appendStringField(b, 3, m.ProducerVersion)
	b = appendStringField(b, 4, m.Domain)
	b = appendInt64Field(b, 5, m.ModelVersion)
	b = appendStringField(b, 6, m.DocString)
	if m.Graph != nil {
		b = appendMessageField(b, 7, m.Graph.appendTo(nil))
	}
	for _, opset := range m.OpsetImport {
		b = appendMessageField(b, 8, opset.appendTo(nil))
	}
	for _, entry := range m.MetadataProps {
		b = appendMessageField(b, 14, entry.appendTo(nil))
	}
	for _, info := range m.TrainingInfo {
		b = appendMessageField(b, 20, info.appendTo(nil))
	}
	for _, fn := range m.Functions {
		b = appendMessageField(b, 25, fn.appendTo(nil))
	}
	return b
}

func (m *OperatorSetIdProto) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Domain)
	return appendInt64Field(b, 2, m.Version)
}

func (m *StringStringEntryProto) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Key)
	return appendStringField(b, 2, m.Value)
}

func (m *GraphProto) appendTo(b []byte) []byte {
	for _, node := range m.Node {
		b = appendMessageField(b, 1, node.appendTo(nil))
	}
	b = appendStringField(b, 2, m.Name)
	for _, tensor := range m.Initializer {
		b = appendMessageField(b, 5, tensor.appendTo(nil))
	}
	b = appendStringField(b, 10, m.DocString)
	for _, info := range m.Input {
		b = appendMessageField(b, 11, info.appendTo(nil))
	}
	for _, info := range m.Output {
		b = appendMessageField(b, 12, info.appendTo(nil))
	}
	for _, info := range m.ValueInfo {
		b = appendMessageField(b, 13, info.appendTo(nil))
	}
	for _, sparse := range m.SparseInitializer {
		b = appendMessageField(b, 15, sparse.appendTo(nil))
	}
	return appendEntries(b, 16, m.MetadataProps)
}

func (m *NodeProto) appendTo(b []byte) []byte {
	b = appendStrings(b, 1, m.Input)
	b = appendStrings(b, 2, m.Output)
	b = appendStringField(b, 3, m.Name)
	b = appendStringField(b, 4, m.OpType)
	for _, attr := range m.Attribute {
		b = appendMessageField(b, 5, attr.appendTo(nil))
	}
	b = appendStringField(b, 6, m.DocString)
	b = appendStringField(b, 7, m.Domain)
	b = appendStringField(b, 8, m.Overload)
	return appendEntries(b, 9, m.MetadataProps)
}

func (m *AttributeProto) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Name)
	if m.F != nil {
		b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(*m.F))
	}
	b = appendInt64Field(b, 3, m.I)
	if m.S != nil {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, m.S)
	}
	if m.T != nil {
		b = appendMessageField(b, 5, m.T.appendTo(nil))
	}
	if m.G != nil {
		b = appendMessageField(b, 6, m.G.appendTo(nil))
	}
	for _, f := range m.Floats {
		b = protowire.AppendTag(b, 7, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(f))
	}
	for _, i := range m.Ints {
		b = protowire.AppendTag(b, 8, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(i))
	}
	for _, s := range m.Strings {
		b = protowire.AppendTag(b, 9, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}
	for _, t := range m.Tensors {
		b = appendMessageField(b, 10, t.appendTo(nil))
	}
	for _, g := range m.Graphs {
		b = appendMessageField(b, 11, g.appendTo(nil))
	}
	b = appendStringField(b, 13, m.DocString)
	if m.Tp != nil {
		b = appendMessageField(b, 14, m.Tp.appendTo(nil))
	}
	for _, tp := range m.TypeProtos {
		b = appendMessageField(b, 15, tp.appendTo(nil))
	}
	if m.Type != nil {
		b = protowire.AppendTag(b, 20, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(*m.Type)))
	}
	b = appendStringField(b, 21, m.RefAttrName)
	if m.SparseTensor != nil {
		b = appendMessageField(b, 22, m.SparseTensor.appendTo(nil))
	}
	for _, sparse := range m.SparseTensors {
		b = appendMessageField(b, 23, sparse.appendTo(nil))
	}
	return b
}

func (m *SparseTensorProto) appendTo(b []byte) []byte {
	if m.Values != nil {
		b = appendMessageField(b, 1, m.Values.appendTo(nil))
	}
	if m.Indices != nil {
		b = appendMessageField(b, 2, m.Indices.appendTo(nil))
	}
	for _, d := range m.Dims {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d))
	}
	return b
}

func (m *FunctionProto) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Name)
	b = appendStrings(b, 4, m.Input)
	b = appendStrings(b, 5, m.Output)
	b = appendStrings(b, 6, m.Attribute)
	for _, node := range m.Node {
		b = appendMessageField(b, 7, node.appendTo(nil))
	}
	b = appendStringField(b, 8, m.DocString)
	for _, opset := range m.OpsetImport {
		b = appendMessageField(b, 9, opset.appendTo(nil))
	}
	b = appendStringField(b, 10, m.Domain)
	for _, attr := range m.AttributeProto {
		b = appendMessageField(b, 11, attr.appendTo(nil))
	}
	for _, info := range m.ValueInfo {
		b = appendMessageField(b, 12, info.appendTo(nil))
	}
	b = appendStringField(b, 13, m.Overload)
	return appendEntries(b, 14, m.MetadataProps)
}

func (m *TrainingInfoProto) appendTo(b []byte) []byte {
	if m.Initialization != nil {
		b = appendMessageField(b, 1, m.Initialization.appendTo(nil))
	}
	if m.Algorithm != nil {
		b = appendMessageField(b, 2, m.Algorithm.appendTo(nil))
	}
	b = appendEntries(b, 3, m.InitializationBinding)
	return appendEntries(b, 4, m.UpdateBinding)
}

func (m *ValueInfoProto) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, m.Name)
	if m.Type != nil {
		b = appendMessageField(b, 2, m.Type.appendTo(nil))
	}
	return appendStringField(b, 3, m.DocString)
}

func (m *TensorProto) appendTo(b []byte) []byte {
	for _, d := range m.Dims {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d))
	}
	if m.DataType != nil {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(*m.DataType)))
	}
	if len(m.FloatData) > 0 {
		var packed []byte
		for _, f := range m.FloatData {
			packed = protowire.AppendFixed32(packed, math.Float32bits(f))
		}
		b = appendMessageField(b, 4, packed)
	}
	if len(m.Int32Data) > 0 {
		var packed []byte
		for _, v := range m.Int32Data {
			packed = protowire.AppendVarint(packed, uint64(int64(v)))
		}
		b = appendMessageField(b, 5, packed)
	}
	for _, s := range m.StringData {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}
	if len(m.Int64Data) > 0 {
		var packed []byte
		for _, v := range m.Int64Data {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
		b = appendMessageField(b, 7, packed)
	}
	b = appendStringField(b, 8, m.Name)
	if m.RawData != nil {
		b = protowire.AppendTag(b, 9, protowire.BytesType)
		b = protowire.AppendBytes(b, m.RawData)
	}
	if len(m.DoubleData) > 0 {
		var packed []byte
		for _, v := range m.DoubleData {
			packed = protowire.AppendFixed64(packed, math.Float64bits(v))
		}
		b = appendMessageField(b, 10, packed)
	}
	if len(m.Uint64Data) > 0 {
		var packed []byte
		for _, v := range m.Uint64Data {
			packed = protowire.AppendVarint(packed, v)
		}
		b = appendMessageField(b, 11, packed)
	}
	b = appendStringField(b, 12, m.DocString)
	for _, entry := range m.ExternalData {
		b = appendMessageField(b, 13, entry.appendTo(nil))
	}
	if m.DataLocation != nil {
		b = protowire.AppendTag(b, 14, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(*m.DataLocation)))
	}
	return b
}

func (m *TypeProto) appendTo(b []byte) []byte {
	switch v := m.Value.(type) {
	case *TypeProto_TensorType:
		b = appendMessageField(b, 1, v.TensorType.appendTo(nil))
	case *TypeProto_SequenceType:
		var elem []byte
		if v.SequenceType.GetElemType() != nil {
			elem = appendMessageField(nil, 1, v.SequenceType.ElemType.appendTo(nil))
		}
		b = appendMessageField(b, 4, elem)
	case *TypeProto_MapType:
		var body []byte
		if v.MapType.KeyType != nil {
			body = protowire.AppendTag(body, 1, protowire.VarintType)
			body = protowire.AppendVarint(body, uint64(int64(*v.MapType.KeyType)))
		}
		if v.MapType.ValueType != nil {
			body = appendMessageField(body, 2, v.MapType.ValueType.appendTo(nil))
		}
		b = appendMessageField(b, 5, body)
	case *TypeProto_SparseTensorType:
		sparse := &TypeProto_Tensor{ElemType: v.SparseTensorType.ElemType, Shape: v.SparseTensorType.Shape}
		b = appendMessageField(b, 8, sparse.appendTo(nil))
	case *TypeProto_OptionalType:
		var elem []byte
		if v.OptionalType.GetElemType() != nil {
			elem = appendMessageField(nil, 1, v.OptionalType.ElemType.appendTo(nil))
		}
		b = appendMessageField(b, 9, elem)
	}
	return appendStringField(b, 6, m.Denotation)
}

func (m *TypeProto_Tensor) appendTo(b []byte) []byte {
	if m == nil {
		return b
	}
	if m.ElemType != nil {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(*m.ElemType)))
	}
	if m.Shape != nil {
		var shape []byte
		for _, dim := range m.Shape.Dim {
			shape = appendMessageField(shape, 1, dim.appendTo(nil))
		}
		b = appendMessageField(b, 2, shape)
	}
	return b
}

func (m *TensorShapeProto_Dimension) appendTo(b []byte) []byte {
	switch v := m.Value.(type) {
	case *TensorShapeProto_Dimension_DimValue:
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v.DimValue))
	case *TensorShapeProto_Dimension_DimParam:
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, v.DimParam)
	}
	return appendStringField(b, 3, m.Denotation)
}

func appendMessageField(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func appendStrings(b []byte, num protowire.Number, values []string) []byte {
	for _, s := range values {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func appendEntries(b []byte, num protowire.Number, entries []*StringStringEntryProto) []byte {
	for _, entry := range entries {
		b = appendMessageField(b, num, entry.appendTo(nil))
	}
	return b
}

func appendStringField(b []byte, num protowire.Number, s *string) []byte {
	if s == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, *s)
}

func appendInt64Field(b []byte, num protowire.Number, v *int64) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(*v))
}
