package onnx_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/internal/onnxtest"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

func roundTrip(t *testing.T, m *onnx.ModelProto) *onnx.ModelProto {
	t.Helper()
	var got onnx.ModelProto
	require.NoError(t, onnx.Unmarshal(onnx.Marshal(m), &got))
	return &got
}

func TestRoundTrip(t *testing.T) {
	for name, m := range map[string]*onnx.ModelProto{
		"add":     onnxtest.AddModel(),
		"convnet": onnxtest.ConvNet(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, m, roundTrip(t, m))
		})
	}
}

func TestRoundTripAllFields(t *testing.T) {
	seq := &onnx.TypeProto{Value: &onnx.TypeProto_SequenceType{SequenceType: &onnx.TypeProto_Sequence{
		ElemType: onnxtest.TensorType(onnx.TensorProto_FLOAT, onnxtest.Dim(2)),
	}}}
	body := &onnx.GraphProto{
		Name:   proto.String("body"),
		Node:   []*onnx.NodeProto{onnxtest.Node("id", "Identity", []string{"x"}, []string{"y"})},
		Output: []*onnx.ValueInfoProto{onnxtest.ValueInfo("y", onnx.TensorProto_FLOAT, 2)},
	}
	custom := onnxtest.Node("c", "Custom", []string{"x"}, []string{"z"},
		onnxtest.AttrFloat("alpha", 0.5),
		onnxtest.AttrString("mode", "linear"),
		onnxtest.AttrInts("axes", -1, 0, 7),
		onnxtest.AttrGraph("body", body),
		&onnx.AttributeProto{Name: proto.String("scales"), Floats: []float32{1.5, -2}},
		&onnx.AttributeProto{Name: proto.String("names"), Strings: [][]byte{[]byte("a"), []byte("b")}},
		&onnx.AttributeProto{Name: proto.String("ts"), Tensors: []*onnx.TensorProto{onnxtest.Int64Tensor("t", []int64{1}, []int64{4})}},
		&onnx.AttributeProto{Name: proto.String("tp"), Tp: seq},
		&onnx.AttributeProto{Name: proto.String("ref"), RefAttrName: proto.String("outer")},
	)
	custom.Domain = proto.String("com.example")
	custom.DocString = proto.String("custom op")

	m := onnxtest.Model(&onnx.GraphProto{
		Name:      proto.String("all"),
		DocString: proto.String("every field"),
		Node:      []*onnx.NodeProto{custom},
		Initializer: []*onnx.TensorProto{
			{Name: proto.String("i32"), DataType: proto.Int32(int32(onnx.TensorProto_INT32)), Dims: []int64{3}, Int32Data: []int32{-1, 0, 1}},
			{Name: proto.String("f64"), DataType: proto.Int32(int32(onnx.TensorProto_DOUBLE)), Dims: []int64{2}, DoubleData: []float64{math.Pi, -0.25}},
			{Name: proto.String("u64"), DataType: proto.Int32(int32(onnx.TensorProto_UINT64)), Dims: []int64{1}, Uint64Data: []uint64{math.MaxUint64}},
			{Name: proto.String("f32"), DataType: proto.Int32(int32(onnx.TensorProto_FLOAT)), Dims: []int64{2}, FloatData: []float32{1, 2}},
			{Name: proto.String("str"), DataType: proto.Int32(int32(onnx.TensorProto_STRING)), Dims: []int64{2}, StringData: [][]byte{[]byte("x"), []byte("yz")}},
			{
				Name:         proto.String("ext"),
				DataType:     proto.Int32(int32(onnx.TensorProto_FLOAT)),
				Dims:         []int64{4},
				DataLocation: onnx.TensorProto_EXTERNAL.Enum(),
				ExternalData: []*onnx.StringStringEntryProto{{Key: proto.String("location"), Value: proto.String("w.bin")}},
			},
		},
		Input:     []*onnx.ValueInfoProto{{Name: proto.String("x"), Type: seq, DocString: proto.String("input")}},
		Output:    []*onnx.ValueInfoProto{onnxtest.ValueInfo("z", onnx.TensorProto_FLOAT, 2)},
		ValueInfo: []*onnx.ValueInfoProto{{Name: proto.String("v"), Type: onnxtest.TensorType(onnx.TensorProto_INT8, onnxtest.Param("n"))}},
	}, 18)
	m.Domain = proto.String("ai.example")
	m.ModelVersion = proto.Int64(3)
	m.DocString = proto.String("model doc")
	m.OpsetImport = append(m.OpsetImport, &onnx.OperatorSetIdProto{Domain: proto.String("com.example"), Version: proto.Int64(1)})
	m.MetadataProps = []*onnx.StringStringEntryProto{{Key: proto.String("author"), Value: proto.String("test")}}

	assert.Equal(t, m, roundTrip(t, m))
}

func TestRoundTripSparseFunctionsAndTraining(t *testing.T) {
	sparse := onnxtest.SparseTensor("mask", []int64{2, 3}, []int64{1, 5}, []float32{1, -1})
	constant := onnxtest.Node("const", "Constant", nil, []string{"c"},
		onnxtest.AttrSparseTensor("sparse_value", onnxtest.SparseTensor("cv", []int64{4}, []int64{0}, []float32{2})))
	constant.Overload = proto.String("v2")
	constant.MetadataProps = []*onnx.StringStringEntryProto{{Key: proto.String("origin"), Value: proto.String("export")}}
	multi := onnxtest.Node("multi", "Custom", []string{"c"}, []string{"d"})
	multi.Attribute = []*onnx.AttributeProto{{Name: proto.String("masks"), SparseTensors: []*onnx.SparseTensorProto{sparse, sparse}}}

	g := &onnx.GraphProto{
		Name:              proto.String("sparse"),
		Node:              []*onnx.NodeProto{constant, multi},
		SparseInitializer: []*onnx.SparseTensorProto{sparse},
		Output:            []*onnx.ValueInfoProto{onnxtest.ValueInfo("d", onnx.TensorProto_FLOAT, 4)},
		MetadataProps:     []*onnx.StringStringEntryProto{{Key: proto.String("k"), Value: proto.String("v")}},
	}
	m := onnxtest.Model(g, 18)
	m.Functions = []*onnx.FunctionProto{{
		Name:           proto.String("Custom"),
		Domain:         proto.String("com.example"),
		Overload:       proto.String("o"),
		Input:          []string{"a"},
		Output:         []string{"b"},
		Attribute:      []string{"scale"},
		AttributeProto: []*onnx.AttributeProto{onnxtest.AttrFloat("bias", 1)},
		Node:           []*onnx.NodeProto{onnxtest.Node("n", "Identity", []string{"a"}, []string{"b"})},
		DocString:      proto.String("identity"),
		OpsetImport:    []*onnx.OperatorSetIdProto{{Domain: proto.String(""), Version: proto.Int64(18)}},
		ValueInfo:      []*onnx.ValueInfoProto{onnxtest.ValueInfo("a", onnx.TensorProto_FLOAT, 4)},
		MetadataProps:  []*onnx.StringStringEntryProto{{Key: proto.String("f"), Value: proto.String("1")}},
	}}
	m.TrainingInfo = []*onnx.TrainingInfoProto{{
		Initialization:        &onnx.GraphProto{Name: proto.String("init")},
		Algorithm:             &onnx.GraphProto{Name: proto.String("step")},
		InitializationBinding: []*onnx.StringStringEntryProto{{Key: proto.String("w"), Value: proto.String("w0")}},
		UpdateBinding:         []*onnx.StringStringEntryProto{{Key: proto.String("w"), Value: proto.String("w1")}},
	}}

	assert.Equal(t, m, roundTrip(t, m))
}

func TestUnmarshalSparseInitializerField(t *testing.T) {
	var values []byte
	values = protowire.AppendTag(values, 1, protowire.VarintType)
	values = protowire.AppendVarint(values, 1)
	values = protowire.AppendTag(values, 2, protowire.VarintType)
	values = protowire.AppendVarint(values, uint64(onnx.TensorProto_FLOAT))
	values = protowire.AppendTag(values, 8, protowire.BytesType)
	values = protowire.AppendString(values, "w")
	var sparse []byte
	sparse = protowire.AppendTag(sparse, 1, protowire.BytesType)
	sparse = protowire.AppendBytes(sparse, values)
	sparse = protowire.AppendTag(sparse, 3, protowire.BytesType)
	sparse = protowire.AppendBytes(sparse, protowire.AppendVarint(protowire.AppendVarint(nil, 2), 2))
	var graph []byte
	graph = protowire.AppendTag(graph, 15, protowire.BytesType)
	graph = protowire.AppendBytes(graph, sparse)
	var model []byte
	model = protowire.AppendTag(model, 7, protowire.BytesType)
	model = protowire.AppendBytes(model, graph)

	var m onnx.ModelProto
	require.NoError(t, onnx.Unmarshal(model, &m))
	require.Len(t, m.GetGraph().GetSparseInitializer(), 1)
	got := m.GetGraph().GetSparseInitializer()[0]
	assert.Equal(t, "w", got.GetValues().GetName())
	assert.Equal(t, []int64{2, 2}, got.GetDims())
	assert.Nil(t, got.GetIndices())
}

func TestUnmarshalPackedAndUnpacked(t *testing.T) {
	var tensor []byte
	// dims unpacked, float_data packed.
	tensor = protowire.AppendTag(tensor, 1, protowire.VarintType)
	tensor = protowire.AppendVarint(tensor, 2)
	tensor = protowire.AppendTag(tensor, 1, protowire.VarintType)
	tensor = protowire.AppendVarint(tensor, 1)
	tensor = protowire.AppendTag(tensor, 2, protowire.VarintType)
	tensor = protowire.AppendVarint(tensor, uint64(onnx.TensorProto_FLOAT))
	var packed []byte
	packed = protowire.AppendFixed32(packed, math.Float32bits(1.5))
	packed = protowire.AppendFixed32(packed, math.Float32bits(-3))
	tensor = protowire.AppendTag(tensor, 4, protowire.BytesType)
	tensor = protowire.AppendBytes(tensor, packed)
	// int64_data unpacked.
	tensor = protowire.AppendTag(tensor, 7, protowire.VarintType)
	neg := int64(-5)
	tensor = protowire.AppendVarint(tensor, uint64(neg))

	var graph []byte
	graph = protowire.AppendTag(graph, 5, protowire.BytesType)
	graph = protowire.AppendBytes(graph, tensor)
	var model []byte
	model = protowire.AppendTag(model, 7, protowire.BytesType)
	model = protowire.AppendBytes(model, graph)

	var m onnx.ModelProto
	require.NoError(t, onnx.Unmarshal(model, &m))
	require.Len(t, m.GetGraph().GetInitializer(), 1)
	got := m.GetGraph().GetInitializer()[0]
	assert.Equal(t, []int64{2, 1}, got.GetDims())
	assert.Equal(t, []float32{1.5, -3}, got.GetFloatData())
	assert.Equal(t, []int64{-5}, got.GetInt64Data())
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	b := onnx.Marshal(onnxtest.AddModel())
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)
	b = protowire.AppendTag(b, 100, protowire.BytesType)
	b = protowire.AppendString(b, "future field")
	// ir_version sent with the wrong wire type.
	b = protowire.AppendTag(b, 1, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 7)

	var m onnx.ModelProto
	require.NoError(t, onnx.Unmarshal(b, &m))
	assert.Equal(t, onnxtest.AddModel(), &m)
}

func TestUnmarshalErrors(t *testing.T) {
	full := onnx.Marshal(onnxtest.ConvNet())

	var m onnx.ModelProto
	err := onnx.Unmarshal(full[:len(full)-3], &m)
	require.Error(t, err)
	assert.Nil(t, m.GetGraph(), "model is reset on error")

	var badFloats []byte
	badFloats = protowire.AppendTag(badFloats, 4, protowire.BytesType)
	badFloats = protowire.AppendBytes(badFloats, []byte{1, 2, 3})
	var graph []byte
	graph = protowire.AppendTag(graph, 5, protowire.BytesType)
	graph = protowire.AppendBytes(graph, badFloats)
	var model []byte
	model = protowire.AppendTag(model, 7, protowire.BytesType)
	model = protowire.AppendBytes(model, graph)
	err = onnx.Unmarshal(model, &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple of 4")

	err = onnx.Unmarshal([]byte("not an onnx model"), &m)
	assert.Error(t, err)
}

func TestUnmarshalEmpty(t *testing.T) {
	var m onnx.ModelProto
	require.NoError(t, onnx.Unmarshal(nil, &m))
	assert.Equal(t, onnx.ModelProto{}, m)
}
