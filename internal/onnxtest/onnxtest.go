// Package onnxtest builds small ONNX models for tests.
package onnxtest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/zerfoo/zverify/internal/onnx"
	"google.golang.org/protobuf/proto"
)

// Dim is a fixed dimension.
func Dim(v int64) *onnx.TensorShapeProto_Dimension {
	return &onnx.TensorShapeProto_Dimension{Value: &onnx.TensorShapeProto_Dimension_DimValue{DimValue: v}}
}

// Param is a symbolic dimension.
func Param(name string) *onnx.TensorShapeProto_Dimension {
	return &onnx.TensorShapeProto_Dimension{Value: &onnx.TensorShapeProto_Dimension_DimParam{DimParam: name}}
}

// TensorType returns a tensor TypeProto with the given element type and dims.
func TensorType(elem onnx.TensorProto_DataType, dims ...*onnx.TensorShapeProto_Dimension) *onnx.TypeProto {
	return &onnx.TypeProto{Value: &onnx.TypeProto_TensorType{TensorType: &onnx.TypeProto_Tensor{
		ElemType: proto.Int32(int32(elem)),
		Shape:    &onnx.TensorShapeProto{Dim: dims},
	}}}
}

// ValueInfo describes a tensor value with static dims.
func ValueInfo(name string, elem onnx.TensorProto_DataType, dims ...int64) *onnx.ValueInfoProto {
	shape := make([]*onnx.TensorShapeProto_Dimension, len(dims))
	for i, d := range dims {
		shape[i] = Dim(d)
	}
	return &onnx.ValueInfoProto{Name: proto.String(name), Type: TensorType(elem, shape...)}
}

// Node builds a default-domain node.
func Node(name, opType string, inputs, outputs []string, attrs ...*onnx.AttributeProto) *onnx.NodeProto {
	return &onnx.NodeProto{
		Name:      proto.String(name),
		OpType:    proto.String(opType),
		Input:     inputs,
		Output:    outputs,
		Attribute: attrs,
	}
}

func attrType(t onnx.AttributeProto_AttributeType) *onnx.AttributeProto_AttributeType {
	return &t
}

// AttrInt builds an INT attribute.
func AttrInt(name string, v int64) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_INT), I: proto.Int64(v)}
}

// AttrFloat builds a FLOAT attribute.
func AttrFloat(name string, v float32) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_FLOAT), F: proto.Float32(v)}
}

// AttrString builds a STRING attribute.
func AttrString(name, v string) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_STRING), S: []byte(v)}
}

// AttrInts builds an INTS attribute.
func AttrInts(name string, v ...int64) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_INTS), Ints: v}
}

// AttrTensor builds a TENSOR attribute.
func AttrTensor(name string, t *onnx.TensorProto) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_TENSOR), T: t}
}

// AttrGraph builds a GRAPH attribute.
func AttrGraph(name string, g *onnx.GraphProto) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_GRAPH), G: g}
}

// FloatTensor builds a FLOAT initializer stored in raw_data.
func FloatTensor(name string, dims []int64, values []float32) *onnx.TensorProto {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return &onnx.TensorProto{
		Name:     proto.String(name),
		DataType: proto.Int32(int32(onnx.TensorProto_FLOAT)),
		Dims:     dims,
		RawData:  raw,
	}
}

// Int64Tensor builds an INT64 initializer stored in int64_data.
func Int64Tensor(name string, dims []int64, values []int64) *onnx.TensorProto {
	return &onnx.TensorProto{
		Name:      proto.String(name),
		DataType:  proto.Int32(int32(onnx.TensorProto_INT64)),
		Dims:      dims,
		Int64Data: values,
	}
}

// SparseTensor builds a FLOAT sparse tensor of shape dims whose non-zero
// values sit at the linearized positions indices. The tensor is named by
// its values, as ONNX requires.
func SparseTensor(name string, dims, indices []int64, values []float32) *onnx.SparseTensorProto {
	return &onnx.SparseTensorProto{
		Values:  FloatTensor(name, []int64{int64(len(values))}, values),
		Indices: Int64Tensor("", []int64{int64(len(indices))}, indices),
		Dims:    dims,
	}
}

// AttrSparseTensor builds a SPARSE_TENSOR attribute.
func AttrSparseTensor(name string, t *onnx.SparseTensorProto) *onnx.AttributeProto {
	return &onnx.AttributeProto{Name: proto.String(name), Type: attrType(onnx.AttributeProto_SPARSE_TENSOR), SparseTensor: t}
}

// Filled returns n copies of v.
func Filled(n int, v float32) []float32 {
	values := make([]float32, n)
	for i := range values {
		values[i] = v
	}
	return values
}

// Model wraps graph in an IR 8 model importing the default opset at opset.
func Model(graph *onnx.GraphProto, opset int64) *onnx.ModelProto {
	return &onnx.ModelProto{
		IrVersion:       proto.Int64(8),
		ProducerName:    proto.String("onnxtest"),
		ProducerVersion: proto.String("1.0"),
		OpsetImport:     []*onnx.OperatorSetIdProto{{Domain: proto.String(""), Version: proto.Int64(opset)}},
		Graph:           graph,
	}
}

// AddModel is Z = X + Y over FLOAT[2x3].
func AddModel() *onnx.ModelProto {
	return Model(&onnx.GraphProto{
		Name: proto.String("add"),
		Node: []*onnx.NodeProto{
			Node("add_0", "Add", []string{"X", "Y"}, []string{"Z"}),
		},
		Input: []*onnx.ValueInfoProto{
			ValueInfo("X", onnx.TensorProto_FLOAT, 2, 3),
			ValueInfo("Y", onnx.TensorProto_FLOAT, 2, 3),
		},
		Output: []*onnx.ValueInfoProto{
			ValueInfo("Z", onnx.TensorProto_FLOAT, 2, 3),
		},
	}, 13)
}

// MLP is Y = Relu(X·W + B) with X FLOAT[1x4], W FLOAT[4x3] and B FLOAT[1x3].
// For X = [1, 2, 3, 4] it yields Y = [4.5, 0, 0].
func MLP() *onnx.ModelProto {
	return Model(&onnx.GraphProto{
		Name: proto.String("mlp"),
		Node: []*onnx.NodeProto{
			Node("matmul_0", "MatMul", []string{"X", "W"}, []string{"XW"}),
			Node("add_0", "Add", []string{"XW", "B"}, []string{"XWB"}),
			Node("relu_0", "Relu", []string{"XWB"}, []string{"Y"}),
		},
		Initializer: []*onnx.TensorProto{
			FloatTensor("W", []int64{4, 3}, []float32{
				1, 0, -1,
				0, 1, -1,
				1, 1, -1,
				0, 0, -1,
			}),
			FloatTensor("B", []int64{1, 3}, []float32{0.5, -6, 1}),
		},
		Input: []*onnx.ValueInfoProto{
			ValueInfo("X", onnx.TensorProto_FLOAT, 1, 4),
		},
		Output: []*onnx.ValueInfoProto{
			ValueInfo("Y", onnx.TensorProto_FLOAT, 1, 3),
		},
	}, 13)
}

// ConvNet is a small image classifier in the shape of a ResNet stem:
// Conv -> Relu -> MaxPool -> GlobalAveragePool -> Flatten -> Gemm -> Softmax.
func ConvNet() *onnx.ModelProto {
	return Model(&onnx.GraphProto{
		Name: proto.String("convnet"),
		Node: []*onnx.NodeProto{
			Node("conv_0", "Conv", []string{"input", "conv_w", "conv_b"}, []string{"conv_out"},
				AttrInts("kernel_shape", 3, 3), AttrInts("pads", 1, 1, 1, 1), AttrInts("strides", 1, 1)),
			Node("relu_0", "Relu", []string{"conv_out"}, []string{"relu_out"}),
			Node("pool_0", "MaxPool", []string{"relu_out"}, []string{"pool_out"},
				AttrInts("kernel_shape", 2, 2), AttrInts("strides", 2, 2)),
			Node("gap_0", "GlobalAveragePool", []string{"pool_out"}, []string{"gap_out"}),
			Node("flatten_0", "Flatten", []string{"gap_out"}, []string{"flat_out"}, AttrInt("axis", 1)),
			Node("fc_0", "Gemm", []string{"flat_out", "fc_w", "fc_b"}, []string{"logits"},
				AttrFloat("alpha", 1), AttrFloat("beta", 1), AttrInt("transB", 1)),
			Node("softmax_0", "Softmax", []string{"logits"}, []string{"probs"}, AttrInt("axis", 1)),
		},
		Initializer: []*onnx.TensorProto{
			FloatTensor("conv_w", []int64{4, 3, 3, 3}, Filled(4*3*3*3, 0.01)),
			FloatTensor("conv_b", []int64{4}, Filled(4, 0)),
			FloatTensor("fc_w", []int64{10, 4}, Filled(10*4, 0.1)),
			FloatTensor("fc_b", []int64{10}, Filled(10, 0)),
		},
		Input: []*onnx.ValueInfoProto{
			{Name: proto.String("input"), Type: TensorType(onnx.TensorProto_FLOAT, Param("N"), Dim(3), Dim(8), Dim(8))},
		},
		Output: []*onnx.ValueInfoProto{
			{Name: proto.String("probs"), Type: TensorType(onnx.TensorProto_FLOAT, Param("N"), Dim(10))},
		},
	}, 13)
}

// WriteModel serializes m into dir/name and returns the path.
func WriteModel(t testing.TB, dir, name string, m *onnx.ModelProto) string {
	t.Helper()
	return WriteBytes(t, dir, name, onnx.Marshal(m))
}

// WriteBytes writes data into dir/name and returns the path.
func WriteBytes(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	must.M(os.WriteFile(path, data, 0o644))
	return path
}
