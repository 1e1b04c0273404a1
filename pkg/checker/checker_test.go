package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/internal/onnxtest"
	"github.com/zerfoo/zverify/pkg/registry"
	"google.golang.org/protobuf/proto"
)

func TestCheckModelValid(t *testing.T) {
	require.NoError(t, CheckModel(onnxtest.AddModel()))
	require.NoError(t, CheckModel(onnxtest.ConvNet()))
}

func TestCheckModelDoesNotMutate(t *testing.T) {
	m := onnxtest.ConvNet()
	before := onnx.Marshal(m)
	require.NoError(t, CheckModel(m))
	assert.Equal(t, before, onnx.Marshal(m))
}

func withNode(m *onnx.ModelProto, i int, f func(n *onnx.NodeProto)) {
	f(m.Graph.Node[i])
}

func TestCheckModelRejects(t *testing.T) {
	tests := []struct {
		name   string
		model  func() *onnx.ModelProto
		mutate func(m *onnx.ModelProto)
		want   string
	}{
		{
			name:   "ir version missing",
			mutate: func(m *onnx.ModelProto) { m.IrVersion = nil },
			want:   "ir_version is not set",
		},
		{
			name:   "ir version too new",
			mutate: func(m *onnx.ModelProto) { m.IrVersion = proto.Int64(99) },
			want:   "outside the supported range [1, 11]",
		},
		{
			name:   "no opset",
			mutate: func(m *onnx.ModelProto) { m.OpsetImport = nil },
			want:   "must import at least one opset",
		},
		{
			name: "duplicate opset",
			mutate: func(m *onnx.ModelProto) {
				m.OpsetImport = append(m.OpsetImport, &onnx.OperatorSetIdProto{Domain: proto.String("ai.onnx"), Version: proto.Int64(12)})
			},
			want: `domain "" more than once`,
		},
		{
			name:   "graph missing",
			mutate: func(m *onnx.ModelProto) { m.Graph = nil },
			want:   "model graph is missing",
		},
		{
			name:   "graph name empty",
			mutate: func(m *onnx.ModelProto) { m.Graph.Name = nil },
			want:   "graph name is empty",
		},
		{
			name:   "input without type",
			mutate: func(m *onnx.ModelProto) { m.Graph.Input[0].Type = nil },
			want:   `graph input "X" has no type`,
		},
		{
			name:   "input without elem type",
			mutate: func(m *onnx.ModelProto) { m.Graph.Input[1].Type.GetTensorType().ElemType = nil },
			want:   `graph input "Y": tensor type has no elem_type`,
		},
		{
			name:   "output without shape",
			mutate: func(m *onnx.ModelProto) { m.Graph.Output[0].Type.GetTensorType().Shape = nil },
			want:   `graph output "Z": tensor type has no shape`,
		},
		{
			name: "duplicate input",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Input = append(m.Graph.Input, onnxtest.ValueInfo("X", onnx.TensorProto_FLOAT, 2, 3))
			},
			want: `graph input "X" is declared more than once`,
		},
		{
			name:  "raw data length",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer[1].RawData = m.Graph.Initializer[1].RawData[:8]
			},
			want: `initializer "conv_b": raw_data holds 8 bytes, expected 16 for 4 elements of FLOAT`,
		},
		{
			name:  "two value fields",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer[1].FloatData = []float32{0, 0, 0, 0}
			},
			want: "exactly one value field must be set, found float_data, raw_data",
		},
		{
			name: "string in raw data",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer = append(m.Graph.Initializer, &onnx.TensorProto{
					Name:     proto.String("names"),
					DataType: proto.Int32(int32(onnx.TensorProto_STRING)),
					Dims:     []int64{1},
					RawData:  []byte("abc"),
				})
			},
			want: "STRING values cannot be stored in raw_data",
		},
		{
			name: "wrong typed field",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer = append(m.Graph.Initializer, &onnx.TensorProto{
					Name:      proto.String("axes"),
					DataType:  proto.Int32(int32(onnx.TensorProto_INT64)),
					Dims:      []int64{2},
					FloatData: []float32{0, 1},
				})
			},
			want: "INT64 values are stored in float_data, expected int64_data",
		},
		{
			name: "element count",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer = append(m.Graph.Initializer, onnxtest.Int64Tensor("axes", []int64{3}, []int64{0, 1}))
			},
			want: "int64_data holds 2 values, expected 3 for dims [3]",
		},
		{
			name: "undefined data type",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer = append(m.Graph.Initializer, &onnx.TensorProto{Name: proto.String("w"), Dims: []int64{0}})
			},
			want: `initializer "w": data_type is not set`,
		},
		{
			name:  "initializer not an input before IR 4",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.IrVersion = proto.Int64(3)
			},
			want: `initializer "conv_w" is not a graph input, which IR version 3 requires`,
		},
		{
			name:   "empty op type",
			mutate: func(m *onnx.ModelProto) { withNode(m, 0, func(n *onnx.NodeProto) { n.OpType = nil }) },
			want:   `node "add_0" (): op_type is empty`,
		},
		{
			name:   "domain not imported",
			mutate: func(m *onnx.ModelProto) { withNode(m, 0, func(n *onnx.NodeProto) { n.Domain = proto.String("com.example") }) },
			want:   `domain "com.example" is not imported by the model`,
		},
		{
			name:  "not topologically sorted",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Node[0], m.Graph.Node[1] = m.Graph.Node[1], m.Graph.Node[0]
			},
			want: `node "relu_0" (Relu): input "conv_out" is not an output of any previous node`,
		},
		{
			name:   "unknown operator",
			mutate: func(m *onnx.ModelProto) { withNode(m, 0, func(n *onnx.NodeProto) { n.OpType = proto.String("Frobnicate") }) },
			want:   "no schema registered for operator Frobnicate in opset 13",
		},
		{
			name: "operator newer than opset",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Node[0] = onnxtest.Node("gelu_0", "Gelu", []string{"X"}, []string{"Z"})
			},
			want: "operator Gelu is not available in opset 13",
		},
		{
			name:   "input arity",
			mutate: func(m *onnx.ModelProto) { withNode(m, 0, func(n *onnx.NodeProto) { n.Input = []string{"X", "Y", "X"} }) },
			want:   "3 inputs given, operator accepts exactly 2",
		},
		{
			name:  "required attribute",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				withNode(m, 2, func(n *onnx.NodeProto) { n.Attribute = n.Attribute[1:] })
			},
			want: `node "pool_0" (MaxPool): required attribute kernel_shape is missing`,
		},
		{
			name: "output defined twice",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Node = append(m.Graph.Node, onnxtest.Node("relu_0", "Relu", []string{"X"}, []string{"Z"}))
			},
			want: `output "Z" is already defined; graphs must be in single static assignment form`,
		},
		{
			name: "output not produced",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Output = append(m.Graph.Output, onnxtest.ValueInfo("W", onnx.TensorProto_FLOAT, 2, 3))
			},
			want: `graph output "W" is not produced by any node, input or initializer`,
		},
		{
			name: "attribute without type",
			mutate: func(m *onnx.ModelProto) {
				withNode(m, 0, func(n *onnx.NodeProto) {
					n.Attribute = []*onnx.AttributeProto{{Name: proto.String("alpha"), F: proto.Float32(1)}}
				})
			},
			want: `attribute "alpha" has no type`,
		},
		{
			name: "attribute field mismatch",
			mutate: func(m *onnx.ModelProto) {
				withNode(m, 0, func(n *onnx.NodeProto) {
					attr := onnxtest.AttrInt("axis", 1)
					attr.I, attr.F = nil, proto.Float32(1)
					n.Attribute = []*onnx.AttributeProto{attr}
				})
			},
			want: `attribute "axis" of type INT has f set, expected i`,
		},
		{
			name: "attribute with two values",
			mutate: func(m *onnx.ModelProto) {
				withNode(m, 0, func(n *onnx.NodeProto) {
					attr := onnxtest.AttrInt("axis", 1)
					attr.Ints = []int64{1, 2}
					n.Attribute = []*onnx.AttributeProto{attr}
				})
			},
			want: `attribute "axis" has more than one value field set (i, ints)`,
		},
		{
			name: "mixed element types",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Input[1] = onnxtest.ValueInfo("Y", onnx.TensorProto_INT64, 2, 3)
			},
			want: "input element types differ: FLOAT and INT64",
		},
		{
			name: "not broadcastable",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Input[1] = onnxtest.ValueInfo("Y", onnx.TensorProto_FLOAT, 4)
			},
			want: "shapes [2, 3] and [4] are not broadcastable",
		},
		{
			name: "matmul inner dimensions",
			mutate: func(m *onnx.ModelProto) {
				withNode(m, 0, func(n *onnx.NodeProto) { n.OpType = proto.String("MatMul") })
				m.Graph.Input[1] = onnxtest.ValueInfo("Y", onnx.TensorProto_FLOAT, 4, 5)
			},
			want: "inner dimensions do not match: [2, 3] and [4, 5]",
		},
		{
			name: "declared output type",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Output[0] = onnxtest.ValueInfo("Z", onnx.TensorProto_INT64, 2, 3)
			},
			want: `inferred element type FLOAT of "Z" disagrees with its declared type INT64`,
		},
		{
			name:  "conv channels",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Initializer[0] = onnxtest.FloatTensor("conv_w", []int64{4, 2, 3, 3}, onnxtest.Filled(4*2*3*3, 0.01))
			},
			want: "input channels 3 do not match weight channels 2 x group 1",
		},
		{
			name:  "conv kernel larger than strided input",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Input[0].Type = onnxtest.TensorType(onnx.TensorProto_FLOAT, onnxtest.Param("N"), onnxtest.Dim(3), onnxtest.Dim(2), onnxtest.Dim(2))
				withNode(m, 0, func(n *onnx.NodeProto) {
					n.Attribute = []*onnx.AttributeProto{
						onnxtest.AttrInts("kernel_shape", 3, 3), onnxtest.AttrInts("pads", 0, 0, 0, 0), onnxtest.AttrInts("strides", 2, 2),
					}
				})
			},
			want: "spatial dimension 0 of padded size 2 is smaller than the dilated kernel 3",
		},
		{
			name:  "conv valid padding",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.Input[0].Type = onnxtest.TensorType(onnx.TensorProto_FLOAT, onnxtest.Param("N"), onnxtest.Dim(3), onnxtest.Dim(2), onnxtest.Dim(2))
				withNode(m, 0, func(n *onnx.NodeProto) {
					n.Attribute = []*onnx.AttributeProto{
						onnxtest.AttrInts("kernel_shape", 3, 3), onnxtest.AttrString("auto_pad", "VALID"), onnxtest.AttrInts("strides", 2, 2),
					}
				})
			},
			want: "spatial dimension 0 of padded size 2 is smaller than the dilated kernel 3",
		},
		{
			name: "sparse indices out of order",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.SparseInitializer = []*onnx.SparseTensorProto{onnxtest.SparseTensor("S", []int64{2, 3}, []int64{4, 1}, []float32{1, 2})}
			},
			want: `sparse tensor "S" index 1 at position 1 is not in increasing order`,
		},
		{
			name: "sparse index out of range",
			mutate: func(m *onnx.ModelProto) {
				m.Graph.SparseInitializer = []*onnx.SparseTensorProto{onnxtest.SparseTensor("S", []int64{2, 3}, []int64{0, 6}, []float32{1, 2})}
			},
			want: `sparse tensor "S" index 6 at position 1 is out of range [0, 6)`,
		},
		{
			name: "sparse coordinates out of range",
			mutate: func(m *onnx.ModelProto) {
				st := onnxtest.SparseTensor("S", []int64{2, 3}, nil, []float32{1, 2})
				st.Indices = onnxtest.Int64Tensor("", []int64{2, 2}, []int64{0, 1, 1, 3})
				m.Graph.SparseInitializer = []*onnx.SparseTensorProto{st}
			},
			want: `sparse tensor "S" coordinate 1 of value 1 is 3, outside [0, 3)`,
		},
		{
			name: "sparse values without name",
			mutate: func(m *onnx.ModelProto) {
				withNode(m, 0, func(n *onnx.NodeProto) {
					n.Attribute = []*onnx.AttributeProto{onnxtest.AttrSparseTensor("sparse_value", onnxtest.SparseTensor("", []int64{4}, []int64{1}, []float32{1}))}
				})
			},
			want: `attribute "sparse_value": sparse tensor values have an empty name`,
		},
		{
			name:  "sparse initializer shadows dense",
			model: onnxtest.ConvNet,
			mutate: func(m *onnx.ModelProto) {
				m.Graph.SparseInitializer = []*onnx.SparseTensorProto{onnxtest.SparseTensor("conv_b", []int64{4}, []int64{0}, []float32{1})}
			},
			want: `initializer "conv_b" is declared more than once`,
		},
		{
			name: "function body out of order",
			mutate: func(m *onnx.ModelProto) {
				m.Functions = []*onnx.FunctionProto{{
					Name:   proto.String("Double"),
					Domain: proto.String("com.example"),
					Input:  []string{"a"},
					Output: []string{"b"},
					Node:   []*onnx.NodeProto{onnxtest.Node("add", "Add", []string{"a", "t"}, []string{"b"})},
				}}
			},
			want: `function "Double": node "add" (Add): input "t" is not defined before use`,
		},
		{
			name: "training binding to unknown initializer",
			mutate: func(m *onnx.ModelProto) {
				m.TrainingInfo = []*onnx.TrainingInfoProto{{
					UpdateBinding: []*onnx.StringStringEntryProto{{Key: proto.String("W"), Value: proto.String("W_new")}},
				}}
			},
			want: `training_info 0 binds "W", which is not an initializer of the main graph`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := tt.model
			if build == nil {
				build = onnxtest.AddModel
			}
			m := build()
			tt.mutate(m)

			err := CheckModel(m)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWithoutTypeCheck(t *testing.T) {
	m := onnxtest.AddModel()
	m.Graph.Input[1] = onnxtest.ValueInfo("Y", onnx.TensorProto_INT64, 2, 3)

	require.Error(t, CheckModel(m))
	require.NoError(t, CheckModel(m, WithoutTypeCheck()))
}

func TestValidationErrorFields(t *testing.T) {
	m := onnxtest.AddModel()
	m.Graph.Node[0].Name = nil
	m.Graph.Node[0].Input = []string{"X", "missing"}

	err := CheckModel(m)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "add", verr.Graph)
	assert.Equal(t, "#0", verr.Node)
	assert.Equal(t, "Add", verr.OpType)
	assert.Equal(t, `graph "add": node #0 (Add): input "missing" is not an output of any previous node, a graph input or an initializer; nodes must be topologically sorted`, err.Error())
}

func ifModel(thenBranch, elseBranch *onnx.GraphProto) *onnx.ModelProto {
	m := onnxtest.AddModel()
	m.Graph.Input = append(m.Graph.Input, &onnx.ValueInfoProto{
		Name: proto.String("cond"),
		Type: onnxtest.TensorType(onnx.TensorProto_BOOL),
	})
	m.Graph.Node = append(m.Graph.Node, onnxtest.Node("if_0", "If", []string{"cond"}, []string{"R"},
		onnxtest.AttrGraph("then_branch", thenBranch),
		onnxtest.AttrGraph("else_branch", elseBranch),
	))
	m.Graph.Output = append(m.Graph.Output, onnxtest.ValueInfo("R", onnx.TensorProto_FLOAT, 2, 3))
	return m
}

func branch(name, op, input, output string) *onnx.GraphProto {
	return &onnx.GraphProto{
		Name:   proto.String(name),
		Node:   []*onnx.NodeProto{onnxtest.Node(name+"_0", op, []string{input}, []string{output})},
		Output: []*onnx.ValueInfoProto{onnxtest.ValueInfo(output, onnx.TensorProto_FLOAT, 2, 3)},
	}
}

func TestSubgraphScopes(t *testing.T) {
	// Branches read X and Z from the enclosing graph.
	m := ifModel(branch("then", "Relu", "Z", "t_out"), branch("else", "Neg", "X", "e_out"))
	require.NoError(t, CheckModel(m))

	m = ifModel(branch("then", "Relu", "Z", "t_out"), branch("else", "Neg", "nowhere", "e_out"))
	err := CheckModel(m)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "else", verr.Graph)
	assert.Contains(t, err.Error(), `input "nowhere"`)

	// A branch may not redefine a value of the enclosing graph.
	m = ifModel(branch("then", "Relu", "X", "Z"), branch("else", "Neg", "X", "e_out"))
	err = CheckModel(m)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "then", verr.Graph)
	assert.Contains(t, err.Error(), `output "Z" is already defined`)

	m = ifModel(branch("then", "Relu", "X", "t_out"), branch("else", "Neg", "X", "e_out"))
	m.Graph.Node[1].Attribute = m.Graph.Node[1].Attribute[:1]
	err = CheckModel(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required attribute else_branch is missing")
}

func TestExternalData(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weights.bin"), make([]byte, 24), 0o644))

	external := func(location, length string) *onnx.TensorProto {
		loc := onnx.TensorProto_EXTERNAL
		return &onnx.TensorProto{
			Name:         proto.String("W"),
			DataType:     proto.Int32(int32(onnx.TensorProto_FLOAT)),
			Dims:         []int64{2, 3},
			DataLocation: &loc,
			ExternalData: []*onnx.StringStringEntryProto{
				{Key: proto.String("location"), Value: proto.String(location)},
				{Key: proto.String("length"), Value: proto.String(length)},
			},
		}
	}
	withInitializer := func(tensor *onnx.TensorProto) *onnx.ModelProto {
		m := onnxtest.AddModel()
		m.Graph.Initializer = append(m.Graph.Initializer, tensor)
		return m
	}

	require.NoError(t, CheckModel(withInitializer(external("weights.bin", "24")), WithBaseDir(dir)))

	err := CheckModel(withInitializer(external("weights.bin", "16")), WithBaseDir(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external data length 16 does not match 24 bytes")

	err = CheckModel(withInitializer(external("other.bin", "24")), WithBaseDir(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "other.bin")

	err = CheckModel(withInitializer(external("../weights.bin", "24")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the model directory")

	inline := external("weights.bin", "24")
	inline.RawData = make([]byte, 24)
	err = CheckModel(withInitializer(inline), WithBaseDir(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_location is EXTERNAL but raw_data is set")
}

func TestSparseConstant(t *testing.T) {
	m := onnxtest.AddModel()
	m.Graph.Node = append(m.Graph.Node,
		onnxtest.Node("const_0", "Constant", nil, []string{"C"},
			onnxtest.AttrSparseTensor("sparse_value", onnxtest.SparseTensor("c", []int64{2, 3}, []int64{0, 4}, []float32{1, 2}))),
		onnxtest.Node("add_1", "Add", []string{"Z", "C"}, []string{"W"}),
	)
	require.NoError(t, CheckModel(m))
}

func TestSparseInitializer(t *testing.T) {
	m := onnxtest.AddModel()
	m.Graph.SparseInitializer = []*onnx.SparseTensorProto{
		onnxtest.SparseTensor("S", []int64{2, 3}, []int64{1, 5}, []float32{0.5, -0.5}),
	}
	m.Graph.Node = append(m.Graph.Node, onnxtest.Node("add_1", "Add", []string{"Z", "S"}, []string{"W"}))
	m.Graph.Output = append(m.Graph.Output, onnxtest.ValueInfo("W", onnx.TensorProto_FLOAT, 2, 3))
	require.NoError(t, CheckModel(m))

	// Coordinate form [NNZ, rank].
	m.Graph.SparseInitializer[0].Indices = onnxtest.Int64Tensor("", []int64{2, 2}, []int64{0, 1, 1, 2})
	require.NoError(t, CheckModel(m))

	m.Graph.SparseInitializer[0].Indices.DataType = proto.Int32(int32(onnx.TensorProto_INT32))
	err := CheckModel(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indices must be INT64")
}

func TestNonDefaultOpsetOnly(t *testing.T) {
	g := &onnx.GraphProto{
		Name:   proto.String("ml"),
		Input:  []*onnx.ValueInfoProto{onnxtest.ValueInfo("X", onnx.TensorProto_FLOAT, 1, 4)},
		Output: []*onnx.ValueInfoProto{onnxtest.ValueInfo("Y", onnx.TensorProto_FLOAT, 1, 4)},
		Node:   []*onnx.NodeProto{onnxtest.Node("norm_0", "Normalizer", []string{"X"}, []string{"Y"}, onnxtest.AttrString("norm", "L2"))},
	}
	g.Node[0].Domain = proto.String("ai.onnx.ml")
	m := onnxtest.Model(g, 1)
	m.OpsetImport = []*onnx.OperatorSetIdProto{{Domain: proto.String("ai.onnx.ml"), Version: proto.Int64(3)}}
	require.NoError(t, CheckModel(m))
}

func TestModelLocalFunction(t *testing.T) {
	m := onnxtest.AddModel()
	m.OpsetImport = append(m.OpsetImport, &onnx.OperatorSetIdProto{Domain: proto.String("com.example"), Version: proto.Int64(1)})
	m.Functions = []*onnx.FunctionProto{{
		Name:   proto.String("Double"),
		Domain: proto.String("com.example"),
		Input:  []string{"a"},
		Output: []string{"b"},
		Node:   []*onnx.NodeProto{onnxtest.Node("add", "Add", []string{"a", "a"}, []string{"b"})},
	}}
	double := onnxtest.Node("double_0", "Double", []string{"Z"}, []string{"D"})
	double.Domain = proto.String("com.example")
	m.Graph.Node = append(m.Graph.Node, double)
	require.NoError(t, CheckModel(m))

	double.Input = []string{"Z", "X"}
	err := CheckModel(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 inputs given, function accepts at most 1")
}

func TestTrainingInfo(t *testing.T) {
	m := onnxtest.ConvNet()
	m.TrainingInfo = []*onnx.TrainingInfoProto{{
		Algorithm: &onnx.GraphProto{
			Name:   proto.String("step"),
			Node:   []*onnx.NodeProto{onnxtest.Node("neg_0", "Neg", []string{"fc_b"}, []string{"fc_b_new"})},
			Output: []*onnx.ValueInfoProto{onnxtest.ValueInfo("fc_b_new", onnx.TensorProto_FLOAT, 10)},
		},
		UpdateBinding: []*onnx.StringStringEntryProto{{Key: proto.String("fc_b"), Value: proto.String("fc_b_new")}},
	}}
	require.NoError(t, CheckModel(m))
}

// newerOperators entered the default domain after the first opsets.
var newerOperators = []string{
	"DFT", "STFT", "Attention", "NegativeLogLikelihoodLoss", "SoftmaxCrossEntropyLoss",
	"CenterCropPad", "AffineGrid", "HannWindow", "HammingWindow", "BlackmanWindow",
	"MelWeightMatrix", "RotaryEmbedding", "StringNormalizer", "TfIdfVectorizer",
	"RegexFullMatch", "ImageDecoder", "SequenceMap", "StringConcat", "StringSplit",
	"Swish", "TensorScatter",
}

// singleNodeModel wraps one node of schema with the minimum arity and the
// required attributes.
func singleNodeModel(schema *registry.Schema) *onnx.ModelProto {
	g := &onnx.GraphProto{Name: proto.String(schema.OpType)}
	inputs := make([]string, schema.MinInputs)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("in%d", i)
		g.Input = append(g.Input, onnxtest.ValueInfo(inputs[i], onnx.TensorProto_FLOAT, 2))
	}
	outputs := make([]string, schema.MinOutputs)
	for i := range outputs {
		outputs[i] = fmt.Sprintf("out%d", i)
	}
	var attrs []*onnx.AttributeProto
	for _, name := range schema.Required {
		if name == "body" {
			attrs = append(attrs, onnxtest.AttrGraph(name, &onnx.GraphProto{
				Name:   proto.String("body"),
				Input:  []*onnx.ValueInfoProto{onnxtest.ValueInfo("elem", onnx.TensorProto_FLOAT, 2)},
				Node:   []*onnx.NodeProto{onnxtest.Node("id_0", "Identity", []string{"elem"}, []string{"elem_out"})},
				Output: []*onnx.ValueInfoProto{onnxtest.ValueInfo("elem_out", onnx.TensorProto_FLOAT, 2)},
			}))
			continue
		}
		attrs = append(attrs, onnxtest.AttrInt(name, 1))
	}
	g.Node = []*onnx.NodeProto{onnxtest.Node(schema.OpType+"_0", schema.OpType, inputs, outputs, attrs...)}
	return onnxtest.Model(g, 24)
}

func TestNewerOperators(t *testing.T) {
	for _, opType := range newerOperators {
		t.Run(opType, func(t *testing.T) {
			schema, ok := registry.Lookup("", opType, 24)
			require.True(t, ok, "%s is not registered", opType)
			require.NoError(t, CheckModel(singleNodeModel(schema)))
		})
	}
}
