// Package onnx holds the ONNX model messages and their protobuf wire codec.
//
// The message layout mirrors onnx.proto (IR version 11): field names follow
// protoc-gen-go naming, scalar fields are pointers so that presence is
// observable, and every message has nil-safe getters.
package onnx

// IRVersion is the newest IR version these messages describe.
const IRVersion int64 = 11

// TensorProto_DataType is the element type of a tensor.
type TensorProto_DataType int32

const (
	TensorProto_UNDEFINED      TensorProto_DataType = 0
	TensorProto_FLOAT          TensorProto_DataType = 1
	TensorProto_UINT8          TensorProto_DataType = 2
	TensorProto_INT8           TensorProto_DataType = 3
	TensorProto_UINT16         TensorProto_DataType = 4
	TensorProto_INT16          TensorProto_DataType = 5
	TensorProto_INT32          TensorProto_DataType = 6
	TensorProto_INT64          TensorProto_DataType = 7
	TensorProto_STRING         TensorProto_DataType = 8
	TensorProto_BOOL           TensorProto_DataType = 9
	TensorProto_FLOAT16        TensorProto_DataType = 10
	TensorProto_DOUBLE         TensorProto_DataType = 11
	TensorProto_UINT32         TensorProto_DataType = 12
	TensorProto_UINT64         TensorProto_DataType = 13
	TensorProto_COMPLEX64      TensorProto_DataType = 14
	TensorProto_COMPLEX128     TensorProto_DataType = 15
	TensorProto_BFLOAT16       TensorProto_DataType = 16
	TensorProto_FLOAT8E4M3FN   TensorProto_DataType = 17
	TensorProto_FLOAT8E4M3FNUZ TensorProto_DataType = 18
	TensorProto_FLOAT8E5M2     TensorProto_DataType = 19
	TensorProto_FLOAT8E5M2FNUZ TensorProto_DataType = 20
	TensorProto_UINT4          TensorProto_DataType = 21
	TensorProto_INT4           TensorProto_DataType = 22
	TensorProto_FLOAT4E2M1     TensorProto_DataType = 23
)

var TensorProto_DataType_name = map[int32]string{
	0:  "UNDEFINED",
	1:  "FLOAT",
	2:  "UINT8",
	3:  "INT8",
	4:  "UINT16",
	5:  "INT16",
	6:  "INT32",
	7:  "INT64",
	8:  "STRING",
	9:  "BOOL",
	10: "FLOAT16",
	11: "DOUBLE",
	12: "UINT32",
	13: "UINT64",
	14: "COMPLEX64",
	15: "COMPLEX128",
	16: "BFLOAT16",
	17: "FLOAT8E4M3FN",
	18: "FLOAT8E4M3FNUZ",
	19: "FLOAT8E5M2",
	20: "FLOAT8E5M2FNUZ",
	21: "UINT4",
	22: "INT4",
	23: "FLOAT4E2M1",
}

func (x TensorProto_DataType) String() string {
	if name, ok := TensorProto_DataType_name[int32(x)]; ok {
		return name
	}
	return "UNKNOWN_DATA_TYPE"
}

// Known reports whether x is one of the enumerated data types other than UNDEFINED.
func (x TensorProto_DataType) Known() bool {
	_, ok := TensorProto_DataType_name[int32(x)]
	return ok && x != TensorProto_UNDEFINED
}

// TensorProto_DataLocation says where a tensor's payload lives.
type TensorProto_DataLocation int32

const (
	TensorProto_DEFAULT  TensorProto_DataLocation = 0
	TensorProto_EXTERNAL TensorProto_DataLocation = 1
)

func (x TensorProto_DataLocation) Enum() *TensorProto_DataLocation {
	return &x
}

// AttributeProto_AttributeType is the type tag of an attribute.
type AttributeProto_AttributeType int32

const (
	AttributeProto_UNDEFINED      AttributeProto_AttributeType = 0
	AttributeProto_FLOAT          AttributeProto_AttributeType = 1
	AttributeProto_INT            AttributeProto_AttributeType = 2
	AttributeProto_STRING         AttributeProto_AttributeType = 3
	AttributeProto_TENSOR         AttributeProto_AttributeType = 4
	AttributeProto_GRAPH          AttributeProto_AttributeType = 5
	AttributeProto_FLOATS         AttributeProto_AttributeType = 6
	AttributeProto_INTS           AttributeProto_AttributeType = 7
	AttributeProto_STRINGS        AttributeProto_AttributeType = 8
	AttributeProto_TENSORS        AttributeProto_AttributeType = 9
	AttributeProto_GRAPHS         AttributeProto_AttributeType = 10
	AttributeProto_SPARSE_TENSOR  AttributeProto_AttributeType = 11
	AttributeProto_SPARSE_TENSORS AttributeProto_AttributeType = 12
	AttributeProto_TYPE_PROTO     AttributeProto_AttributeType = 13
	AttributeProto_TYPE_PROTOS    AttributeProto_AttributeType = 14
)

var AttributeProto_AttributeType_name = map[int32]string{
	0:  "UNDEFINED",
	1:  "FLOAT",
	2:  "INT",
	3:  "STRING",
	4:  "TENSOR",
	5:  "GRAPH",
	6:  "FLOATS",
	7:  "INTS",
	8:  "STRINGS",
	9:  "TENSORS",
	10: "GRAPHS",
	11: "SPARSE_TENSOR",
	12: "SPARSE_TENSORS",
	13: "TYPE_PROTO",
	14: "TYPE_PROTOS",
}

func (x AttributeProto_AttributeType) String() string {
	if name, ok := AttributeProto_AttributeType_name[int32(x)]; ok {
		return name
	}
	return "UNKNOWN_ATTRIBUTE_TYPE"
}

// ModelProto is the top-level container of a serialized model.
type ModelProto struct {
	IrVersion       *int64
	OpsetImport     []*OperatorSetIdProto
	ProducerName    *string
	ProducerVersion *string
	Domain          *string
	ModelVersion    *int64
	DocString       *string
	Graph           *GraphProto
	MetadataProps   []*StringStringEntryProto
	TrainingInfo    []*TrainingInfoProto
	Functions       []*FunctionProto
}

func (x *ModelProto) GetIrVersion() int64 {
	if x != nil && x.IrVersion != nil {
		return *x.IrVersion
	}
	return 0
}

func (x *ModelProto) GetOpsetImport() []*OperatorSetIdProto {
	if x != nil {
		return x.OpsetImport
	}
	return nil
}

func (x *ModelProto) GetProducerName() string {
	if x != nil && x.ProducerName != nil {
		return *x.ProducerName
	}
	return ""
}

func (x *ModelProto) GetProducerVersion() string {
	if x != nil && x.ProducerVersion != nil {
		return *x.ProducerVersion
	}
	return ""
}

func (x *ModelProto) GetDomain() string {
	if x != nil && x.Domain != nil {
		return *x.Domain
	}
	return ""
}

func (x *ModelProto) GetModelVersion() int64 {
	if x != nil && x.ModelVersion != nil {
		return *x.ModelVersion
	}
	return 0
}

func (x *ModelProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

func (x *ModelProto) GetGraph() *GraphProto {
	if x != nil {
		return x.Graph
	}
	return nil
}

func (x *ModelProto) GetMetadataProps() []*StringStringEntryProto {
	if x != nil {
		return x.MetadataProps
	}
	return nil
}

func (x *ModelProto) GetTrainingInfo() []*TrainingInfoProto {
	if x != nil {
		return x.TrainingInfo
	}
	return nil
}

func (x *ModelProto) GetFunctions() []*FunctionProto {
	if x != nil {
		return x.Functions
	}
	return nil
}

// OpsetVersion returns the imported version of domain, and whether it is imported.
// The default domain may be spelled "" or "ai.onnx".
func (x *ModelProto) OpsetVersion(domain string) (int64, bool) {
	domain = CanonicalDomain(domain)
	for _, opset := range x.GetOpsetImport() {
		if CanonicalDomain(opset.GetDomain()) == domain {
			return opset.GetVersion(), true
		}
	}
	return 0, false
}

// CanonicalDomain maps the "ai.onnx" alias to the empty default domain.
func CanonicalDomain(domain string) string {
	if domain == "ai.onnx" {
		return ""
	}
	return domain
}

// OperatorSetIdProto names an operator set and its version.
type OperatorSetIdProto struct {
	Domain  *string
	Version *int64
}

func (x *OperatorSetIdProto) GetDomain() string {
	if x != nil && x.Domain != nil {
		return *x.Domain
	}
	return ""
}

func (x *OperatorSetIdProto) GetVersion() int64 {
	if x != nil && x.Version != nil {
		return *x.Version
	}
	return 0
}

// StringStringEntryProto is a key/value pair.
type StringStringEntryProto struct {
	Key   *string
	Value *string
}

func (x *StringStringEntryProto) GetKey() string {
	if x != nil && x.Key != nil {
		return *x.Key
	}
	return ""
}

func (x *StringStringEntryProto) GetValue() string {
	if x != nil && x.Value != nil {
		return *x.Value
	}
	return ""
}

// GraphProto is a computation graph: nodes in topological order plus the
// named values that flow between them.
type GraphProto struct {
	Node        []*NodeProto
	Name        *string
	Initializer []*TensorProto
	DocString   *string
	Input       []*ValueInfoProto
	Output      []*ValueInfoProto
	ValueInfo   []*ValueInfoProto

	SparseInitializer []*SparseTensorProto
	MetadataProps     []*StringStringEntryProto
}

func (x *GraphProto) GetNode() []*NodeProto {
	if x != nil {
		return x.Node
	}
	return nil
}

func (x *GraphProto) GetName() string {
	if x != nil && x.Name != nil {
		return *x.Name
	}
	return ""
}

func (x *GraphProto) GetInitializer() []*TensorProto {
	if x != nil {
		return x.Initializer
	}
	return nil
}

func (x *GraphProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

func (x *GraphProto) GetInput() []*ValueInfoProto {
	if x != nil {
		return x.Input
	}
	return nil
}

func (x *GraphProto) GetOutput() []*ValueInfoProto {
	if x != nil {
		return x.Output
	}
	return nil
}

func (x *GraphProto) GetValueInfo() []*ValueInfoProto {
	if x != nil {
		return x.ValueInfo
	}
	return nil
}

func (x *GraphProto) GetSparseInitializer() []*SparseTensorProto {
	if x != nil {
		return x.SparseInitializer
	}
	return nil
}

func (x *GraphProto) GetMetadataProps() []*StringStringEntryProto {
	if x != nil {
		return x.MetadataProps
	}
	return nil
}

// NodeProto is one operator invocation.
type NodeProto struct {
	Input     []string
	Output    []string
	Name      *string
	OpType    *string
	Domain    *string
	Attribute []*AttributeProto
	DocString *string
	Overload  *string

	MetadataProps []*StringStringEntryProto
}

func (x *NodeProto) GetInput() []string {
	if x != nil {
		return x.Input
	}
	return nil
}

func (x *NodeProto) GetOutput() []string {
	if x != nil {
		return x.Output
	}
	return nil
}

func (x *NodeProto) GetName() string {
	if x != nil && x.Name != nil {
		return *x.Name
	}
	return ""
}

func (x *NodeProto) GetOpType() string {
	if x != nil && x.OpType != nil {
		return *x.OpType
	}
	return ""
}

func (x *NodeProto) GetDomain() string {
	if x != nil && x.Domain != nil {
		return *x.Domain
	}
	return ""
}

func (x *NodeProto) GetAttribute() []*AttributeProto {
	if x != nil {
		return x.Attribute
	}
	return nil
}

func (x *NodeProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

func (x *NodeProto) GetOverload() string {
	if x != nil && x.Overload != nil {
		return *x.Overload
	}
	return ""
}

func (x *NodeProto) GetMetadataProps() []*StringStringEntryProto {
	if x != nil {
		return x.MetadataProps
	}
	return nil
}

// AttributeByName returns the attribute called name, or nil.
func (x *NodeProto) AttributeByName(name string) *AttributeProto {
	for _, attr := range x.GetAttribute() {
		if attr.GetName() == name {
			return attr
		}
	}
	return nil
}

// AttributeProto is a named, typed operator parameter. Exactly one value
// field is expected to be set, matching Type.
type AttributeProto struct {
	Name        *string
	RefAttrName *string
	DocString   *string
	Type        *AttributeProto_AttributeType
	F           *float32
	I           *int64
	S           []byte
	T           *TensorProto
	G           *GraphProto
	Tp          *TypeProto
	Floats      []float32
	Ints        []int64
	Strings     [][]byte
	Tensors     []*TensorProto
	Graphs      []*GraphProto
	TypeProtos  []*TypeProto

	SparseTensor  *SparseTensorProto
	SparseTensors []*SparseTensorProto
}

func (x *AttributeProto) GetName() string {
	if x != nil && x.Name != nil {
		return *x.Name
	}
	return ""
}

func (x *AttributeProto) GetRefAttrName() string {
	if x != nil && x.RefAttrName != nil {
		return *x.RefAttrName
	}
	return ""
}

func (x *AttributeProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

func (x *AttributeProto) GetType() AttributeProto_AttributeType {
	if x != nil && x.Type != nil {
		return *x.Type
	}
	return AttributeProto_UNDEFINED
}

func (x *AttributeProto) GetF() float32 {
	if x != nil && x.F != nil {
		return *x.F
	}
	return 0
}

func (x *AttributeProto) GetI() int64 {
	if x != nil && x.I != nil {
		return *x.I
	}
	return 0
}

func (x *AttributeProto) GetS() []byte {
	if x != nil {
		return x.S
	}
	return nil
}

func (x *AttributeProto) GetT() *TensorProto {
	if x != nil {
		return x.T
	}
	return nil
}

func (x *AttributeProto) GetG() *GraphProto {
	if x != nil {
		return x.G
	}
	return nil
}

func (x *AttributeProto) GetTp() *TypeProto {
	if x != nil {
		return x.Tp
	}
	return nil
}

func (x *AttributeProto) GetFloats() []float32 {
	if x != nil {
		return x.Floats
	}
	return nil
}

func (x *AttributeProto) GetInts() []int64 {
	if x != nil {
		return x.Ints
	}
	return nil
}

func (x *AttributeProto) GetStrings() [][]byte {
	if x != nil {
		return x.Strings
	}
	return nil
}

func (x *AttributeProto) GetTensors() []*TensorProto {
	if x != nil {
		return x.Tensors
	}
	return nil
}

func (x *AttributeProto) GetGraphs() []*GraphProto {
	if x != nil {
		return x.Graphs
	}
	return nil
}

func (x *AttributeProto) GetTypeProtos() []*TypeProto {
	if x != nil {
		return x.TypeProtos
	}
	return nil
}

func (x *AttributeProto) GetSparseTensor() *SparseTensorProto {
	if x != nil {
		return x.SparseTensor
	}
	return nil
}

func (x *AttributeProto) GetSparseTensors() []*SparseTensorProto {
	if x != nil {
		return x.SparseTensors
	}
	return nil
}

// ValueInfoProto names a value and optionally describes its type.
type ValueInfoProto struct {
	Name      *string
	Type      *TypeProto
	DocString *string
}

func (x *ValueInfoProto) GetName() string {
	if x != nil && x.Name != nil {
		return *x.Name
	}
	return ""
}

func (x *ValueInfoProto) GetType() *TypeProto {
	if x != nil {
		return x.Type
	}
	return nil
}

func (x *ValueInfoProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

// TensorProto is a serialized tensor: shape, element type and one payload.
type TensorProto struct {
	Dims         []int64
	DataType     *int32
	FloatData    []float32
	Int32Data    []int32
	StringData   [][]byte
	Int64Data    []int64
	Name         *string
	DocString    *string
	RawData      []byte
	ExternalData []*StringStringEntryProto
	DataLocation *TensorProto_DataLocation
	DoubleData   []float64
	Uint64Data   []uint64
}

func (x *TensorProto) GetDims() []int64 {
	if x != nil {
		return x.Dims
	}
	return nil
}

func (x *TensorProto) GetDataType() int32 {
	if x != nil && x.DataType != nil {
		return *x.DataType
	}
	return 0
}

func (x *TensorProto) GetFloatData() []float32 {
	if x != nil {
		return x.FloatData
	}
	return nil
}

func (x *TensorProto) GetInt32Data() []int32 {
	if x != nil {
		return x.Int32Data
	}
	return nil
}

func (x *TensorProto) GetStringData() [][]byte {
	if x != nil {
		return x.StringData
	}
	return nil
}

func (x *TensorProto) GetInt64Data() []int64 {
	if x != nil {
		return x.Int64Data
	}
	return nil
}

func (x *TensorProto) GetName() string {
	if x != nil && x.Name != nil {
		return *x.Name
	}
	return ""
}

func (x *TensorProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

func (x *TensorProto) GetRawData() []byte {
	if x != nil {
		return x.RawData
	}
	return nil
}

func (x *TensorProto) GetExternalData() []*StringStringEntryProto {
	if x != nil {
		return x.ExternalData
	}
	return nil
}

func (x *TensorProto) GetDataLocation() TensorProto_DataLocation {
	if x != nil && x.DataLocation != nil {
		return *x.DataLocation
	}
	return TensorProto_DEFAULT
}

func (x *TensorProto) GetDoubleData() []float64 {
	if x != nil {
		return x.DoubleData
	}
	return nil
}

func (x *TensorProto) GetUint64Data() []uint64 {
	if x != nil {
		return x.Uint64Data
	}
	return nil
}

// SparseTensorProto is a tensor stored as its non-default values plus their
// coordinates. Values is a rank-1 tensor of NNZ elements; Indices is either
// [NNZ, rank] coordinates or [NNZ] linearized positions.
type SparseTensorProto struct {
	Values  *TensorProto
	Indices *TensorProto
	Dims    []int64
}

func (x *SparseTensorProto) GetValues() *TensorProto {
	if x != nil {
		return x.Values
	}
	return nil
}

func (x *SparseTensorProto) GetIndices() *TensorProto {
	if x != nil {
		return x.Indices
	}
	return nil
}

func (x *SparseTensorProto) GetDims() []int64 {
	if x != nil {
		return x.Dims
	}
	return nil
}

// FunctionProto is a model-local function: an operator (Domain, Name)
// defined by a body of nodes.
type FunctionProto struct {
	Name           *string
	Input          []string
	Output         []string
	Attribute      []string
	AttributeProto []*AttributeProto
	Node           []*NodeProto
	DocString      *string
	OpsetImport    []*OperatorSetIdProto
	Domain         *string
	Overload       *string
	ValueInfo      []*ValueInfoProto
	MetadataProps  []*StringStringEntryProto
}

func (x *FunctionProto) GetName() string {
	if x != nil && x.Name != nil {
		return *x.Name
	}
	return ""
}

func (x *FunctionProto) GetInput() []string {
	if x != nil {
		return x.Input
	}
	return nil
}

func (x *FunctionProto) GetOutput() []string {
	if x != nil {
		return x.Output
	}
	return nil
}

func (x *FunctionProto) GetAttribute() []string {
	if x != nil {
		return x.Attribute
	}
	return nil
}

func (x *FunctionProto) GetAttributeProto() []*AttributeProto {
	if x != nil {
		return x.AttributeProto
	}
	return nil
}

func (x *FunctionProto) GetNode() []*NodeProto {
	if x != nil {
		return x.Node
	}
	return nil
}

func (x *FunctionProto) GetDocString() string {
	if x != nil && x.DocString != nil {
		return *x.DocString
	}
	return ""
}

func (x *FunctionProto) GetOpsetImport() []*OperatorSetIdProto {
	if x != nil {
		return x.OpsetImport
	}
	return nil
}

func (x *FunctionProto) GetDomain() string {
	if x != nil && x.Domain != nil {
		return *x.Domain
	}
	return ""
}

func (x *FunctionProto) GetOverload() string {
	if x != nil && x.Overload != nil {
		return *x.Overload
	}
	return ""
}

func (x *FunctionProto) GetValueInfo() []*ValueInfoProto {
	if x != nil {
		return x.ValueInfo
	}
	return nil
}

func (x *FunctionProto) GetMetadataProps() []*StringStringEntryProto {
	if x != nil {
		return x.MetadataProps
	}
	return nil
}

// TrainingInfoProto carries the training graphs of a model and the bindings
// from their outputs to the initializers they update.
type TrainingInfoProto struct {
	Initialization        *GraphProto
	Algorithm             *GraphProto
	InitializationBinding []*StringStringEntryProto
	UpdateBinding         []*StringStringEntryProto
}

func (x *TrainingInfoProto) GetInitialization() *GraphProto {
	if x != nil {
		return x.Initialization
	}
	return nil
}

func (x *TrainingInfoProto) GetAlgorithm() *GraphProto {
	if x != nil {
		return x.Algorithm
	}
	return nil
}

func (x *TrainingInfoProto) GetInitializationBinding() []*StringStringEntryProto {
	if x != nil {
		return x.InitializationBinding
	}
	return nil
}

func (x *TrainingInfoProto) GetUpdateBinding() []*StringStringEntryProto {
	if x != nil {
		return x.UpdateBinding
	}
	return nil
}

// TypeProto describes the type of a value. Value holds one of
// *TypeProto_TensorType, *TypeProto_SequenceType, *TypeProto_MapType,
// *TypeProto_OptionalType or *TypeProto_SparseTensorType.
type TypeProto struct {
	Value      isTypeProto_Value
	Denotation *string
}

type isTypeProto_Value interface {
	isTypeProto_Value()
}

type TypeProto_TensorType struct {
	TensorType *TypeProto_Tensor
}

type TypeProto_SequenceType struct {
	SequenceType *TypeProto_Sequence
}

type TypeProto_MapType struct {
	MapType *TypeProto_Map
}

type TypeProto_OptionalType struct {
	OptionalType *TypeProto_Optional
}

type TypeProto_SparseTensorType struct {
	SparseTensorType *TypeProto_SparseTensor
}

func (*TypeProto_TensorType) isTypeProto_Value()       {}
func (*TypeProto_SequenceType) isTypeProto_Value()     {}
func (*TypeProto_MapType) isTypeProto_Value()          {}
func (*TypeProto_OptionalType) isTypeProto_Value()     {}
func (*TypeProto_SparseTensorType) isTypeProto_Value() {}

func (x *TypeProto) GetValue() isTypeProto_Value {
	if x != nil {
		return x.Value
	}
	return nil
}

func (x *TypeProto) GetTensorType() *TypeProto_Tensor {
	if v, ok := x.GetValue().(*TypeProto_TensorType); ok {
		return v.TensorType
	}
	return nil
}

func (x *TypeProto) GetSequenceType() *TypeProto_Sequence {
	if v, ok := x.GetValue().(*TypeProto_SequenceType); ok {
		return v.SequenceType
	}
	return nil
}

func (x *TypeProto) GetMapType() *TypeProto_Map {
	if v, ok := x.GetValue().(*TypeProto_MapType); ok {
		return v.MapType
	}
	return nil
}

func (x *TypeProto) GetOptionalType() *TypeProto_Optional {
	if v, ok := x.GetValue().(*TypeProto_OptionalType); ok {
		return v.OptionalType
	}
	return nil
}

func (x *TypeProto) GetSparseTensorType() *TypeProto_SparseTensor {
	if v, ok := x.GetValue().(*TypeProto_SparseTensorType); ok {
		return v.SparseTensorType
	}
	return nil
}

func (x *TypeProto) GetDenotation() string {
	if x != nil && x.Denotation != nil {
		return *x.Denotation
	}
	return ""
}

// ValueCase names the populated oneof field, or "" when none is set.
func (x *TypeProto) ValueCase() string {
	switch x.GetValue().(type) {
	case *TypeProto_TensorType:
		return "tensor_type"
	case *TypeProto_SequenceType:
		return "sequence_type"
	case *TypeProto_MapType:
		return "map_type"
	case *TypeProto_OptionalType:
		return "optional_type"
	case *TypeProto_SparseTensorType:
		return "sparse_tensor_type"
	}
	return ""
}

type TypeProto_Tensor struct {
	ElemType *int32
	Shape    *TensorShapeProto
}

func (x *TypeProto_Tensor) GetElemType() int32 {
	if x != nil && x.ElemType != nil {
		return *x.ElemType
	}
	return 0
}

func (x *TypeProto_Tensor) GetShape() *TensorShapeProto {
	if x != nil {
		return x.Shape
	}
	return nil
}

type TypeProto_Sequence struct {
	ElemType *TypeProto
}

func (x *TypeProto_Sequence) GetElemType() *TypeProto {
	if x != nil {
		return x.ElemType
	}
	return nil
}

type TypeProto_Map struct {
	KeyType   *int32
	ValueType *TypeProto
}

func (x *TypeProto_Map) GetKeyType() int32 {
	if x != nil && x.KeyType != nil {
		return *x.KeyType
	}
	return 0
}

func (x *TypeProto_Map) GetValueType() *TypeProto {
	if x != nil {
		return x.ValueType
	}
	return nil
}

type TypeProto_Optional struct {
	ElemType *TypeProto
}

func (x *TypeProto_Optional) GetElemType() *TypeProto {
	if x != nil {
		return x.ElemType
	}
	return nil
}

type TypeProto_SparseTensor struct {
	ElemType *int32
	Shape    *TensorShapeProto
}

func (x *TypeProto_SparseTensor) GetElemType() int32 {
	if x != nil && x.ElemType != nil {
		return *x.ElemType
	}
	return 0
}

func (x *TypeProto_SparseTensor) GetShape() *TensorShapeProto {
	if x != nil {
		return x.Shape
	}
	return nil
}

// TensorShapeProto is an ordered list of dimensions.
type TensorShapeProto struct {
	Dim []*TensorShapeProto_Dimension
}

func (x *TensorShapeProto) GetDim() []*TensorShapeProto_Dimension {
	if x != nil {
		return x.Dim
	}
	return nil
}

// TensorShapeProto_Dimension is either a fixed size (DimValue), a symbolic
// name (DimParam) or unknown (Value == nil).
type TensorShapeProto_Dimension struct {
	Value      isTensorShapeProto_Dimension_Value
	Denotation *string
}

type isTensorShapeProto_Dimension_Value interface {
	isTensorShapeProto_Dimension_Value()
}

type TensorShapeProto_Dimension_DimValue struct {
	DimValue int64
}

type TensorShapeProto_Dimension_DimParam struct {
	DimParam string
}

func (*TensorShapeProto_Dimension_DimValue) isTensorShapeProto_Dimension_Value() {}
func (*TensorShapeProto_Dimension_DimParam) isTensorShapeProto_Dimension_Value() {}

func (x *TensorShapeProto_Dimension) GetValue() isTensorShapeProto_Dimension_Value {
	if x != nil {
		return x.Value
	}
	return nil
}

func (x *TensorShapeProto_Dimension) GetDimValue() int64 {
	if v, ok := x.GetValue().(*TensorShapeProto_Dimension_DimValue); ok {
		return v.DimValue
	}
	return 0
}

func (x *TensorShapeProto_Dimension) GetDimParam() string {
	if v, ok := x.GetValue().(*TensorShapeProto_Dimension_DimParam); ok {
		return v.DimParam
	}
	return ""
}

func (x *TensorShapeProto_Dimension) GetDenotation() string {
	if x != nil && x.Denotation != nil {
		return *x.Denotation
	}
	return ""
}

// HasDimValue reports whether the dimension has a fixed size.
func (x *TensorShapeProto_Dimension) HasDimValue() bool {
	_, ok := x.GetValue().(*TensorShapeProto_Dimension_DimValue)
	return ok
}
