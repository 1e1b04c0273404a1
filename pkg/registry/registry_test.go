package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRespectsSinceVersion(t *testing.T) {
	s, ok := Lookup("", "Reshape", 4)
	require.True(t, ok)
	assert.Equal(t, int64(1), s.SinceVersion)
	assert.Equal(t, []string{"shape"}, s.Required)
	assert.False(t, s.AcceptsInputs(2))

	s, ok = Lookup("", "Reshape", 13)
	require.True(t, ok)
	assert.Equal(t, int64(5), s.SinceVersion)
	assert.True(t, s.AcceptsInputs(2))
	assert.Empty(t, s.Required)

	_, ok = Lookup("", "Gelu", 19)
	assert.False(t, ok, "Gelu was introduced in opset 20")
	_, ok = Lookup("", "Gelu", 20)
	assert.True(t, ok)
}

func TestLookupDomainAlias(t *testing.T) {
	a, ok := Lookup("ai.onnx", "Add", 13)
	require.True(t, ok)
	b, ok := Lookup("", "Add", 13)
	require.True(t, ok)
	assert.Same(t, a, b)
	assert.True(t, Known("ai.onnx", "Conv"))
	assert.False(t, Known("", "NotAnOp"))
}

func TestArity(t *testing.T) {
	sum, ok := Lookup("", "Sum", 13)
	require.True(t, ok)
	assert.False(t, sum.AcceptsInputs(0))
	assert.True(t, sum.AcceptsInputs(7))

	split, ok := Lookup("", "Split", 13)
	require.True(t, ok)
	assert.True(t, split.AcceptsOutputs(5))

	gemm, ok := Lookup("", "Gemm", 9)
	require.True(t, ok)
	assert.False(t, gemm.AcceptsInputs(2), "C is mandatory before opset 11")
	gemm, ok = Lookup("", "Gemm", 11)
	require.True(t, ok)
	assert.True(t, gemm.AcceptsInputs(2))
}

func TestRegisterCustomDomain(t *testing.T) {
	Register(&Schema{Domain: "com.example", OpType: "Fused", SinceVersion: 1, MinInputs: 1, MaxInputs: Unbounded, MinOutputs: 1, MaxOutputs: 1})
	Register(&Schema{Domain: "com.example", OpType: "Fused", SinceVersion: 1, MinInputs: 2, MaxInputs: 2, MinOutputs: 1, MaxOutputs: 1})

	s, ok := Lookup("com.example", "Fused", 3)
	require.True(t, ok)
	assert.Equal(t, 2, s.MinInputs, "same since-version replaces the earlier schema")
}

func TestOpsSorted(t *testing.T) {
	ops := Ops()
	require.NotEmpty(t, ops)
	for i := 1; i < len(ops); i++ {
		prev, cur := ops[i-1], ops[i]
		assert.True(t, prev.Domain < cur.Domain || (prev.Domain == cur.Domain && prev.OpType < cur.OpType),
			"%s/%s before %s/%s", prev.Domain, prev.OpType, cur.Domain, cur.OpType)
	}
	for _, s := range ops {
		if s.Domain == "" && s.OpType == "Pad" {
			assert.Equal(t, int64(18), s.SinceVersion)
		}
	}
}

func TestDomains(t *testing.T) {
	s, ok := Lookup("ai.onnx.ml", "LinearClassifier", 1)
	require.True(t, ok)
	assert.Equal(t, "ai.onnx.ml", s.Domain)
	assert.Equal(t, []string{"coefficients"}, s.Required)

	_, ok = Lookup("ai.onnx.ml", "TreeEnsemble", 3)
	assert.False(t, ok)
	_, ok = Lookup("ai.onnx.preview.training", "Adam", 1)
	assert.True(t, ok)
	assert.False(t, Known("", "Adam"))
}

func TestSignalOpsVersioned(t *testing.T) {
	dft, ok := Lookup("", "DFT", 17)
	require.True(t, ok)
	assert.False(t, dft.AcceptsInputs(3), "the axis input arrived in opset 20")
	dft, ok = Lookup("", "DFT", 20)
	require.True(t, ok)
	assert.True(t, dft.AcceptsInputs(3))

	_, ok = Lookup("", "Swish", 23)
	assert.False(t, ok)
	_, ok = Lookup("", "Swish", 24)
	assert.True(t, ok)
}
