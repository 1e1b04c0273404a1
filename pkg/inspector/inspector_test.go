package inspector

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/internal/onnxtest"
	"google.golang.org/protobuf/proto"
)

// writeProducedModel writes a two-node model stamped with a producer.
func writeProducedModel(t *testing.T, dir, filename string) string {
	g := &onnx.GraphProto{
		Name: proto.String("produced"),
		Node: []*onnx.NodeProto{
			onnxtest.Node("sum", "Add", []string{"a", "b"}, []string{"c"}),
			onnxtest.Node("scale", "Mul", []string{"c", "b"}, []string{"d"}),
		},
	}
	m := onnxtest.Model(g, 9)
	m.IrVersion = proto.Int64(4)
	m.ProducerName = proto.String("test-producer")
	m.ProducerVersion = proto.String("1.0")
	return onnxtest.WriteModel(t, dir, filename, m)
}

// captureStdout runs f and returns what it wrote to os.Stdout.
func captureStdout(t *testing.T, f func() error) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fErr := f()

	assert.NoError(t, w.Close())
	os.Stdout = oldStdout
	out, err := io.ReadAll(r)
	require.NoError(t, err, "reading captured stdout")
	return string(out), fErr
}

func TestInspectONNX(t *testing.T) {
	path := writeProducedModel(t, t.TempDir(), "test.onnx")

	output, err := captureStdout(t, func() error { return InspectONNX(path) })
	require.NoError(t, err)

	want := "Inspecting ONNX model from: " + path + "\n" +
		"Successfully loaded model with IR version: 4\n" +
		"Opset version: 9\n" +
		"Producer: test-producer 1.0\n" +
		"Graph has 2 nodes.\n"
	assert.Equal(t, want, output)
}

func TestInspectWithoutProducer(t *testing.T) {
	m := onnxtest.AddModel()
	m.ProducerName = nil
	m.ProducerVersion = nil
	path := onnxtest.WriteModel(t, t.TempDir(), "add.onnx", m)
	var buf bytes.Buffer
	require.NoError(t, Inspect(&buf, path))
	assert.NotContains(t, buf.String(), "Producer:")
	assert.Contains(t, buf.String(), "Graph has 1 nodes.")
}

func TestInspectONNXMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.onnx")
	output, err := captureStdout(t, func() error { return InspectONNX(missing) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load ONNX model")
	assert.Equal(t, "Inspecting ONNX model from: "+missing+"\n", output)
}
