package classify

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/zverify/internal/onnxtest"
	"github.com/zerfoo/zverify/pkg/modelerr"
	"github.com/zerfoo/zverify/pkg/session"
)

// scoreRuntime opens sessions that return fixed scores for any input.
type scoreRuntime struct {
	scores []float32
	last   *scoreSession
}

func (r *scoreRuntime) Name() string { return "scores" }

func (r *scoreRuntime) Open(context.Context, string) (session.Session, error) {
	r.last = &scoreSession{scores: r.scores}
	return r.last, nil
}

type scoreSession struct {
	scores []float32
	inputs []session.Tensor
	closed bool
}

func (s *scoreSession) InputNames() []string  { return []string{"data"} }
func (s *scoreSession) OutputNames() []string { return []string{"probs"} }
func (s *scoreSession) Warmup(context.Context, []session.TensorSpec) error {
	return nil
}
func (s *scoreSession) Run(_ context.Context, inputs map[string]session.Tensor) (map[string]session.Tensor, error) {
	s.inputs = append(s.inputs, inputs["data"])
	return map[string]session.Tensor{"probs": {Shape: []int64{1, int64(len(s.scores))}, Data: s.scores}}, nil
}
func (s *scoreSession) Close() error { s.closed = true; return nil }

var scores = &scoreRuntime{scores: []float32{0.1, 0.7, 0.2}}

func init() {
	session.Register(scores)
}

func writeFixtures(t *testing.T, labels string) (model, img, labelsPath string) {
	t.Helper()
	dir := t.TempDir()
	model = onnxtest.WriteModel(t, dir, "model.onnx", onnxtest.AddModel())
	img = filepath.Join(dir, "solid.png")
	require.NoError(t, imaging.Save(imaging.New(32, 24, color.NRGBA{R: 255, G: 0, B: 51, A: 255}), img))
	labelsPath = filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labelsPath, []byte(labels), 0o644))
	return model, img, labelsPath
}

func TestPreprocess(t *testing.T) {
	img := imaging.New(10, 6, color.NRGBA{R: 255, G: 0, B: 51, A: 255})

	bgr := Preprocess(img, 4, BGR)
	assert.Equal(t, []int64{1, 3, 4, 4}, bgr.Shape)
	require.Len(t, bgr.Data, 3*16)
	for i := range 16 {
		assert.InDelta(t, 0.2, bgr.Data[i], 1e-2, "blue plane")
		assert.InDelta(t, 0, bgr.Data[16+i], 1e-2, "green plane")
		assert.InDelta(t, 1, bgr.Data[32+i], 1e-2, "red plane")
	}

	rgb := Preprocess(img, 4, RGB)
	assert.InDelta(t, 1, rgb.Data[0], 1e-2)
	assert.InDelta(t, 0.2, rgb.Data[32], 1e-2)
}

func TestParseChannelOrder(t *testing.T) {
	order, err := ParseChannelOrder("RGB")
	require.NoError(t, err)
	assert.Equal(t, RGB, order)

	_, err = ParseChannelOrder("hsv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown channel order "hsv"`)
}

func TestTopNAndArgmax(t *testing.T) {
	s := []float32{0.3, 0.9, 0.3, 0.1}
	labels := []string{"a", "b", "c", "d"}
	top := TopN(s, labels, 3)
	assert.Equal(t, []Score{{1, "b", 0.9}, {0, "a", 0.3}, {2, "c", 0.3}}, top)
	assert.Len(t, TopN(s, labels, 10), 4)

	assert.Equal(t, 1, Argmax(s))
	assert.Equal(t, 0, Argmax([]float32{2, 2}))
	assert.Equal(t, -1, Argmax(nil))
}

func TestLoadLabels(t *testing.T) {
	_, _, path := writeFixtures(t, "tench\r\ngoldfish\n")
	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tench", "goldfish"}, labels)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, modelerr.KindIO, modelerr.KindOf(err))
}

func TestRun(t *testing.T) {
	model, img, labels := writeFixtures(t, "a\nb\nc\n")
	var out bytes.Buffer
	res, err := Run(context.Background(), &out, model, img, labels, Options{Runtime: "scores", Runs: 2, Top: 2})
	require.NoError(t, err)

	assert.Len(t, res.Latencies, 2)
	assert.Equal(t, Score{Index: 1, Label: "b", Score: 0.7}, res.Best)
	require.Len(t, scores.last.inputs, 2)
	assert.Equal(t, []int64{1, 3, InputSize, InputSize}, scores.last.inputs[0].Shape)
	assert.True(t, scores.last.closed)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "Inference time: "))
	assert.True(t, strings.HasSuffix(lines[1], " ms"))
	assert.Equal(t, []string{
		"Top 2 categories with scores:",
		"Category: b, Score: 0.7",
		"Category: c, Score: 0.2",
		"max index: 1",
		"category: b",
	}, lines[2:])
}

func TestRunFailures(t *testing.T) {
	model, img, labels := writeFixtures(t, "a\nb\n")

	_, err := Run(context.Background(), &bytes.Buffer{}, model, img, labels, Options{Runtime: "scores"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model produced 3 scores but")
	assert.Contains(t, err.Error(), "holds 2 labels")

	_, err = Run(context.Background(), &bytes.Buffer{}, model, filepath.Join(t.TempDir(), "missing.png"), labels, Options{Runtime: "scores"})
	require.Error(t, err)
	assert.Equal(t, modelerr.KindIO, modelerr.KindOf(err))
	assert.Contains(t, err.Error(), "failed to load image")

	_, err = Run(context.Background(), &bytes.Buffer{}, model, img, labels, Options{Runtime: "tensorrt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown runtime "tensorrt"`)
}
