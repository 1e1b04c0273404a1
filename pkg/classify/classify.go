// Package classify runs an image classification model on one image: the
// image is resized and laid out as a CHW float tensor, the session is run
// several times with each run timed, and the best scoring labels are
// reported.
package classify

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/pkg/modelerr"
	"github.com/zerfoo/zverify/pkg/session"
	"k8s.io/klog/v2"
)

const (
	// InputSize is the height and width images are resized to.
	InputSize = 224
	// DefaultRuns is how many timed runs Run performs by default.
	DefaultRuns = 5
	// DefaultTop is how many categories Run lists by default.
	DefaultTop = 10
)

// ChannelOrder is the order of the color planes in the input tensor.
type ChannelOrder string

const (
	// BGR puts blue first, the layout OpenCV decodes images into.
	BGR ChannelOrder = "bgr"
	RGB ChannelOrder = "rgb"
)

// ParseChannelOrder accepts "bgr" and "rgb" in any case.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch order := ChannelOrder(strings.ToLower(s)); order {
	case BGR, RGB:
		return order, nil
	}
	return "", errors.Errorf("unknown channel order %q, want bgr or rgb", s)
}

// Options configure Run. Zero fields take their defaults.
type Options struct {
	Runtime  string
	Runs     int
	Top      int
	Channels ChannelOrder
}

func (o Options) withDefaults() Options {
	if o.Runtime == "" {
		o.Runtime = session.DefaultRuntime
	}
	if o.Runs <= 0 {
		o.Runs = DefaultRuns
	}
	if o.Top <= 0 {
		o.Top = DefaultTop
	}
	if o.Channels == "" {
		o.Channels = BGR
	}
	return o
}

// Score is the model output for one category.
type Score struct {
	Index int
	Label string
	Score float32
}

// Result holds the timings and scores of a classification.
type Result struct {
	Latencies []time.Duration
	// Top lists the best scores, highest first.
	Top  []Score
	Best Score
}

// LoadImage decodes the image file at path.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, modelerr.New(modelerr.KindIO, path, errors.Wrap(err, "failed to load image"))
	}
	return img, nil
}

// Preprocess resizes img to size x size, scales every channel to [0, 1]
// and returns it as a [1, 3, size, size] tensor. Alpha is dropped.
func Preprocess(img image.Image, size int, order ChannelOrder) session.Tensor {
	resized := imaging.Resize(img, size, size, imaging.Linear)
	plane := size * size
	data := make([]float32, 3*plane)
	planes := [3]int{0, 1, 2}
	if order == BGR {
		planes = [3]int{2, 1, 0}
	}
	for y := range size {
		row := resized.Pix[y*resized.Stride:]
		for x := range size {
			px := row[4*x : 4*x+3]
			for c, p := range planes {
				data[p*plane+y*size+x] = float32(px[c]) / 255
			}
		}
	}
	return session.Tensor{Shape: []int64{1, 3, int64(size), int64(size)}, Data: data}
}

// LoadLabels reads one category label per line.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, modelerr.New(modelerr.KindIO, path, errors.Wrap(err, "failed to open category labels file"))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			klog.Warningf("Error closing file %s: %v", path, cerr)
		}
	}()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, modelerr.New(modelerr.KindIO, path, errors.Wrap(err, "failed to read category labels"))
	}
	return labels, nil
}

// Argmax returns the index of the first highest score, or -1 for no scores.
func Argmax(scores []float32) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}

// TopN returns the n highest scores in descending order. Equal scores keep
// their index order.
func TopN(scores []float32, labels []string, n int) []Score {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool { return scores[indices[a]] > scores[indices[b]] })
	n = min(n, len(indices))
	top := make([]Score, n)
	for i, idx := range indices[:n] {
		top[i] = Score{Index: idx, Label: labels[idx], Score: scores[idx]}
	}
	return top
}

// Run classifies the image at imagePath with the model at modelPath and
// writes the per-run latency, the top categories and the best category to
// w.
func Run(ctx context.Context, w io.Writer, modelPath, imagePath, labelsPath string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}
	input := Preprocess(img, InputSize, opts.Channels)

	rt, err := session.Lookup(opts.Runtime)
	if err != nil {
		return nil, err
	}
	sess, err := session.Initialize(ctx, modelPath, rt)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			klog.Warningf("Error closing %s session: %v", rt.Name(), cerr)
		}
	}()
	if n := len(sess.InputNames()); n != 1 {
		return nil, modelerr.Newf(modelerr.KindSession, modelPath, "classifier must take one input, got %d", n)
	}
	if len(sess.OutputNames()) == 0 {
		return nil, modelerr.Newf(modelerr.KindSession, modelPath, "model has no outputs")
	}
	inputName, outputName := sess.InputNames()[0], sess.OutputNames()[0]

	res := &Result{}
	var scores []float32
	for i := range opts.Runs {
		start := time.Now()
		out, err := sess.Run(ctx, map[string]session.Tensor{inputName: input})
		elapsed := time.Since(start)
		if err != nil {
			return nil, modelerr.New(modelerr.KindSession, modelPath, errors.Wrapf(err, "run %d", i+1))
		}
		res.Latencies = append(res.Latencies, elapsed)
		if _, err := fmt.Fprintf(w, "Inference time: %.6g ms\n", float64(elapsed)/float64(time.Millisecond)); err != nil {
			return nil, err
		}
		scores = out[outputName].Data
	}

	if len(scores) == 0 {
		return nil, modelerr.Newf(modelerr.KindSession, modelPath, "output %q is empty", outputName)
	}
	if len(scores) != len(labels) {
		return nil, errors.Errorf("model produced %d scores but %s holds %d labels", len(scores), labelsPath, len(labels))
	}
	res.Top = TopN(scores, labels, opts.Top)
	best := Argmax(scores)
	res.Best = Score{Index: best, Label: labels[best], Score: scores[best]}

	if _, err := fmt.Fprintf(w, "Top %d categories with scores:\n", opts.Top); err != nil {
		return nil, err
	}
	for _, s := range res.Top {
		if _, err := fmt.Fprintf(w, "Category: %s, Score: %.6g\n", s.Label, s.Score); err != nil {
			return nil, err
		}
	}
	if _, err := fmt.Fprintf(w, "max index: %d\ncategory: %s\n", best, res.Best.Label); err != nil {
		return nil, err
	}
	return res, nil
}
