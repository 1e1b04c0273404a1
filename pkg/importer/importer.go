// Package importer reads ONNX model files into memory.
package importer

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/modelerr"
	"k8s.io/klog/v2"
)

// Option configures Load.
type Option func(*options)

type options struct {
	progress io.Writer
}

// WithProgress draws a byte progress bar on w while the file is read.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// LoadOnnxModel reads an ONNX model file and returns the parsed ModelProto.
func LoadOnnxModel(path string) (*onnx.ModelProto, error) {
	return Load(path)
}

// Load reads the file at path and decodes it as a ModelProto. A missing or
// unreadable file fails with modelerr.KindIO, undecodable bytes with
// modelerr.KindFormat. No model is returned on failure.
func Load(path string, opts ...Option) (*onnx.ModelProto, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	data, err := readFile(path, o.progress)
	if err != nil {
		return nil, modelerr.New(modelerr.KindIO, path, errors.Wrap(err, "failed to read ONNX file"))
	}
	klog.V(1).Infof("Read %d bytes from %s", len(data), path)

	model := &onnx.ModelProto{}
	if err := onnx.Unmarshal(data, model); err != nil {
		return nil, modelerr.New(modelerr.KindFormat, path, errors.Wrap(err, "failed to unmarshal ONNX protobuf"))
	}
	klog.V(1).Infof("Decoded model: IR version %d, %d nodes", model.GetIrVersion(), len(model.GetGraph().GetNode()))
	return model, nil
}

func readFile(path string, progress io.Writer) ([]byte, error) {
	if progress == nil {
		return os.ReadFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			klog.Warningf("Error closing file %s: %v", path, cerr)
		}
	}()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	bar := progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("reading model"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(progress, "\n") }),
	)
	var buf bytes.Buffer
	buf.Grow(int(info.Size()))
	if _, err := io.Copy(io.MultiWriter(&buf, bar), f); err != nil {
		return nil, err
	}
	_ = bar.Finish()
	return buf.Bytes(), nil
}
