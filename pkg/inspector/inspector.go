// Package inspector renders ONNX models as text: the printable graph, a
// statistics summary and a short inspection report.
package inspector

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/pkg/importer"
)

// InspectONNX inspects an ONNX model and prints its summary.
func InspectONNX(inputFile string) error {
	return Inspect(os.Stdout, inputFile)
}

// Inspect writes the short inspection report of the model at inputFile to w.
func Inspect(w io.Writer, inputFile string) error {
	fmt.Fprintf(w, "Inspecting ONNX model from: %s\n", inputFile)

	model, err := importer.LoadOnnxModel(inputFile)
	if err != nil {
		return errors.Wrap(err, "failed to load ONNX model")
	}

	fmt.Fprintf(w, "Successfully loaded model with IR version: %d\n", model.GetIrVersion())
	if len(model.GetOpsetImport()) > 0 {
		fmt.Fprintf(w, "Opset version: %d\n", model.GetOpsetImport()[0].GetVersion())
	}
	if producer := model.GetProducerName(); producer != "" {
		fmt.Fprintf(w, "Producer: %s %s\n", producer, model.GetProducerVersion())
	}
	_, err = fmt.Fprintf(w, "Graph has %d nodes.\n", len(model.GetGraph().GetNode()))
	return err
}
