package inspector

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/tensordata"
)

// maxStringLen is where attribute strings are cut short.
const maxStringLen = 64

// PrintGraph writes the textual rendering of g to w, followed by a newline.
func PrintGraph(w io.Writer, g *onnx.GraphProto) error {
	_, err := io.WriteString(w, PrintableGraph(g)+"\n")
	return err
}

// PrintableGraph renders g in the layout of ONNX's printable_graph:
//
//	graph name (
//	  %x[FLOAT, 1x3x224x224]
//	) initializers (
//	  %w[FLOAT, 64x3x7x7]
//	) {
//	  %y = Conv[kernel_shape = [7, 7]](%x, %w)
//	  return %y
//	}
//
// Graphs held by node attributes are rendered after the graph that uses
// them. The result depends only on g.
func PrintableGraph(g *onnx.GraphProto) string {
	var content []string
	const indent = "  "
	header := []string{"graph", g.GetName()}

	initializers := make(map[string]bool, len(g.GetInitializer()))
	for _, t := range g.GetInitializer() {
		initializers[t.GetName()] = true
	}

	if len(g.GetInput()) > 0 {
		header = append(header, "(")
		var required, withInit []string
		for _, in := range g.GetInput() {
			if initializers[in.GetName()] {
				withInit = append(withInit, printableValueInfo(in))
			} else {
				required = append(required, printableValueInfo(in))
			}
		}
		if len(required) > 0 {
			content = append(content, strings.Join(header, " "))
			header = nil
			for _, line := range required {
				content = append(content, indent+line)
			}
		}
		header = append(header, ")")

		if len(withInit) > 0 {
			header = append(header, "optional inputs with matching initializers (")
			content = append(content, strings.Join(header, " "))
			header = nil
			for _, line := range withInit {
				content = append(content, indent+line)
			}
			header = append(header, ")")
		}

		if len(withInit) < len(initializers) {
			inputs := make(map[string]bool, len(g.GetInput()))
			for _, in := range g.GetInput() {
				inputs[in.GetName()] = true
			}
			header = append(header, "initializers (")
			content = append(content, strings.Join(header, " "))
			header = nil
			for _, t := range g.GetInitializer() {
				if !inputs[t.GetName()] {
					content = append(content, indent+printableTensor(t))
				}
			}
			header = append(header, ")")
		}
	}

	header = append(header, "{")
	content = append(content, strings.Join(header, " "))

	var graphs []*onnx.GraphProto
	for _, node := range g.GetNode() {
		line, subgraphs := printableNode(node)
		content = append(content, indent+line)
		graphs = append(graphs, subgraphs...)
	}

	tail := []string{"return"}
	if len(g.GetOutput()) > 0 {
		names := make([]string, len(g.GetOutput()))
		for i, out := range g.GetOutput() {
			names[i] = "%" + out.GetName()
		}
		tail = append(tail, strings.Join(names, ", "))
	}
	content = append(content, indent+strings.Join(tail, " "))
	content = append(content, "}")

	for _, sub := range graphs {
		content = append(content, "\n"+PrintableGraph(sub))
	}
	return strings.Join(content, "\n")
}

func printableValueInfo(v *onnx.ValueInfoProto) string {
	return fmt.Sprintf("%%%s[%s]", v.GetName(), printableType(v.GetType()))
}

func printableType(t *onnx.TypeProto) string {
	switch t.ValueCase() {
	case "tensor_type":
		tt := t.GetTensorType()
		s := onnx.TensorProto_DataType(tt.GetElemType()).String()
		if shape := tt.GetShape(); shape != nil {
			if len(shape.GetDim()) > 0 {
				dims := make([]string, len(shape.GetDim()))
				for i, d := range shape.GetDim() {
					dims[i] = printableDim(d)
				}
				s += ", " + strings.Join(dims, "x")
			} else {
				s += ", scalar"
			}
		}
		return s
	case "":
		return ""
	}
	return "Unknown type " + t.ValueCase()
}

func printableDim(d *onnx.TensorShapeProto_Dimension) string {
	switch v := d.GetValue().(type) {
	case *onnx.TensorShapeProto_Dimension_DimValue:
		return strconv.FormatInt(v.DimValue, 10)
	case *onnx.TensorShapeProto_Dimension_DimParam:
		return v.DimParam
	}
	return "?"
}

func printableTensor(t *onnx.TensorProto) string {
	s := "%" + t.GetName() + "[" + onnx.TensorProto_DataType(t.GetDataType()).String()
	if len(t.GetDims()) > 0 {
		dims := make([]string, len(t.GetDims()))
		for i, d := range t.GetDims() {
			dims[i] = strconv.FormatInt(d, 10)
		}
		s += ", " + strings.Join(dims, "x")
	} else {
		s += ", scalar"
	}
	return s + "]"
}

func printableNode(node *onnx.NodeProto) (string, []*onnx.GraphProto) {
	var content []string
	if len(node.GetOutput()) > 0 {
		content = append(content, percentList(node.GetOutput()), "=")
	}

	var graphs []*onnx.GraphProto
	attrs := make([]string, len(node.GetAttribute()))
	for i, attr := range node.GetAttribute() {
		var subgraphs []*onnx.GraphProto
		attrs[i], subgraphs = printableAttribute(attr)
		graphs = append(graphs, subgraphs...)
	}
	sort.Strings(attrs)

	inputs := percentList(node.GetInput())
	if len(attrs) > 0 {
		content = append(content, fmt.Sprintf("%s[%s](%s)", node.GetOpType(), strings.Join(attrs, ", "), inputs))
	} else {
		content = append(content, fmt.Sprintf("%s(%s)", node.GetOpType(), inputs))
	}
	return strings.Join(content, " "), graphs
}

func percentList(names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = "%" + name
	}
	return strings.Join(parts, ", ")
}

// printableAttribute renders "name = value" from whichever value field is
// present, and returns the graphs the attribute holds.
func printableAttribute(attr *onnx.AttributeProto) (string, []*onnx.GraphProto) {
	content := []string{attr.GetName(), "="}
	var graphs []*onnx.GraphProto

	switch {
	case attr.F != nil:
		content = append(content, formatFloat(float64(attr.GetF())))
	case attr.I != nil:
		content = append(content, strconv.FormatInt(attr.GetI(), 10))
	case attr.S != nil:
		content = append(content, pyRepr(sanitize(attr.GetS()), ""))
	case attr.T != nil:
		if len(attr.GetT().GetDims()) > 0 {
			content = append(content, "<Tensor>")
		} else {
			content = append(content, fmt.Sprintf("<Scalar Tensor [%s]>", strings.Join(scalarValues(attr.GetT()), ", ")))
		}
	case attr.SparseTensor != nil:
		content = append(content, "<Sparse Tensor>")
	case attr.G != nil:
		content = append(content, fmt.Sprintf("<graph %s>", attr.GetG().GetName()))
		graphs = append(graphs, attr.GetG())
	case attr.Tp != nil:
		content = append(content, fmt.Sprintf("<Type Proto %s>", printableType(attr.GetTp())))
	case len(attr.Floats) > 0:
		values := make([]string, len(attr.Floats))
		for i, f := range attr.Floats {
			values[i] = formatFloat(float64(f))
		}
		content = append(content, "["+strings.Join(values, ", ")+"]")
	case len(attr.Ints) > 0:
		values := make([]string, len(attr.Ints))
		for i, v := range attr.Ints {
			values[i] = strconv.FormatInt(v, 10)
		}
		content = append(content, "["+strings.Join(values, ", ")+"]")
	case len(attr.Strings) > 0:
		values := make([]string, len(attr.Strings))
		for i, s := range attr.Strings {
			values[i] = pyRepr(sanitize(s), "")
		}
		content = append(content, "["+strings.Join(values, ", ")+"]")
	case len(attr.Tensors) > 0:
		content = append(content, "[<Tensor>, ...]")
	case len(attr.SparseTensors) > 0:
		content = append(content, "[<Sparse Tensor>, ...]")
	case len(attr.TypeProtos) > 0:
		content = append(content, "[")
		for i, tp := range attr.TypeProtos {
			comma := ","
			if i == len(attr.TypeProtos)-1 {
				comma = ""
			}
			content = append(content, fmt.Sprintf("<Type Proto %s>%s", printableType(tp), comma))
		}
		content = append(content, "]")
	case len(attr.Graphs) > 0:
		content = append(content, "[")
		for i, g := range attr.Graphs {
			comma := ","
			if i == len(attr.Graphs)-1 {
				comma = ""
			}
			content = append(content, fmt.Sprintf("<graph %s>%s", g.GetName(), comma))
		}
		content = append(content, "]")
		graphs = append(graphs, attr.Graphs...)
	default:
		content = append(content, "<Unknown>")
	}
	return strings.Join(content, " "), graphs
}

// formatFloat renders f with 15 significant digits, like printf's %.15g.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.15g", f)
}

// sanitize decodes b as UTF-8, dropping invalid bytes, and cuts it to
// maxStringLen runes.
func sanitize(b []byte) string {
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.WriteRune(r)
		}
		b = b[size:]
	}
	runes := []rune(sb.String())
	if len(runes) < maxStringLen {
		return string(runes)
	}
	return fmt.Sprintf("%s...<+len=%d>", string(runes[:maxStringLen]), len(runes)-maxStringLen)
}

// pyRepr quotes s the way Python's repr quotes str (prefix "") and bytes
// (prefix "b") values: single quotes unless s holds a single quote and no
// double quote.
func pyRepr(s, prefix string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case prefix == "b" && r >= 0x80:
			fmt.Fprintf(&sb, `\x%02x`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// pyFloat renders f the way Python's repr renders a float.
func pyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// scalarValues renders the values of a rank-0 tensor.
func scalarValues(t *onnx.TensorProto) []string {
	dt := onnx.TensorProto_DataType(t.GetDataType())
	var values []string
	switch {
	case dt == onnx.TensorProto_STRING:
		for _, s := range t.GetStringData() {
			b := make([]byte, 0, len(s))
			for _, c := range s {
				b = utf8.AppendRune(b, rune(c))
			}
			values = append(values, pyRepr(string(b), "b"))
		}
	case tensordata.IsFloat(dt):
		floats, err := tensordata.Float64s(t)
		if err != nil {
			return nil
		}
		for _, f := range floats {
			values = append(values, pyFloat(f))
		}
	case dt == onnx.TensorProto_COMPLEX64:
		for _, f := range t.GetFloatData() {
			values = append(values, pyFloat(float64(f)))
		}
	case dt == onnx.TensorProto_COMPLEX128:
		for _, f := range t.GetDoubleData() {
			values = append(values, pyFloat(f))
		}
	default:
		ints, err := tensordata.Int64s(t)
		if err != nil {
			for _, v := range t.GetInt32Data() {
				values = append(values, strconv.FormatInt(int64(v), 10))
			}
			return values
		}
		for _, v := range ints {
			values = append(values, strconv.FormatInt(v, 10))
		}
	}
	return values
}
