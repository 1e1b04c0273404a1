package inspector

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/tensordata"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
)

func newTable(alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			switch {
			case row < 0:
				s = headerRowStyle
				return
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			}
			return s.Align(alignment)
		})
}

// Stats are the figures reported by Summary.
type Stats struct {
	Nodes        int
	Initializers int
	Parameters   int64
	WeightBytes  int64
	// OpCounts counts nodes per op_type, sub-graphs included.
	OpCounts map[string]int
}

// ComputeStats counts the nodes, initializers, parameters and weight bytes
// of m's main graph. Sub-graph nodes are counted in OpCounts only.
func ComputeStats(m *onnx.ModelProto) Stats {
	g := m.GetGraph()
	stats := Stats{
		Nodes:        len(g.GetNode()),
		Initializers: len(g.GetInitializer()),
		OpCounts:     make(map[string]int),
	}
	for _, t := range g.GetInitializer() {
		n, err := tensordata.NumElements(t.GetDims())
		if err != nil {
			continue
		}
		stats.Parameters += n
		stats.WeightBytes += payloadBytes(t, n)
	}
	countOps(g, stats.OpCounts)
	return stats
}

func payloadBytes(t *onnx.TensorProto, n int64) int64 {
	if tensordata.IsExternal(t) {
		if ext, err := tensordata.ParseExternal(t); err == nil && ext.Length >= 0 {
			return ext.Length
		}
	}
	if t.GetRawData() != nil {
		return int64(len(t.GetRawData()))
	}
	if size, ok := tensordata.ByteLen(onnx.TensorProto_DataType(t.GetDataType()), n); ok {
		return size
	}
	var total int64
	for _, s := range t.GetStringData() {
		total += int64(len(s))
	}
	return total
}

func countOps(g *onnx.GraphProto, counts map[string]int) {
	for _, node := range g.GetNode() {
		op := node.GetOpType()
		if domain := node.GetDomain(); onnx.CanonicalDomain(domain) != "" {
			op = domain + "::" + op
		}
		counts[op]++
		for _, attr := range node.GetAttribute() {
			for _, sub := range append([]*onnx.GraphProto{attr.GetG()}, attr.GetGraphs()...) {
				if sub != nil {
					countOps(sub, counts)
				}
			}
		}
	}
}

// Summary writes a table of model metadata and graph statistics to w,
// followed by a table of operator counts.
func Summary(w io.Writer, m *onnx.ModelProto) error {
	stats := ComputeStats(m)

	opsets := make([]string, len(m.GetOpsetImport()))
	for i, opset := range m.GetOpsetImport() {
		domain := opset.GetDomain()
		if domain == "" {
			domain = "ai.onnx"
		}
		opsets[i] = fmt.Sprintf("%s v%d", domain, opset.GetVersion())
	}
	producer := strings.TrimSpace(m.GetProducerName() + " " + m.GetProducerVersion())

	table := newTable(lipgloss.Left, lipgloss.Right).Headers("Model", "")
	table.Row("Graph", m.GetGraph().GetName())
	table.Row("Producer", producer)
	table.Row("IR version", strconv.FormatInt(m.GetIrVersion(), 10))
	table.Row("Opsets", strings.Join(opsets, ", "))
	table.Row("Inputs", humanize.Comma(int64(len(m.GetGraph().GetInput()))))
	table.Row("Outputs", humanize.Comma(int64(len(m.GetGraph().GetOutput()))))
	table.Row("Nodes", humanize.Comma(int64(stats.Nodes)))
	table.Row("Initializers", humanize.Comma(int64(stats.Initializers)))
	table.Row("Parameters", humanize.Comma(stats.Parameters))
	table.Row("Weights", humanize.Bytes(uint64(stats.WeightBytes)))
	if _, err := fmt.Fprintln(w, table); err != nil {
		return err
	}

	if len(stats.OpCounts) == 0 {
		return nil
	}
	ops := make([]string, 0, len(stats.OpCounts))
	for op := range stats.OpCounts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		ci, cj := stats.OpCounts[ops[i]], stats.OpCounts[ops[j]]
		if ci != cj {
			return ci > cj
		}
		return ops[i] < ops[j]
	})
	opTable := newTable(lipgloss.Left, lipgloss.Right).Headers("Operator", "Count")
	for _, op := range ops {
		opTable.Row(op, humanize.Comma(int64(stats.OpCounts[op])))
	}
	_, err := fmt.Fprintln(w, opTable)
	return err
}
