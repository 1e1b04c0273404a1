// Package registry holds the operator schemas the checker validates nodes
// against.
package registry

import (
	"sort"
	"sync"

	"github.com/zerfoo/zverify/internal/onnx"
)

// Unbounded marks a variadic input or output list.
const Unbounded = -1

// Rule selects how the checker propagates element types through an operator.
type Rule int

const (
	// RuleNone infers nothing about the outputs.
	RuleNone Rule = iota
	// RuleUnary keeps the element type and shape of input 0.
	RuleUnary
	// RuleElementwise requires one element type across inputs and
	// broadcast-compatible shapes. The output has the broadcast shape.
	RuleElementwise
	// RuleCompare is RuleElementwise with a BOOL output.
	RuleCompare
	// RuleSameType requires one element type across inputs without
	// constraining shapes.
	RuleSameType
	// RuleKeepType keeps the element type of input 0; the shape is unknown.
	RuleKeepType
	// RuleMatMul checks the inner dimensions of a (batched) matrix product.
	RuleMatMul
	// RuleGemm checks the rank-2 operands of Gemm under transA/transB.
	RuleGemm
	// RuleConv checks that input and weight ranks match and channels agree.
	RuleConv
	// RuleCast sets the output element type from the "to" attribute.
	RuleCast
	// RuleInt64 sets the output element type to INT64.
	RuleInt64
)

// Schema describes one version of an operator.
type Schema struct {
	Domain       string
	OpType       string
	SinceVersion int64
	MinInputs    int
	MaxInputs    int
	MinOutputs   int
	MaxOutputs   int
	Required     []string
	Rule         Rule
}

// AcceptsInputs reports whether n inputs are within the schema's arity.
func (s *Schema) AcceptsInputs(n int) bool {
	return n >= s.MinInputs && (s.MaxInputs == Unbounded || n <= s.MaxInputs)
}

// AcceptsOutputs reports whether n outputs are within the schema's arity.
func (s *Schema) AcceptsOutputs(n int) bool {
	return n >= s.MinOutputs && (s.MaxOutputs == Unbounded || n <= s.MaxOutputs)
}

type key struct {
	domain string
	opType string
}

var (
	mu sync.RWMutex
	// registry maps (domain, op_type) to its versions, sorted by SinceVersion.
	registry = make(map[key][]*Schema)
)

// Register adds a schema version. Registering the same (domain, op_type,
// since_version) again replaces the earlier entry.
func Register(s *Schema) {
	s.Domain = onnx.CanonicalDomain(s.Domain)
	mu.Lock()
	defer mu.Unlock()
	k := key{s.Domain, s.OpType}
	versions := registry[k]
	for i, existing := range versions {
		if existing.SinceVersion == s.SinceVersion {
			versions[i] = s
			return
		}
	}
	versions = append(versions, s)
	sort.Slice(versions, func(i, j int) bool { return versions[i].SinceVersion < versions[j].SinceVersion })
	registry[k] = versions
}

// Lookup returns the newest schema of op_type in domain whose since-version
// does not exceed opset.
func Lookup(domain, opType string, opset int64) (*Schema, bool) {
	mu.RLock()
	defer mu.RUnlock()
	versions := registry[key{onnx.CanonicalDomain(domain), opType}]
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].SinceVersion <= opset {
			return versions[i], true
		}
	}
	return nil, false
}

// Known reports whether any version of op_type is registered in domain.
func Known(domain, opType string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return len(registry[key{onnx.CanonicalDomain(domain), opType}]) > 0
}

// Ops returns the newest version of every registered operator, sorted by
// domain then op_type.
func Ops() []*Schema {
	mu.RLock()
	defer mu.RUnlock()
	ops := make([]*Schema, 0, len(registry))
	for _, versions := range registry {
		ops = append(ops, versions[len(versions)-1])
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Domain != ops[j].Domain {
			return ops[i].Domain < ops[j].Domain
		}
		return ops[i].OpType < ops[j].OpType
	})
	return ops
}
