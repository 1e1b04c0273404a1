package checker

import (
	"github.com/zerfoo/zverify/internal/onnx"
	"k8s.io/klog/v2"
)

type functionKey struct {
	domain, name, overload string
}

// function returns the model-local function implementing domain::opType,
// or nil.
func (c *checker) function(domain, opType, overload string) *onnx.FunctionProto {
	return c.functions[functionKey{domain, opType, overload}]
}

// checkFunctions indexes the model-local functions and checks that each body
// is in topological order over the function inputs.
func (c *checker) checkFunctions() error {
	c.functions = make(map[functionKey]*onnx.FunctionProto, len(c.model.GetFunctions()))
	for _, fn := range c.model.GetFunctions() {
		if fn.GetName() == "" {
			return modelErrorf("model-local function has an empty name")
		}
		key := functionKey{onnx.CanonicalDomain(fn.GetDomain()), fn.GetName(), fn.GetOverload()}
		if c.functions[key] != nil {
			return modelErrorf("function %s::%s is declared more than once", key.domain, key.name)
		}
		c.functions[key] = fn

		defined := make(map[string]bool, len(fn.GetInput())+len(fn.GetNode()))
		for _, input := range fn.GetInput() {
			defined[input] = true
		}
		for i, node := range fn.GetNode() {
			if node.GetOpType() == "" {
				return modelErrorf("function %q: node %s: op_type is empty", fn.GetName(), nodeLabel(i, node))
			}
			for _, input := range node.GetInput() {
				if input != "" && !defined[input] {
					return modelErrorf("function %q: node %s (%s): input %q is not defined before use", fn.GetName(), nodeLabel(i, node), node.GetOpType(), input)
				}
			}
			for _, output := range node.GetOutput() {
				if output == "" {
					continue
				}
				if defined[output] {
					return modelErrorf("function %q: node %s (%s): output %q is already defined", fn.GetName(), nodeLabel(i, node), node.GetOpType(), output)
				}
				defined[output] = true
			}
		}
		for _, output := range fn.GetOutput() {
			if !defined[output] {
				return modelErrorf("function %q: output %q is not produced by any node", fn.GetName(), output)
			}
		}
		klog.V(2).Infof("Registered model-local function %s::%s with %d nodes", key.domain, key.name, len(fn.GetNode()))
	}
	return nil
}

// checkTrainingInfo checks the initialization and algorithm graphs and that
// their bindings name initializers of the main graph.
func (c *checker) checkTrainingInfo() error {
	main := c.model.GetGraph()
	initializers := make(map[string]bool, len(main.GetInitializer()))
	for _, t := range main.GetInitializer() {
		initializers[t.GetName()] = true
	}
	for _, sparse := range main.GetSparseInitializer() {
		initializers[sparse.GetValues().GetName()] = true
	}
	visible := make(map[string]bool, len(initializers)+len(main.GetInput()))
	for name := range initializers {
		visible[name] = true
	}
	for _, info := range main.GetInput() {
		visible[info.GetName()] = true
	}

	for i, info := range c.model.GetTrainingInfo() {
		if init := info.GetInitialization(); init != nil {
			if err := c.checkGraph(init, nil); err != nil {
				return err
			}
		}
		if algo := info.GetAlgorithm(); algo != nil {
			if err := c.checkGraph(algo, visible); err != nil {
				return err
			}
		}
		for _, bindings := range [][]*onnx.StringStringEntryProto{info.GetInitializationBinding(), info.GetUpdateBinding()} {
			for _, b := range bindings {
				if !initializers[b.GetKey()] {
					return modelErrorf("training_info %d binds %q, which is not an initializer of the main graph", i, b.GetKey())
				}
			}
		}
	}
	return nil
}
