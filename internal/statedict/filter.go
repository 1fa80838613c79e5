package statedict

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/born-ml/statedict/internal/tensor"
)

// filterEnv is the environment a filter expression sees for one entry.
type filterEnv struct {
	Name  string `expr:"name"`
	Shape []int  `expr:"shape"`
	Rank  int    `expr:"rank"`
	Numel int    `expr:"numel"`
}

// Filter selects entries with a boolean expr-lang expression, e.g.
//
//	rank > 1 && name startsWith "backbone."
//	hasSuffix(name, ".bias") || numel < 16
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles source. The expression must evaluate to a bool.
func CompileFilter(source string) (*Filter, error) {
	program, err := expr.Compile(source, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", source, err)
	}
	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	return f.source
}

// Match evaluates the filter for one entry.
func (f *Filter) Match(name string, shape tensor.Shape) (bool, error) {
	out, err := expr.Run(f.program, filterEnv{
		Name:  name,
		Shape: []int(shape),
		Rank:  shape.Rank(),
		Numel: shape.NumElements(),
	})
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.source, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.source, out)
	}
	return keep, nil
}
