// Package filter compiles profile selector expressions using the expr
// language. Selectors scope a sync run to a subset of the quality profiles
// known locally or remotely.
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ProfileInfo is the environment a selector expression is evaluated
// against, once per profile name.
type ProfileInfo struct {
	// Name is the quality profile name.
	Name string
	// Managed reports whether the profile is defined in the local
	// configuration document.
	Managed bool
}

// CompilationError describes a selector expression that failed to compile
type CompilationError struct {
	Expression string
	Err        error
}

// Error implements the error interface
func (e *CompilationError) Error() string {
	return fmt.Sprintf("invalid selector expression %q: %v", e.Expression, e.Err)
}

// Unwrap returns the underlying error
func (e *CompilationError) Unwrap() error {
	return e.Err
}

// Selector decides whether a profile is in scope for the current run.
type Selector func(ProfileInfo) (bool, error)

// All matches every profile.
func All(ProfileInfo) (bool, error) {
	return true, nil
}

// Compile compiles a selector expression. An empty expression matches
// everything. Expressions are compiled once per run, so no caching is
// needed here.
func Compile(expression string) (Selector, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return All, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(ProfileInfo{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{Expression: expression, Err: err}
	}

	return func(info ProfileInfo) (bool, error) {
		result, err := vm.Run(program, info)
		if err != nil {
			return false, fmt.Errorf("selector evaluation failed for profile %q: %w", info.Name, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return false, fmt.Errorf("selector did not return a boolean for profile %q", info.Name)
		}
		return matched, nil
	}, nil
}
