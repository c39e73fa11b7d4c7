package expr

import (
	"fmt"
	"maps"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env       *cel.Env
	constants map[string]bool
}

// NewEnvironment creates a new [Environment].
func NewEnvironment(opts ...cel.EnvOption) (*Environment, error) {
	env, err := createEnvironment(opts...)
	if err != nil {
		return nil, err
	}

	return &Environment{env: env, constants: map[string]bool{}}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment(opts ...cel.EnvOption) *Environment {
	env, err := NewEnvironment(opts...)
	if err != nil {
		panic(err)
	}

	return env
}

// createEnvironment creates the [*cel.Env] using the global mutex.
func createEnvironment(opts ...cel.EnvOption) (*cel.Env, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	opts = append(opts, cel.Lib(&lib{}))

	celEnv, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return celEnv, nil
}

// WithConstants returns a child [Environment] in which the given constants
// are declared. Constant names are never reported by
// [Expression.Identifiers].
func (e *Environment) WithConstants(c *Constants) (*Environment, error) {
	if c == nil || c.Len() == 0 {
		return e, nil
	}

	opts, err := c.envOptions()
	if err != nil {
		return nil, err
	}

	celMutex.Lock()
	defer celMutex.Unlock()

	child, err := e.env.Extend(opts...)
	if err != nil {
		return nil, fmt.Errorf("declare constants: %w", err)
	}

	names := maps.Clone(e.constants)
	for _, n := range c.Names() {
		names[n] = true
	}

	return &Environment{env: child, constants: names}, nil
}

// Compile compiles a CEL expression and returns a program.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// Eval compiles and evaluates an expression without variables.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Eval(expression string) (ref.Val, error) {
	program, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	out, _, err := program.Eval(cel.NoVars())
	if err != nil {
		return nil, fmt.Errorf("evaluate expression: %w", err)
	}

	return out, nil
}

// Check type-checks an expression against typed variable declarations.
func (e *Environment) Check(expression string, vars map[string]*cel.Type) error {
	opts := make([]cel.EnvOption, 0, len(vars))
	for name, t := range vars {
		opts = append(opts, cel.Variable(name, t))
	}

	celMutex.Lock()
	defer celMutex.Unlock()

	env, err := e.env.Extend(opts...)
	if err != nil {
		return fmt.Errorf("declare variables: %w", err)
	}

	_, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("check expression: %w", issues.Err())
	}

	return nil
}

// Parse parses an expression without type-checking, so that undeclared
// identifiers are allowed.
func (e *Environment) Parse(expression string) (*Expression, error) {
	celMutex.Lock()
	ast, issues := e.env.Parse(expression)
	celMutex.Unlock()

	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse expression: %w", issues.Err())
	}

	return newExpression(expression, ast.NativeRep(), e.constants), nil
}
