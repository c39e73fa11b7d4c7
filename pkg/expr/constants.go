package expr

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/openltablets/dtinfer/pkg/typesys"
)

var (
	// ErrInvalidConstant is returned when a constant cannot be declared.
	ErrInvalidConstant = errors.New("invalid constant")
)

// Constants is a set of named constants. It implements
// [typesys.ConstantResolver] and can be declared into an [Environment].
type Constants struct {
	reg    *typesys.Registry
	byName map[string]typesys.Constant
	vals   map[string]ref.Val
	names  []string
	mu     sync.RWMutex
}

// NewConstants creates an empty [Constants] whose types resolve in reg.
func NewConstants(reg *typesys.Registry) *Constants {
	return &Constants{
		reg:    reg,
		byName: map[string]typesys.Constant{},
		vals:   map[string]ref.Val{},
	}
}

// Add declares a constant. When t is nil the type is taken from the value.
// Date constants accept "2006-01-02" strings.
func (c *Constants) Add(name string, t *typesys.Type, value any) error {
	if s, ok := value.(string); ok && t.Kind() == typesys.KindDate {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConstant, name, err)
		}

		value = d
	}

	val := ConvertToCELValue(value)
	if val == types.NullValue {
		return fmt.Errorf("%w: %s: unsupported value %T", ErrInvalidConstant, name, value)
	}

	return c.add(name, t, val)
}

// AddExpression declares a constant whose value is the result of
// evaluating a CEL expression in env.
func (c *Constants) AddExpression(env *Environment, name string, t *typesys.Type, expression string) error {
	val, err := env.Eval(expression)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConstant, name, err)
	}

	return c.add(name, t, val)
}

func (c *Constants) add(name string, t *typesys.Type, val ref.Val) error {
	valueType, err := c.typeOf(val)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConstant, name, err)
	}

	switch {
	case t == nil:
		t = valueType
	case t == valueType:
	case valueType.Kind() == typesys.KindLong && t.Kind().IsIntegral():
	case valueType.Kind().IsNumeric() && t.Kind().IsNumeric() && !t.Kind().IsIntegral():
		val = types.Double(toFloat(val))
	default:
		return fmt.Errorf("%w: %s: value of type %s is not a %s", ErrInvalidConstant, name, valueType.Name(), t.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[name]; ok {
		return fmt.Errorf("%w: %s is declared twice", ErrInvalidConstant, name)
	}

	c.byName[name] = typesys.Constant{Name: name, Type: t, Value: val.Value()}
	c.vals[name] = val
	c.names = append(c.names, name)

	return nil
}

func (c *Constants) typeOf(val ref.Val) (*typesys.Type, error) {
	switch val.Type() {
	case types.IntType:
		return c.reg.Lookup("long")
	case types.DoubleType:
		return c.reg.Lookup("double")
	case types.StringType:
		return c.reg.Lookup("String")
	case types.BoolType:
		return c.reg.Lookup("boolean")
	case types.TimestampType:
		return c.reg.Lookup("Date")
	}

	return nil, fmt.Errorf("unsupported constant type %s", val.Type().TypeName())
}

func toFloat(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Int:
		return float64(v)
	case types.Double:
		return float64(v)
	}

	return 0
}

// Constant implements [typesys.ConstantResolver].
func (c *Constants) Constant(name string) (typesys.Constant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.byName[name]

	return v, ok
}

// Names returns the constant names in declaration order.
func (c *Constants) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.names)
}

// Len returns the number of constants.
func (c *Constants) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.names)
}

func (c *Constants) envOptions() ([]cel.EnvOption, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	opts := make([]cel.EnvOption, 0, len(c.names))
	for _, n := range c.names {
		val := c.vals[n]

		t, ok := val.Type().(*types.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no CEL type", ErrInvalidConstant, n)
		}

		opts = append(opts, cel.Constant(n, t, val))
	}

	return opts, nil
}

// CELType returns the CEL type used to declare variables of type t.
func CELType(t *typesys.Type) *cel.Type {
	//nolint:exhaustive // Remaining kinds are dynamic.
	switch t.Kind() {
	case typesys.KindBool:
		return cel.BoolType
	case typesys.KindByte, typesys.KindShort, typesys.KindInt, typesys.KindLong, typesys.KindChar:
		return cel.IntType
	case typesys.KindFloat, typesys.KindDouble:
		return cel.DoubleType
	case typesys.KindString:
		return cel.StringType
	case typesys.KindDate:
		return cel.TimestampType
	case typesys.KindArray:
		return cel.ListType(CELType(t.Elem()))
	}

	return cel.DynType
}
