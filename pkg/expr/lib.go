package expr

import (
	"math"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// `between` reports whether a value lies within inclusive bounds.
		// Example: between(driverAge, minAge, maxAge).
		cel.Function("between",
			cel.Overload("between_int_int_int", []*cel.Type{cel.IntType, cel.IntType, cel.IntType}, cel.BoolType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					v, okV := args[0].(types.Int)
					lo, okLo := args[1].(types.Int)
					hi, okHi := args[2].(types.Int)
					if !okV || !okLo || !okHi {
						return types.NewErr("between: invalid int arguments")
					}

					return types.Bool(v >= lo && v <= hi)
				}),
			),
			cel.Overload("between_double_double_double", []*cel.Type{cel.DoubleType, cel.DoubleType, cel.DoubleType}, cel.BoolType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					v, okV := args[0].(types.Double)
					lo, okLo := args[1].(types.Double)
					hi, okHi := args[2].(types.Double)
					if !okV || !okLo || !okHi {
						return types.NewErr("between: invalid double arguments")
					}

					return types.Bool(v >= lo && v <= hi)
				}),
			),
		),

		// `percent` scales a value by a percentage.
		// Example: percent(basePremium, 15.0).
		cel.Function("percent",
			cel.Overload("percent_double_double", []*cel.Type{cel.DoubleType, cel.DoubleType}, cel.DoubleType,
				cel.BinaryBinding(func(value, pct ref.Val) ref.Val {
					v, okV := value.(types.Double)
					p, okP := pct.(types.Double)
					if !okV || !okP {
						return types.NewErr("percent: invalid double arguments")
					}

					return types.Double(float64(v) * float64(p) / 100)
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// ConvertToCELValue converts a Go value to a CEL value.
// Handles common YAML types and returns null for unsupported types.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int8:
		return types.Int(int64(v))

	case int16:
		return types.Int(int64(v))

	case int32:
		return types.Int(int64(v))

	case int64:
		return types.Int(v)

	case uint:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case uint8:
		return types.Int(int64(v))

	case uint16:
		return types.Int(int64(v))

	case uint32:
		return types.Int(int64(v))

	case uint64:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float32:
		return types.Double(float64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case time.Time:
		return types.Timestamp{Time: v}

	case []any:
		// Convert slice to CEL list.
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, celValues)

	case map[string]any:
		// Convert string map to CEL map.
		celMap := make(map[ref.Val]ref.Val)
		for key, val := range v {
			celKey := types.String(key)
			celVal := ConvertToCELValue(val)
			celMap[celKey] = celVal
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	default:
		// For unsupported types, return null instead of erroring.
		return types.NullValue
	}
}
