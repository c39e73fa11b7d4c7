package ranges

import (
	"github.com/openltablets/dtinfer/pkg/typesys"
)

// InferConditionType returns the type of a condition column whose cells hold
// values and which is compared against a parameter of type param.
//
// Array and boolean parameters keep their type. For other types with a
// range form, the range type is chosen when every value parses as a range
// and at least one value either uses range syntax or has a leading zero.
// Otherwise the column holds a list of values of the parameter type.
// Types without a range form, such as beans, are returned unchanged.
func InferConditionType(
	reg *typesys.Registry,
	param *typesys.Type,
	values []string,
	consts typesys.ConstantResolver,
) *typesys.Type {
	if param.IsArray() || param.Kind() == typesys.KindBool || param.Kind() == typesys.KindRange {
		return param
	}

	kind := KindOf(param)
	if kind == KindNone {
		return param
	}

	if IsRangeColumn(kind, values, consts) {
		if t, err := reg.Lookup(kind.TypeName()); err == nil {
			return t
		}
	}

	return reg.ArrayOf(param)
}

// IsRangeColumn reports whether values should be read as ranges of kind.
// Parsing stops at the first value that is not a valid range.
func IsRangeColumn(kind Kind, values []string, consts typesys.ConstantResolver) bool {
	if len(values) == 0 {
		return false
	}

	rangeSyntax := false

	for _, v := range values {
		r, err := Parse(kind, v, consts)
		if err != nil {
			return false
		}

		if !r.Single || HasLeadingZero(v) {
			rangeSyntax = true
		}
	}

	return rangeSyntax
}
