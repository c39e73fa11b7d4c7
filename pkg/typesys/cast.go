package typesys

// Caster decides whether a value of one type can be used where another type
// is expected without an explicit conversion.
type Caster interface {
	CanCast(from, to *Type) bool
}

// Widening is the default [Caster]. It allows numeric widening
// (byte, short, int, long, float, double), char to numeric, integral to big
// integer, numeric to big decimal, and anything to Object.
type Widening struct{}

var numericRank = map[Kind]int{
	KindByte:   1,
	KindShort:  2,
	KindChar:   2,
	KindInt:    3,
	KindLong:   4,
	KindFloat:  5,
	KindDouble: 6,
}

func (Widening) CanCast(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}

	if from == to || to.Kind() == KindObject {
		return true
	}

	fk, tk := from.Kind(), to.Kind()

	switch tk {
	case KindBigInteger:
		return fk.IsIntegral() || fk == KindChar
	case KindBigDecimal:
		return fk.IsNumeric() || fk == KindChar
	case KindChar, KindShort:
		// Narrow targets only accept byte.
		return fk == KindByte && tk == KindShort
	}

	fr, fok := numericRank[fk]
	tr, tok := numericRank[tk]

	return fok && tok && fr < tr
}
