// Package ranges parses range literals such as "1-5", "[10; 20)", "< 18" or
// "100+" and infers the value type of decision-table condition columns.
package ranges

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/openltablets/dtinfer/pkg/typesys"
)

// ErrInvalidRange is returned when text is not a valid range literal.
var ErrInvalidRange = errors.New("invalid range")

// Kind is the value domain of a range.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindDouble
	KindDate
	KindString
	KindChar
)

// KindOf returns the range kind for values of t, or [KindNone].
func KindOf(t *typesys.Type) Kind {
	//nolint:exhaustive // Other kinds have no range type.
	switch t.Kind() {
	case typesys.KindByte, typesys.KindShort, typesys.KindInt, typesys.KindLong, typesys.KindBigInteger:
		return KindInt
	case typesys.KindFloat, typesys.KindDouble, typesys.KindBigDecimal:
		return KindDouble
	case typesys.KindDate:
		return KindDate
	case typesys.KindString:
		return KindString
	case typesys.KindChar:
		return KindChar
	}

	return KindNone
}

// TypeName returns the name of the range type for the kind.
func (k Kind) TypeName() string {
	switch k {
	case KindInt:
		return typesys.IntRange
	case KindDouble:
		return typesys.DoubleRange
	case KindDate:
		return typesys.DateRange
	case KindString:
		return typesys.StringRange
	case KindChar:
		return typesys.CharRange
	case KindNone:
	}

	return ""
}

// Bound is one end of a [Range].
type Bound struct {
	num       decimal.Decimal
	date      time.Time
	Text      string
	Inclusive bool
	Unbounded bool
}

// Range is a parsed range literal.
type Range struct {
	Min  Bound
	Max  Bound
	Kind Kind
	// Single is set when the literal was a plain value rather than range
	// syntax.
	Single bool
}

func (r Range) String() string {
	var b strings.Builder

	if r.Min.Inclusive {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}

	if r.Min.Unbounded {
		b.WriteString("-inf")
	} else {
		b.WriteString(r.Min.Text)
	}

	b.WriteString("; ")

	if r.Max.Unbounded {
		b.WriteString("+inf")
	} else {
		b.WriteString(r.Max.Text)
	}

	if r.Max.Inclusive {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}

	return b.String()
}

var (
	bracketRe = regexp.MustCompile(`^([\[(])\s*(.+?)\s*(?:;|\.\.)\s*(.+?)\s*([\])])$`)
	prefixRe  = regexp.MustCompile(`^(<=|>=|<|>)\s*(.+)$`)
	wordPreRe = regexp.MustCompile(`(?i)^(more than|greater than|less than|fewer than)\s+(.+)$`)
	wordSufRe = regexp.MustCompile(`(?i)^(.+?)\s+(and more|or more|and less|or less)$`)
	plusRe    = regexp.MustCompile(`^(.+?)\s*\+$`)
	dotsRe    = regexp.MustCompile(`^(.+?)\s*(?:\.\.\.|…|\.\.)\s*(.+)$`)
	identRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	intRe     = regexp.MustCompile(`^[+-]?\d+([KMB])?$`)
	zeroRe    = regexp.MustCompile(`(?:^|[^0-9.])0[0-9]`)
)

// Parse parses text as a range of the given kind. Named constants may be
// used as bounds.
func Parse(kind Kind, text string, consts typesys.ConstantResolver) (Range, error) {
	if consts == nil {
		consts = typesys.NoConstants{}
	}

	p := parser{kind: kind, consts: consts}

	r, err := p.parse(strings.TrimSpace(text))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", ErrInvalidRange, text, err)
	}

	r.Kind = kind

	if !r.Min.Unbounded && !r.Max.Unbounded && p.compare(r.Min, r.Max) > 0 {
		return Range{}, fmt.Errorf("%w: %q: lower bound exceeds upper bound", ErrInvalidRange, text)
	}

	return r, nil
}

// HasLeadingZero reports whether a literal contains a number written with a
// leading zero, such as "007".
func HasLeadingZero(text string) bool {
	return zeroRe.MatchString(strings.TrimSpace(text))
}

type parser struct {
	consts typesys.ConstantResolver
	kind   Kind
}

func (p parser) parse(s string) (Range, error) {
	if s == "" {
		return Range{}, errors.New("empty")
	}

	if m := bracketRe.FindStringSubmatch(s); m != nil {
		lo, err := p.bound(m[2], m[1] == "[")
		if err != nil {
			return Range{}, err
		}

		hi, err := p.bound(m[3], m[4] == "]")
		if err != nil {
			return Range{}, err
		}

		return Range{Min: lo, Max: hi}, nil
	}

	if m := prefixRe.FindStringSubmatch(s); m != nil {
		b, err := p.bound(m[2], strings.HasSuffix(m[1], "="))
		if err != nil {
			return Range{}, err
		}

		if m[1][0] == '<' {
			return Range{Min: unbounded(), Max: b}, nil
		}

		return Range{Min: b, Max: unbounded()}, nil
	}

	if m := wordPreRe.FindStringSubmatch(s); m != nil {
		b, err := p.bound(m[2], false)
		if err != nil {
			return Range{}, err
		}

		if strings.HasPrefix(strings.ToLower(m[1]), "less") || strings.HasPrefix(strings.ToLower(m[1]), "fewer") {
			return Range{Min: unbounded(), Max: b}, nil
		}

		return Range{Min: b, Max: unbounded()}, nil
	}

	if m := wordSufRe.FindStringSubmatch(s); m != nil {
		b, err := p.bound(m[1], true)
		if err != nil {
			return Range{}, err
		}

		if strings.HasSuffix(strings.ToLower(m[2]), "more") {
			return Range{Min: b, Max: unbounded()}, nil
		}

		return Range{Min: unbounded(), Max: b}, nil
	}

	if p.kind != KindString && p.kind != KindChar {
		if m := plusRe.FindStringSubmatch(s); m != nil {
			b, err := p.bound(m[1], true)
			if err == nil {
				return Range{Min: b, Max: unbounded()}, nil
			}
		}
	}

	if m := dotsRe.FindStringSubmatch(s); m != nil {
		lo, err := p.bound(m[1], true)
		if err == nil {
			hi, err := p.bound(m[2], true)
			if err == nil {
				return Range{Min: lo, Max: hi}, nil
			}
		}
	}

	if r, ok := p.dash(s); ok {
		return r, nil
	}

	b, err := p.bound(s, true)
	if err != nil {
		return Range{}, err
	}

	return Range{Min: b, Max: b, Single: true}, nil
}

// dash splits "lo-hi" at the first hyphen where both sides are valid bounds.
// Strings require whitespace around the hyphen.
func (p parser) dash(s string) (Range, bool) {
	for i := 1; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}

		left, right := s[:i], s[i+1:]
		if p.kind == KindString && (!strings.HasSuffix(left, " ") || !strings.HasPrefix(right, " ")) {
			continue
		}

		lo, err := p.bound(left, true)
		if err != nil {
			continue
		}

		hi, err := p.bound(right, true)
		if err != nil {
			continue
		}

		return Range{Min: lo, Max: hi}, true
	}

	return Range{}, false
}

func unbounded() Bound {
	return Bound{Unbounded: true}
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	time.RFC3339,
}

func (p parser) bound(text string, inclusive bool) (Bound, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Bound{}, errors.New("empty bound")
	}

	b := Bound{Text: text, Inclusive: inclusive}

	if p.kind != KindString && identRe.MatchString(text) {
		return p.constant(b)
	}

	switch p.kind {
	case KindInt:
		m := intRe.FindStringSubmatch(text)
		if m == nil {
			return Bound{}, fmt.Errorf("%q is not an integer", text)
		}

		n, err := decimal.NewFromString(strings.TrimRight(text, "KMB"))
		if err != nil {
			return Bound{}, fmt.Errorf("parse %q: %w", text, err)
		}

		b.num = n.Mul(multiplier(m[1]))

	case KindDouble:
		n, err := decimal.NewFromString(text)
		if err != nil {
			return Bound{}, fmt.Errorf("%q is not a number", text)
		}

		b.num = n

	case KindDate:
		for _, layout := range dateLayouts {
			d, err := time.Parse(layout, text)
			if err == nil {
				b.date = d
				return b, nil
			}
		}

		return Bound{}, fmt.Errorf("%q is not a date", text)

	case KindChar:
		if utf8.RuneCountInString(text) != 1 {
			return Bound{}, fmt.Errorf("%q is not a single character", text)
		}

	case KindString:
		if strings.ContainsAny(text, ",;") {
			return Bound{}, fmt.Errorf("%q contains a list separator", text)
		}

	case KindNone:
		return Bound{}, errors.New("type has no range form")
	}

	return b, nil
}

func (p parser) constant(b Bound) (Bound, error) {
	c, ok := p.consts.Constant(b.Text)
	if !ok {
		if p.kind == KindChar && utf8.RuneCountInString(b.Text) == 1 {
			return b, nil
		}

		return Bound{}, fmt.Errorf("unknown constant %q", b.Text)
	}

	ck := KindOf(c.Type)

	switch {
	case p.kind == KindDouble && (ck == KindInt || ck == KindDouble),
		p.kind == KindInt && ck == KindInt:
		n, err := decimal.NewFromString(fmt.Sprint(c.Value))
		if err != nil {
			return Bound{}, fmt.Errorf("constant %q: %w", b.Text, err)
		}

		b.num = n
	case p.kind == KindDate && ck == KindDate:
		d, ok := c.Value.(time.Time)
		if !ok {
			return Bound{}, fmt.Errorf("constant %q is not a date value", b.Text)
		}

		b.date = d
	default:
		return Bound{}, fmt.Errorf("constant %q of type %s cannot bound a %s", b.Text, c.Type.Name(), p.kind.TypeName())
	}

	return b, nil
}

func multiplier(suffix string) decimal.Decimal {
	switch suffix {
	case "K":
		return decimal.NewFromInt(1_000)
	case "M":
		return decimal.NewFromInt(1_000_000)
	case "B":
		return decimal.NewFromInt(1_000_000_000)
	}

	return decimal.NewFromInt(1)
}

func (p parser) compare(a, b Bound) int {
	switch p.kind {
	case KindInt, KindDouble:
		return a.num.Cmp(b.num)
	case KindDate:
		return a.date.Compare(b.date)
	case KindString, KindChar, KindNone:
	}

	return strings.Compare(a.Text, b.Text)
}
