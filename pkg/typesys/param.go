package typesys

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidDeclaration is returned when a parameter declaration is malformed.
var ErrInvalidDeclaration = errors.New("invalid declaration")

var (
	identRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	methodRe = regexp.MustCompile(`^\s*(\S+)\s+([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*$`)
)

// ValidName reports whether s can be used as a parameter name.
func ValidName(s string) bool {
	return identRe.MatchString(s)
}

// ParseParam parses a declaration such as "int driverAge" or
// "String[] states" into a [Param].
func (r *Registry) ParseParam(decl string) (Param, error) {
	fields := strings.Fields(decl)
	if len(fields) != 2 {
		return Param{}, fmt.Errorf("%w: %q: expected \"<type> <name>\"", ErrInvalidDeclaration, decl)
	}

	if !ValidName(fields[1]) {
		return Param{}, fmt.Errorf("%w: %q: invalid name %q", ErrInvalidDeclaration, decl, fields[1])
	}

	t, err := r.Lookup(fields[0])
	if err != nil {
		return Param{}, fmt.Errorf("%w: %q: %w", ErrInvalidDeclaration, decl, err)
	}

	return Param{Name: fields[1], Type: t}, nil
}

// ParseParams parses a comma-separated list of declarations.
func (r *Registry) ParseParams(decls string) ([]Param, error) {
	if strings.TrimSpace(decls) == "" {
		return nil, nil
	}

	var params []Param

	for d := range strings.SplitSeq(decls, ",") {
		p, err := r.ParseParam(d)
		if err != nil {
			return nil, err
		}

		params = append(params, p)
	}

	return params, nil
}

func (p Param) String() string {
	return p.Type.Name() + " " + p.Name
}

// ParseMethod parses a signature such as "double premium(Driver driver, int age)".
func (r *Registry) ParseMethod(sig string) (Method, error) {
	m := methodRe.FindStringSubmatch(sig)
	if m == nil {
		return Method{}, fmt.Errorf("%w: %q: expected \"<type> <name>(<params>)\"", ErrInvalidDeclaration, sig)
	}

	ret, err := r.Lookup(m[1])
	if err != nil {
		return Method{}, fmt.Errorf("%w: %q: %w", ErrInvalidDeclaration, sig, err)
	}

	params, err := r.ParseParams(m[3])
	if err != nil {
		return Method{}, err
	}

	return Method{Name: m[2], Return: ret, Params: params}, nil
}
