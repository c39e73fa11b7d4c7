// Package role defines the roles a decision table column can play.
package role

import (
	"errors"
	"fmt"
	"strings"
)

// Role classifies what a decision table column computes.
// Roles are ordered: conditions precede actions, which precede returns.
type Role int

const (
	Condition Role = iota + 1
	Action
	Return
)

var (
	ErrUnknownRole = errors.New("unknown role")

	// All lists every role in column order.
	All = []Role{Condition, Action, Return}
)

// Parse returns the role with the given name. Names are case-insensitive
// and accept the single-letter prefixes used in header labels.
func Parse(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "condition", "c":
		return Condition, nil
	case "action", "a":
		return Action, nil
	case "return", "ret", "r":
		return Return, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	switch r {
	case Condition:
		return "condition"
	case Action:
		return "action"
	case Return:
		return "return"
	}

	return fmt.Sprintf("role(%d)", int(r))
}

// Label returns the header label prefix for the role, e.g. "C" for
// [Condition]. Labels are numbered by the materializer.
func (r Role) Label() string {
	switch r {
	case Condition:
		return "C"
	case Action:
		return "A"
	case Return:
		return "RET"
	}

	return ""
}

// Before reports whether columns of role r may be placed before columns
// of role o.
func (r Role) Before(o Role) bool {
	return r <= o
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r >= Condition && r <= Return
}

// MarshalText implements [encoding.TextMarshaler].
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}

	return []byte(r.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (r *Role) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}

	*r = v

	return nil
}
