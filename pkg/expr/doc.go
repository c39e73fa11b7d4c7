// Package expr provides CEL (Common Expression Language) functionality for
// the expressions of reusable column definitions.
//
// Expressions are parsed without type-checking so that their free
// identifiers can be listed and rewritten to the names of an enclosing
// method's parameters. Named constants can be declared into an
// [Environment], in which case they are no longer free identifiers.
//
// Beyond the standard library and the math, strings and lists extensions,
// expressions have access to:
//   - `between(value, lo, hi)` for int and double values
//   - `percent(value, pct)` for double values
package expr
