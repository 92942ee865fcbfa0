package query

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// Node is one element of a predicate tree. Leaves carry an expression that
// references bound parameters as @name; values never appear in the text.
type Node interface {
	SQL() string
}

// Cond is a leaf comparison.
type Cond struct {
	Expr string
}

func (c Cond) SQL() string { return c.Expr }

// And joins its children with AND. An empty And renders as "".
type And []Node

func (a And) SQL() string {
	parts := make([]string, 0, len(a))
	for _, n := range a {
		if s := n.SQL(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " AND ")
}

// Or joins its children with OR inside parentheses so it can be ANDed safely.
type Or []Node

func (o Or) SQL() string {
	parts := make([]string, 0, len(o))
	for _, n := range o {
		if s := n.SQL(); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// Bindings maps parameter names to their bound values.
type Bindings map[string]any

// NamedArgs converts the bindings for use with pgx's @name placeholders.
func (b Bindings) NamedArgs() pgx.NamedArgs {
	args := make(pgx.NamedArgs, len(b))
	for k, v := range b {
		args[k] = v
	}
	return args
}

func param(name string) string { return "@" + name }

func eq(field, p string) Cond { return Cond{Expr: field + " = " + param(p)} }

func gte(field, p string) Cond { return Cond{Expr: field + " >= " + param(p)} }

func lte(field, p string) Cond { return Cond{Expr: field + " <= " + param(p)} }

// contains is a case-insensitive substring test. strpos keeps % and _ in the
// bound value literal.
func contains(field, p string) Cond {
	return Cond{Expr: "strpos(lower(" + field + "), lower(" + param(p) + ")) > 0"}
}
