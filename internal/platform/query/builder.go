package query

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTokenPrefix is the parameter prefix MultiTokenSearch uses when none is given.
const DefaultTokenPrefix = "name"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
var paramPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Builder accumulates optional filter conditions and their bindings.
// Absent or blank values are skipped, so callers can pass every filter field
// unconditionally. A Builder belongs to a single filter pass and must not be
// shared between goroutines.
//
// Field and parameter names come from code, not from requests. Passing an
// invalid identifier, or binding the same parameter name twice, is a
// programming error and panics.
type Builder struct {
	conds    And
	bindings Bindings
}

func NewBuilder() *Builder {
	return &Builder{bindings: Bindings{}}
}

// Equals adds "field = @param" when value is present.
// An empty param defaults to the last segment of field.
func (b *Builder) Equals(value any, field, param string) *Builder {
	v, ok := present(value)
	if !ok {
		return b
	}
	p := b.paramName(field, param)
	b.add(eq(checkField(field), p), p, v)
	return b
}

// SubstringMatch adds a case-insensitive contains test when value is not blank.
// The raw value is bound, untrimmed.
func (b *Builder) SubstringMatch(value, field, param string) *Builder {
	if isBlank(value) {
		return b
	}
	p := b.paramName(field, param)
	b.add(contains(checkField(field), p), p, value)
	return b
}

// SubstringMatchPtr is SubstringMatch for optional string fields.
func (b *Builder) SubstringMatchPtr(value *string, field, param string) *Builder {
	if value == nil {
		return b
	}
	return b.SubstringMatch(*value, field, param)
}

// Range adds "startField >= @startParam" and "endField <= @endParam"
// independently, each only when its value is present.
func (b *Builder) Range(start any, startField, startParam string, end any, endField, endParam string) *Builder {
	if v, ok := present(start); ok {
		p := b.paramName(startField, startParam)
		b.add(gte(checkField(startField), p), p, v)
	}
	if v, ok := present(end); ok {
		p := b.paramName(endField, endParam)
		b.add(lte(checkField(endField), p), p, v)
	}
	return b
}

// MultiTokenSearch splits query on whitespace and requires every token to
// match field1 or field2. Token i is bound as prefix+i.
func (b *Builder) MultiTokenSearch(query, field1, field2, prefix string) *Builder {
	if isBlank(query) {
		return b
	}
	if prefix == "" {
		prefix = DefaultTokenPrefix
	}
	f1, f2 := checkField(field1), checkField(field2)

	tokens := strings.Fields(query)
	groups := make(And, 0, len(tokens))
	for i, tok := range tokens {
		p := checkParam(prefix + strconv.Itoa(i))
		b.bind(p, tok)
		groups = append(groups, Or{contains(f1, p), contains(f2, p)})
	}
	b.conds = append(b.conds, groups)
	return b
}

// Raw adds expr and binds value under param when active and value is present.
func (b *Builder) Raw(active bool, expr, param string, value any) *Builder {
	if !active {
		return b
	}
	v, ok := present(value)
	if !ok {
		return b
	}
	p := checkParam(param)
	b.add(Cond{Expr: expr}, p, v)
	return b
}

// RawMulti adds expr and merges bindings when active.
func (b *Builder) RawMulti(active bool, expr string, bindings map[string]any) *Builder {
	if !active {
		return b
	}
	for k, v := range bindings {
		b.bind(checkParam(k), v)
	}
	b.conds = append(b.conds, Cond{Expr: expr})
	return b
}

// Len reports the number of top-level conditions.
func (b *Builder) Len() int { return len(b.conds) }

// Tree returns the accumulated predicate as a top-level AND node.
func (b *Builder) Tree() Node {
	out := make(And, len(b.conds))
	copy(out, b.conds)
	return out
}

// Bindings returns a copy of the bound parameters.
func (b *Builder) Bindings() Bindings {
	out := make(Bindings, len(b.bindings))
	for k, v := range b.bindings {
		out[k] = v
	}
	return out
}

// Render returns the conditions joined with " AND " and the bindings.
// Both are empty when no condition was added.
func (b *Builder) Render() (string, Bindings) {
	return b.conds.SQL(), b.Bindings()
}

// Where renders the predicate prefixed with " WHERE ", or "" when empty.
func (b *Builder) Where() string {
	s := b.conds.SQL()
	if s == "" {
		return ""
	}
	return " WHERE " + s
}

func (b *Builder) add(c Cond, p string, v any) {
	b.bind(p, v)
	b.conds = append(b.conds, c)
}

func (b *Builder) bind(p string, v any) {
	if _, dup := b.bindings[p]; dup {
		panic(fmt.Sprintf("query: parameter %q bound twice", p))
	}
	b.bindings[p] = v
}

func (b *Builder) paramName(field, param string) string {
	if param != "" {
		return checkParam(param)
	}
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return checkParam(field)
}

func checkField(f string) string {
	if !identPattern.MatchString(f) {
		panic(fmt.Sprintf("query: invalid field name %q", f))
	}
	return f
}

func checkParam(p string) string {
	if !paramPattern.MatchString(p) {
		panic(fmt.Sprintf("query: invalid parameter name %q", p))
	}
	return p
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// present reports whether v carries a value, dereferencing pointers.
// Blank strings count as absent.
func present(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.String:
		if isBlank(rv.String()) {
			return nil, false
		}
	}
	return rv.Interface(), true
}
