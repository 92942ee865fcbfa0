package query

import (
	"strings"
)

// DefaultSortField orders results when no usable sort token is given.
const DefaultSortField = "id"

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// SortToken is one ordering level.
type SortToken struct {
	Field     string
	Direction Direction
}

// SortSpec is an ordered list of sort levels; the first is the primary key.
type SortSpec []SortToken

// ParseSort parses "field" or "field.direction" tokens. Only "desc" (any case)
// sorts descending; anything else, including garbage, is ascending. A token
// with zero or several dots is taken whole as the field name.
// Empty input yields ascending order on DefaultSortField.
func ParseSort(tokens []string) SortSpec {
	if len(tokens) == 0 {
		return SortSpec{{Field: DefaultSortField, Direction: Asc}}
	}
	spec := make(SortSpec, 0, len(tokens))
	for _, raw := range tokens {
		tok := SortToken{Field: raw, Direction: Asc}
		if strings.Count(raw, ".") == 1 {
			field, dir, _ := strings.Cut(raw, ".")
			tok.Field = field
			if strings.EqualFold(dir, "desc") {
				tok.Direction = Desc
			}
		}
		spec = append(spec, tok)
	}
	return spec
}

// OrderClause renders the spec against the root alias as " ORDER BY ...".
// columns maps sortable field names to column names; fields missing from it
// are skipped since they cannot be bound as parameters. DefaultSortField is
// always sortable. When nothing remains the clause falls back to alias.id ASC.
func (s SortSpec) OrderClause(alias string, columns map[string]string) string {
	parts := make([]string, 0, len(s))
	for _, tok := range s {
		col, ok := columns[tok.Field]
		if !ok {
			if tok.Field != DefaultSortField {
				continue
			}
			col = DefaultSortField
		}
		parts = append(parts, qualify(alias, col)+" "+tok.Direction.String())
	}
	if len(parts) == 0 {
		parts = append(parts, qualify(alias, DefaultSortField)+" "+Asc.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func qualify(alias, col string) string {
	if alias == "" || strings.Contains(col, ".") {
		return col
	}
	return alias + "." + col
}
