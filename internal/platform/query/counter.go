package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool / pgx.Tx used to run listings.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Join is an additional table joined to the root of a listing.
// Owner is set for one-to-many joins: the column on the joined table that
// references the root row. Such joins can yield the same root row many times.
type Join struct {
	Kind  string // defaults to "JOIN"
	Table string
	Alias string
	On    string
	Owner string
}

func (j Join) OneToMany() bool { return j.Owner != "" }

// From describes the root table of a listing and any joins the predicate uses.
type From struct {
	Table string
	Alias string
	Joins []Join
}

// SQL renders the FROM clause body.
func (f From) SQL() string {
	var sb strings.Builder
	sb.WriteString(f.Table)
	if f.Alias != "" {
		sb.WriteString(" " + f.Alias)
	}
	for _, j := range f.Joins {
		kind := j.Kind
		if kind == "" {
			kind = "JOIN"
		}
		fmt.Fprintf(&sb, " %s %s %s ON %s", kind, j.Table, j.Alias, j.On)
	}
	return sb.String()
}

// fansOut reports whether a one-to-many join participates.
func (f From) fansOut() bool {
	for _, j := range f.Joins {
		if j.OneToMany() {
			return true
		}
	}
	return false
}

// countTarget is the expression counted distinctly. With a one-to-many join
// the owner seen through the join is counted so a parent with several
// matching children counts once; otherwise the root id.
func (f From) countTarget() string {
	for _, j := range f.Joins {
		if j.OneToMany() {
			return qualify(j.Alias, j.Owner)
		}
	}
	return qualify(f.Alias, DefaultSortField)
}

// CountSQL returns the distinct count query for from filtered by where,
// which is either "" or a " WHERE ..." fragment.
func CountSQL(from From, where string) string {
	return fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s%s", from.countTarget(), from.SQL(), where)
}

// Count computes the number of distinct root rows matching b.
func Count(ctx context.Context, q Querier, from From, b *Builder) (int64, error) {
	var total int64
	if err := q.QueryRow(ctx, CountSQL(from, b.Where()), b.Bindings().NamedArgs()).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", from.Table, err)
	}
	return total, nil
}

// Select is a filtered, sorted, paged listing over From.
type Select struct {
	Columns     string
	From        From
	Where       *Builder
	Sort        SortSpec
	SortColumns map[string]string
	Limit       int
	Offset      int
}

func (s Select) where() *Builder {
	if s.Where == nil {
		return NewBuilder()
	}
	return s.Where
}

// CountSQL returns the total-count query, independent of the page slice.
func (s Select) CountSQL() string {
	return CountSQL(s.From, s.where().Where())
}

// DataSQL returns the page query. Rows are de-duplicated when a one-to-many
// join participates.
func (s Select) DataSQL() string {
	distinct := ""
	if s.From.fansOut() {
		distinct = "DISTINCT "
	}
	sql := fmt.Sprintf("SELECT %s%s FROM %s%s", distinct, s.Columns, s.From.SQL(), s.where().Where())
	sql += s.Sort.OrderClause(s.From.Alias, s.SortColumns)
	if s.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", s.Limit)
	}
	if s.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", s.Offset)
	}
	return sql
}

// Args returns the named arguments shared by the count and page queries.
func (s Select) Args() pgx.NamedArgs {
	return s.where().Bindings().NamedArgs()
}

// Fetch runs the count and page queries and scans each row with scan.
func Fetch[T any](ctx context.Context, q Querier, s Select, scan func(pgx.Row) (T, error)) ([]T, int64, error) {
	total, err := Count(ctx, q, s.From, s.where())
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, s.DataSQL(), s.Args())
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", s.From.Table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", s.From.Table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s: %w", s.From.Table, err)
	}
	return items, total, nil
}
