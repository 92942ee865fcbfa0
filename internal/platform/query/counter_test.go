package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientFrom = From{Table: "patient", Alias: "p"}

var diagnosisJoin = Join{
	Table: "medical_record",
	Alias: "mr",
	On:    "mr.patient_id = p.id",
	Owner: "patient_id",
}

func TestCountSQL_WithoutJoinCountsRoot(t *testing.T) {
	b := NewBuilder().Equals("F", "p.gender", "")
	sql := CountSQL(patientFrom, b.Where())
	assert.Equal(t, "SELECT COUNT(DISTINCT p.id) FROM patient p WHERE p.gender = @gender", sql)
}

func TestCountSQL_OneToManyJoinCountsOwner(t *testing.T) {
	from := patientFrom
	from.Joins = []Join{diagnosisJoin}
	b := NewBuilder().SubstringMatch("flu", "mr.diagnosis", "diagnosis")

	sql := CountSQL(from, b.Where())
	assert.True(t, strings.HasPrefix(sql, "SELECT COUNT(DISTINCT mr.patient_id) FROM patient p JOIN medical_record mr ON mr.patient_id = p.id"), sql)
}

func TestCountSQL_ManyToOneJoinCountsRoot(t *testing.T) {
	from := From{Table: "medical_record", Alias: "r", Joins: []Join{
		{Table: "patient", Alias: "pt", On: "pt.id = r.patient_id"},
	}}
	sql := CountSQL(from, "")
	assert.Equal(t, "SELECT COUNT(DISTINCT r.id) FROM medical_record r JOIN patient pt ON pt.id = r.patient_id", sql)
}

func TestSelect_DataSQL(t *testing.T) {
	s := Select{
		Columns:     "p.id, p.last_name",
		From:        patientFrom,
		Where:       NewBuilder().Equals("F", "p.gender", ""),
		Sort:        ParseSort([]string{"lastName.desc"}),
		SortColumns: map[string]string{"lastName": "last_name"},
		Limit:       20,
		Offset:      40,
	}
	assert.Equal(t,
		"SELECT p.id, p.last_name FROM patient p WHERE p.gender = @gender ORDER BY p.last_name DESC LIMIT 20 OFFSET 40",
		s.DataSQL())
	assert.Equal(t, "F", s.Args()["gender"])
}

func TestSelect_DataSQLDistinctWithOneToManyJoin(t *testing.T) {
	from := patientFrom
	from.Joins = []Join{diagnosisJoin}
	s := Select{Columns: "p.id", From: from, Limit: 10}
	assert.Equal(t,
		"SELECT DISTINCT p.id FROM patient p JOIN medical_record mr ON mr.patient_id = p.id ORDER BY p.id ASC LIMIT 10",
		s.DataSQL())
	assert.Equal(t, "SELECT COUNT(DISTINCT mr.patient_id) FROM patient p JOIN medical_record mr ON mr.patient_id = p.id", s.CountSQL())
}

func TestSelect_NilBuilder(t *testing.T) {
	s := Select{Columns: "c.id", From: From{Table: "clinic", Alias: "c"}}
	assert.Equal(t, "SELECT c.id FROM clinic c ORDER BY c.id ASC", s.DataSQL())
	assert.Empty(t, s.Args())
}

// -- fakes --

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.vals[i].(int64)
		case *string:
			*p = r.vals[i].(string)
		}
	}
	return nil
}

type fakeRows struct {
	rows []fakeRow
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1].vals, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Scan(dest ...any) error                       { return r.rows[r.pos-1].Scan(dest...) }
func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

type fakeQuerier struct {
	total    int64
	countErr error
	names    []string

	countSQL string
	dataSQL  string
	args     []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.countSQL = sql
	q.args = args
	return fakeRow{vals: []any{q.total}, err: q.countErr}
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.dataSQL = sql
	rows := &fakeRows{}
	for _, n := range q.names {
		rows.rows = append(rows.rows, fakeRow{vals: []any{n}})
	}
	return rows, nil
}

func TestCount_PassesNamedArgs(t *testing.T) {
	q := &fakeQuerier{total: 3}
	b := NewBuilder().Equals("org-1", "p.organization_id", "tenantId")

	n, err := Count(context.Background(), q, patientFrom, b)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, q.args, 1)
	args, ok := q.args[0].(pgx.NamedArgs)
	require.True(t, ok)
	assert.Equal(t, "org-1", args["tenantId"])
}

func TestCount_PropagatesStorageError(t *testing.T) {
	q := &fakeQuerier{countErr: errors.New("connection reset")}
	_, err := Count(context.Background(), q, patientFrom, NewBuilder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFetch(t *testing.T) {
	q := &fakeQuerier{total: 12, names: []string{"Ada", "Grace"}}
	s := Select{Columns: "p.first_name", From: patientFrom, Limit: 2, Offset: 4}

	items, total, err := Fetch(context.Background(), q, s, func(row pgx.Row) (string, error) {
		var name string
		err := row.Scan(&name)
		return name, err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Equal(t, []string{"Ada", "Grace"}, items)
	assert.Contains(t, q.dataSQL, "LIMIT 2 OFFSET 4")
	assert.NotContains(t, q.countSQL, "LIMIT")
}
