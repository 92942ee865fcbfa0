package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected SortSpec
	}{
		{"nil", nil, SortSpec{{Field: "id", Direction: Asc}}},
		{"empty", []string{}, SortSpec{{Field: "id", Direction: Asc}}},
		{"desc", []string{"name.desc"}, SortSpec{{Field: "name", Direction: Desc}}},
		{"desc any case", []string{"name.DeSc"}, SortSpec{{Field: "name", Direction: Desc}}},
		{"asc", []string{"name.asc"}, SortSpec{{Field: "name", Direction: Asc}}},
		{"no dot", []string{"x"}, SortSpec{{Field: "x", Direction: Asc}}},
		{"garbage direction", []string{"name.sideways"}, SortSpec{{Field: "name", Direction: Asc}}},
		{"two dots", []string{"a.b.desc"}, SortSpec{{Field: "a.b.desc", Direction: Asc}}},
		{"multiple levels", []string{"lastName.desc", "firstName"}, SortSpec{
			{Field: "lastName", Direction: Desc},
			{Field: "firstName", Direction: Asc},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSort(tt.input))
		})
	}
}

func TestSortSpec_OrderClause(t *testing.T) {
	columns := map[string]string{
		"lastName":  "last_name",
		"firstName": "first_name",
		"birthDate": "birth_date",
	}

	tests := []struct {
		name     string
		tokens   []string
		expected string
	}{
		{"default", nil, " ORDER BY p.id ASC"},
		{"single desc", []string{"lastName.desc"}, " ORDER BY p.last_name DESC"},
		{"tie break order", []string{"lastName.desc", "firstName"}, " ORDER BY p.last_name DESC, p.first_name ASC"},
		{"unknown skipped", []string{"password.desc", "birthDate"}, " ORDER BY p.birth_date ASC"},
		{"all unknown falls back", []string{"nope"}, " ORDER BY p.id ASC"},
		{"id always allowed", []string{"id.desc"}, " ORDER BY p.id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSort(tt.tokens).OrderClause("p", columns))
		})
	}
}

func TestSortSpec_EmptySpecRendersDefault(t *testing.T) {
	assert.Equal(t, " ORDER BY c.id ASC", SortSpec(nil).OrderClause("c", nil))
	assert.Equal(t, " ORDER BY id ASC", SortSpec{}.OrderClause("", nil))
}
