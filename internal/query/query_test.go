package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilterParamsDefaults(t *testing.T) {
	raw := map[string]string{"email": " Alice@", "id": "abc"}
	params := NormalizeFilterParams(raw, "email", "header")

	assert.Equal(t, MethodFilter, params.Method)
	assert.Equal(t, "Alice@", params.Text["email"])
	assert.Equal(t, "", params.Text["header"])
	assert.Nil(t, params.ID)
	assert.Equal(t, " Alice@", raw["email"], "raw input must not be mutated")
	_, hasMethod := raw[MethodParam]
	assert.False(t, hasMethod)
}

func TestNormalizeFilterParamsMethodAndID(t *testing.T) {
	params := NormalizeFilterParams(map[string]string{MethodParam: "search", "id": "42"})
	assert.Equal(t, MethodSearch, params.Method)
	require.NotNil(t, params.ID)
	assert.EqualValues(t, 42, *params.ID)

	params = NormalizeFilterParams(map[string]string{MethodParam: "fuzzy", "id": "-3"})
	assert.Equal(t, MethodFilter, params.Method)
	assert.Nil(t, params.ID)
}

func TestBuilderSkipsEmptyValues(t *testing.T) {
	b := NewBuilder().
		Match("u.email", MethodFilter, "").
		Match("t.header", MethodSearch, "wifi")

	assert.Equal(t, " WHERE t.header ILIKE $1", b.Where())
	assert.Equal(t, []any{"%wifi%"}, b.Args())
}

func TestBuilderPlaceholdersInOrder(t *testing.T) {
	b := NewBuilder().
		Equal("t.department_id", int64(3)).
		Raw("NOT EXISTS (SELECT 1 FROM specialist_inbox si WHERE si.ticket_id = t.id AND si.specialist_id <> ?)", int64(9)).
		Match("u.email", MethodFilter, "bob")
	suffix := b.Paginate(Page{Number: 2, Size: 10})

	assert.Equal(t, " WHERE t.department_id = $1 AND NOT EXISTS (SELECT 1 FROM specialist_inbox si WHERE si.ticket_id = t.id AND si.specialist_id <> $2) AND u.email ILIKE $3", b.Where())
	assert.Equal(t, " LIMIT $4 OFFSET $5", suffix)
	assert.Equal(t, []any{int64(3), int64(9), "bob%", 10, 10}, b.Args())
}

func TestBuilderNoClauses(t *testing.T) {
	assert.Equal(t, "", NewBuilder().Where())
}

func TestPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `50\%\_off%`, Pattern(MethodFilter, "50%_off"))
	assert.Equal(t, `%a\\b%`, Pattern(MethodSearch, `a\b`))
}

func TestSearchIsSupersetOfFilter(t *testing.T) {
	rows := []string{"Accommodation", "accounts", "Finance", "Tech Support", "support desk", "50% off", "a_b", ""}
	values := []string{"", "a", "acc", "support", "SUP", "ce", "50%", "_", "zzz"}

	for _, value := range values {
		filterPattern := Pattern(MethodFilter, value)
		searchPattern := Pattern(MethodSearch, value)
		for _, row := range rows {
			if ilike(row, filterPattern) {
				assert.Truef(t, ilike(row, searchPattern), "row %q matched filter %q but not search", row, value)
			}
		}
	}
}

func TestEmptyValueMatchesEverything(t *testing.T) {
	for _, row := range []string{"", "x", "Finance"} {
		assert.True(t, ilike(row, Pattern(MethodFilter, "")))
		assert.True(t, ilike(row, Pattern(MethodSearch, "")))
	}
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: 10}, ParsePage("", 10))
	assert.Equal(t, Page{Number: 1, Size: 10}, ParsePage("-2", 10))
	assert.Equal(t, Page{Number: 1, Size: 10}, ParsePage("x", 10))
	p := ParsePage("3", 5)
	assert.Equal(t, 10, p.Offset())
}

func TestNewPaginatedBeyondRange(t *testing.T) {
	page := NewPaginated[int](nil, Page{Number: 7, Size: 10}, 12)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext)

	first := NewPaginated([]int{1, 2}, Page{Number: 1, Size: 2}, 3)
	assert.True(t, first.HasNext)
	doubled := Map(first, func(v int) int { return v * 2 })
	assert.Equal(t, []int{2, 4}, doubled.Items)
	assert.Equal(t, first.Total, doubled.Total)
}

// ilike evaluates a Postgres ILIKE pattern with backslash escapes.
func ilike(s, pattern string) bool {
	return likeMatch([]rune(strings.ToLower(s)), []rune(strings.ToLower(pattern)))
}

func likeMatch(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatch(s[i:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		return len(s) > 0 && likeMatch(s[1:], p[1:])
	case '\\':
		if len(p) > 1 {
			return len(s) > 0 && s[0] == p[1] && likeMatch(s[1:], p[2:])
		}
	}
	return len(s) > 0 && s[0] == p[0] && likeMatch(s[1:], p[1:])
}
