package query

import (
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Pattern renders value as an ILIKE pattern for the given method.
func Pattern(method Method, value string) string {
	escaped := likeEscaper.Replace(value)
	if method == MethodSearch {
		return "%" + escaped + "%"
	}
	return escaped + "%"
}

// Builder accumulates AND-ed predicates with positional pgx placeholders.
type Builder struct {
	clauses []string
	args    []any
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) bind(value any) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// Match adds an ILIKE predicate. An empty value adds nothing, so a cleared field matches every row.
func (b *Builder) Match(column string, method Method, value string) *Builder {
	if value == "" {
		return b
	}
	b.clauses = append(b.clauses, fmt.Sprintf("%s ILIKE %s", column, b.bind(Pattern(method, value))))
	return b
}

// Equal adds an exact predicate.
func (b *Builder) Equal(column string, value any) *Builder {
	b.clauses = append(b.clauses, fmt.Sprintf("%s = %s", column, b.bind(value)))
	return b
}

// Raw adds a trusted clause; each "?" is replaced by the placeholder of the next arg.
func (b *Builder) Raw(clause string, args ...any) *Builder {
	var sb strings.Builder
	i := 0
	for _, r := range clause {
		if r == '?' && i < len(args) {
			sb.WriteString(b.bind(args[i]))
			i++
			continue
		}
		sb.WriteRune(r)
	}
	b.clauses = append(b.clauses, sb.String())
	return b
}

// Where renders " WHERE ..." or an empty string when no predicate was added.
func (b *Builder) Where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// Args returns bound arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// Paginate binds LIMIT/OFFSET and returns the clause. Call it after every predicate.
func (b *Builder) Paginate(p Page) string {
	limit := b.bind(p.Size)
	offset := b.bind(p.Offset())
	return fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
}
