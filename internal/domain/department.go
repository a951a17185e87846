package domain

import (
	"strings"
	"unicode"
)

// Department represents a unit tickets are routed to.
type Department struct {
	ID   int64
	Name string
	Slug string
}

// Subsection groups FAQs inside a department. Names contain no digits.
type Subsection struct {
	ID           int64
	DepartmentID int64
	Name         string
}

// Slugify derives a URL slug: lower-case ASCII letters and digits separated by single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}
	return b.String()
}
