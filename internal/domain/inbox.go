package domain

// InboxCategory selects which tickets a specialist dashboard shows.
type InboxCategory string

const (
	InboxPersonal   InboxCategory = "personal"
	InboxDepartment InboxCategory = "department"
	InboxArchived   InboxCategory = "archived"
)

// ParseInboxCategory maps unknown values to the personal inbox so stale links keep working.
// The boolean reports whether raw was recognized.
func ParseInboxCategory(raw string) (InboxCategory, bool) {
	switch InboxCategory(raw) {
	case InboxPersonal, InboxDepartment, InboxArchived:
		return InboxCategory(raw), true
	}
	return InboxPersonal, false
}

// Title is the heading shown above the inbox.
func (c InboxCategory) Title(departmentName string) string {
	switch c {
	case InboxDepartment:
		return departmentName + " Inbox"
	case InboxArchived:
		return "Archived inbox"
	default:
		return "Personal Inbox"
	}
}
