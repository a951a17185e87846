package domain

// Role enumerates account roles. Values match the stored column.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleSpecialist Role = "SPECIALIST"
	RoleDirector   Role = "DIRECTOR"
)

// RoleSpec describes per-role behavior that would otherwise be scattered across handlers.
type RoleSpec struct {
	Role        Role
	Label       string
	LandingPath string
}

var roleTable = map[Role]RoleSpec{
	RoleStudent:    {Role: RoleStudent, Label: "Student", LandingPath: "/student_dashboard/"},
	RoleSpecialist: {Role: RoleSpecialist, Label: "Specialist", LandingPath: "/specialist_dashboard/personal/"},
	RoleDirector:   {Role: RoleDirector, Label: "Director", LandingPath: "/director_panel/"},
}

// LookupRole returns the spec for a role, or false for unknown values.
func LookupRole(role Role) (RoleSpec, bool) {
	spec, ok := roleTable[role]
	return spec, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

// ParseRole accepts both the stored value and the short codes used by older clients.
func ParseRole(raw string) (Role, bool) {
	switch raw {
	case "ST", string(RoleStudent):
		return RoleStudent, true
	case "SP", string(RoleSpecialist):
		return RoleSpecialist, true
	case "DI", string(RoleDirector):
		return RoleDirector, true
	}
	return "", false
}
