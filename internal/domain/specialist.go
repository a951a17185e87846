package domain

// SpecialistDepartment assigns a specialist to exactly one department.
type SpecialistDepartment struct {
	ID           int64
	SpecialistID int64
	DepartmentID int64
}

// Claim records that one specialist owns a ticket. A ticket has at most one claim.
type Claim struct {
	ID           int64
	SpecialistID int64
	TicketID     int64
}
