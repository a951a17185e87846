package domain

// FAQ is a question/answer pair published by a specialist under a subsection.
type FAQ struct {
	ID           int64
	SpecialistID int64
	DepartmentID int64
	SubsectionID int64
	Question     string
	Answer       string
}

// FAQView carries the subsection name for grouped listings.
type FAQView struct {
	FAQ
	SubsectionName string
}
