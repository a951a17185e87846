package dto

// DepartmentRequest creates or renames a department.
type DepartmentRequest struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

// SubsectionRequest creates or renames a subsection.
type SubsectionRequest struct {
	Name string `json:"name" form:"name" validate:"required,max=100,nodigits"`
}

// FAQRequest is the specialist FAQ form.
type FAQRequest struct {
	Subsection int64  `json:"subsection" form:"subsection" validate:"gt=0"`
	Question   string `json:"question" form:"question" validate:"required,max=300"`
	Answer     string `json:"answer" form:"answer" validate:"required"`
}

// FAQUpdateRequest edits a FAQ; a zero Subsection keeps the current one.
type FAQUpdateRequest struct {
	Subsection int64  `json:"subsection" form:"subsection" validate:"omitempty,gt=0"`
	Question   string `json:"question" form:"question" validate:"required,max=300"`
	Answer     string `json:"answer" form:"answer" validate:"required"`
}

// DepartmentResponse payload.
type DepartmentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SubsectionResponse payload.
type SubsectionResponse struct {
	ID           int64  `json:"id"`
	DepartmentID int64  `json:"department_id"`
	Name         string `json:"name"`
}

// FAQResponse payload.
type FAQResponse struct {
	ID             int64  `json:"id"`
	SubsectionID   int64  `json:"subsection_id"`
	SubsectionName string `json:"subsection_name,omitempty"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
}
