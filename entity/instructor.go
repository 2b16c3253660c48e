package entity

// Instructor is a catalog-facing summary derived from a host's
// courses; it is not a stored record.
type Instructor struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Image         string `json:"image,omitempty"`
	TotalStudents int64  `json:"total_students"`
}
