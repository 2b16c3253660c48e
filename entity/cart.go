package entity

import (
	"net/http"

	"coursemart/lib/validate"
)

// CartEntry is a user's pending, unpaid intent to enroll in a course.
// It is removed either explicitly or as a side effect of a completed
// payment.
type CartEntry struct {
	Id         string `json:"_id,omitempty" bson:"_id,omitempty"`
	UserEmail  string `json:"user_email" bson:"user_email" validate:"omitempty,email"`
	HostEmail  string `json:"host_email" bson:"host_email" validate:"required,email"`
	CourseId   string `json:"course_id" bson:"course_id" validate:"required"`
	CourseName string `json:"course_name" bson:"course_name" validate:"required"`
	Price      int64  `json:"price" bson:"price" validate:"required,min=1"`
}

func (e *CartEntry) Bind(_ *http.Request) error {
	return validate.Struct(e)
}
