package entity

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coursemart/lib/validate"
)

// CourseState tracks the admin approval decision. A freshly submitted
// course starts pending and is only listed publicly once approved.
type CourseState string

const (
	StatePending  CourseState = "pending"
	StateApproved CourseState = "approved"
	StateDenied   CourseState = "denied"
)

func (s CourseState) Valid() bool {
	return s == StatePending || s == StateApproved || s == StateDenied
}

// Course is a catalog entry submitted by an instructor.
// AvailableSeats and EnrolledStudents are mutated only through the
// enrollment workflow's atomic seat adjustment.
type Course struct {
	Id               primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name" validate:"required"`
	Image            string             `json:"image,omitempty" bson:"image,omitempty"`
	HostName         string             `json:"host_name" bson:"host_name" validate:"required"`
	HostEmail        string             `json:"host_email" bson:"host_email" validate:"omitempty,email"`
	Price            int64              `json:"price" bson:"price" validate:"required,min=1"`
	AvailableSeats   int64              `json:"available_seats" bson:"available_seats" validate:"min=0"`
	EnrolledStudents int64              `json:"enrolled_students" bson:"enrolled_students" validate:"min=0"`
	TotalStudents    int64              `json:"total_students" bson:"total_students"`
	State            CourseState        `json:"state" bson:"state"`
	Feedback         string             `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

func (c *Course) Bind(_ *http.Request) error {
	return validate.Struct(c)
}
