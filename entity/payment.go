package entity

import (
	"net/http"
	"time"

	"coursemart/lib/validate"
)

const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
)

// Payment is the append-only financial record written when a user
// completes checkout for one cart entry. It is never updated except
// for the status flip driven by the payment-provider webhook.
type Payment struct {
	Id            string    `json:"_id,omitempty" bson:"_id,omitempty"`
	UserEmail     string    `json:"user_email" bson:"user_email" validate:"omitempty,email"`
	HostEmail     string    `json:"host_email" bson:"host_email" validate:"omitempty,email"`
	CourseId      string    `json:"course_id" bson:"course_id" validate:"required"`
	CartEntryId   string    `json:"cart_entry_id" bson:"cart_entry_id" validate:"required"`
	CourseName    string    `json:"course_name" bson:"course_name"`
	Amount        int64     `json:"amount" bson:"amount" validate:"required,min=1"`
	TransactionId string    `json:"transaction_id" bson:"transaction_id"`
	Status        string    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

func (p *Payment) Bind(_ *http.Request) error {
	return validate.Struct(p)
}
