package entity

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coursemart/lib/validate"
)

// Role is the coarse permission tag attached to an account.
// Most accounts carry no role at all.
type Role string

const (
	RoleNone       Role = ""
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleInstructor
}

// User is an account record. Created by upsert on first login,
// keyed by email; the role is mutated only through admin actions.
type User struct {
	Id       primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Email    string             `json:"email" bson:"email" validate:"required,email"`
	Name     string             `json:"name" bson:"name" validate:"omitempty"`
	PhotoURL string             `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Role     Role               `json:"role,omitempty" bson:"role,omitempty"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}
