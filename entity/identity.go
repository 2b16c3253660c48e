package entity

// Identity is the decoded token claim carried through the request
// context. Only the email is trusted; role checks always go back to
// the user directory.
type Identity struct {
	Email string `json:"email"`
}
