package cont

import (
	"context"

	"coursemart/entity"
)

type ctxKey string

const identityKey ctxKey = "identity"

func PutIdentity(c context.Context, id *entity.Identity) context.Context {
	return context.WithValue(c, identityKey, *id)
}

// GetIdentity returns the identity stored by the authenticate
// middleware, or an empty one when the route is unauthenticated.
func GetIdentity(c context.Context) *entity.Identity {
	id, ok := c.Value(identityKey).(entity.Identity)
	if !ok {
		return &entity.Identity{}
	}
	return &id
}
