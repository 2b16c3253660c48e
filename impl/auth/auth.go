package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursemart/entity"
	"coursemart/internal/token"
)

type TokenVerifier interface {
	Verify(tokenStr string) (*token.Claims, error)
}

type UserDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
}

// Gate makes the two authorization decisions every protected route
// needs: is the caller who they claim to be, and do they hold the
// role the route requires. It performs no writes and holds no state,
// so a single instance serves concurrent requests.
type Gate struct {
	tokens    TokenVerifier
	directory UserDirectory
}

func New(tokens TokenVerifier, directory UserDirectory) *Gate {
	return &Gate{tokens: tokens, directory: directory}
}

// Authenticate verifies the raw Authorization header value and returns
// the identity the token proves. Every failure mode collapses into
// entity.ErrUnauthenticated.
func (g *Gate) Authenticate(header string) (*entity.Identity, error) {
	if header == "" {
		return nil, fmt.Errorf("%w: authorization header not found", entity.ErrUnauthenticated)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("%w: malformed authorization header", entity.ErrUnauthenticated)
	}
	claims, err := g.tokens.Verify(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnauthenticated, err)
	}
	return &entity.Identity{Email: claims.Email}, nil
}

// Authorize checks the directory record for the identity against the
// required role. An absent record is indistinguishable from a role
// mismatch: both come back entity.ErrForbidden. An empty required
// role means the route only needs authentication.
func (g *Gate) Authorize(ctx context.Context, id *entity.Identity, required entity.Role) error {
	if required == entity.RoleNone {
		return nil
	}
	rec, err := g.directory.FindUserByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.ErrForbidden
		}
		return fmt.Errorf("directory lookup: %w", err)
	}
	if rec.Role != required {
		return entity.ErrForbidden
	}
	return nil
}
