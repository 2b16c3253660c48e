package requirerole

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"coursemart/entity"
	"coursemart/lib/api/cont"
	"coursemart/lib/api/response"
	"coursemart/lib/sl"
)

// MessageForbidden is the exact body message for a role mismatch; the
// frontend matches on it.
const MessageForbidden = "forbidden access"

type Authorize interface {
	Authorize(ctx context.Context, id *entity.Identity, required entity.Role) error
}

// New gates a route group on a directory role. It runs after the
// authenticate middleware and reads the identity it stored.
func New(log *slog.Logger, auth Authorize, required entity.Role) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.requirerole")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			logger := log.With(
				mod,
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("required_role", string(required)),
			)

			identity := cont.GetIdentity(r.Context())
			if identity.Email == "" {
				logger.Warn("no identity in context")
				forbidden(w, r)
				return
			}
			logger = logger.With(sl.User(identity.Email))

			err := auth.Authorize(r.Context(), identity, required)
			if errors.Is(err, entity.ErrForbidden) {
				logger.Warn("role check failed")
				forbidden(w, r)
				return
			}
			if err != nil {
				logger.Error("role lookup", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Err("Internal server error"))
				return
			}

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusForbidden)
	render.JSON(w, r, response.Err(MessageForbidden))
}
