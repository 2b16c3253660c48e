package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"coursemart/entity"
	"coursemart/lib/api/cont"
	"coursemart/lib/api/response"
	"coursemart/lib/sl"
)

type Core interface {
	Users(ctx context.Context) ([]*entity.User, error)
	SaveUser(ctx context.Context, user *entity.User) error
	HasRole(ctx context.Context, email string, role entity.Role) (bool, error)
	SetUserRole(ctx context.Context, id string, role entity.Role) error
	DeleteUser(ctx context.Context, id string) error
}

// List returns every account record. Admin only.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.users"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		users, err := handler.Users(r.Context())
		if err != nil {
			logger.Error("list users", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Listing failed"))
			return
		}

		render.JSON(w, r, users)
	}
}

// Save upserts the caller's own account record. The body email must
// match the authenticated identity.
func Save(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.users"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var user entity.User
		if err := render.Bind(r, &user); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		identity := cont.GetIdentity(r.Context())
		if identity.Email != user.Email {
			logger.With(sl.User(identity.Email)).Warn("email mismatch on profile update")
			render.Status(r, 403)
			render.JSON(w, r, response.Err("forbidden access"))
			return
		}

		if err := handler.SaveUser(r.Context(), &user); err != nil {
			logger.Error("save user", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Save failed"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// RoleProbe answers {"<key>": bool} for the caller's own email. A
// probe for somebody else's email just reads false, matching how the
// frontend uses it.
func RoleProbe(log *slog.Logger, handler Core, role entity.Role) http.HandlerFunc {
	key := string(role)
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		logger := log.With(
			sl.Module("http.handlers.users"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("probe", email),
		)

		identity := cont.GetIdentity(r.Context())
		if identity.Email != email {
			render.JSON(w, r, map[string]bool{key: false})
			return
		}

		has, err := handler.HasRole(r.Context(), email, role)
		if err != nil {
			logger.Error("role probe", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Lookup failed"))
			return
		}

		render.JSON(w, r, map[string]bool{key: has})
	}
}

// SetRole grants a role to the account with the given id. Admin only.
func SetRole(log *slog.Logger, handler Core, role entity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.users"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user_id", id),
			slog.String("role", string(role)),
		)

		err := handler.SetUserRole(r.Context(), id, role)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, 404)
			render.JSON(w, r, response.Err("User not found"))
			return
		}
		if err != nil {
			logger.Error("set role", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Update failed"))
			return
		}
		logger.Info("role granted")

		render.JSON(w, r, response.Ok(nil))
	}
}

// Delete removes an account record. Admin only.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.users"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user_id", id),
		)

		err := handler.DeleteUser(r.Context(), id)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, 404)
			render.JSON(w, r, response.Err("User not found"))
			return
		}
		if err != nil {
			logger.Error("delete user", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Delete failed"))
			return
		}
		logger.Info("user deleted")

		render.JSON(w, r, response.Ok(nil))
	}
}
