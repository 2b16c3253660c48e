package cart

import (
	"context"
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
	CartEntries(ctx context.Context, email string) ([]*entity.CartEntry, error)
	AddCartEntry(ctx context.Context, entry *entity.CartEntry) (string, error)
	RemoveCartEntry(ctx context.Context, id string) error
}

// List returns the caller's pending course selections.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.cart"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		entries, err := handler.CartEntries(r.Context(), identity.Email)
		if err != nil {
			logger.Error("list cart", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Listing failed"))
			return
		}

		render.JSON(w, r, entries)
	}
}

// Add stores a course selection for the caller. The user email is
// always the authenticated identity.
func Add(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.cart"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		var entry entity.CartEntry
		if err := render.Bind(r, &entry); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		entry.UserEmail = identity.Email

		id, err := handler.AddCartEntry(r.Context(), &entry)
		if err != nil {
			logger.Error("add cart entry", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Save failed"))
			return
		}
		logger.With(slog.String("cart_entry_id", id)).Debug("course selected")

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(map[string]string{"inserted_id": id}))
	}
}

// Remove deletes a cart entry. Removing an entry that is already gone
// succeeds, so retries and double clicks are harmless.
func Remove(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.cart"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("cart_entry_id", id),
		)

		if err := handler.RemoveCartEntry(r.Context(), id); err != nil {
			logger.Error("remove cart entry", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Delete failed"))
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}
