package login

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"coursemart/entity"
	"coursemart/lib/api/response"
	"coursemart/lib/sl"
)

type Core interface {
	IssueToken(ctx context.Context, user *entity.User) (string, error)
}

type tokenReply struct {
	Token string `json:"token"`
}

// Token exchanges a verified login payload for a signed access token,
// upserting the account record on the way.
func Token(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.login")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var user entity.User
		if err := render.Bind(r, &user); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.User(user.Email))

		signed, err := handler.IssueToken(r.Context(), &user)
		if err != nil {
			logger.Error("issue token", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Token issue failed"))
			return
		}
		logger.Debug("token issued")

		render.JSON(w, r, tokenReply{Token: signed})
	}
}
