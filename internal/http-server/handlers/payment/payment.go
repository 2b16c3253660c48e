package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"coursemart/entity"
	"coursemart/impl/enroll"
	"coursemart/lib/api/cont"
	"coursemart/lib/api/response"
	"coursemart/lib/sl"
	"coursemart/lib/validate"
)

type Core interface {
	CreatePaymentIntent(ctx context.Context, amount int64) (id, clientSecret string, err error)
	CompleteEnrollment(ctx context.Context, p *entity.Payment) (*enroll.Result, error)
	PaymentsByUser(ctx context.Context, email string) ([]*entity.Payment, error)
}

type intentRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

func (i *intentRequest) Bind(_ *http.Request) error {
	return validate.Struct(i)
}

type intentReply struct {
	Id           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent opens a payment intent for the amount in cents and
// hands the client secret back to the frontend.
func CreateIntent(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.payment"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		var req intentRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.Int64("amount", req.Amount))

		id, secret, err := handler.CreatePaymentIntent(r.Context(), req.Amount)
		if err != nil {
			logger.Error("create payment intent", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Payment service unavailable"))
			return
		}
		logger.Debug("payment intent created")

		render.JSON(w, r, intentReply{Id: id, ClientSecret: secret})
	}
}

// Complete runs the enrollment workflow for a confirmed checkout.
// A failed payment record write aborts with 500; a partial run (cart
// or seat bookkeeping failed after the record committed) reports 202
// so the caller sees the difference.
func Complete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.payment"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		var p entity.Payment
		if err := render.Bind(r, &p); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		p.UserEmail = identity.Email
		logger = logger.With(
			slog.String("course_id", p.CourseId),
			slog.Int64("amount", p.Amount),
		)

		result, err := handler.CompleteEnrollment(r.Context(), &p)
		if err != nil {
			logger.Error("complete enrollment", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Payment could not be recorded"))
			return
		}
		if result.Partial() {
			render.Status(r, 202)
			render.JSON(w, r, response.Ok(result))
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}

// History lists the caller's payments, newest first. The path email
// must match the authenticated identity.
func History(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.payment"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		if identity.Email != email {
			render.Status(r, 403)
			render.JSON(w, r, response.Err("forbidden access"))
			return
		}

		payments, err := handler.PaymentsByUser(r.Context(), email)
		if err != nil {
			logger.Error("payment history", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Listing failed"))
			return
		}

		render.JSON(w, r, payments)
	}
}
