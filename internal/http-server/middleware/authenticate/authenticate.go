package authenticate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"coursemart/entity"
	"coursemart/lib/api/cont"
	"coursemart/lib/api/response"
	"coursemart/lib/sl"
)

// MessageUnauthorized is the exact body message for a rejected
// credential; the frontend matches on it.
const MessageUnauthorized = "Unauthorized access"

type Authenticate interface {
	Authenticate(header string) (*entity.Identity, error)
}

// New verifies the bearer credential on every request of the group and
// stores the proven identity in the request context. It also carries
// the access log for protected routes.
func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			remote := r.RemoteAddr
			// if the request is coming from a proxy, use the X-Forwarded-For header
			xRemote := r.Header.Get("X-Forwarded-For")
			if xRemote != "" {
				remote = xRemote
			}
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remote),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming request")
			}()

			if auth == nil {
				authFailed(ww, r)
				return
			}

			identity, err := auth.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				logger = logger.With(sl.Err(err))
				authFailed(ww, r)
				return
			}
			logger = logger.With(sl.User(identity.Email))
			ctx := cont.PutIdentity(r.Context(), identity)

			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Err(MessageUnauthorized))
}
