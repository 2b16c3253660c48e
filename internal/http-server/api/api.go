package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"coursemart/entity"
	"coursemart/internal/config"
	"coursemart/internal/http-server/handlers/cart"
	"coursemart/internal/http-server/handlers/courses"
	"coursemart/internal/http-server/handlers/errors"
	"coursemart/internal/http-server/handlers/login"
	"coursemart/internal/http-server/handlers/payment"
	"coursemart/internal/http-server/handlers/users"
	"coursemart/internal/http-server/handlers/webhook"
	"coursemart/internal/http-server/middleware/authenticate"
	"coursemart/internal/http-server/middleware/requirerole"
	"coursemart/internal/http-server/middleware/timeout"
	"coursemart/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	requirerole.Authorize
	login.Core
	users.Core
	courses.Core
	cart.Core
	payment.Core
	webhook.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	// public catalog and login
	router.Post("/jwt", login.Token(log, handler))
	router.Get("/classes", courses.Approved(log, handler))
	router.Get("/popularClasses", courses.Popular(log, handler))
	router.Get("/instructors", courses.Instructors(log, handler))
	router.Get("/popularInstructors", courses.PopularInstructors(log, handler))
	router.Get("/course/details/{id}", courses.Details(log, handler))

	// bearer-protected surface
	router.Group(func(protected chi.Router) {
		protected.Use(authenticate.New(log, handler))

		protected.Put("/users", users.Save(log, handler))
		protected.Get("/users/admin/{email}", users.RoleProbe(log, handler, entity.RoleAdmin))
		protected.Get("/users/instructor/{email}", users.RoleProbe(log, handler, entity.RoleInstructor))

		protected.Route("/carts", func(c chi.Router) {
			c.Get("/", cart.List(log, handler))
			c.Post("/", cart.Add(log, handler))
			c.Delete("/{id}", cart.Remove(log, handler))
		})

		protected.Post("/create-payment-intent", payment.CreateIntent(log, handler))
		protected.Post("/payments", payment.Complete(log, handler))
		protected.Get("/payments/{email}", payment.History(log, handler))

		protected.Group(func(admin chi.Router) {
			admin.Use(requirerole.New(log, handler, entity.RoleAdmin))
			admin.Get("/users", users.List(log, handler))
			admin.Patch("/users/admin/{id}", users.SetRole(log, handler, entity.RoleAdmin))
			admin.Patch("/users/instructor/{id}", users.SetRole(log, handler, entity.RoleInstructor))
			admin.Delete("/users/{id}", users.Delete(log, handler))
			admin.Get("/classes/all", courses.All(log, handler))
			admin.Patch("/classes/state/{id}", courses.SetState(log, handler))
			admin.Delete("/classes/{id}", courses.Delete(log, handler))
		})

		protected.Group(func(instructor chi.Router) {
			instructor.Use(requirerole.New(log, handler, entity.RoleInstructor))
			instructor.Post("/classes", courses.Create(log, handler))
			instructor.Get("/classes/mine", courses.Mine(log, handler))
		})
	})

	router.Route("/webhook", func(wh chi.Router) {
		wh.Post("/stripe", webhook.Event(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
