package courses

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
	"coursemart/lib/validate"
)

type Core interface {
	ApprovedCourses(ctx context.Context) ([]*entity.Course, error)
	AllCourses(ctx context.Context) ([]*entity.Course, error)
	CoursesByHost(ctx context.Context, email string) ([]*entity.Course, error)
	CourseById(ctx context.Context, id string) (*entity.Course, error)
	PopularCourses(ctx context.Context) ([]*entity.Course, error)
	Instructors(ctx context.Context) ([]*entity.Instructor, error)
	PopularInstructors(ctx context.Context) ([]*entity.Instructor, error)
	AddCourse(ctx context.Context, course *entity.Course) (string, error)
	SetCourseState(ctx context.Context, id string, state entity.CourseState, feedback string) error
	DeleteCourse(ctx context.Context, id string) error
}

func courseList(log *slog.Logger, what string, fetch func(ctx context.Context) ([]*entity.Course, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		courses, err := fetch(r.Context())
		if err != nil {
			logger.Error(what, sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Listing failed"))
			return
		}

		render.JSON(w, r, courses)
	}
}

func instructorList(log *slog.Logger, what string, fetch func(ctx context.Context) ([]*entity.Instructor, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		instructors, err := fetch(r.Context())
		if err != nil {
			logger.Error(what, sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Listing failed"))
			return
		}

		render.JSON(w, r, instructors)
	}
}

// Approved lists the public catalog.
func Approved(log *slog.Logger, handler Core) http.HandlerFunc {
	return courseList(log, "list approved courses", handler.ApprovedCourses)
}

// All lists every course regardless of state. Admin only.
func All(log *slog.Logger, handler Core) http.HandlerFunc {
	return courseList(log, "list all courses", handler.AllCourses)
}

// Popular lists the top courses by all-time student count.
func Popular(log *slog.Logger, handler Core) http.HandlerFunc {
	return courseList(log, "list popular courses", handler.PopularCourses)
}

// Instructors lists every host of an approved course.
func Instructors(log *slog.Logger, handler Core) http.HandlerFunc {
	return instructorList(log, "list instructors", handler.Instructors)
}

// PopularInstructors lists the hosts of the most subscribed courses.
func PopularInstructors(log *slog.Logger, handler Core) http.HandlerFunc {
	return instructorList(log, "list popular instructors", handler.PopularInstructors)
}

// Mine lists the authenticated instructor's own courses.
func Mine(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		courses, err := handler.CoursesByHost(r.Context(), identity.Email)
		if err != nil {
			logger.Error("list own courses", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Listing failed"))
			return
		}

		render.JSON(w, r, courses)
	}
}

// Details returns a single course by id.
func Details(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("course_id", id),
		)

		course, err := handler.CourseById(r.Context(), id)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, 404)
			render.JSON(w, r, response.Err("Course not found"))
			return
		}
		if err != nil {
			logger.Error("course details", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Lookup failed"))
			return
		}

		render.JSON(w, r, course)
	}
}

// Create stores a new course submission from the authenticated
// instructor. The host email always comes from the identity, not the
// body.
func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := cont.GetIdentity(r.Context())
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.User(identity.Email),
		)

		var course entity.Course
		if err := render.Bind(r, &course); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		course.HostEmail = identity.Email

		id, err := handler.AddCourse(r.Context(), &course)
		if err != nil {
			logger.Error("add course", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Save failed"))
			return
		}
		logger.With(slog.String("course_id", id)).Info("course submitted")

		render.Status(r, 201)
		render.JSON(w, r, response.Ok(map[string]string{"inserted_id": id}))
	}
}

type stateRequest struct {
	State    entity.CourseState `json:"state" validate:"required,oneof=pending approved denied"`
	Feedback string             `json:"feedback"`
}

func (s *stateRequest) Bind(_ *http.Request) error {
	return validate.Struct(s)
}

// SetState records the admin approval decision, with optional
// feedback for the instructor.
func SetState(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("course_id", id),
		)

		var req stateRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Err(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		err := handler.SetCourseState(r.Context(), id, req.State, req.Feedback)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, 404)
			render.JSON(w, r, response.Err("Course not found"))
			return
		}
		if err != nil {
			logger.Error("set course state", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Update failed"))
			return
		}
		logger.With(slog.String("state", string(req.State))).Info("course state updated")

		render.JSON(w, r, response.Ok(nil))
	}
}

// Delete removes a course from the catalog. Admin only.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.courses"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("course_id", id),
		)

		err := handler.DeleteCourse(r.Context(), id)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, 404)
			render.JSON(w, r, response.Err("Course not found"))
			return
		}
		if err != nil {
			logger.Error("delete course", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Err("Delete failed"))
			return
		}
		logger.Info("course deleted")

		render.JSON(w, r, response.Ok(nil))
	}
}
