package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v76"

	"coursemart/entity"
	"coursemart/impl/auth"
	"coursemart/impl/enroll"
	"coursemart/internal/stripeclient"
	"coursemart/internal/token"
	"coursemart/lib/sl"
)

// Database is the persistence surface the core needs. The concrete
// implementation lives in internal/database.
type Database interface {
	FindAllUsers(ctx context.Context) ([]*entity.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	UpsertUser(ctx context.Context, user *entity.User) error
	SetUserRole(ctx context.Context, id string, role entity.Role) error
	DeleteUser(ctx context.Context, id string) error

	InsertCourse(ctx context.Context, course *entity.Course) (string, error)
	FindCourseById(ctx context.Context, id string) (*entity.Course, error)
	FindAllCourses(ctx context.Context) ([]*entity.Course, error)
	FindCoursesByState(ctx context.Context, state entity.CourseState) ([]*entity.Course, error)
	FindCoursesByHost(ctx context.Context, email string) ([]*entity.Course, error)
	PopularCourses(ctx context.Context, limit int64) ([]*entity.Course, error)
	SetCourseState(ctx context.Context, id string, state entity.CourseState, feedback string) error
	DeleteCourse(ctx context.Context, id string) error

	FindCartByUser(ctx context.Context, email string) ([]*entity.CartEntry, error)
	InsertCartEntry(ctx context.Context, entry *entity.CartEntry) (string, error)
	DeleteCartEntry(ctx context.Context, id string) error

	FindPaymentsByUser(ctx context.Context, email string) ([]*entity.Payment, error)
}

// Core wires the auth gate, the enrollment workflow and the catalog
// operations behind the interfaces the HTTP handlers consume.
type Core struct {
	db       Database
	gate     *auth.Gate
	workflow *enroll.Workflow
	tokens   *token.Service
	sc       *stripeclient.StripeClient
	log      *slog.Logger
}

func New(db Database, gate *auth.Gate, workflow *enroll.Workflow, tokens *token.Service, sc *stripeclient.StripeClient, log *slog.Logger) *Core {
	if db == nil {
		panic("database is nil")
	}
	return &Core{
		db:       db,
		gate:     gate,
		workflow: workflow,
		tokens:   tokens,
		sc:       sc,
		log:      log.With(sl.Module("core")),
	}
}

// --- auth ---

func (c *Core) Authenticate(header string) (*entity.Identity, error) {
	return c.gate.Authenticate(header)
}

func (c *Core) Authorize(ctx context.Context, id *entity.Identity, required entity.Role) error {
	return c.gate.Authorize(ctx, id, required)
}

// HasRole reports whether the account holds the given role. Unknown
// accounts simply do not hold it.
func (c *Core) HasRole(ctx context.Context, email string, role entity.Role) (bool, error) {
	rec, err := c.db.FindUserByEmail(ctx, email)
	if errors.Is(err, entity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Role == role, nil
}

// IssueToken upserts the account record and signs an access token for
// it. This is the login exchange: the frontend trades a verified email
// for a bearer credential.
func (c *Core) IssueToken(ctx context.Context, user *entity.User) (string, error) {
	if err := c.db.UpsertUser(ctx, user); err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}
	signed, err := c.tokens.Sign(user.Email)
	if err != nil {
		return "", err
	}
	c.log.With(sl.User(user.Email)).Debug("token issued")
	return signed, nil
}

// --- users ---

func (c *Core) Users(ctx context.Context) ([]*entity.User, error) {
	return c.db.FindAllUsers(ctx)
}

func (c *Core) SaveUser(ctx context.Context, user *entity.User) error {
	return c.db.UpsertUser(ctx, user)
}

func (c *Core) SetUserRole(ctx context.Context, id string, role entity.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role: %q", role)
	}
	return c.db.SetUserRole(ctx, id, role)
}

func (c *Core) DeleteUser(ctx context.Context, id string) error {
	return c.db.DeleteUser(ctx, id)
}

// --- courses ---

func (c *Core) ApprovedCourses(ctx context.Context) ([]*entity.Course, error) {
	return c.db.FindCoursesByState(ctx, entity.StateApproved)
}

func (c *Core) AllCourses(ctx context.Context) ([]*entity.Course, error) {
	return c.db.FindAllCourses(ctx)
}

func (c *Core) CoursesByHost(ctx context.Context, email string) ([]*entity.Course, error) {
	return c.db.FindCoursesByHost(ctx, email)
}

func (c *Core) CourseById(ctx context.Context, id string) (*entity.Course, error) {
	return c.db.FindCourseById(ctx, id)
}

func (c *Core) PopularCourses(ctx context.Context) ([]*entity.Course, error) {
	return c.db.PopularCourses(ctx, 6)
}

// Instructors lists every host with at least one approved course.
func (c *Core) Instructors(ctx context.Context) ([]*entity.Instructor, error) {
	courses, err := c.db.FindCoursesByState(ctx, entity.StateApproved)
	if err != nil {
		return nil, err
	}
	return instructorsFromCourses(courses, 0), nil
}

// PopularInstructors derives the instructor ranking from course
// popularity: hosts of the most subscribed approved courses, one entry
// per host.
func (c *Core) PopularInstructors(ctx context.Context) ([]*entity.Instructor, error) {
	courses, err := c.db.PopularCourses(ctx, 50)
	if err != nil {
		return nil, err
	}
	return instructorsFromCourses(courses, 6), nil
}

func instructorsFromCourses(courses []*entity.Course, limit int) []*entity.Instructor {
	seen := make(map[string]bool)
	var instructors []*entity.Instructor
	for _, course := range courses {
		if seen[course.HostEmail] {
			continue
		}
		seen[course.HostEmail] = true
		instructors = append(instructors, &entity.Instructor{
			Name:          course.HostName,
			Email:         course.HostEmail,
			Image:         course.Image,
			TotalStudents: course.TotalStudents,
		})
		if limit > 0 && len(instructors) == limit {
			break
		}
	}
	return instructors
}

// AddCourse stores a new course submission. Whatever the instructor
// sent, it starts pending and waits for an admin decision.
func (c *Core) AddCourse(ctx context.Context, course *entity.Course) (string, error) {
	course.State = entity.StatePending
	course.EnrolledStudents = 0
	course.Feedback = ""
	return c.db.InsertCourse(ctx, course)
}

func (c *Core) SetCourseState(ctx context.Context, id string, state entity.CourseState, feedback string) error {
	if !state.Valid() {
		return fmt.Errorf("invalid course state: %q", state)
	}
	return c.db.SetCourseState(ctx, id, state, feedback)
}

func (c *Core) DeleteCourse(ctx context.Context, id string) error {
	return c.db.DeleteCourse(ctx, id)
}

// --- cart ---

func (c *Core) CartEntries(ctx context.Context, email string) ([]*entity.CartEntry, error) {
	return c.db.FindCartByUser(ctx, email)
}

func (c *Core) AddCartEntry(ctx context.Context, entry *entity.CartEntry) (string, error) {
	return c.db.InsertCartEntry(ctx, entry)
}

// RemoveCartEntry deletes a cart entry. Deleting an entry that is
// already gone is not an error.
func (c *Core) RemoveCartEntry(ctx context.Context, id string) error {
	err := c.db.DeleteCartEntry(ctx, id)
	if errors.Is(err, entity.ErrNotFound) {
		return nil
	}
	return err
}

// --- payments ---

func (c *Core) CreatePaymentIntent(ctx context.Context, amount int64) (string, string, error) {
	if c.sc == nil {
		return "", "", fmt.Errorf("payment service not connected")
	}
	return c.sc.CreatePaymentIntent(ctx, amount)
}

func (c *Core) CompleteEnrollment(ctx context.Context, p *entity.Payment) (*enroll.Result, error) {
	if c.workflow == nil {
		return nil, fmt.Errorf("enrollment workflow not connected")
	}
	return c.workflow.Complete(ctx, p)
}

func (c *Core) PaymentsByUser(ctx context.Context, email string) ([]*entity.Payment, error) {
	return c.db.FindPaymentsByUser(ctx, email)
}

// --- webhook ---

func (c *Core) StripeVerifySignature(payload []byte, header string, tolerance time.Duration) bool {
	if c.sc == nil {
		return false
	}
	return c.sc.VerifySignature(payload, header, tolerance)
}

func (c *Core) StripeEvent(ctx context.Context, evt *stripe.Event) {
	if c.sc == nil {
		return
	}
	c.sc.HandleEvent(ctx, evt)
}
