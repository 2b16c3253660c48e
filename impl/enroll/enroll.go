package enroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coursemart/entity"
	"coursemart/lib/sl"
)

type PaymentStore interface {
	AppendPayment(ctx context.Context, p *entity.Payment) (string, error)
}

type CartStore interface {
	DeleteCartEntry(ctx context.Context, id string) error
}

type CourseStore interface {
	AdjustSeats(ctx context.Context, courseId string, deltaEnrolled, deltaAvailable int64) error
}

// failure policy of a workflow step
type policy int

const (
	abortOnError policy = iota
	continueOnError
)

type step struct {
	name   string
	policy policy
	run    func(ctx context.Context) error
}

type StepResult struct {
	Name string `json:"name"`
	Ok   bool   `json:"ok"`
	Err  string `json:"error,omitempty"`
}

// Result aggregates the outcome of one completed enrollment. The
// payment record is always committed when a Result is returned;
// Partial reports whether any downstream bookkeeping step failed.
type Result struct {
	PaymentId string       `json:"payment_id"`
	Steps     []StepResult `json:"steps"`
}

func (r *Result) Partial() bool {
	for _, s := range r.Steps {
		if !s.Ok {
			return true
		}
	}
	return false
}

// Workflow runs the fixed effect sequence behind a completed payment:
// record the payment, release the cart entry, adjust the course seat
// counters. The three stores are independent systems of record and
// there is no cross-store transaction; the payment record comes first
// so the financial trail survives any downstream failure.
type Workflow struct {
	payments PaymentStore
	cart     CartStore
	courses  CourseStore
	log      *slog.Logger
}

func New(payments PaymentStore, cart CartStore, courses CourseStore, log *slog.Logger) *Workflow {
	return &Workflow{
		payments: payments,
		cart:     cart,
		courses:  courses,
		log:      log.With(sl.Module("enroll")),
	}
}

// Complete executes the enrollment sequence for one payment. Only a
// failure to commit the payment record aborts the run; later steps
// are logged and reported through the Result so the caller can
// surface partial success.
func (w *Workflow) Complete(ctx context.Context, p *entity.Payment) (*Result, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = entity.PaymentPending
	}

	result := &Result{}

	steps := []step{
		{
			name:   "record-payment",
			policy: abortOnError,
			run: func(ctx context.Context) error {
				id, err := w.payments.AppendPayment(ctx, p)
				if err != nil {
					return err
				}
				result.PaymentId = id
				return nil
			},
		},
		{
			name:   "release-cart-entry",
			policy: continueOnError,
			run: func(ctx context.Context) error {
				err := w.cart.DeleteCartEntry(ctx, p.CartEntryId)
				if errors.Is(err, entity.ErrNotFound) {
					// already removed, deletion is idempotent
					return nil
				}
				return err
			},
		},
		{
			name:   "adjust-seats",
			policy: continueOnError,
			run: func(ctx context.Context) error {
				return w.courses.AdjustSeats(ctx, p.CourseId, 1, -1)
			},
		},
	}

	log := w.log.With(
		sl.User(p.UserEmail),
		slog.String("course_id", p.CourseId),
		slog.String("cart_entry_id", p.CartEntryId),
		slog.Int64("amount", p.Amount),
	)

	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			result.Steps = append(result.Steps, StepResult{Name: s.name, Ok: true})
			continue
		}
		if s.policy == abortOnError {
			log.Error("enrollment aborted", slog.String("step", s.name), sl.Err(err))
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		log.Warn("enrollment step failed", slog.String("step", s.name), sl.Err(err))
		result.Steps = append(result.Steps, StepResult{Name: s.name, Ok: false, Err: err.Error()})
	}

	if result.Partial() {
		log.Warn("enrollment completed partially", slog.String("payment_id", result.PaymentId))
	} else {
		log.Info("enrollment completed", slog.String("payment_id", result.PaymentId))
	}
	return result, nil
}
