package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/entity"
	"coursemart/impl/enroll"
	"coursemart/lib/api/cont"
)

type fakeCore struct {
	result *enroll.Result
	err    error
	got    *entity.Payment
}

func (f *fakeCore) CreatePaymentIntent(context.Context, int64) (string, string, error) {
	return "pi_123", "pi_123_secret", nil
}

func (f *fakeCore) CompleteEnrollment(_ context.Context, p *entity.Payment) (*enroll.Result, error) {
	f.got = p
	return f.result, f.err
}

func (f *fakeCore) PaymentsByUser(context.Context, string) ([]*entity.Payment, error) {
	return nil, nil
}

func completeRequest(body string) *http.Request {
	req := httptest.NewRequest("POST", "http://example.com/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := cont.PutIdentity(req.Context(), &entity.Identity{Email: "student@example.com"})
	return req.WithContext(ctx)
}

const paymentBody = `{"course_id":"course1","cart_entry_id":"c1","amount":4900}`

func TestComplete(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		result         *enroll.Result
		err            error
		expectedStatus int
	}{
		{
			name: "full success",
			body: paymentBody,
			result: &enroll.Result{PaymentId: "pay-1", Steps: []enroll.StepResult{
				{Name: "record-payment", Ok: true},
				{Name: "release-cart-entry", Ok: true},
				{Name: "adjust-seats", Ok: true},
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name: "partial success surfaces 202",
			body: paymentBody,
			result: &enroll.Result{PaymentId: "pay-1", Steps: []enroll.StepResult{
				{Name: "record-payment", Ok: true},
				{Name: "release-cart-entry", Ok: true},
				{Name: "adjust-seats", Ok: false, Err: "course not found"},
			}},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "record failure is a hard error",
			body:           paymentBody,
			err:            errors.New("record-payment: write failed"),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "invalid body",
			body:           `{"amount":0}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &fakeCore{result: tt.result, err: tt.err}
			rr := httptest.NewRecorder()
			Complete(log, core)(rr, completeRequest(tt.body))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.result == nil {
				return
			}
			require.NotNil(t, core.got)
			assert.Equal(t, "student@example.com", core.got.UserEmail,
				"payment must be attributed to the authenticated identity")

			var body struct {
				Error bool           `json:"error"`
				Data  *enroll.Result `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.False(t, body.Error)
			assert.Equal(t, tt.result.PaymentId, body.Data.PaymentId)
		})
	}
}

func TestHistory_OnlyOwnEmail(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := &fakeCore{}

	req := httptest.NewRequest("GET", "http://example.com/payments/other@example.com", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("email", "other@example.com")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = cont.PutIdentity(ctx, &entity.Identity{Email: "student@example.com"})
	rr := httptest.NewRecorder()
	History(log, core)(rr, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
