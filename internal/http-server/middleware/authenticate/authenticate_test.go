package authenticate

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/entity"
	"coursemart/lib/api/cont"
)

type fakeAuth struct{}

func (fakeAuth) Authenticate(header string) (*entity.Identity, error) {
	if header == "Bearer good-token" {
		return &entity.Identity{Email: "student@example.com"}, nil
	}
	return nil, entity.ErrUnauthenticated
}

func TestAuthenticate(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectEmail    string
	}{
		{"valid token", "Bearer good-token", http.StatusOK, "student@example.com"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, ""},
		{"no bearer scheme", "good-token", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com/carts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			var gotEmail string
			handler := New(log, fakeAuth{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotEmail = cont.GetIdentity(r.Context()).Email
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectEmail, gotEmail)
				return
			}

			var body struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, "Unauthorized access", body.Message)
		})
	}
}
