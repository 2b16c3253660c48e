package requirerole

import (
	"context"
	"encoding/json"
	"errors"
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

type fakeAuthorize struct {
	roles map[string]entity.Role
	err   error
}

func (f fakeAuthorize) Authorize(_ context.Context, id *entity.Identity, required entity.Role) error {
	if f.err != nil {
		return f.err
	}
	if f.roles[id.Email] != required {
		return entity.ErrForbidden
	}
	return nil
}

func TestRequireRole(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := fakeAuthorize{roles: map[string]entity.Role{
		"admin@example.com":      entity.RoleAdmin,
		"instructor@example.com": entity.RoleInstructor,
	}}

	tests := []struct {
		name           string
		email          string
		required       entity.Role
		expectedStatus int
	}{
		{"admin allowed", "admin@example.com", entity.RoleAdmin, http.StatusOK},
		{"instructor allowed", "instructor@example.com", entity.RoleInstructor, http.StatusOK},
		{"wrong role", "instructor@example.com", entity.RoleAdmin, http.StatusForbidden},
		{"unknown account", "ghost@example.com", entity.RoleAdmin, http.StatusForbidden},
		{"no identity in context", "", entity.RoleAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com/users", nil)
			if tt.email != "" {
				ctx := cont.PutIdentity(req.Context(), &entity.Identity{Email: tt.email})
				req = req.WithContext(ctx)
			}
			rr := httptest.NewRecorder()

			handler := New(log, auth, tt.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus != http.StatusForbidden {
				return
			}

			var body struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, "forbidden access", body.Message)
		})
	}
}

func TestRequireRole_LookupFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := fakeAuthorize{err: errors.New("directory down")}

	req := httptest.NewRequest("GET", "http://example.com/users", nil)
	req = req.WithContext(cont.PutIdentity(req.Context(), &entity.Identity{Email: "admin@example.com"}))
	rr := httptest.NewRecorder()

	handler := New(log, auth, entity.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
