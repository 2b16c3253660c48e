package users

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/entity"
	"coursemart/lib/api/cont"
)

type fakeCore struct {
	roles        map[string]entity.Role
	setRoleCalls []string
}

func (f *fakeCore) Users(context.Context) ([]*entity.User, error) { return nil, nil }

func (f *fakeCore) SaveUser(context.Context, *entity.User) error { return nil }

func (f *fakeCore) HasRole(_ context.Context, email string, role entity.Role) (bool, error) {
	return f.roles[email] == role, nil
}

func (f *fakeCore) SetUserRole(_ context.Context, id string, role entity.Role) error {
	f.setRoleCalls = append(f.setRoleCalls, id+":"+string(role))
	return nil
}

func (f *fakeCore) DeleteUser(context.Context, string) error { return nil }

func probeRequest(email, identity string) *http.Request {
	req := httptest.NewRequest("GET", "http://example.com/users/admin/"+email, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("email", email)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = cont.PutIdentity(ctx, &entity.Identity{Email: identity})
	return req.WithContext(ctx)
}

func TestRoleProbe(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := &fakeCore{roles: map[string]entity.Role{
		"admin@example.com": entity.RoleAdmin,
	}}

	tests := []struct {
		name     string
		email    string
		identity string
		want     bool
	}{
		{"own email with role", "admin@example.com", "admin@example.com", true},
		{"own email without role", "student@example.com", "student@example.com", false},
		{"somebody else's email reads false", "admin@example.com", "student@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RoleProbe(log, core, entity.RoleAdmin)(rr, probeRequest(tt.email, tt.identity))

			require.Equal(t, http.StatusOK, rr.Code)
			var body map[string]bool
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["admin"])
		})
	}
}

func TestSetRole_OneWritePerCall(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := &fakeCore{}

	handler := SetRole(log, core, entity.RoleAdmin)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("PATCH", "http://example.com/users/admin/abc123", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "abc123")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		rr := httptest.NewRecorder()
		handler(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	assert.Equal(t, []string{"abc123:admin", "abc123:admin", "abc123:admin"}, core.setRoleCalls)
}
