package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/entity"
	"coursemart/internal/token"
)

type fakeDirectory struct {
	users map[string]*entity.User
	err   error
}

func (d *fakeDirectory) FindUserByEmail(_ context.Context, email string) (*entity.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.users[email]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return u, nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	svc := token.New("test-secret", time.Hour)
	valid, err := svc.Sign("student@example.com")
	require.NoError(t, err)
	expiredSvc := token.New("test-secret", -time.Minute)
	expired, err := expiredSvc.Sign("student@example.com")
	require.NoError(t, err)
	foreign, err := token.New("other-secret", time.Hour).Sign("student@example.com")
	require.NoError(t, err)

	gate := New(svc, &fakeDirectory{})

	tests := []struct {
		name      string
		header    string
		wantEmail string
		wantErr   bool
	}{
		{"valid bearer", "Bearer " + valid, "student@example.com", false},
		{"missing header", "", "", true},
		{"no bearer scheme", valid, "", true},
		{"scheme without token", "Bearer", "", true},
		{"wrong scheme", "Basic " + valid, "", true},
		{"expired token", "Bearer " + expired, "", true},
		{"wrong signature", "Bearer " + foreign, "", true},
		{"garbage token", "Bearer not.a.jwt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := gate.Authenticate(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, entity.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, id.Email)
		})
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{users: map[string]*entity.User{
		"admin@example.com":      {Email: "admin@example.com", Role: entity.RoleAdmin},
		"instructor@example.com": {Email: "instructor@example.com", Role: entity.RoleInstructor},
		"student@example.com":    {Email: "student@example.com"},
	}}
	gate := New(token.New("s", time.Hour), dir)

	tests := []struct {
		name     string
		email    string
		required entity.Role
		wantErr  error
	}{
		{"admin on admin route", "admin@example.com", entity.RoleAdmin, nil},
		{"instructor on instructor route", "instructor@example.com", entity.RoleInstructor, nil},
		{"student on admin route", "student@example.com", entity.RoleAdmin, entity.ErrForbidden},
		{"instructor on admin route", "instructor@example.com", entity.RoleAdmin, entity.ErrForbidden},
		{"admin on instructor route", "admin@example.com", entity.RoleInstructor, entity.ErrForbidden},
		{"unknown account same as mismatch", "ghost@example.com", entity.RoleAdmin, entity.ErrForbidden},
		{"no role required", "ghost@example.com", entity.RoleNone, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(context.Background(), &entity.Identity{Email: tt.email}, tt.required)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthorize_DirectoryFailure(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{err: errors.New("connection refused")}
	gate := New(token.New("s", time.Hour), dir)

	err := gate.Authorize(context.Background(), &entity.Identity{Email: "admin@example.com"}, entity.RoleAdmin)
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrForbidden)
}
