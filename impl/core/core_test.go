package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/entity"
)

// fakeDB embeds the interface so tests only implement what they touch.
type fakeDB struct {
	Database
	cart    map[string]bool
	users   map[string]*entity.User
	popular []*entity.Course
}

func (f *fakeDB) DeleteCartEntry(_ context.Context, id string) error {
	if !f.cart[id] {
		return entity.ErrNotFound
	}
	delete(f.cart, id)
	return nil
}

func (f *fakeDB) FindUserByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return u, nil
}

func (f *fakeDB) PopularCourses(_ context.Context, _ int64) ([]*entity.Course, error) {
	return f.popular, nil
}

func newTestCore(db *fakeDB) *Core {
	return New(db, nil, nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRemoveCartEntry_Idempotent(t *testing.T) {
	t.Parallel()

	c := newTestCore(&fakeDB{cart: map[string]bool{"c1": true}})

	require.NoError(t, c.RemoveCartEntry(context.Background(), "c1"))
	assert.NoError(t, c.RemoveCartEntry(context.Background(), "c1"),
		"second deletion of the same entry must not error")
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	c := newTestCore(&fakeDB{users: map[string]*entity.User{
		"admin@example.com": {Email: "admin@example.com", Role: entity.RoleAdmin},
	}})

	has, err := c.HasRole(context.Background(), "admin@example.com", entity.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = c.HasRole(context.Background(), "admin@example.com", entity.RoleInstructor)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = c.HasRole(context.Background(), "ghost@example.com", entity.RoleAdmin)
	require.NoError(t, err, "unknown account is not an error, it just holds no role")
	assert.False(t, has)
}

func TestPopularInstructors_DedupesHosts(t *testing.T) {
	t.Parallel()

	var courses []*entity.Course
	for i := 0; i < 10; i++ {
		courses = append(courses, &entity.Course{
			Name:      fmt.Sprintf("course-%d", i),
			HostName:  fmt.Sprintf("host-%d", i%4),
			HostEmail: fmt.Sprintf("host-%d@example.com", i%4),
		})
	}
	c := newTestCore(&fakeDB{popular: courses})

	instructors, err := c.PopularInstructors(context.Background())
	require.NoError(t, err)
	require.Len(t, instructors, 4)

	seen := map[string]bool{}
	for _, in := range instructors {
		assert.False(t, seen[in.Email], "host %s listed twice", in.Email)
		seen[in.Email] = true
	}
}
