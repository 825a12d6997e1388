package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentplanner/server/models"
	"github.com/parentplanner/server/store"
	apierrors "github.com/parentplanner/server/utils/errors"
)

func TestUserService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.CreateUser(ctx, models.User{ID: "u1", Email: "ann@example.com", ChildNickname: "Bo"})
	require.NoError(t, err)
	assert.Equal(t, "u1", created.ID)
	assert.Equal(t, []string{}, created.Friends)
	assert.NotNil(t, created.CreatedAt)

	got := f.users.GetUserByID(ctx, "u1")
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "Bo", got.ChildNickname)
}

func TestUserService_GetUserByID_DefaultsWhenMissing(t *testing.T) {
	f := newFixture(t)

	got := f.users.GetUserByID(context.Background(), "ghost")
	assert.Equal(t, models.DefaultUser("ghost"), got)
}

func TestUserService_LookupUser_ReportsFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	missing := f.users.LookupUser(ctx, "ghost")
	assert.False(t, missing.Found())
	assert.ErrorIs(t, missing.Err, store.ErrNotFound)
	assert.ErrorIs(t, missing.Err, apierrors.ErrUserNotFound)
	assert.Equal(t, "ghost", missing.User.ID)

	f.createUser(t, "u1")
	f.store.failGet["u1"] = true
	broken := f.users.LookupUser(ctx, "u1")
	assert.ErrorIs(t, broken.Err, errBackend)
	assert.False(t, errors.Is(broken.Err, store.ErrNotFound))
	assert.Equal(t, models.DefaultUser("u1"), broken.User)
}

func TestUserService_LookupUser_NormalizesPartialRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Create(ctx, store.Users, store.Document{"id": "u1", "email": "x@example.com", "friends": "oops"})
	require.NoError(t, err)

	lookup := f.users.LookupUser(ctx, "u1")
	require.NoError(t, lookup.Err)
	assert.Equal(t, "x@example.com", lookup.User.Email)
	assert.Equal(t, "", lookup.User.ChildNickname)
	assert.Equal(t, []string{}, lookup.User.Friends)
}

func TestUserService_GetUserByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.CreateUser(ctx, models.User{ID: "u1", Email: "ann@example.com"})
	require.NoError(t, err)

	user, err := f.users.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = f.users.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apierrors.ErrUserNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)

	f.store.failQuery = true
	_, err = f.users.GetUserByEmail(ctx, "ann@example.com")
	assert.ErrorIs(t, err, errBackend)
}

func TestUserService_UpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.createUser(t, "u1")
	user.ChildNickname = "Mia"
	user.Friends = []string{"u2"}

	updated, err := f.users.UpdateUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Mia", updated.ChildNickname)
	assert.Equal(t, []string{"u2"}, updated.Friends)

	_, err = f.users.UpdateUser(ctx, models.User{ID: "ghost"})
	assert.ErrorIs(t, err, apierrors.ErrUserNotFound)
}

func TestUserService_GetUserFriends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createUser(t, "u1", "u2", "gone", "u3")
	f.createUser(t, "u2")
	f.createUser(t, "u3")

	result := f.users.GetUserFriends(ctx, "u1")
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"u2", "u3"}, result.IDs())
	assert.Equal(t, []string{"gone"}, result.Missing)
}

func TestUserService_GetUserFriends_UnknownUser(t *testing.T) {
	f := newFixture(t)

	result := f.users.GetUserFriends(context.Background(), "ghost")
	assert.Error(t, result.Err)
	assert.Empty(t, result.Friends)
}
