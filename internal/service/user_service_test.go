package service

import (
	"context"
	"testing"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(st *memoryStore) *UserService {
	svc := NewUserService(st)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	st := newMemoryStore()
	svc := newTestUserService(st)
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterRequest{Username: "reader", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret-pw", user.PasswordHash)

	authed, err := svc.Authenticate(ctx, "reader", "secret-pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = svc.Authenticate(ctx, "reader", "wrong-pw")
	requireKind(t, err, apperr.KindUnauthorized)

	_, err = svc.Authenticate(ctx, "ghost", "secret-pw")
	requireKind(t, err, apperr.KindUnauthorized)
}

func TestUserService_RegisterValidation(t *testing.T) {
	st := newMemoryStore()
	svc := newTestUserService(st)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "reader", Password: "secret-pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "reader", Password: "another-pw"})
	requireKind(t, err, apperr.KindBadRequest)

	_, err = svc.Register(ctx, &RegisterRequest{Username: " ", Password: "secret-pw"})
	requireKind(t, err, apperr.KindBadRequest)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "short", Password: "abc"})
	requireKind(t, err, apperr.KindBadRequest)
}

func TestUserService_EnsureAdminIsIdempotent(t *testing.T) {
	st := newMemoryStore()
	svc := newTestUserService(st)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "root", "root-pw"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root", "ignored"))

	admin, err := svc.FindByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = svc.FindByUsername(ctx, "ghost")
	requireKind(t, err, apperr.KindNotFound)
}
