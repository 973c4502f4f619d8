package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logiledger-api-server/internal/models"
)

func TestRegisterLoginAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	user, token, err := f.svc.Accounts.Register(ctx, RegisterInput{
		Name:     "Asha Rao",
		Email:    "Asha@Example.in",
		Password: "secret123",
		UserType: "msme",
		Location: models.LocationInput{Text: "Pune, Maharashtra"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "asha@example.in", user.Email)
	require.NotNil(t, user.Location)
	assert.Equal(t, "Pune", user.Location.City)

	logged, token, err := f.svc.Accounts.Login(ctx, "asha@example.in", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	me, err := f.svc.Accounts.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMSME, me.Role)

	_, _, err = f.svc.Accounts.Login(ctx, "asha@example.in", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = f.svc.Accounts.Login(ctx, "nobody@example.in", "secret123")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.Accounts.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, _, err := f.svc.Accounts.Register(ctx, RegisterInput{Name: "x", Email: "x@y.in", Password: "secret123"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.Accounts.Register(ctx, RegisterInput{Name: "x", Email: "x@y.in", Password: "secret123", UserType: "admin"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.Accounts.Register(ctx, RegisterInput{Name: "x", Email: "x@y.in", Password: "secret123", UserType: "company",
		Location: models.LocationInput{Value: &models.Location{State: "Goa"}}})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.Accounts.Register(ctx, RegisterInput{Name: "x", Email: "x@y.in", Password: "secret123", UserType: "company"})
	require.NoError(t, err)
	_, _, err = f.svc.Accounts.Register(ctx, RegisterInput{Name: "y", Email: "X@Y.in", Password: "secret123", UserType: "msme"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	user := f.register(t, models.RoleMSME, "")

	phone := "+91 99999 00000"
	loc := models.LocationInput{Text: "Surat, Gujarat"}
	updated, err := f.svc.Accounts.UpdateProfile(ctx, user, ProfileInput{Phone: &phone, Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Gujarat", updated.Location.State)
	assert.Equal(t, user.Name, updated.Name)

	empty := "  "
	_, err = f.svc.Accounts.UpdateProfile(ctx, user, ProfileInput{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)
}
