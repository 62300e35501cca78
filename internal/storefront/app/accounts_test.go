package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

type fakeTokens struct{}

func (fakeTokens) Issue(u *domain.User) (string, time.Time, error) {
	return fmt.Sprintf("token-%d", u.ID), time.Now().Add(time.Hour), nil
}

func validRegistration() app.RegisterInput {
	return app.RegisterInput{
		Username:  "njeri",
		Email:     " Njeri@Example.com ",
		Password:  "correct horse",
		FirstName: "Njeri",
		Phone:     "0712345678",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accounts := app.NewAccountService(f.store, fakeTokens{}, f.carts())

	u, err := accounts.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "njeri@example.com", u.Email)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.True(t, u.Active)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	sameName := validRegistration()
	sameName.Email = "other@example.com"
	sameEmail := validRegistration()
	sameEmail.Username = "njeri2"
	shortPassword := validRegistration()
	shortPassword.Username, shortPassword.Email, shortPassword.Password = "x1y2z3", "x@example.com", "short"
	badName := validRegistration()
	badName.Username, badName.Email = "no spaces allowed", "y@example.com"

	testCases := []struct {
		name   string
		in     app.RegisterInput
		target error
	}{
		{name: "username taken", in: sameName, target: domain.ErrConflict},
		{name: "e-mail taken", in: sameEmail, target: domain.ErrConflict},
		{name: "short password", in: shortPassword, target: domain.ErrValidation},
		{name: "bad username", in: badName, target: domain.ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := accounts.Register(ctx, tc.in)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accounts := app.NewAccountService(f.store, fakeTokens{}, f.carts())

	u, err := accounts.Register(ctx, validRegistration())
	require.NoError(t, err)

	for _, login := range []string{"njeri", "NJERI@example.com"} {
		res, err := accounts.Login(ctx, app.LoginInput{Login: login, Password: "correct horse"}, "")
		require.NoError(t, err, login)
		assert.Equal(t, u.ID, res.User.ID)
		assert.Equal(t, fmt.Sprintf("token-%d", u.ID), res.Token)
	}

	testCases := []struct {
		name   string
		in     app.LoginInput
		target error
	}{
		{name: "wrong password", in: app.LoginInput{Login: "njeri", Password: "wrong horse"}, target: domain.ErrValidation},
		{name: "unknown user", in: app.LoginInput{Login: "nobody", Password: "correct horse"}, target: domain.ErrValidation},
		{name: "missing password", in: app.LoginInput{Login: "njeri"}, target: domain.ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := accounts.Login(ctx, tc.in, "")
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestLoginMergesGuestCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := f.carts()
	accounts := app.NewAccountService(f.store, fakeTokens{}, carts)

	u, err := accounts.Register(ctx, validRegistration())
	require.NoError(t, err)

	guest := carts.Identity(domain.Anonymous(), "")
	_, err = carts.Add(ctx, domain.Anonymous(), guest, f.inverter.ID, 1)
	require.NoError(t, err)

	res, err := accounts.Login(ctx, app.LoginInput{Login: "njeri", Password: "correct horse"}, guest.GuestToken)
	require.NoError(t, err)
	assert.Len(t, res.Merge.Merged, 1)

	lines, err := f.store.Carts().Lines(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: f.inverter.ID, Quantity: 1}}, lines)
}
