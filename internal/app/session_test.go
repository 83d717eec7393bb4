package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"spot_rental/internal/app"
	"spot_rental/internal/domain"
	"spot_rental/internal/storage/memory"
)

func signup() app.SignupPayload {
	return app.SignupPayload{
		Email:     "demo@user.io",
		Username:  "Demo-lition",
		FirstName: "Demo",
		LastName:  "Lition",
		Password:  "password",
	}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := app.NewSessionService(memory.New(), bcrypt.MinCost)

	u, err := svc.Signup(ctx, signup())
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.NotEqual(t, []byte("password"), u.HashedPassword)

	for _, cred := range []string{"demo@user.io", "Demo-lition", "  Demo-lition "} {
		got, err := svc.Login(ctx, app.LoginPayload{Credential: cred, Password: "password"})
		require.NoError(t, err, cred)
		require.Equal(t, u.ID, got.ID)
	}

	_, err = svc.Login(ctx, app.LoginPayload{Credential: "Demo-lition", Password: "wrong-one"})
	requireKind(t, err, domain.ErrInvalidCredentials, "Invalid credentials")
	_, err = svc.Login(ctx, app.LoginPayload{Credential: "nobody", Password: "password"})
	requireKind(t, err, domain.ErrInvalidCredentials, "Invalid credentials")

	cur, err := svc.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "demo@user.io", cur.Email)
}

func TestSignup_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := app.NewSessionService(memory.New(), bcrypt.MinCost)
	_, err := svc.Signup(ctx, signup())
	require.NoError(t, err)

	p := signup()
	p.Email = "other@user.io"
	_, err = svc.Signup(ctx, p)
	requireKind(t, err, domain.ErrForbidden, "User already exists")
}

func TestSignup_Validation(t *testing.T) {
	svc := app.NewSessionService(memory.New(), bcrypt.MinCost)
	cases := []struct {
		name  string
		edit  func(*app.SignupPayload)
		field string
		msg   string
	}{
		{"bad email", func(p *app.SignupPayload) { p.Email = "nope" }, "email", "Invalid email"},
		{"short username", func(p *app.SignupPayload) { p.Username = "abc" }, "username", "Please provide a username with at least 4 characters that is not an email"},
		{"email as username", func(p *app.SignupPayload) { p.Username = "me@there.io" }, "username", "Please provide a username with at least 4 characters that is not an email"},
		{"blank first name", func(p *app.SignupPayload) { p.FirstName = "  " }, "firstName", "First Name is required"},
		{"short password", func(p *app.SignupPayload) { p.Password = "12345" }, "password", "Password must be 6 characters or more"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := signup()
			tc.edit(&p)
			_, err := svc.Signup(context.Background(), p)
			requireInvalid(t, err, tc.field, tc.msg)
		})
	}
}

func TestLogin_Validation(t *testing.T) {
	svc := app.NewSessionService(memory.New(), bcrypt.MinCost)
	_, err := svc.Login(context.Background(), app.LoginPayload{Password: "x"})
	requireInvalid(t, err, "credential", "Email or username is required")
}
