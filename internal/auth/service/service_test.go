package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/internal/auth/repository"
	"github.com/smallbiznis/pharmapos/internal/clock"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}))

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	return New(zap.NewNop(), repo, sessionRepo, node, clk), clk
}

func createUser(t *testing.T, svc authdomain.Service, email, role string) *authdomain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Name:     "Test User",
		Email:    email,
		Password: "secret1",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)

	user := createUser(t, svc, "  Alice@Example.COM ", "Cashier")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, authdomain.RoleCashier, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err := svc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Name: "Again", Email: "alice@example.com", Password: "secret1", Role: "admin",
	})
	assert.ErrorIs(t, err, authdomain.ErrUserExists)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  authdomain.CreateUserRequest
		want error
	}{
		{"missing name", authdomain.CreateUserRequest{Email: "a@b.co", Password: "secret1", Role: "admin"}, authdomain.ErrInvalidName},
		{"bad email", authdomain.CreateUserRequest{Name: "A", Email: "nope", Password: "secret1", Role: "admin"}, authdomain.ErrInvalidEmail},
		{"short password", authdomain.CreateUserRequest{Name: "A", Email: "a@b.co", Password: "12345", Role: "admin"}, authdomain.ErrInvalidPassword},
		{"unknown role", authdomain.CreateUserRequest{Name: "A", Email: "a@b.co", Password: "secret1", Role: "owner"}, authdomain.ErrInvalidRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	createUser(t, svc, "alice@example.com", "cashier")

	_, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret1",
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	svc, _ := newTestService(t)
	user := createUser(t, svc, "bob@example.com", "manager")
	ctx := context.Background()

	res, err := svc.Login(ctx, authdomain.LoginRequest{Email: "BOB@example.com", Password: "secret1", IPAddress: "10.0.0.2"})
	require.NoError(t, err)
	require.NotEmpty(t, res.RawToken)
	assert.Equal(t, user.ID, res.User.ID)

	principal, err := svc.Authenticate(ctx, res.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.User.ID)
	assert.Equal(t, authdomain.RoleManager, principal.User.Role)

	require.NoError(t, svc.Logout(ctx, res.RawToken))
	_, err = svc.Authenticate(ctx, res.RawToken)
	assert.ErrorIs(t, err, authdomain.ErrSessionRevoked)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)
}

func TestSessionExpires(t *testing.T) {
	svc, clk := newTestService(t)
	createUser(t, svc, "carol@example.com", "cashier")

	res, err := svc.Login(context.Background(), authdomain.LoginRequest{Email: "carol@example.com", Password: "secret1"})
	require.NoError(t, err)

	clk.Advance(sessionTTL + time.Minute)
	_, err = svc.Authenticate(context.Background(), res.RawToken)
	assert.ErrorIs(t, err, authdomain.ErrSessionExpired)
}

func TestListUsers(t *testing.T) {
	svc, _ := newTestService(t)
	createUser(t, svc, "z@example.com", "cashier")
	createUser(t, svc, "a@example.com", "admin")

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
