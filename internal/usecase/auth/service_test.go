package auth

import (
	"context"
	"testing"
	"time"

	"sidecrew/internal/config"
	"sidecrew/internal/domain/account"
	"sidecrew/internal/pkg/jwt"
	"sidecrew/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.New()
	jwtSvc := jwt.NewHMACService("access", "refresh", time.Minute, time.Hour)
	admin := config.AdminConfig{Email: "Admin@Example.com", PasswordHash: string(hash)}
	return NewService(store.Repos().Accounts, jwtSvc, admin, nil), store
}

func registerWorker(t *testing.T, svc *Service, email string) account.Account {
	t.Helper()
	a, err := svc.Register(context.Background(), RegisterInput{
		Kind:     account.KindWorker,
		Name:     "Wira",
		Email:    email,
		Password: "password123",
		Skills:   "forklift",
	})
	require.NoError(t, err)
	return a
}

func TestRegister_CreatesPendingAccount(t *testing.T) {
	svc, _ := newTestService(t)

	a := registerWorker(t, svc, "  Wira@Example.COM ")
	assert.Equal(t, "wira@example.com", a.Email)
	assert.Equal(t, account.StatusPending, a.Status)
	assert.Empty(t, a.PasswordHash)
	assert.True(t, a.Available)

	_, err := svc.Register(context.Background(), RegisterInput{
		Kind: account.KindWorker, Name: "Other", Email: "wira@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	lat, lng := -6.2, 106.8

	cases := map[string]RegisterInput{
		"short password": {Kind: account.KindClient, Name: "C", Email: "c@x.io", Password: "short"},
		"missing name":   {Kind: account.KindClient, Email: "c@x.io", Password: "password123"},
		"admin kind":     {Kind: account.KindAdmin, Name: "A", Email: "a@x.io", Password: "password123"},
		"agent no coords": {Kind: account.KindAgent, Name: "Ag", Email: "ag@x.io", Password: "password123",
			Latitude: &lat},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.Register(ctx, RegisterInput{
		Kind: account.KindAgent, Name: "Ag", Email: "ag@x.io", Password: "password123",
		Latitude: &lat, Longitude: &lng,
	})
	assert.NoError(t, err)
}

func TestLogin_RequiresApproval(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := registerWorker(t, svc, "w@x.io")
	in := LoginInput{Kind: account.KindWorker, Email: "w@x.io", Password: "password123"}

	_, _, err := svc.Login(ctx, in)
	assert.ErrorIs(t, err, ErrPendingApproval)

	require.NoError(t, store.Repos().Accounts.UpdateStatus(ctx, account.KindWorker, a.ID, account.StatusRejected))
	_, _, err = svc.Login(ctx, in)
	assert.ErrorIs(t, err, ErrAccountRejected)

	require.NoError(t, store.Repos().Accounts.UpdateStatus(ctx, account.KindWorker, a.ID, account.StatusApproved))
	got, tokens, err := svc.Login(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	actor, err := svc.Authenticate(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, account.Actor{Kind: account.KindWorker, ID: a.ID}, actor)

	_, err = svc.Authenticate(tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	registerWorker(t, svc, "w@x.io")

	_, _, err := svc.Login(ctx, LoginInput{Kind: account.KindWorker, Email: "w@x.io", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, LoginInput{Kind: account.KindClient, Email: "w@x.io", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_Admin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, tokens, err := svc.Login(ctx, LoginInput{Kind: account.KindAdmin, Email: "admin@example.com", Password: "admin-password"})
	require.NoError(t, err)
	assert.Equal(t, AdminID("admin@example.com"), a.ID)

	actor, err := svc.Authenticate(tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, actor.Is(account.KindAdmin))

	_, _, err = svc.Login(ctx, LoginInput{Kind: account.KindAdmin, Email: "admin@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefresh_StopsAfterRejection(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := registerWorker(t, svc, "w@x.io")
	require.NoError(t, store.Repos().Accounts.UpdateStatus(ctx, account.KindWorker, a.ID, account.StatusApproved))

	_, tokens, err := svc.Login(ctx, LoginInput{Kind: account.KindWorker, Email: "w@x.io", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	next, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.RefreshToken)

	require.NoError(t, store.Repos().Accounts.UpdateStatus(ctx, account.KindWorker, a.ID, account.StatusRejected))
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
