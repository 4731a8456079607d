package application

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodhaven/moodhaven/pkg/helpers"
)

func newAccountService(t *testing.T) (*AccountService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return &AccountService{
		Repo:  newMemRepo(),
		JWT:   helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
		Redis: helpers.NewRedisClient(mr.Addr(), "", 0),
	}, mr
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	in := SignUpInput{Email: "ana@example.com", Password: "supersecret", Name: "Ana"}
	profile, pair, err := svc.SignUp(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.UserID)
	assert.NotEmpty(t, pair.AccessToken)

	_, _, err = svc.SignUp(ctx, in)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Name: "Ana"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "ana@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	_, err = svc.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// Login must complete against in-memory infrastructure only: no resolver, no
// outbound calls. Location enrichment belongs to the email worker.
func TestLoginCreatesSession(t *testing.T) {
	svc, mr := newAccountService(t)
	ctx := context.Background()

	profile, _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Name: "Ana"})
	require.NoError(t, err)

	_, pair, err := svc.Login(ctx, "ana@example.com", "supersecret", "203.0.113.7", "TestAgent/1.0")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	sid := mr.HGet(sessionKey(profile.UserID), "sid")
	assert.NotEmpty(t, sid)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sid, claims.SessionID)
}

func TestRefreshRotatesSessionID(t *testing.T) {
	svc, mr := newAccountService(t)
	ctx := context.Background()

	profile, pair, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Name: "Ana"})
	require.NoError(t, err)
	oldSID := mr.HGet(sessionKey(profile.UserID), "sid")

	newPair, uid, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, profile.UserID, uid)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	newSID := mr.HGet(sessionKey(profile.UserID), "sid")
	assert.NotEqual(t, oldSID, newSID)

	// The pre-rotation refresh token carries a stale sid and must be rejected.
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutDeletesSession(t *testing.T) {
	svc, mr := newAccountService(t)
	ctx := context.Background()

	profile, _, err := svc.SignUp(ctx, SignUpInput{Email: "ana@example.com", Password: "supersecret", Name: "Ana"})
	require.NoError(t, err)
	require.True(t, mr.Exists(sessionKey(profile.UserID)))

	require.NoError(t, svc.Logout(ctx, profile.UserID, "", ""))
	assert.False(t, mr.Exists(sessionKey(profile.UserID)))
}
