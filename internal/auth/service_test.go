package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortlink-backend/internal/database"
	"shortlink-backend/internal/models"
)

func TestMain(m *testing.M) {
	if err := database.OpenInMemory(); err != nil {
		panic(err)
	}
	code := m.Run()
	database.Close()
	os.Exit(code)
}

// captureMailer records the last verification email instead of sending it
type captureMailer struct {
	to   string
	code string
	link string
}

func (m *captureMailer) SendVerificationEmail(to, code, link string) error {
	m.to, m.code, m.link = to, code, link
	return nil
}

func newTestService(t *testing.T) (*Service, *captureMailer) {
	t.Helper()
	mail := &captureMailer{}
	issuer := NewTokenIssuer([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour)
	return NewService(issuer, mail, "http://localhost:8080"), mail
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register("alice", "alice@example.com", "password1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.EmailVerified)

	// Registration never creates a session
	count, err := database.NewSessionRepo().CountByUserID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, pair, err := svc.Login("alice@example.com", "password1", "10.0.0.1", "agent")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	count, err = database.NewSessionRepo().CountByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("bob", "bob@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register("bobby", "bob@example.com", "password2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("carol", "carol@example.com", "password1")
	require.NoError(t, err)

	_, _, err = svc.Login("carol@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "password1", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_AuthenticateChecksLiveState(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register("dave", "dave@example.com", "password1")
	require.NoError(t, err)
	_, pair, err := svc.Login("dave@example.com", "password1", "", "")
	require.NoError(t, err)

	claims, err := svc.Issuer().VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)

	gotUser, gotSession, err := svc.Authenticate(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.True(t, gotSession.Valid)

	// A signature-valid token no longer authenticates once the session is gone
	require.NoError(t, svc.RevokeAllSessions(user.ID))
	_, _, err = svc.Authenticate(claims)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestService_AuthenticateInvalidatedSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("erin", "erin@example.com", "password1")
	require.NoError(t, err)
	_, pair, err := svc.Login("erin@example.com", "password1", "", "")
	require.NoError(t, err)

	claims, err := svc.Issuer().VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, database.NewSessionRepo().Invalidate(claims.SessionID))

	_, _, err = svc.Authenticate(claims)
	assert.ErrorIs(t, err, database.ErrSessionInvalid)
}

func TestService_RefreshRotatesSameSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("frank", "frank@example.com", "password1")
	require.NoError(t, err)
	_, pair, err := svc.Login("frank@example.com", "password1", "", "")
	require.NoError(t, err)

	oldClaims, err := svc.Issuer().VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	_, session, newPair, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	// Rotation reuses the session row, never creates one
	newClaims, err := svc.Issuer().VerifyRefreshToken(newPair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, oldClaims.SessionID, newClaims.SessionID)
	assert.Equal(t, oldClaims.SessionID, session.ID)
}

func TestService_RefreshAfterRevocation(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register("grace", "grace@example.com", "password1")
	require.NoError(t, err)
	_, pair, err := svc.Login("grace@example.com", "password1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(user.ID))

	_, _, _, err = svc.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestService_RefreshInvalidToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, _, err := svc.Refresh("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ChangePasswordRevokesSessions(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register("heidi", "heidi@example.com", "password1")
	require.NoError(t, err)
	_, _, err = svc.Login("heidi@example.com", "password1", "", "")
	require.NoError(t, err)
	_, _, err = svc.Login("heidi@example.com", "password1", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(user.ID, "wrong", "newpassword"), ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(user.ID, "password1", "newpassword"))

	count, err := database.NewSessionRepo().CountByUserID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, _, err = svc.Login("heidi@example.com", "newpassword", "", "")
	require.NoError(t, err)
}

func TestService_EmailVerificationFlow(t *testing.T) {
	svc, mail := newTestService(t)

	user, err := svc.Register("ivan", "ivan@example.com", "password1")
	require.NoError(t, err)
	_, _, err = svc.Login("ivan@example.com", "password1", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SendVerificationEmail(user.ID))
	assert.Equal(t, "ivan@example.com", mail.to)
	assert.Len(t, mail.code, 8)
	assert.Contains(t, mail.link, "code="+mail.code)

	verified, err := svc.VerifyEmail(mail.code)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	// Verification revokes every session
	count, err := database.NewSessionRepo().CountByUserID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The code is consumed
	_, err = svc.VerifyEmail(mail.code)
	assert.ErrorIs(t, err, database.ErrVerificationNotFound)

	// Already verified users get no further codes
	assert.ErrorIs(t, svc.SendVerificationEmail(user.ID), ErrAlreadyVerified)
}

func TestService_RevokeSessionOwnership(t *testing.T) {
	svc, _ := newTestService(t)

	owner, err := svc.Register("judy", "judy@example.com", "password1")
	require.NoError(t, err)
	other, err := svc.Register("mallory", "mallory@example.com", "password1")
	require.NoError(t, err)

	_, pair, err := svc.Login("judy@example.com", "password1", "", "")
	require.NoError(t, err)
	claims, err := svc.Issuer().VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RevokeSession(claims.SessionID, other.ID), ErrNotSessionOwner)
	require.NoError(t, svc.RevokeSession(claims.SessionID, owner.ID))

	sessions, err := svc.Sessions(owner.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Valid)
}

func TestService_IssueSessionForExternalIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	user := &models.User{Username: "oidc-user", Email: "oidc@example.com", PasswordHash: "$argon2id$x", EmailVerified: true}
	require.NoError(t, database.NewUserRepo().Create(user))

	pair, err := svc.IssueSession(user, "10.0.0.2", "agent")
	require.NoError(t, err)

	claims, err := svc.Issuer().VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.EmailVerified)
}
