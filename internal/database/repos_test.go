package database

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortlink-backend/internal/models"
)

func TestMain(m *testing.M) {
	if err := OpenInMemory(); err != nil {
		panic(err)
	}
	code := m.Run()
	Close()
	os.Exit(code)
}

func createTestUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     "tester",
		Email:        email,
		PasswordHash: "$argon2id$fake",
	}
	require.NoError(t, NewUserRepo().Create(user))
	return user
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo := NewUserRepo()
	user := createTestUser(t, "create-get@example.com")

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.False(t, got.EmailVerified)

	got, err = repo.GetByEmail("create-get@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	repo := NewUserRepo()
	createTestUser(t, "dupe@example.com")

	err := repo.Create(&models.User{
		Username:     "other",
		Email:        "dupe@example.com",
		PasswordHash: "$argon2id$fake",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserRepo_NotFound(t *testing.T) {
	repo := NewUserRepo()

	_, err := repo.GetByID(999999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, repo.UpdateUsername(999999, "x"), ErrUserNotFound)
}

func TestUserRepo_Updates(t *testing.T) {
	repo := NewUserRepo()
	user := createTestUser(t, "updates@example.com")

	require.NoError(t, repo.UpdateUsername(user.ID, "renamed"))
	require.NoError(t, repo.UpdatePassword(user.ID, "$argon2id$new"))
	require.NoError(t, repo.UpdateEmailVerified(user.ID, true))

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, "$argon2id$new", got.PasswordHash)
	assert.True(t, got.EmailVerified)
}

func TestSessionRepo_CreateAndGet(t *testing.T) {
	repo := NewSessionRepo()
	user := createTestUser(t, "sessions@example.com")

	session, err := repo.Create(user.ID, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.Valid)

	got, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.Equal(t, "test-agent", got.UserAgent)
}

func TestSessionRepo_MultipleConcurrentSessions(t *testing.T) {
	repo := NewSessionRepo()
	user := createTestUser(t, "multi-session@example.com")

	for i := 0; i < 3; i++ {
		_, err := repo.Create(user.ID, "10.0.0.1", "agent")
		require.NoError(t, err)
	}

	count, err := repo.CountByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSessionRepo_Invalidate(t *testing.T) {
	repo := NewSessionRepo()
	user := createTestUser(t, "invalidate@example.com")

	session, err := repo.Create(user.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, repo.Invalidate(session.ID))

	got, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	assert.ErrorIs(t, repo.Invalidate("no-such-session"), ErrSessionNotFound)
}

func TestSessionRepo_DeleteAllForUser(t *testing.T) {
	repo := NewSessionRepo()
	user := createTestUser(t, "delete-all@example.com")

	s1, err := repo.Create(user.ID, "", "")
	require.NoError(t, err)
	_, err = repo.Create(user.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAllForUser(user.ID))

	_, err = repo.GetByID(s1.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting zero rows is not an error
	require.NoError(t, repo.DeleteAllForUser(user.ID))
}

func TestLinkRepo_CRUD(t *testing.T) {
	repo := NewLinkRepo()
	user := createTestUser(t, "links@example.com")

	link := &models.Link{ShortCode: "go-lang", URL: "https://go.dev", UserID: user.ID}
	require.NoError(t, repo.Create(link))
	assert.NotZero(t, link.ID)

	got, err := repo.GetByShortCode("go-lang")
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev", got.URL)

	require.NoError(t, repo.Update(link.ID, user.ID, "https://go.dev/doc", "go-docs"))
	got, err = repo.GetByID(link.ID)
	require.NoError(t, err)
	assert.Equal(t, "go-docs", got.ShortCode)

	require.NoError(t, repo.Delete(link.ID, user.ID))
	_, err = repo.GetByID(link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLinkRepo_ShortCodeTaken(t *testing.T) {
	repo := NewLinkRepo()
	user := createTestUser(t, "taken@example.com")

	require.NoError(t, repo.Create(&models.Link{ShortCode: "taken", URL: "https://a.example", UserID: user.ID}))
	err := repo.Create(&models.Link{ShortCode: "taken", URL: "https://b.example", UserID: user.ID})
	assert.ErrorIs(t, err, ErrShortCodeTaken)
}

func TestLinkRepo_OwnerScoping(t *testing.T) {
	repo := NewLinkRepo()
	owner := createTestUser(t, "owner@example.com")
	other := createTestUser(t, "other@example.com")

	link := &models.Link{ShortCode: "scoped", URL: "https://example.com", UserID: owner.ID}
	require.NoError(t, repo.Create(link))

	assert.ErrorIs(t, repo.Update(link.ID, other.ID, "https://evil.example", "scoped"), ErrLinkNotFound)
	assert.ErrorIs(t, repo.Delete(link.ID, other.ID), ErrLinkNotFound)

	links, err := repo.GetByUserID(other.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestVerificationRepo_ReplaceAndConsume(t *testing.T) {
	repo := NewVerificationRepo()
	user := createTestUser(t, "verify@example.com")

	require.NoError(t, repo.Replace(user.ID, "11111111", time.Hour))
	require.NoError(t, repo.Replace(user.ID, "22222222", time.Hour))

	// Only the latest code survives
	_, err := repo.GetByCode("11111111")
	assert.ErrorIs(t, err, ErrVerificationNotFound)

	got, err := repo.GetByCode("22222222")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	require.NoError(t, repo.DeleteAllForUser(user.ID))
	_, err = repo.GetByCode("22222222")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationRepo_Expired(t *testing.T) {
	repo := NewVerificationRepo()
	user := createTestUser(t, "verify-expired@example.com")

	require.NoError(t, repo.Replace(user.ID, "33333333", -time.Minute))

	_, err := repo.GetByCode("33333333")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestAuditRepo_Log(t *testing.T) {
	repo := NewAuditRepo()
	user := createTestUser(t, "audit@example.com")

	require.NoError(t, repo.Log(user.ID, "tester", models.ActionLogin, "", map[string]string{"k": "v"}, "10.0.0.1"))

	logs, err := repo.ListRecent(user.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionLogin, logs[0].Action)
	assert.JSONEq(t, `{"k":"v"}`, logs[0].Details)
}
