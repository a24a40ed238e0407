package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"shortlink-backend/internal/database"
	"shortlink-backend/internal/mailer"
	"shortlink-backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrNotSessionOwner    = errors.New("session belongs to another user")
)

// Verification codes are 8-digit and live for a day, matching the
// email_verifications default expiry.
const (
	verificationCodeDigits = 8
	verificationTTL        = 24 * time.Hour
)

// TokenPair is an access/refresh token set issued together
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service handles authentication logic
type Service struct {
	userRepo         *database.UserRepo
	sessionRepo      *database.SessionRepo
	verificationRepo *database.VerificationRepo
	auditRepo        *database.AuditRepo
	issuer           *TokenIssuer
	mail             mailer.Mailer
	baseURL          string
}

// NewService creates a new auth service
func NewService(issuer *TokenIssuer, mail mailer.Mailer, baseURL string) *Service {
	return &Service{
		userRepo:         database.NewUserRepo(),
		sessionRepo:      database.NewSessionRepo(),
		verificationRepo: database.NewVerificationRepo(),
		auditRepo:        database.NewAuditRepo(),
		issuer:           issuer,
		mail:             mail,
		baseURL:          baseURL,
	}
}

// Issuer exposes the token issuer for cookie lifetimes
func (s *Service) Issuer() *TokenIssuer {
	return s.issuer
}

// Register creates a new account. No session is created; the user logs in
// afterwards. A duplicate email is rejected.
func (s *Service) Register(username, email, password string) (*models.User, error) {
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, database.ErrUserAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// Login verifies credentials, creates a session, and issues a token pair
func (s *Service) Login(email, password, ipAddress, userAgent string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	valid, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !valid {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.sessionRepo.Create(user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokenPair(user, session.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// IssueSession creates a session and token pair for an already-authenticated
// user. Used by the OIDC callback, where no password is involved.
func (s *Service) IssueSession(user *models.User, ipAddress, userAgent string) (*TokenPair, error) {
	session, err := s.sessionRepo.Create(user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}
	return s.issueTokenPair(user, session.ID)
}

// Authenticate cross-checks access-token claims against the live user and
// session records. Stateless token validity alone is never enough.
func (s *Service) Authenticate(claims *AccessClaims) (*models.User, *models.Session, error) {
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessionRepo.GetByID(claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.Valid {
		return nil, nil, database.ErrSessionInvalid
	}

	return user, session, nil
}

// Refresh verifies a refresh token and mints a new token pair bound to the
// same session. Both tokens are reissued together; no new session row is
// created. Concurrent refreshes against one session may race, and each
// produces a valid pair: validity derives from the session row, not the token.
func (s *Service) Refresh(refreshToken string) (*models.User, *models.Session, *TokenPair, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, nil, err
	}

	session, err := s.sessionRepo.GetByID(claims.SessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !session.Valid {
		return nil, nil, nil, database.ErrSessionInvalid
	}

	user, err := s.userRepo.GetByID(session.UserID)
	if err != nil {
		return nil, nil, nil, err
	}

	pair, err := s.issueTokenPair(user, session.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	return user, session, pair, nil
}

// Logout deletes every session the user owns, forcing re-login everywhere
func (s *Service) Logout(userID int64) error {
	return s.sessionRepo.DeleteAllForUser(userID)
}

// RevokeAllSessions deletes every session the user owns. Idempotent.
func (s *Service) RevokeAllSessions(userID int64) error {
	return s.sessionRepo.DeleteAllForUser(userID)
}

// Sessions returns all sessions for a user
func (s *Service) Sessions(userID int64) ([]*models.Session, error) {
	return s.sessionRepo.GetByUserID(userID)
}

// RevokeSession soft-invalidates a single session owned by the user
func (s *Service) RevokeSession(sessionID string, userID int64) error {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return ErrNotSessionOwner
	}
	return s.sessionRepo.Invalidate(sessionID)
}

// UpdateProfile changes the user's display name
func (s *Service) UpdateProfile(userID int64, username string) error {
	return s.userRepo.UpdateUsername(userID, username)
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every session
func (s *Service) ChangePassword(userID int64, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	matched, err := VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil || !matched {
		return ErrInvalidCredentials
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(userID, passwordHash); err != nil {
		return err
	}

	return s.sessionRepo.DeleteAllForUser(userID)
}

// SendVerificationEmail issues a fresh verification code and mails it
func (s *Service) SendVerificationEmail(userID int64) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := generateVerificationCode()
	if err != nil {
		return err
	}
	if err := s.verificationRepo.Replace(userID, code, verificationTTL); err != nil {
		return err
	}

	return s.mail.SendVerificationEmail(user.Email, code, s.verifyEmailLink(code, user.Email))
}

// VerifyEmail consumes a verification code, marks the user verified, and
// revokes every session so all devices re-login with the updated identity
func (s *Service) VerifyEmail(code string) (*models.User, error) {
	record, err := s.verificationRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(record.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateEmailVerified(user.ID, true); err != nil {
		return nil, err
	}
	if err := s.verificationRepo.DeleteAllForUser(user.ID); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.DeleteAllForUser(user.ID); err != nil {
		return nil, err
	}

	user.EmailVerified = true
	return user, nil
}

// Audit records an auth event. Failures are logged by the caller at most;
// auditing never blocks the main flow.
func (s *Service) Audit(userID int64, username, action, target string, details interface{}, ipAddress string) {
	_ = s.auditRepo.Log(userID, username, action, target, details, ipAddress)
}

func (s *Service) issueTokenPair(user *models.User, sessionID string) (*TokenPair, error) {
	accessToken, err := s.issuer.IssueAccessToken(AccessClaims{
		UserID:        user.ID,
		Name:          user.Username,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		SessionID:     sessionID,
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.issuer.IssueRefreshToken(sessionID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) verifyEmailLink(code, email string) string {
	u, err := url.Parse(s.baseURL + "/api/auth/verify-email")
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("code", code)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String()
}

// generateVerificationCode returns a random 8-digit numeric code
func generateVerificationCode() (string, error) {
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(verificationCodeDigits-1), nil)
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(verificationCodeDigits), nil)

	n, err := rand.Int(rand.Reader, new(big.Int).Sub(max, min))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", new(big.Int).Add(n, min)), nil
}
