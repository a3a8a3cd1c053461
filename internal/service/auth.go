package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/events"
	"github.com/Skotchmaster/go_outdoor/internal/hash"
	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/oauth"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
	"github.com/Skotchmaster/go_outdoor/internal/tokens"
)

const (
	VerificationTTL = 15 * time.Minute
	ResetTTL        = time.Hour
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Mailer Mailer
	Events events.Publisher
	Clock  clock.Clock
}

type RegisterInput struct {
	Fullname string
	Email    string
	Password string
}

type LoginResult struct {
	User *models.User
	Pair *tokens.Pair
}

func (s *AuthService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *AuthService) publish(ctx context.Context, topic, key string, ev events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// verificationCode returns a six digit numeric code.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}

// Register stores an unverified account and mails its code. A failed mail
// rolls the insert back.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	fullname := strings.TrimSpace(in.Fullname)
	email := normalizeEmail(in.Email)
	if fullname == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("fullname, email and password are required: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	code, err := verificationCode()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(VerificationTTL)

	user := &models.User{
		Fullname:         fullname,
		Email:            email,
		PasswordHash:     &pwHash,
		VerificationCode: &code,
		CodeExpiresAt:    &expires,
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return s.Mailer.SendVerification(ctx, email, code)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		l.Warn("register_error", "reason", "email already registered")
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}
	if err != nil {
		l.Error("register_error", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TopicUsers, user.ID.String(), events.New(events.TypeUserRegistered, map[string]any{
		"user_id": user.ID.String(),
		"email":   user.Email,
	}))
	l.Info("user_registered", "user_id", user.ID.String())
	return user, nil
}

func (s *AuthService) Verify(ctx context.Context, email, code string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify")

	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return fmt.Errorf("email and code are required: %w", ErrValidation)
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}
	if user.VerificationCode == nil || *user.VerificationCode != code {
		return ErrInvalidCode
	}
	if user.CodeExpiresAt == nil || !s.now().Before(*user.CodeExpiresAt) {
		return ErrCodeExpired
	}

	if err := s.Repo.MarkVerified(ctx, user.ID); err != nil {
		l.Error("verify_error", "user_id", user.ID.String(), "error", err)
		return err
	}

	s.publish(ctx, events.TopicUsers, user.ID.String(), events.New(events.TypeUserVerified, map[string]any{
		"user_id": user.ID.String(),
	}))
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_failed", "reason", "unknown email")
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil || !hash.CheckPassword(*user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, ErrUnauthorized
	}
	if !user.IsVerified {
		l.Warn("login_failed", "reason", "not verified")
		return nil, ErrNotVerified
	}

	pair, err := s.startSession(ctx, s.Repo, user)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}
	return &LoginResult{User: user, Pair: pair}, nil
}

func (s *AuthService) startSession(ctx context.Context, r *repo.GormRepo, user *models.User) (*tokens.Pair, error) {
	pair, err := s.Tokens.Issue(user.ID.String(), user.Email, s.now())
	if err != nil {
		return nil, err
	}
	if err := r.CreateSession(ctx, sessionFor(user.ID, pair)); err != nil {
		return nil, err
	}
	return pair, nil
}

func sessionFor(userID uuid.UUID, pair *tokens.Pair) *models.Session {
	return &models.Session{
		UserID:    userID,
		TokenHash: hash.Sha256Hex(pair.RefreshToken),
		JTI:       pair.RefreshJTI,
		ExpiresAt: pair.RefreshExp.Unix(),
	}
}

// Refresh rotates a refresh token. The presented token is revoked and can not
// be used again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "bad token", "error", err)
		return nil, ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	pair, err := s.Tokens.Issue(user.ID.String(), user.Email, now)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateSession(ctx, claims.ID, now.Unix(), sessionFor(user.ID, pair)); err != nil {
		if errors.Is(err, repo.ErrSessionInvalid) {
			l.Warn("refresh_failed", "reason", "session revoked", "user_id", user.ID.String())
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return pair, nil
}

// LogOut revokes the session behind the refresh token, if any.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.Repo.RevokeSession(ctx, hash.Sha256Hex(refreshToken)); err != nil {
		logging.FromContext(ctx).Error("logout_failed", "error", err)
		return err
	}
	return nil
}

// ForgotPassword mails a reset link when the address is registered. Unknown
// addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required: %w", ErrValidation)
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Info("reset_requested_for_unknown_email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := hash.RandomHex(20)
	if err != nil {
		return err
	}
	if err := s.Repo.SetResetToken(ctx, user.ID, token, s.now().Add(ResetTTL)); err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		l.Error("reset_mail_failed", "user_id", user.ID.String(), "error", err)
		return err
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return fmt.Errorf("token and password are required: %w", ErrValidation)
	}

	user, err := s.Repo.UserByResetToken(ctx, token, s.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Repo.ResetPassword(ctx, user.ID, pwHash)
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// GoogleLogin signs in the owner of a Google profile. An unknown profile is
// linked to the account with the same email, or becomes a new verified account.
func (s *AuthService) GoogleLogin(ctx context.Context, p *oauth.Profile) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.google")

	if p == nil || p.ID == "" || p.Email == "" {
		return nil, fmt.Errorf("incomplete google profile: %w", ErrValidation)
	}

	var user *models.User
	var pair *tokens.Pair
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.UserByGoogleID(ctx, p.ID)
		switch {
		case err == nil:
			user = u
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, err = s.linkOrCreate(ctx, tx, p)
			if err != nil {
				return err
			}
		default:
			return err
		}

		pair, err = s.startSession(ctx, tx, user)
		return err
	})
	if err != nil {
		l.Error("google_login_failed", "error", err)
		return nil, err
	}
	return &LoginResult{User: user, Pair: pair}, nil
}

func (s *AuthService) linkOrCreate(ctx context.Context, tx *repo.GormRepo, p *oauth.Profile) (*models.User, error) {
	email := normalizeEmail(p.Email)

	existing, err := tx.UserByEmail(ctx, email)
	if err == nil {
		if err := tx.LinkGoogle(ctx, existing.ID, p.ID); err != nil {
			return nil, err
		}
		existing.GoogleID = &p.ID
		existing.IsVerified = true
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email
	}
	googleID := p.ID
	user := &models.User{
		Fullname:   name,
		Email:      email,
		GoogleID:   &googleID,
		IsVerified: true,
	}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
