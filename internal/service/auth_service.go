package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"crcsite/internal/config"
	"crcsite/internal/ids"
	"crcsite/internal/models"
	"crcsite/internal/queue"
	"crcsite/internal/repository"
	"crcsite/internal/security"
)

// The two user-visible authentication failure messages. Unknown email
// and wrong password share one message so the API never confirms which
// emails are registered.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgLockedOut          = "Your account is locked out. Please recover your account."
	MsgLoginSuccessful    = "Login Successful"
)

// UserStore is the slice of the credential store the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	RecordAuthFailure(ctx context.Context, id string) error
	RecordAuthSuccess(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, email string, hash []byte) error
	Delete(ctx context.Context, email string) error
}

// TaskQueue dispatches deferred work (email delivery) without blocking
// the request.
type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type AuthService struct {
	users UserStore
	queue TaskQueue
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAuthService(users UserStore, taskQueue TaskQueue, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users: users,
		queue: taskQueue,
		cfg:   cfg,
		log:   log,
	}
}

// Authenticate checks the user's email and password.
//
// The returned Result carries the looked-up user even on failure so
// callers can write audit logs; only Result.Message may reach the
// client.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.Result, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Result{Success: false, Message: MsgInvalidCredentials}, nil
		}
		return models.Result{}, err
	}

	if user.AuthFailCount > s.cfg.Security.AuthFailLimit {
		// Locked accounts do not touch the counter; only a password
		// reset unlocks them.
		s.log.Warn().Str("email", email).Msg("locked out")
		return models.Result{Success: false, Message: MsgLockedOut, User: &user}, nil
	}

	if security.CheckPassword(password, user.PasswordHash) {
		if err := s.users.RecordAuthSuccess(ctx, user.ID); err != nil {
			return models.Result{}, err
		}
		user.AuthFailCount = 0
		s.log.Info().Str("email", email).Msg("successful login")
		return models.Result{Success: true, Message: MsgLoginSuccessful, User: &user}, nil
	}

	if err := s.users.RecordAuthFailure(ctx, user.ID); err != nil {
		return models.Result{}, err
	}
	s.log.Info().Str("email", email).Msg("failed login")
	return models.Result{Success: false, Message: MsgInvalidCredentials, User: &user}, nil
}

// Register creates a new account with the default user role and queues
// the welcome email.
func (s *AuthService) Register(ctx context.Context, email, password string) (models.Result, error) {
	email = normalizeEmail(email)

	hash, err := security.HashPassword(password, s.cfg.Security.BcryptCost)
	if err != nil {
		return models.Result{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{models.RoleUser},
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.Result{
				Success: false,
				Message: fmt.Sprintf("%q account already exists", email),
			}, nil
		}
		return models.Result{}, err
	}

	s.enqueue(ctx, queue.Task{Type: queue.TaskWelcomeEmail, Email: email})
	s.log.Info().Str("email", email).Msg("account registered")

	return models.Result{Success: true, Message: "Account registration successful", User: &user}, nil
}

// ChangePassword stores a fresh hash and clears the lockout counter.
func (s *AuthService) ChangePassword(ctx context.Context, email, password string) (models.Result, error) {
	email = normalizeEmail(email)

	hash, err := security.HashPassword(password, s.cfg.Security.BcryptCost)
	if err != nil {
		return models.Result{}, err
	}

	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Result{
				Success: false,
				Message: fmt.Sprintf("%q is not registered", email),
			}, nil
		}
		return models.Result{}, err
	}

	s.log.Info().Str("email", email).Msg("password updated")
	return models.Result{Success: true, Message: "Your password has been updated successfully"}, nil
}

// DeleteAccount removes the user and, via cascade, its role assignments.
func (s *AuthService) DeleteAccount(ctx context.Context, email string) (models.Result, error) {
	email = normalizeEmail(email)

	if err := s.users.Delete(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Result{
				Success: false,
				Message: fmt.Sprintf("%q is not registered", email),
			}, nil
		}
		return models.Result{}, err
	}

	s.log.Info().Str("email", email).Msg("account removed")
	return models.Result{Success: true, Message: "Account deleted successfully"}, nil
}

// RequestRecovery issues a reset token and queues the recovery email for
// a registered address.
func (s *AuthService) RequestRecovery(ctx context.Context, email string) (models.Result, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Warn().Str("email", email).Msg("cannot recover unregistered email")
			return models.Result{
				Success: false,
				Message: fmt.Sprintf("No account exists for %q, please register", email),
			}, nil
		}
		return models.Result{}, err
	}

	token, err := s.IssueResetToken(email)
	if err != nil {
		return models.Result{}, err
	}

	s.enqueue(ctx, queue.Task{Type: queue.TaskRecoveryEmail, Email: email, Token: token})
	s.log.Info().Str("email", email).Msg("account recovery email queued")

	return models.Result{Success: true, Message: "Account recovery email sent successfully", User: &user}, nil
}

// ResetPassword validates a reset token and applies the new password.
// Only reset-kind tokens qualify; an auth token presented here is as
// invalid as an expired one.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (models.Result, error) {
	claims, err := s.ValidateToken(token)
	if err != nil || claims.Kind != security.TokenKindReset {
		return models.Result{Success: false, Message: "Your request is no longer valid"}, nil
	}
	return s.ChangePassword(ctx, claims.Subject, password)
}

// ListUsers backs the admin user table.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) IssueAuthToken(email string, roles []string) (string, error) {
	return security.GenerateAuthToken(s.cfg.Security.SecretKey, normalizeEmail(email), roles, s.cfg.Security.AuthTokenTTL)
}

func (s *AuthService) IssueResetToken(email string) (string, error) {
	return security.GenerateResetToken(s.cfg.Security.SecretKey, normalizeEmail(email), s.cfg.Security.ResetTokenTTL)
}

func (s *AuthService) ValidateToken(token string) (*security.Claims, error) {
	return security.ParseToken(token, s.cfg.Security.SecretKey)
}

// enqueue hands a task to the mail queue. Delivery is fire-and-forget;
// a broken queue must not fail the request that triggered the email.
func (s *AuthService) enqueue(ctx context.Context, task queue.Task) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.log.Error().Err(err).Str("type", task.Type).Msg("enqueue failed")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
