package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crcsite/internal/config"
	"crcsite/internal/models"
	"crcsite/internal/queue"
	"crcsite/internal/repository"
	"crcsite/internal/security"
)

// fakeUserStore is an in-memory credential store for exercising the
// auth flow without Postgres.
type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	if _, exists := s.users[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	u := user
	s.users[user.Email] = &u
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, exists := s.users[email]
	if !exists {
		return models.User{}, repository.ErrUserNotFound
	}
	return *user, nil
}

func (s *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	return users, nil
}

func (s *fakeUserStore) RecordAuthFailure(_ context.Context, id string) error {
	for _, u := range s.users {
		if u.ID == id {
			u.AuthFailCount++
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *fakeUserStore) RecordAuthSuccess(_ context.Context, id string) error {
	for _, u := range s.users {
		if u.ID == id {
			u.AuthFailCount = 0
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, email string, hash []byte) error {
	user, exists := s.users[email]
	if !exists {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	user.AuthFailCount = 0
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, email string) error {
	if _, exists := s.users[email]; !exists {
		return repository.ErrUserNotFound
	}
	delete(s.users, email)
	return nil
}

// fakeQueue records enqueued tasks instead of touching Redis.
type fakeQueue struct {
	tasks []queue.Task
}

func (q *fakeQueue) Enqueue(_ context.Context, task queue.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func testConfig(failLimit int) *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			SecretKey:     "test-secret",
			AuthTokenTTL:  10 * time.Minute,
			ResetTokenTTL: time.Hour,
			AuthFailLimit: failLimit,
			BcryptCost:    4,
		},
	}
}

func newTestService(t *testing.T, failLimit int) (*AuthService, *fakeUserStore, *fakeQueue) {
	t.Helper()
	store := newFakeUserStore()
	q := &fakeQueue{}
	svc := NewAuthService(store, q, testConfig(failLimit), zerolog.Nop())
	return svc, store, q
}

func registerUser(t *testing.T, svc *AuthService, email, password string) {
	t.Helper()
	result, err := svc.Register(context.Background(), email, password)
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestAuthenticate_UnknownEmailGetsGenericMessage(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)

	for _, password := range []string{"whatever", "", "another-guess"} {
		result, err := svc.Authenticate(context.Background(), "ghost@example.com", password)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, MsgInvalidCredentials, result.Message)
	}
}

func TestAuthenticate_WrongPasswordMatchesUnknownEmailMessage(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	wrongPW, err := svc.Authenticate(context.Background(), "someone@example.com", "not-the-password")
	require.NoError(t, err)
	unknown, err := svc.Authenticate(context.Background(), "nobody@example.com", "not-the-password")
	require.NoError(t, err)

	// Identical wording so callers cannot probe which emails exist.
	assert.Equal(t, unknown.Message, wrongPW.Message)
}

func TestAuthenticate_FailureIncrementsCounter(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	for i := 1; i <= 3; i++ {
		result, err := svc.Authenticate(context.Background(), "someone@example.com", "bad-guess")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, i, store.users["someone@example.com"].AuthFailCount)
	}
}

func TestAuthenticate_SuccessResetsCounter(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")
	store.users["someone@example.com"].AuthFailCount = 7

	result, err := svc.Authenticate(context.Background(), "someone@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, MsgLoginSuccessful, result.Message)
	assert.Equal(t, 0, store.users["someone@example.com"].AuthFailCount)
}

func TestAuthenticate_LockedOutEvenWithCorrectPassword(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	// threshold+1 consecutive failures trip the lock.
	for i := 0; i < 11; i++ {
		_, err := svc.Authenticate(context.Background(), "someone@example.com", "bad-guess")
		require.NoError(t, err)
	}

	result, err := svc.Authenticate(context.Background(), "someone@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgLockedOut, result.Message)

	// The lockout path must not touch the counter in either direction.
	assert.Equal(t, 11, store.users["someone@example.com"].AuthFailCount)
}

func TestAuthenticate_AtThresholdStillAllowed(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")
	store.users["someone@example.com"].AuthFailCount = 10

	// auth_fail == threshold is not yet locked; strictly-greater locks.
	result, err := svc.Authenticate(context.Background(), "someone@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAuthenticate_ConfigurableThreshold(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 2)
	registerUser(t, svc, "someone@example.com", "password123")
	store.users["someone@example.com"].AuthFailCount = 3

	result, err := svc.Authenticate(context.Background(), "someone@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgLockedOut, result.Message)
}

func TestAuthenticate_ReturnsUserForAuditLogging(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	result, err := svc.Authenticate(context.Background(), "someone@example.com", "bad-guess")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "someone@example.com", result.User.Email)
}

func TestAuthenticate_EmailIsCaseNormalized(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)
	registerUser(t, svc, "Someone@Example.COM", "password123")

	result, err := svc.Authenticate(context.Background(), "SOMEONE@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	result, err := svc.Register(context.Background(), "someone@example.com", "password456")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already exists")
}

func TestRegister_AssignsUserRoleAndQueuesWelcome(t *testing.T) {
	t.Parallel()
	svc, store, q := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	user := store.users["someone@example.com"]
	assert.Equal(t, []string{models.RoleUser}, user.Roles)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, queue.TaskWelcomeEmail, q.tasks[0].Type)
	assert.Equal(t, "someone@example.com", q.tasks[0].Email)
}

func TestChangePassword_ResetsCounterAndRehashes(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")
	store.users["someone@example.com"].AuthFailCount = 12
	oldHash := store.users["someone@example.com"].PasswordHash

	result, err := svc.ChangePassword(context.Background(), "someone@example.com", "new-password")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, store.users["someone@example.com"].AuthFailCount)
	assert.NotEqual(t, oldHash, store.users["someone@example.com"].PasswordHash)

	// The previously locked account can log in again.
	login, err := svc.Authenticate(context.Background(), "someone@example.com", "new-password")
	require.NoError(t, err)
	assert.True(t, login.Success)
}

func TestChangePassword_UnknownEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)

	result, err := svc.ChangePassword(context.Background(), "ghost@example.com", "new-password")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "is not registered")
}

func TestRequestRecovery_QueuesTokenEmail(t *testing.T) {
	t.Parallel()
	svc, _, q := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")
	q.tasks = nil

	result, err := svc.RequestRecovery(context.Background(), "someone@example.com")
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, queue.TaskRecoveryEmail, q.tasks[0].Type)

	claims, err := svc.ValidateToken(q.tasks[0].Token)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", claims.Subject)
	assert.Empty(t, claims.Roles)
}

func TestRequestRecovery_UnknownEmail(t *testing.T) {
	t.Parallel()
	svc, _, q := newTestService(t, 10)

	result, err := svc.RequestRecovery(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, q.tasks)
}

func TestResetPassword_WithValidToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	token, err := svc.IssueResetToken("someone@example.com")
	require.NoError(t, err)

	result, err := svc.ResetPassword(context.Background(), token, "brand-new-pass")
	require.NoError(t, err)
	assert.True(t, result.Success)

	login, err := svc.Authenticate(context.Background(), "someone@example.com", "brand-new-pass")
	require.NoError(t, err)
	assert.True(t, login.Success)
}

func TestResetPassword_WithInvalidToken(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")
	oldHash := store.users["someone@example.com"].PasswordHash

	result, err := svc.ResetPassword(context.Background(), "not.a.token", "brand-new-pass")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, oldHash, store.users["someone@example.com"].PasswordHash)
}

func TestResetPassword_RejectsAuthToken(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")
	oldHash := store.users["someone@example.com"].PasswordHash

	// A still-valid auth token must not drive a password reset.
	token, err := svc.IssueAuthToken("someone@example.com", []string{"user"})
	require.NoError(t, err)

	result, err := svc.ResetPassword(context.Background(), token, "brand-new-pass")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Your request is no longer valid", result.Message)
	assert.Equal(t, oldHash, store.users["someone@example.com"].PasswordHash)
}

func TestIssueAuthToken_RoundTripsThroughValidate(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)

	token, err := svc.IssueAuthToken("a@b.com", []string{"user", "admin"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.Equal(t, []string{"user", "admin"}, claims.Roles)
}

func TestValidateToken_Invalid(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t, 10)

	_, err := svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	svc, store, _ := newTestService(t, 10)
	registerUser(t, svc, "someone@example.com", "password123")

	result, err := svc.DeleteAccount(context.Background(), "someone@example.com")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotContains(t, store.users, "someone@example.com")

	again, err := svc.DeleteAccount(context.Background(), "someone@example.com")
	require.NoError(t, err)
	assert.False(t, again.Success)
}
