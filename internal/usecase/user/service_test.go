package user

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon-tracker/internal/config"
	domainUser "beacon-tracker/internal/domain/user"
	"beacon-tracker/internal/logger"
	appErrors "beacon-tracker/pkg/errors"
	"beacon-tracker/pkg/utils"
)

func TestMain(m *testing.M) {
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type memoryUserRepo struct {
	byEmail map[string]*domainUser.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{byEmail: make(map[string]*domainUser.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *domainUser.User) error {
	if _, exists := r.byEmail[u.Email]; exists {
		return domainUser.ErrUserAlreadyExists
	}
	u.ID = uuid.New()
	u.IsActive = true
	u.CreatedAt = time.Now()
	r.byEmail[u.Email] = u
	return nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domainUser.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domainUser.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, userID uuid.UUID) (*domainUser.User, error) {
	for _, u := range r.byEmail {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, domainUser.ErrUserNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
	}
}

func TestRegister(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Tracker@Example.com",
		Password: "Str0ng-pass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.NotEqual(t, uuid.Nil, resp.User.ID)
	// Emails are stored lowercased.
	assert.Equal(t, "tracker@example.com", resp.User.Email)

	claims, err := utils.ValidateToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())
	req := &RegisterRequest{Email: "dup@example.com", Password: "Str0ng-pass"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrUserAlreadyExists)
}

func TestRegister_Invalid(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	tests := []struct {
		name string
		req  *RegisterRequest
	}{
		{"bad email", &RegisterRequest{Email: "not-an-email", Password: "Str0ng-pass"}},
		{"short password", &RegisterRequest{Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.Error(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, testConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "login@example.com", Password: "Str0ng-pass"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginRequest{Email: "login@example.com", Password: "Str0ng-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "login@example.com", Password: "Str0ng-pass"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "login@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, testConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "inactive@example.com", Password: "Str0ng-pass"})
	require.NoError(t, err)
	repo.byEmail["inactive@example.com"].IsActive = false

	_, err = svc.Login(ctx, &LoginRequest{Email: "inactive@example.com", Password: "Str0ng-pass"})
	assert.ErrorIs(t, err, appErrors.ErrUserInactive)
}
