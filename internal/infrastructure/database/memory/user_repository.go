package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainUser "beacon-tracker/internal/domain/user"
)

// UserRepository is an in-memory user.Repository.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domainUser.User
	byEmail map[string]uuid.UUID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]*domainUser.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *UserRepository) Create(_ context.Context, u *domainUser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return domainUser.ErrUserAlreadyExists
	}

	u.ID = uuid.New()
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	copied := *u
	r.byID[u.ID] = &copied
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domainUser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domainUser.ErrUserNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (*domainUser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[userID]
	if !ok {
		return nil, domainUser.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}
