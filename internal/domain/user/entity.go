package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can own exactly one tracked device.
type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHashed string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
