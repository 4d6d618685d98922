package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"beacon-tracker/internal/config"
	domainUser "beacon-tracker/internal/domain/user"
	"beacon-tracker/internal/logger"
	appErrors "beacon-tracker/pkg/errors"
	"beacon-tracker/pkg/utils"
)

// Service implements account registration and login, issuing JWTs that the
// device endpoints require.
type Service struct {
	userRepo domainUser.Repository
	cfg      *config.Config
}

func NewService(userRepo domainUser.Repository, cfg *config.Config) *Service {
	return &Service{userRepo: userRepo, cfg: cfg}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	email, err := utils.ValidateAndSanitizeEmail(req.Email)
	if err != nil {
		return nil, appErrors.ErrInvalidEmail
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.NewAppError("WEAK_PASSWORD", err.Error(), appErrors.ErrWeakPassword)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &domainUser.User{
		Email:          email,
		PasswordHashed: hash,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, appErrors.ErrUserAlreadyExists
		}
		return nil, err
	}

	logger.Info("user registered", zap.String("user_id", u.ID.String()))

	return s.issueToken(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	u, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, appErrors.ErrUserInactive
	}

	if !utils.CheckPassword(u.PasswordHashed, req.Password) {
		return nil, appErrors.ErrInvalidCredentials
	}

	return s.issueToken(u)
}

func (s *Service) issueToken(u *domainUser.User) (*AuthResponse, error) {
	token, err := utils.GenerateToken(u.ID, u.Email, s.cfg.JWT.Secret, s.cfg.JWT.ExpiryHours)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  ToUserResponse(u),
	}, nil
}
