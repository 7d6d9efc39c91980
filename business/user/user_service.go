package user

import (
	"context"
	"errors"
	"fmt"
	"pharmaSupply/domain"
	"pharmaSupply/pkg/logger"
	"pharmaSupply/pkg/utils"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context, filter domain.UserFilter) ([]domain.User, int64, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
	Recent(ctx context.Context, limit int) ([]domain.User, error)
}

// SessionTerminator ends the login sessions of a user.
type SessionTerminator interface {
	TerminateUserSessions(ctx context.Context, userID string) (int, error)
}

type userService struct {
	userRepo UserRepository
	sessions SessionTerminator
	validate *validator.Validate
}

func NewUserService(userRepo UserRepository, sessions SessionTerminator, validate *validator.Validate) *userService {
	return &userService{
		userRepo: userRepo,
		sessions: sessions,
		validate: validate,
	}
}

const (
	defaultUserLimit = 10
	maxUserLimit     = 100
	recentUsers      = 5
	minPasswordLen   = 6
)

func (s *userService) validateEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return domain.NewValidation("invalid email format")
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.User{}, domain.NewValidation("name is required")
	}
	if err := s.validateEmail(in.Email); err != nil {
		return domain.User{}, err
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, domain.NewValidation("password must be at least %d characters", minPasswordLen)
	}

	role := domain.RoleProvider
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return domain.User{}, domain.NewValidation("invalid role")
		}
		role = r
	}

	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		logger.Warn("Email already exists", "email", in.Email)
		return domain.User{}, fmt.Errorf("email %s %w", in.Email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return domain.User{}, errors.New("failed to hash password")
	}

	newUser := domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(passwordHash),
		Role:     role,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", "error", err)
		return domain.User{}, err
	}

	newUser.Password = ""
	return newUser, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user by ID", "user_id", id, "error", err)
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, domain.Pagination, error) {
	filter.Page = domain.NormalizePage(filter.Page.Page, filter.Page.Limit, defaultUserLimit, maxUserLimit)
	if filter.SortOrder == "" {
		filter.SortOrder = domain.SortDesc
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to get all users", "error", err)
		return nil, domain.Pagination{}, err
	}

	for i := range users {
		users[i].Password = ""
	}

	return users, domain.NewPagination(filter.Page.Page, filter.Page.Limit, total), nil
}

func (s *userService) Stats(ctx context.Context) (domain.UserStats, error) {
	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		logger.Error("Failed to count users", "error", err)
		return domain.UserStats{}, err
	}

	recent, err := s.userRepo.Recent(ctx, recentUsers)
	if err != nil {
		logger.Error("Failed to get recent users", "error", err)
		return domain.UserStats{}, err
	}
	for i := range recent {
		recent[i].Password = ""
	}

	return domain.UserStats{
		Total:       byRole[domain.RoleAdmin] + byRole[domain.RoleProvider],
		Admins:      byRole[domain.RoleAdmin],
		Providers:   byRole[domain.RoleProvider],
		RecentUsers: recent,
	}, nil
}

// UpdateUser updates user information
func (s *userService) UpdateUser(ctx context.Context, id string, in domain.UserInput) (domain.User, error) {
	existingUser, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("User not found for update", "user_id", id, "error", err)
		return domain.User{}, err
	}

	if in.Name != "" {
		existingUser.Name = in.Name
	}

	if in.Email != "" && in.Email != existingUser.Email {
		if err := s.validateEmail(in.Email); err != nil {
			return domain.User{}, err
		}

		userWithEmail, err := s.userRepo.FindByEmail(ctx, in.Email)
		if err == nil && userWithEmail.ID != id {
			logger.Warn("Email already exists", "email", in.Email)
			return domain.User{}, fmt.Errorf("email %s %w", in.Email, domain.ErrConflict)
		}
		existingUser.Email = in.Email
	}

	if in.Password != "" {
		if len(in.Password) < minPasswordLen {
			return domain.User{}, domain.NewValidation("password must be at least %d characters", minPasswordLen)
		}

		passwordHash, err := utils.HashPassword(in.Password)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			return domain.User{}, errors.New("failed to hash password")
		}
		existingUser.Password = string(passwordHash)
	}

	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return domain.User{}, domain.NewValidation("invalid role")
		}
		existingUser.Role = r
	}

	if err := s.userRepo.Update(ctx, &existingUser); err != nil {
		logger.Error("Failed to update user", "user_id", id, "error", err)
		return domain.User{}, err
	}

	existingUser.Password = ""
	return existingUser, nil
}

// DeleteUser ends the user's sessions before removing the account.
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.sessions.TerminateUserSessions(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete user", "user_id", id, "error", err)
		return err
	}

	return nil
}
