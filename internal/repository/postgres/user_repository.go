package postgres

import (
	"context"
	"errors"
	"fmt"
	"pharmaSupply/domain"
	"time"

	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := conn(ctx, r.DB).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	var user domain.User

	err := conn(ctx, r.DB).Where("id = ?", id).First(&user).Error
	if err != nil {
		if missing(err) {
			return domain.User{}, domain.NewNotFound("User", id)
		}
		return domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User

	err := conn(ctx, r.DB).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NewNotFound("User")
		}
		return domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByResetToken returns the user holding an unexpired reset token.
func (r *UserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error) {
	var user domain.User

	err := conn(ctx, r.DB).
		Where("reset_token = ? AND reset_token_expiry > ?", token, now).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.NewValidation("Invalid or expired reset token")
		}
		return domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindAll(ctx context.Context, filter domain.UserFilter) ([]domain.User, int64, error) {
	q := conn(ctx, r.DB).Model(&domain.User{})
	if filter.Search != "" {
		q = q.Where("name ILIKE ? OR email ILIKE ?", likePattern(filter.Search), likePattern(filter.Search))
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []domain.User
	err := q.Scopes(
		orderBy(filter.SortBy, userSortColumns, "created_at", filter.SortOrder),
		paginate(filter.Page),
	).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find users: %w", err)
	}

	return users, total, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	result := conn(ctx, r.DB).Model(&domain.User{}).Where("id = ?", user.ID).
		Select("name", "email", "password", "role", "updated_at").
		Updates(user)
	if result.Error != nil && !isInvalidText(result.Error) {
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: email %s", domain.ErrConflict, user.Email)
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("User", user.ID)
	}

	return nil
}

// SetRefreshToken stores the current refresh token. nil clears it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	result := conn(ctx, r.DB).Model(&domain.User{}).Where("id = ?", id).Update("refresh_token", token)
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update refresh token: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("User", id)
	}
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id string, token *string, expiry *time.Time) error {
	result := conn(ctx, r.DB).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"reset_token": token, "reset_token_expiry": expiry})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to update reset token: %w", result.Error)
	}
	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("User", id)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.DB).Where("id = ?", id).Delete(&domain.User{})
	if result.Error != nil && !isInvalidText(result.Error) {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}

	if result.Error != nil || result.RowsAffected == 0 {
		return domain.NewNotFound("User", id)
	}

	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	var rows []struct {
		Role  domain.Role
		Count int64
	}
	err := conn(ctx, r.DB).Model(&domain.User{}).
		Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	out := map[domain.Role]int64{domain.RoleAdmin: 0, domain.RoleProvider: 0}
	for _, rw := range rows {
		out[rw.Role] = rw.Count
	}
	return out, nil
}

func (r *UserRepository) Recent(ctx context.Context, limit int) ([]domain.User, error) {
	var users []domain.User
	if err := conn(ctx, r.DB).Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find recent users: %w", err)
	}
	return users, nil
}
