package repository

import (
	"context"
	"fmt"

	"food-delivery-api/apperrors"
	"food-delivery-api/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("Email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, errUserNotFound, "get user")
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFoundOr(err, errUserNotFound, "get user by email")
	}
	return &user, nil
}

// List returns all users, or only those with role when it is valid.
func (r *UserRepository) List(ctx context.Context, role models.Role) ([]models.User, error) {
	q := r.db.WithContext(ctx)
	if role.Valid() {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Order("created_at asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListDrivers returns driver accounts, optionally only those whose approval
// matches approved.
func (r *UserRepository) ListDrivers(ctx context.Context, approved *bool) ([]models.User, error) {
	q := r.db.WithContext(ctx).Where("role = ?", models.RoleDriver)
	if approved != nil {
		q = q.Where("approved = ?", *approved)
	}
	var drivers []models.User
	if err := q.Order("created_at asc").Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return drivers, nil
}

// ApproveDriver marks a driver account as approved to claim orders.
func (r *UserRepository) ApproveDriver(ctx context.Context, id string) (*models.User, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RoleDriver).
		Update("approved", true)
	if res.Error != nil {
		return nil, fmt.Errorf("approve driver: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("Driver not found")
	}
	return r.GetByID(ctx, id)
}
