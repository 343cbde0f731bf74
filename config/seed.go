package config

import (
	"context"
	"errors"
	"fmt"

	"food-delivery-api/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the configured admin account unless the email is
// already taken. Admins cannot self-register, so this is the only way the
// first one comes to exist.
func SeedAdmin(ctx context.Context, db *gorm.DB, seed AdminSeed, log *logrus.Logger) error {
	if !seed.Enabled() {
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", seed.Email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleAdmin {
			log.WithField("email", seed.Email).Warn("admin seed email belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}
	admin := models.User{
		Name:         "Administrator",
		Email:        seed.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Approved:     true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.WithField("email", seed.Email).Info("admin account seeded")
	return nil
}
