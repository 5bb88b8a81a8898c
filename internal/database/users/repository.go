// Package users holds the account administration queries behind
// /api/users. Passwords, tokens and lockout belong to the auth service.
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/entities"
)

var (
	ErrLastAdmin   = errors.New("at least one admin account must remain")
	ErrInvalidRole = errors.New("invalid role")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUsers returns every account ordered by username.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var list []entities.User
	return list, r.db.Order("username").Find(&list).Error
}

// SetRole moves an account between Admin and Staff.
func (r *Repository) SetRole(id uint, role entities.UserRole) error {
	if role != entities.UserRoleAdmin && role != entities.UserRoleStaff {
		return ErrInvalidRole
	}
	return r.withAdminGuard(id, func(tx *gorm.DB, user *entities.User) (bool, error) {
		if user.Role == role {
			return false, nil
		}
		return user.IsAdmin(), tx.Model(user).Update("role", role).Error
	})
}

// DeleteUser removes an account.
func (r *Repository) DeleteUser(id uint) error {
	return r.withAdminGuard(id, func(tx *gorm.DB, user *entities.User) (bool, error) {
		return user.IsAdmin(), tx.Delete(user).Error
	})
}

// withAdminGuard loads the user and applies change in one transaction.
// When change reports that an admin lost the role, the transaction is rolled
// back unless another admin remains.
func (r *Repository) withAdminGuard(id uint, change func(*gorm.DB, *entities.User) (bool, error)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		demoted, err := change(tx, &user)
		if err != nil || !demoted {
			return err
		}
		var admins int64
		if err := tx.Model(&entities.User{}).Where("role = ?", entities.UserRoleAdmin).Count(&admins).Error; err != nil {
			return err
		}
		if admins == 0 {
			return ErrLastAdmin
		}
		return nil
	})
}
