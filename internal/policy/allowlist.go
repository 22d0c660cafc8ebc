package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

var (
	ErrAlreadyAllowed = errors.New("email is already on the allow-list")
	ErrNotAllowed     = errors.New("email is not on the allow-list")
)

// AllowList answers whether an email may use the authenticated area.
type AllowList interface {
	Contains(ctx context.Context, email string) (bool, error)
}

// DBAllowList is the authorized_users table.
type DBAllowList struct {
	DB *gorm.DB
}

func NewDBAllowList(db *gorm.DB) *DBAllowList {
	return &DBAllowList{DB: db}
}

// Contains does an exact match on email.
func (a *DBAllowList) Contains(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	err := a.DB.WithContext(ctx).Model(&models.AuthorizedUser{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("allow-list lookup: %w", err)
	}
	return count > 0, nil
}

func (a *DBAllowList) Add(ctx context.Context, email string) (*models.AuthorizedUser, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	entry := models.AuthorizedUser{Email: email}
	if err := a.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyAllowed
		}
		return nil, fmt.Errorf("allow %s: %w", email, err)
	}
	return &entry, nil
}

func (a *DBAllowList) Remove(ctx context.Context, email string) error {
	res := a.DB.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).Delete(&models.AuthorizedUser{})
	if res.Error != nil {
		return fmt.Errorf("disallow %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotAllowed
	}
	return nil
}

func (a *DBAllowList) List(ctx context.Context) ([]models.AuthorizedUser, error) {
	var entries []models.AuthorizedUser
	if err := a.DB.WithContext(ctx).Order("email").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list allow-list: %w", err)
	}
	return entries, nil
}
