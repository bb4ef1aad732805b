// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists users and their external logins. Email uniqueness and
// (provider, key) uniqueness are enforced here, atomically.
type Repository interface {
	// Create inserts u together with any u.Logins in one transaction.
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, normalizedEmail string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByLogin(ctx context.Context, provider, providerKey string) (*User, error)
	AddLogin(ctx context.Context, login *ExternalLogin) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository. The db must be opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Logins").Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("insert user: %w", err)
		}
		for i := range u.Logins {
			u.Logins[i].UserID = u.ID
			if err := tx.Create(&u.Logins[i]).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateLogin
				}
				return fmt.Errorf("insert external login: %w", err)
			}
		}
		return nil
	})
}

func (r *gormRepository) FindByEmail(ctx context.Context, normalizedEmail string) (*User, error) {
	return r.first(ctx, "normalized_email = ?", normalizedEmail)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormRepository) FindByLogin(ctx context.Context, provider, providerKey string) (*User, error) {
	var login ExternalLogin
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_key = ?", provider, providerKey).
		First(&login).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, login.UserID)
}

func (r *gormRepository) AddLogin(ctx context.Context, login *ExternalLogin) error {
	if err := r.db.WithContext(ctx).Create(login).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateLogin
		}
		return fmt.Errorf("insert external login: %w", err)
	}
	return nil
}

func (r *gormRepository) first(ctx context.Context, query string, args ...interface{}) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Preload("Logins").Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
