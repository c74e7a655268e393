package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "authgate/internal/errors"
	"authgate/internal/model"
)

// Default column set for lookups; the password hash must be asked for explicitly.
var publicColumns = []string{"id", "email", "name", "is_active", "created_at", "updated_at", "last_login_at"}

// UserRepository defines persistence operations over user records.
type UserRepository interface {
	// Create inserts the record. The database unique index on email is the
	// authority for uniqueness: a conflicting insert returns
	// apperrors.ErrEmailAlreadyRegistered even when a racing request won the
	// earlier existence check.
	Create(ctx context.Context, user *model.User) error
	// FindByEmail returns the record or (nil, nil) when absent. The password
	// hash column is selected only when withHash is set.
	FindByEmail(ctx context.Context, email string, withHash bool) (*model.User, error)
	// FindByID returns the record without the password hash, or (nil, nil).
	FindByID(ctx context.Context, id string) (*model.User, error)
	// TouchLastLogin records a successful login timestamp.
	TouchLastLogin(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrEmailAlreadyRegistered
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string, withHash bool) (*model.User, error) {
	query := r.db.WithContext(ctx)
	if !withHash {
		query = query.Select(publicColumns)
	}

	var user model.User
	if err := query.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select(publicColumns).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error
}
