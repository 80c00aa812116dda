package persistence

import (
	"context"
	"errors"

	"github.com/disciplinario/backend/internal/domain/identity"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository stores reviewer and admin accounts in the users table
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository returns a repository over db
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// emailIs matches the stored address case-insensitively. Rows written
// before addresses were normalized may still carry upper case.
func emailIs(email string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(email) = ?", identity.NormalizeEmail(email))
	}
}

// Create inserts user. A duplicate email fails on the unique index.
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error
}

// Update writes every column of user. Login bookkeeping is last-writer-wins.
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	res := r.db.WithContext(ctx).Save(models.UserModelFromDomain(user))
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads a user, or shared.ErrNotFound
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByEmail loads a user by address, or shared.ErrNotFound
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if identity.NormalizeEmail(email) == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(r.db.WithContext(ctx).Scopes(emailIs(email)))
}

// ExistsByEmail reports whether the address is taken
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Scopes(emailIs(email)).Limit(1).Count(&n).Error
	return n > 0, err
}

func (r *GormUserRepository) first(query *gorm.DB) (*identity.User, error) {
	var row models.UserModel
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}
