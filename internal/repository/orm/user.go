package orm

import (
	"context"
	"fmt"

	"github.com/rs/xid"
	"gorm.io/gorm/clause"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
)

// userColumns are the columns UpdateUser writes. Listing them in Select makes
// GORM write zero values too (an emptied telephone must be stored as "").
var userColumns = []string{
	"first_name", "surname", "email", "password", "privilege_id", "suspended",
	"description_id", "university", "degree", "telephone", "updated_at",
}

// CreateUser inserts a new account. The caller sets PrivilegeID; the Privilege
// association itself is never written (clause.Associations is omitted).
//
// The id is an xid: 20 URL-safe chars, sortable by creation time.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	err := db.gorm.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("orm: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user, with privilege, by internal id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.gorm.WithContext(ctx).Preload("Privilege").First(&u, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "user", id, "getting user "+id)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user, with privilege, by login email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := db.gorm.WithContext(ctx).Preload("Privilege").Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, notFoundOr(err, "user", email, "getting user by email")
	}
	return &u, nil
}

// UpdateUser writes all mutable columns in a single UPDATE, so a profile edit
// and a password change land together or not at all.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	result := db.gorm.WithContext(ctx).
		Model(user).
		Omit(clause.Associations).
		Select(userColumns).
		Updates(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("orm: updating user %s: %w", user.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// SetSuspended flips the suspension flag used by the admin workflow.
func (db *DB) SetSuspended(ctx context.Context, id string, suspended bool) error {
	result := db.gorm.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("suspended", suspended)
	if result.Error != nil {
		return fmt.Errorf("orm: suspending user %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// ListUsers returns every account, oldest first, for the admin page.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := db.gorm.WithContext(ctx).Preload("Privilege").Order("created_at, id").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("orm: listing users: %w", err)
	}
	return users, nil
}
