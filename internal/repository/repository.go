// Package repository declares the storage interfaces the service layer depends on.
//
// The service never sees GORM or SQL: it receives these interfaces, and the
// concrete implementation (internal/repository/orm) is wired in server.New.
// Tests swap in in-memory fakes.
//
// Error contract for every implementation:
//   - a missing row is reported as an error matching apperror.ErrNotFound
//   - a unique-key violation is reported as an error matching apperror.ErrConflict
package repository

import (
	"context"

	"github.com/sakif/mentorship-platform/internal/model"
)

// UserRepository stores accounts. Returned users always have Privilege loaded.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser writes every mutable column of user, including zero values.
	UpdateUser(ctx context.Context, user *model.User) error
	SetSuspended(ctx context.Context, id string, suspended bool) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

// PrivilegeRepository resolves role names against the seeded reference table.
type PrivilegeRepository interface {
	GetPrivilegeByName(ctx context.Context, name string) (*model.Privilege, error)
}

// DescriptionRepository stores free-text profile descriptions.
type DescriptionRepository interface {
	CreateDescription(ctx context.Context, d *model.Description) error
	GetDescriptionByID(ctx context.Context, id string) (*model.Description, error)
	UpdateDescription(ctx context.Context, d *model.Description) error
}

// Store bundles the repositories the account service needs.
type Store interface {
	UserRepository
	PrivilegeRepository
	DescriptionRepository

	// Transaction runs fn against a Store bound to one transaction. It commits
	// when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
