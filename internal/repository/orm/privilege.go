package orm

import (
	"context"

	"github.com/sakif/mentorship-platform/internal/model"
)

// GetPrivilegeByName resolves a role name against the seeded privileges table.
// An unseeded or misspelled name is an apperror.ErrNotFound.
func (db *DB) GetPrivilegeByName(ctx context.Context, name string) (*model.Privilege, error) {
	var p model.Privilege
	err := db.gorm.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		return nil, notFoundOr(err, "privilege", name, "getting privilege "+name)
	}
	return &p, nil
}
