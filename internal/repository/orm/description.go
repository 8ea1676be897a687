package orm

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
)

func (db *DB) CreateDescription(ctx context.Context, d *model.Description) error {
	d.ID = xid.New().String()
	if err := db.gorm.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("orm: inserting description: %w", err)
	}
	return nil
}

func (db *DB) GetDescriptionByID(ctx context.Context, id string) (*model.Description, error) {
	var d model.Description
	if err := db.gorm.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "description", id, "getting description "+id)
	}
	return &d, nil
}

func (db *DB) UpdateDescription(ctx context.Context, d *model.Description) error {
	result := db.gorm.WithContext(ctx).
		Model(d).
		Select("description", "updated_at").
		Updates(d)
	if result.Error != nil {
		return fmt.Errorf("orm: updating description %s: %w", d.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("description", d.ID)
	}
	return nil
}
