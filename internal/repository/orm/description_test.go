package orm

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/repository"
)

func TestDescriptionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	desc := &model.Description{Description: "I study maths"}
	if err := db.CreateDescription(ctx, desc); err != nil {
		t.Fatalf("CreateDescription() error = %v", err)
	}
	if desc.ID == "" {
		t.Fatal("CreateDescription() did not set ID")
	}

	// Attach it to a user by storing the id: the user only holds a reference.
	user := createTestUser(t, db, "bsimmons@gmail.ac.uk", model.RoleMentee)
	user.DescriptionID = &desc.ID
	if err := db.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	desc.Description = "I study maths and physics"
	if err := db.UpdateDescription(ctx, desc); err != nil {
		t.Fatalf("UpdateDescription() error = %v", err)
	}

	found, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.DescriptionID == nil || *found.DescriptionID != desc.ID {
		t.Fatalf("DescriptionID = %v, want %q", found.DescriptionID, desc.ID)
	}

	got, err := db.GetDescriptionByID(ctx, *found.DescriptionID)
	if err != nil {
		t.Fatalf("GetDescriptionByID() error = %v", err)
	}
	if got.Description != "I study maths and physics" {
		t.Errorf("Description = %q", got.Description)
	}
}

func TestDescription_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetDescriptionByID(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetDescriptionByID() error = %v, want ErrNotFound", err)
	}
	err := db.UpdateDescription(ctx, &model.Description{ID: "missing", Description: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateDescription() error = %v, want ErrNotFound", err)
	}
}

func TestTransaction_RollsBackDescriptionWhenUserUpdateFails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var descID string
	err := db.Transaction(ctx, func(tx repository.Store) error {
		desc := &model.Description{Description: "never committed"}
		if err := tx.CreateDescription(ctx, desc); err != nil {
			return err
		}
		descID = desc.ID
		return tx.UpdateUser(ctx, &model.User{ID: "missing", Email: "ghost@example.com"})
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Transaction() error = %v, want ErrNotFound", err)
	}

	if _, err := db.GetDescriptionByID(ctx, descID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("description survived rollback: err = %v", err)
	}
}

func TestTransaction_Commits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "bsimmons@gmail.ac.uk", model.RoleMentee)

	err := db.Transaction(ctx, func(tx repository.Store) error {
		desc := &model.Description{Description: "committed"}
		if err := tx.CreateDescription(ctx, desc); err != nil {
			return err
		}
		user.DescriptionID = &desc.ID
		return tx.UpdateUser(ctx, user)
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	found, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.DescriptionID == nil {
		t.Fatal("DescriptionID not committed")
	}
	if _, err := db.GetDescriptionByID(ctx, *found.DescriptionID); err != nil {
		t.Errorf("GetDescriptionByID() error = %v", err)
	}
}
