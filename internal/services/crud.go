package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CRUD implements list/get/create/update/delete for one record type.
// Entity services embed it and add preloads, validation and delete cascades.
type CRUD[T any, P Entity[T]] struct {
	db   *gorm.DB
	name string

	// preloads are applied to List and Get.
	preloads []string
	// validate runs inside the write transaction for Create and Update.
	validate func(tx *gorm.DB, entity P) error
	// beforeDelete runs inside the delete transaction before the row goes.
	beforeDelete func(tx *gorm.DB, id uint) error
	// duplicateErr is returned when a unique index rejects a write.
	duplicateErr error
}

func newCRUD[T any, P Entity[T]](db *gorm.DB, name string) *CRUD[T, P] {
	return &CRUD[T, P]{
		db:           db,
		name:         name,
		duplicateErr: ErrConflict,
	}
}

func (c *CRUD[T, P]) query(ctx context.Context) *gorm.DB {
	q := c.db.WithContext(ctx)
	for _, p := range c.preloads {
		q = q.Preload(p)
	}
	return q
}

// List returns every record ordered by id.
func (c *CRUD[T, P]) List(ctx context.Context) ([]T, error) {
	items := []T{}
	if err := c.query(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list %ss: %w", c.name, err)
	}
	return items, nil
}

// Get returns the record with the given id or ErrNotFound.
func (c *CRUD[T, P]) Get(ctx context.Context, id uint) (P, error) {
	var item T
	err := c.query(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(c.name, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", c.name, id, err)
	}
	return P(&item), nil
}

// Create inserts the record with a fresh key and version 1 and returns it
// as stored. Associations on the payload are not written.
func (c *CRUD[T, P]) Create(ctx context.Context, entity P) (P, error) {
	if entity == nil {
		return nil, invalidf("%s payload is required", c.name)
	}
	entity.SetID(0)
	entity.SetVersion(1)

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.validate != nil {
			if err := c.validate(tx, entity); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(entity).Error
	})
	if err != nil {
		return nil, c.writeError("create", err)
	}
	return c.Get(ctx, entity.GetID())
}

// Update replaces every mutable column of record id with the payload.
//
// The payload id must equal id. A non-zero payload version must match the
// stored one; the write itself is conditional on the version read inside
// the transaction, so a concurrent update yields ErrStaleUpdate rather than
// a lost write.
func (c *CRUD[T, P]) Update(ctx context.Context, id uint, entity P) (P, error) {
	if entity == nil {
		return nil, invalidf("%s payload is required", c.name)
	}
	if entity.GetID() != id {
		return nil, invalidf("%s id %d does not match path id %d", c.name, entity.GetID(), id)
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing T
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(c.name, id)
			}
			return err
		}

		current := P(&existing).CurrentVersion()
		if v := entity.CurrentVersion(); v != 0 && v != current {
			return fmt.Errorf("%s %d at version %d, got %d: %w", c.name, id, current, v, ErrStaleUpdate)
		}

		if c.validate != nil {
			if err := c.validate(tx, entity); err != nil {
				return err
			}
		}

		entity.SetVersion(current + 1)
		result := tx.Model(P(&existing)).
			Select("*").
			Omit("ID", "CreatedAt", clause.Associations).
			Where("version = ?", current).
			Updates(entity)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%s %d: %w", c.name, id, ErrStaleUpdate)
		}
		return nil
	})
	if err != nil {
		return nil, c.writeError("update", err)
	}
	return c.Get(ctx, id)
}

// Remove deletes record id and returns it as it was before deletion.
func (c *CRUD[T, P]) Remove(ctx context.Context, id uint) (P, error) {
	var removed T
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&removed, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(c.name, id)
			}
			return err
		}
		if c.beforeDelete != nil {
			if err := c.beforeDelete(tx, id); err != nil {
				return err
			}
		}
		return tx.Delete(P(&removed)).Error
	})
	if err != nil {
		return nil, c.writeError("delete", err)
	}
	return P(&removed), nil
}

// Delete removes record id or returns ErrNotFound.
func (c *CRUD[T, P]) Delete(ctx context.Context, id uint) error {
	_, err := c.Remove(ctx, id)
	return err
}

// writeError maps store errors onto the service error kinds. Errors that
// already carry a kind are passed through unchanged.
func (c *CRUD[T, P]) writeError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %s: %w", op, c.name, c.duplicateErr)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s %s: %w: referenced record does not exist", op, c.name, ErrInvalidArgument)
	default:
		return fmt.Errorf("%s %s: %w", op, c.name, err)
	}
}
