package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Model carries the timestamps shared by every table and the soft-delete flag.
//
// Embedding it makes gorm treat Delete as an UPDATE of deleted_at, and every default
// query gains a "deleted_at IS NULL" condition. Use Unscoped to see deleted rows.
type Model struct {
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at" swaggertype:"string" format:"date-time"`
}

// IsDeleted reports whether the row has been soft deleted.
func (m Model) IsDeleted() bool {
	return m.DeletedAt.Valid
}

// Restore clears the soft-delete flag of the row with the given primary key.
// It returns the number of restored rows, which is zero if the row was not deleted.
func Restore(ctx context.Context, db *gorm.DB, model any, id any) (int64, error) {
	res := db.WithContext(ctx).
		Unscoped().
		Model(model).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}
