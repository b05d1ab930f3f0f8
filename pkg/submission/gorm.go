package submission

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Table describes how one child table is reconciled in the database:
// removed rows get is_active=false, kept rows get Columns(new) written, and
// added rows are inserted after Prepare fills in the parent id.
type Table[T any] struct {
	Model   any
	ID      func(T) uuid.UUID
	Columns func(new T) map[string]any
	Prepare func(*T)
	Equal   func(old, new T) bool
}

// GormOps binds a Table to a transaction
func GormOps[T any](tx *gorm.DB, t Table[T]) Ops[T] {
	return Ops[T]{
		Deactivate: func(old T) error {
			return tx.Model(t.Model).
				Where("id = ?", t.ID(old)).
				Update("is_active", false).Error
		},
		Update: func(old, new T) error {
			return tx.Model(t.Model).
				Where("id = ? AND is_active = ?", t.ID(old), true).
				Updates(t.Columns(new)).Error
		},
		Insert: func(new T) error {
			if t.Prepare != nil {
				t.Prepare(&new)
			}
			return tx.Create(&new).Error
		},
		Equal: t.Equal,
	}
}

// Reconcile diffs original against next and applies the plan inside tx
func Reconcile[T any, K comparable](tx *gorm.DB, original, next []T, key KeyFunc[T, K], t Table[T]) (Result, error) {
	return Apply(Diff(original, next, key), GormOps(tx, t))
}
