package database

import (
	"github.com/yukikurage/soundshare-api/internal/utils"
	"gorm.io/gorm"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// WithDeleted lifts the default soft-delete filter when include is true.
func WithDeleted(include bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if include {
			return db.Unscoped()
		}
		return db
	}
}
