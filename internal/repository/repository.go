package repository

import (
	"gorm.io/gorm"

	"uni-timetable/backend/internal/engine"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Reference ReferenceRepository
	Store     engine.Store
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Reference: NewReferenceRepo(db),
		Store:     NewScheduleStore(db),
	}
}
