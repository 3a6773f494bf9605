package repository

import (
	"go-pharmacy-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(entry *model.UserActivityLog) error
	FindRecent(limit int) ([]model.UserActivityLog, error)
	FindByUser(userID uuid.UUID, limit int) ([]model.UserActivityLog, error)
}

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db}
}

func (r *activityRepo) Create(entry *model.UserActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *activityRepo) FindRecent(limit int) ([]model.UserActivityLog, error) {
	var entries []model.UserActivityLog
	err := r.db.Preload("User").Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *activityRepo) FindByUser(userID uuid.UUID, limit int) ([]model.UserActivityLog, error) {
	var entries []model.UserActivityLog
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
