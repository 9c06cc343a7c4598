package repository

import (
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

type ActivityFilter struct {
	BusinessNumber string
	Action         *model.ActivityAction
	UserID         *uint
	Limit          int
	Offset         int
}

type ActivityRepository interface {
	Create(entry *model.ActivityLog) error
	FindWithFilter(filter ActivityFilter) ([]model.ActivityLog, int64, error)
	WithTx(tx *gorm.DB) ActivityRepository
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) WithTx(tx *gorm.DB) ActivityRepository {
	return &activityRepository{db: tx}
}

func (r *activityRepository) Create(entry *model.ActivityLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to write activity log", err, map[string]interface{}{
			"action":    entry.Action,
			"entity_id": entry.EntityID,
		})
		return err
	}
	return nil
}

func (r *activityRepository) FindWithFilter(filter ActivityFilter) ([]model.ActivityLog, int64, error) {
	query := r.db.Model(&model.ActivityLog{}).Where("business_number = ?", filter.BusinessNumber)
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.ActivityLog
	err := query.Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		logger.Error("Failed to find activity logs", err, map[string]interface{}{
			"business_number": filter.BusinessNumber,
		})
		return nil, 0, err
	}
	return entries, total, nil
}
