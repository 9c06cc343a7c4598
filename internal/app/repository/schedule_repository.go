package repository

import (
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(schedule *model.Schedule) error
	FindByID(id uint) (*model.Schedule, error)
	FindBetween(businessNumber string, from, to time.Time) ([]model.Schedule, error)
	FindByContractID(contractID uint) ([]model.Schedule, error)
	FindDueReminders(from, to time.Time) ([]model.Schedule, error)
	MarkReminderSent(id uint, at time.Time) error
	Delete(id uint) error
	DeleteByContractID(contractID uint) (int64, error)
	WithTx(tx *gorm.DB) ScheduleRepository
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) WithTx(tx *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: tx}
}

func (r *scheduleRepository) Create(schedule *model.Schedule) error {
	logger.Debug("Creating schedule in database", map[string]interface{}{
		"title":       schedule.Title,
		"start_at":    schedule.StartAt,
		"contract_id": schedule.ContractID,
	})

	if err := r.db.Create(schedule).Error; err != nil {
		logger.Error("Failed to create schedule in database", err, map[string]interface{}{
			"title": schedule.Title,
		})
		return err
	}
	return nil
}

func (r *scheduleRepository) FindByID(id uint) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := r.db.First(&schedule, id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) FindBetween(businessNumber string, from, to time.Time) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.Where("business_number = ? AND start_at >= ? AND start_at < ?", businessNumber, from, to).
		Order("start_at ASC").
		Find(&schedules).Error
	if err != nil {
		logger.Error("Failed to find schedules", err, map[string]interface{}{
			"business_number": businessNumber,
		})
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) FindByContractID(contractID uint) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.Where("contract_id = ?", contractID).Order("start_at ASC").Find(&schedules).Error
	return schedules, err
}

// FindDueReminders returns schedules starting in [from, to) that have not been reminded yet
func (r *scheduleRepository) FindDueReminders(from, to time.Time) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.Where("start_at >= ? AND start_at < ? AND reminder_sent_at IS NULL", from, to).
		Order("start_at ASC").
		Find(&schedules).Error
	if err != nil {
		logger.Error("Failed to find due schedule reminders", err)
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) MarkReminderSent(id uint, at time.Time) error {
	return r.db.Model(&model.Schedule{}).Where("id = ?", id).Update("reminder_sent_at", at).Error
}

func (r *scheduleRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Schedule{}, id).Error; err != nil {
		logger.Error("Failed to delete schedule", err, map[string]interface{}{
			"schedule_id": id,
		})
		return err
	}
	return nil
}

// DeleteByContractID removes every schedule of a contract and reports how many were removed
func (r *scheduleRepository) DeleteByContractID(contractID uint) (int64, error) {
	result := r.db.Where("contract_id = ?", contractID).Delete(&model.Schedule{})
	if result.Error != nil {
		logger.Error("Failed to delete contract schedules", result.Error, map[string]interface{}{
			"contract_id": contractID,
		})
		return 0, result.Error
	}

	logger.Debug("Contract schedules deleted", map[string]interface{}{
		"contract_id": contractID,
		"count":       result.RowsAffected,
	})
	return result.RowsAffected, nil
}
