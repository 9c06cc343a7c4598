package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

var ErrScheduleNotFound = errors.New("schedule not found")

// reminderWindow 일정 시작 전 알림을 보내는 범위
const reminderWindow = 24 * time.Hour

type ScheduleInput struct {
	Title       string
	Description string
	Type        model.ScheduleType
	StartAt     time.Time
	EndAt       *time.Time
	ContractID  *uint
}

type ScheduleService interface {
	CreateSchedule(actor *model.User, input ScheduleInput) (*model.Schedule, error)
	ListMonth(actor *model.User, year int, month time.Month) ([]model.Schedule, error)
	DeleteSchedule(actor *model.User, id uint) error
	SendDueReminders(now time.Time) (int, error)
}

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	contractRepo repository.ContractRepository
	notifier     NotificationService
	location     *time.Location
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	contractRepo repository.ContractRepository,
	notifier NotificationService,
) ScheduleService {
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		contractRepo: contractRepo,
		notifier:     notifier,
		location:     SeoulLocation(),
	}
}

func (s *scheduleService) CreateSchedule(actor *model.User, input ScheduleInput) (*model.Schedule, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title", apperrors.ValidationRequired, "일정 제목을 입력해주세요")
	}
	if input.StartAt.IsZero() {
		return nil, apperrors.NewValidationError("start_at", apperrors.ValidationRequired, "일정 시작 시각을 입력해주세요")
	}
	if input.EndAt != nil && input.EndAt.Before(input.StartAt) {
		return nil, apperrors.NewValidationError("end_at", apperrors.ValidationInvalidRange, "종료 시각은 시작 시각 이후여야 합니다")
	}
	if input.Type == "" {
		input.Type = model.ScheduleTypeOther
	}
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("type", apperrors.ValidationInvalidInput, "지원하지 않는 일정 유형입니다")
	}

	if input.ContractID != nil {
		contract, err := s.contractRepo.FindByID(*input.ContractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrContractNotFound
			}
			return nil, err
		}
		if err := authz.SameCompany(actor, contract.BusinessNumber); err != nil {
			return nil, err
		}
	}

	schedule := &model.Schedule{
		Title:          title,
		Description:    input.Description,
		Type:           input.Type,
		StartAt:        input.StartAt,
		EndAt:          input.EndAt,
		ContractID:     input.ContractID,
		UserID:         actor.ID,
		BusinessNumber: actor.BusinessNumber,
	}
	if err := s.scheduleRepo.Create(schedule); err != nil {
		return nil, err
	}

	logger.Info("Schedule created", map[string]interface{}{
		"schedule_id": schedule.ID,
		"user_id":     actor.ID,
		"start_at":    schedule.StartAt,
	})
	return schedule, nil
}

// ListMonth 회사의 해당 월 일정
func (s *scheduleService) ListMonth(actor *model.User, year int, month time.Month) ([]model.Schedule, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.NewValidationError("month", apperrors.ValidationInvalidRange, "월은 1부터 12 사이여야 합니다")
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, s.location)
	return s.scheduleRepo.FindBetween(actor.BusinessNumber, from, from.AddDate(0, 1, 0))
}

// DeleteSchedule 본인 일정이거나 실장 이상이면 삭제할 수 있다
func (s *scheduleService) DeleteSchedule(actor *model.User, id uint) error {
	schedule, err := s.scheduleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	if err := authz.SameCompany(actor, schedule.BusinessNumber); err != nil {
		return ErrScheduleNotFound
	}
	if schedule.UserID != actor.ID && actor.Level < model.LevelManager {
		return apperrors.NewAuthorizationError("schedule_owner", apperrors.AuthzForbidden, "본인이 등록한 일정만 삭제할 수 있습니다")
	}

	if err := s.scheduleRepo.Delete(id); err != nil {
		return err
	}
	logger.Info("Schedule deleted", map[string]interface{}{
		"schedule_id": id,
		"user_id":     actor.ID,
	})
	return nil
}

// SendDueReminders 24시간 안에 시작하는 일정마다 등록자에게 한 번 알림을 보낸다
func (s *scheduleService) SendDueReminders(now time.Time) (int, error) {
	schedules, err := s.scheduleRepo.FindDueReminders(now, now.Add(reminderWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range schedules {
		schedule := &schedules[i]
		scheduleID := schedule.ID
		notification := &model.Notification{
			UserID:            schedule.UserID,
			Type:              model.NotificationTypeScheduleReminder,
			Title:             "일정 알림",
			Content:           fmt.Sprintf("%s 일정이 %s에 시작됩니다", schedule.Title, schedule.StartAt.In(s.location).Format("01/02 15:04")),
			Link:              fmt.Sprintf("/schedules/%d", schedule.ID),
			RelatedScheduleID: &scheduleID,
			RelatedContractID: schedule.ContractID,
		}
		if err := s.notifier.Notify(notification); err != nil {
			logger.Error("Failed to send schedule reminder", err, map[string]interface{}{
				"schedule_id": schedule.ID,
			})
			continue
		}
		if err := s.scheduleRepo.MarkReminderSent(schedule.ID, now); err != nil {
			logger.Error("Failed to mark schedule reminder", err, map[string]interface{}{
				"schedule_id": schedule.ID,
			})
			continue
		}
		sent++
	}

	if sent > 0 {
		logger.Info("Schedule reminders sent", map[string]interface{}{
			"count": sent,
		})
	}
	return sent, nil
}
