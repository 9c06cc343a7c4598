package service

import (
	"fmt"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/pkg/logger"
)

type ActivityService interface {
	Record(actor *model.User, action model.ActivityAction, entityType string, entityID uint, detail string) error
	List(actor *model.User, action *model.ActivityAction, page, pageSize int) ([]model.ActivityLog, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

// newActivity 작업 이력 한 건. 계약 변경은 같은 트랜잭션에서 저장한다.
func newActivity(actor *model.User, action model.ActivityAction, entityType string, entityID uint, format string, args ...interface{}) *model.ActivityLog {
	return &model.ActivityLog{
		BusinessNumber: actor.BusinessNumber,
		UserID:         actor.ID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Detail:         fmt.Sprintf(format, args...),
	}
}

func (s *activityService) Record(actor *model.User, action model.ActivityAction, entityType string, entityID uint, detail string) error {
	return s.repo.Create(newActivity(actor, action, entityType, entityID, "%s", detail))
}

// List 회사 작업 이력 (레벨 5 이상)
func (s *activityService) List(actor *model.User, action *model.ActivityAction, page, pageSize int) ([]model.ActivityLog, int64, error) {
	if err := authz.CanViewActivity(actor); err != nil {
		logger.Warn("Activity log access denied", map[string]interface{}{
			"user_id": actor.ID,
			"level":   actor.Level,
		})
		return nil, 0, err
	}

	limit, offset := normalizePage(page, pageSize)
	return s.repo.FindWithFilter(repository.ActivityFilter{
		BusinessNumber: actor.BusinessNumber,
		Action:         action,
		Limit:          limit,
		Offset:         offset,
	})
}
