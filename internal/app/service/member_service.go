package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

var ErrMemberNotFound = errors.New("member not found")

type MemberService interface {
	ListMembers(actor *model.User) ([]model.User, error)
	ChangeLevel(actor *model.User, targetID uint, level int) (*model.User, error)
}

type memberService struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	notifier     NotificationService
}

func NewMemberService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	notifier NotificationService,
) MemberService {
	return &memberService{
		db:           db,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
	}
}

// ListMembers 같은 회사 회원 목록 (레벨 2 이상)
func (s *memberService) ListMembers(actor *model.User) ([]model.User, error) {
	if err := authz.CanViewMembers(actor); err != nil {
		logger.Warn("Member list denied", map[string]interface{}{
			"user_id": actor.ID,
			"level":   actor.Level,
		})
		return nil, err
	}
	return s.userRepo.FindByBusinessNumber(actor.BusinessNumber)
}

// ChangeLevel 대상 회원의 레벨을 변경한다. 시스템 관리자가 아니면 같은 회사 회원만 가능하다.
func (s *memberService) ChangeLevel(actor *model.User, targetID uint, level int) (*model.User, error) {
	logger.Info("Changing member level", map[string]interface{}{
		"actor_id":  actor.ID,
		"target_id": targetID,
		"level":     level,
	})

	var target *model.User
	err := runInTx(s.db, "change_level", func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)

		var err error
		target, err = userRepo.FindByID(targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		if actor.Level < model.LevelSystemAdmin {
			if err := authz.SameCompany(actor, target.BusinessNumber); err != nil {
				return err
			}
		}
		if err := authz.CanChangeUserLevel(actor, target, level); err != nil {
			logger.Warn("Level change denied", map[string]interface{}{
				"actor_id":     actor.ID,
				"actor_level":  actor.Level,
				"target_id":    targetID,
				"target_level": target.Level,
				"requested":    level,
			})
			return err
		}

		if err := userRepo.UpdateLevel(targetID, level); err != nil {
			return err
		}

		entry := newActivity(actor, model.ActivityMemberLevelChanged, "user", targetID,
			"%s: %d → %d", target.Nickname, target.Level, level)
		target.Level = level
		return s.activityRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		notification := &model.Notification{
			UserID:  targetID,
			Type:    model.NotificationTypeLevelChanged,
			Title:   "회원 레벨이 변경되었습니다",
			Content: fmt.Sprintf("현재 레벨: %d", level),
			Link:    "/mypage",
		}
		if err := s.notifier.Notify(notification); err != nil {
			logger.Warn("Failed to notify level change", map[string]interface{}{
				"target_id": targetID,
				"error":     err.Error(),
			})
		}
	}

	logger.Info("Member level changed", map[string]interface{}{
		"target_id": targetID,
		"level":     level,
	})
	return target, nil
}
