package service

import (
	"errors"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotificationAccess   = errors.New("notification belongs to another user")
)

// NotificationPusher 접속 중인 사용자에게 실시간 전송. *websocket.Hub 가 구현한다.
type NotificationPusher interface {
	SendToUser(userID uint, message interface{}) error
}

// NotificationService 알림 서비스 인터페이스
type NotificationService interface {
	GetNotifications(userID uint, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) (*model.Notification, error)
	MarkAllAsRead(userID uint) (int64, error)
	DeleteNotification(notificationID, userID uint) error

	// Notify 저장 후 실시간 푸시. 푸시 실패는 로그만 남긴다.
	Notify(notification *model.Notification) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher NotificationPusher
}

// NewNotificationService 알림 서비스 생성자. pusher 는 nil 일 수 있다.
func NewNotificationService(repo repository.NotificationRepository, pusher NotificationPusher) NotificationService {
	return &notificationService{
		repo:   repo,
		pusher: pusher,
	}
}

// normalizePage 페이지 기본값 (1페이지, 20개, 최대 100개)
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}

// GetNotifications 알림 목록과 전체 개수, 안읽은 개수
func (s *notificationService) GetNotifications(userID uint, unreadOnly bool, page, pageSize int) ([]model.Notification, int64, int64, error) {
	limit, offset := normalizePage(page, pageSize)

	notifications, total, err := s.repo.FindByUser(userID, unreadOnly, limit, offset)
	if err != nil {
		logger.Error("Failed to fetch notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, 0, err
	}

	unreadCount, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unreadCount, nil
}

func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

func (s *notificationService) findOwned(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.repo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.UserID != userID {
		logger.Warn("Notification access denied", map[string]interface{}{
			"notification_id": notificationID,
			"user_id":         userID,
		})
		return nil, ErrNotificationAccess
	}
	return notification, nil
}

// MarkAsRead 알림 읽음 처리. 이미 읽은 알림은 그대로 반환한다.
func (s *notificationService) MarkAsRead(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.findOwned(notificationID, userID)
	if err != nil {
		return nil, err
	}
	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, err
	}
	notification.IsRead = true
	return notification, nil
}

func (s *notificationService) MarkAllAsRead(userID uint) (int64, error) {
	return s.repo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID uint) error {
	if _, err := s.findOwned(notificationID, userID); err != nil {
		return err
	}
	return s.repo.Delete(notificationID)
}

func (s *notificationService) Notify(notification *model.Notification) error {
	if err := s.repo.Create(notification); err != nil {
		logger.Error("Failed to create notification", err, map[string]interface{}{
			"user_id": notification.UserID,
			"type":    notification.Type,
		})
		return err
	}

	if s.pusher == nil {
		return nil
	}
	payload := map[string]interface{}{
		"type":         "notification",
		"notification": notification,
	}
	if err := s.pusher.SendToUser(notification.UserID, payload); err != nil {
		logger.Warn("Failed to push notification", map[string]interface{}{
			"user_id":         notification.UserID,
			"notification_id": notification.ID,
			"error":           err.Error(),
		})
	}
	return nil
}
