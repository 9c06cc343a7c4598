package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeContractCreated   NotificationType = "contract_created"
	NotificationTypeContractCompleted NotificationType = "contract_completed"
	NotificationTypeContractDeleted   NotificationType = "contract_deleted"
	NotificationTypeLevelChanged      NotificationType = "level_changed"
	NotificationTypeScheduleReminder  NotificationType = "schedule_reminder"
	NotificationTypeSubscription      NotificationType = "subscription"
)

// Notification 알림 모델
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 알림 받을 사용자
	UserID uint `gorm:"not null;index" json:"user_id"`

	Type    NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title   string           `gorm:"type:text;not null" json:"title"`
	Content string           `gorm:"type:text;not null" json:"content"`
	Link    string           `gorm:"type:text" json:"link"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`

	// 관련 데이터 (nullable)
	RelatedContractID *uint `gorm:"index" json:"related_contract_id,omitempty"`
	RelatedScheduleID *uint `gorm:"index" json:"related_schedule_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
