package model

import (
	"time"

	"gorm.io/gorm"
)

type ScheduleType string // 일정 유형

const (
	ScheduleTypeMeeting ScheduleType = "meeting" // 미팅/방문
	ScheduleTypeClosing ScheduleType = "closing" // 잔금
	ScheduleTypeMoveIn  ScheduleType = "move_in" // 입주
	ScheduleTypeOther   ScheduleType = "other"   // 기타
)

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeMeeting, ScheduleTypeClosing, ScheduleTypeMoveIn, ScheduleTypeOther:
		return true
	}
	return false
}

// Schedule 캘린더 일정. 계약에 연결된 일정은 계약 삭제 시 함께 삭제된다.
type Schedule struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Type           ScheduleType   `gorm:"type:varchar(20);not null;default:'other'" json:"type"`
	StartAt        time.Time      `gorm:"not null;index" json:"start_at"`
	EndAt          *time.Time     `json:"end_at,omitempty"`
	ContractID     *uint          `gorm:"index" json:"contract_id,omitempty"`
	UserID         uint           `gorm:"not null;index" json:"user_id"` // 일정 등록자 (알림 수신자)
	BusinessNumber string         `gorm:"type:varchar(10);not null;index" json:"business_number"`
	ReminderSentAt *time.Time     `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Schedule) TableName() string {
	return "schedules"
}
