package model

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionStatusReady     SubscriptionStatus = "ready"     // 결제 준비 (카카오페이 Ready 완료)
	SubscriptionStatusActive    SubscriptionStatus = "active"    // 구독 중
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled" // 해지
	SubscriptionStatusFailed    SubscriptionStatus = "failed"    // 정기결제 실패
)

// Subscription 정기결제 구독. SID 가 카카오페이 빌링키 역할을 한다.
type Subscription struct {
	ID               uint               `gorm:"primarykey" json:"id"`
	UserID           uint               `gorm:"not null;index" json:"user_id"`
	PlanName         string             `gorm:"not null" json:"plan_name"`
	Amount           int64              `gorm:"not null" json:"amount"`
	Status           SubscriptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PartnerOrderID   string             `gorm:"type:varchar(64);uniqueIndex;not null" json:"partner_order_id"`
	TID              string             `gorm:"type:varchar(50)" json:"-"`
	SID              string             `gorm:"type:varchar(50)" json:"-"`
	ApprovedAt       *time.Time         `json:"approved_at,omitempty"`
	CurrentPeriodEnd *time.Time         `gorm:"index" json:"current_period_end,omitempty"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
	FailureReason    string             `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	DeletedAt        gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
