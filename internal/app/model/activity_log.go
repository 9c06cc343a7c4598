package model

import "time"

type ActivityAction string

const (
	ActivityContractCreated     ActivityAction = "contract.created"
	ActivityContractUpdated     ActivityAction = "contract.updated"
	ActivityContractCompleted   ActivityAction = "contract.completed"
	ActivityContractDeleted     ActivityAction = "contract.deleted"
	ActivityOwnershipTransfer   ActivityAction = "property.ownership_transferred"
	ActivityPropertyCreated     ActivityAction = "property.created"
	ActivityPropertyDeleted     ActivityAction = "property.deleted"
	ActivityCustomerStatus      ActivityAction = "customer.status_changed"
	ActivityMemberLevelChanged  ActivityAction = "member.level_changed"
	ActivitySubscriptionChanged ActivityAction = "subscription.changed"
)

// ActivityLog 회사 단위 작업 이력. 수정/삭제하지 않는다.
type ActivityLog struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	BusinessNumber string         `gorm:"type:varchar(10);not null;index" json:"business_number"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	Action         ActivityAction `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType     string         `gorm:"type:varchar(30);not null" json:"entity_type"`
	EntityID       uint           `gorm:"not null" json:"entity_id"`
	Detail         string         `gorm:"type:text" json:"detail"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
