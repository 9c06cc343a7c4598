package model

import (
	"time"

	"gorm.io/gorm"
)

type CustomerType string   // 고객 유형
type CustomerStatus string // 고객 상태

const (
	CustomerTypeBuyer    CustomerType = "buyer"    // 매수인
	CustomerTypeSeller   CustomerType = "seller"   // 매도인
	CustomerTypeOccupant CustomerType = "occupant" // 임차인/입주자
	CustomerTypeOther    CustomerType = "other"    // 기타

	CustomerStatusActive   CustomerStatus = "active"   // 활성
	CustomerStatusInactive CustomerStatus = "inactive" // 비활성
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeBuyer, CustomerTypeSeller, CustomerTypeOccupant, CustomerTypeOther:
		return true
	}
	return false
}

func (s CustomerStatus) Valid() bool {
	return s == CustomerStatusActive || s == CustomerStatusInactive
}

type Customer struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                           // 고객 ID
	Name           string         `gorm:"not null" json:"name"`                                           // 이름
	Type           CustomerType   `gorm:"type:varchar(20);not null;default:'other'" json:"type"`          // 유형
	Phone          string         `gorm:"type:varchar(20)" json:"phone"`                                  // 연락처
	Email          string         `json:"email"`                                                          // 이메일
	Memo           string         `gorm:"type:text" json:"memo"`                                          // 메모
	Status         CustomerStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // 상태
	Locked         bool           `gorm:"default:false;not null" json:"locked"`                           // 잠금 (시스템 관리자만 비활성화 가능)
	BusinessNumber string         `gorm:"type:varchar(10);not null;index" json:"business_number"`         // 등록한 회사 사업자번호
	UserID         *uint          `gorm:"index" json:"user_id,omitempty"`                                 // 연결된 회원 계정 (계약 당사자 판별용)
	CreatedByID    uint           `gorm:"not null;index" json:"created_by_id"`                            // 등록자
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Properties []Property `gorm:"foreignKey:OwnerID" json:"properties,omitempty"` // 소유 매물
}

func (Customer) TableName() string {
	return "customers"
}

func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}
