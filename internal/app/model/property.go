package model

import (
	"time"

	"gorm.io/gorm"
)

type PropertyType string // 매물 거래 유형

const (
	PropertyTypeSale    PropertyType = "sale"    // 매매
	PropertyTypeMonthly PropertyType = "monthly" // 월세
	PropertyTypeJeonse  PropertyType = "jeonse"  // 전세
)

func (t PropertyType) Valid() bool {
	return t == PropertyTypeSale || t == PropertyTypeMonthly || t == PropertyTypeJeonse
}

type Property struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                   // 매물 ID
	Title          string         `gorm:"not null" json:"title"`                                  // 매물명
	Address        string         `gorm:"type:text;not null" json:"address"`                      // 주소
	AddressDetail  string         `gorm:"type:text" json:"address_detail"`                        // 상세 주소
	Type           PropertyType   `gorm:"type:varchar(20);not null;index" json:"type"`            // 거래 유형
	Price          int64          `gorm:"not null;default:0" json:"price"`                        // 매매가 (원)
	Deposit        int64          `gorm:"not null;default:0" json:"deposit"`                      // 보증금 (월세/전세)
	MonthlyRent    int64          `gorm:"not null;default:0" json:"monthly_rent"`                 // 월 임대료 (월세)
	Area           float64        `gorm:"type:decimal(10,2)" json:"area"`                         // 전용면적 (㎡)
	Description    string         `gorm:"type:text" json:"description"`                           // 설명
	ImageURL       string         `json:"image_url"`                                              // 대표 사진
	OwnerID        *uint          `gorm:"index" json:"owner_id,omitempty"`                        // 현재 소유자 (고객)
	BusinessNumber string         `gorm:"type:varchar(10);not null;index" json:"business_number"` // 등록한 회사
	CreatedByID    uint           `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Owner *Customer `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Property) TableName() string {
	return "properties"
}

// OwnershipTransfer 매매 계약 완료로 발생한 소유권 이전 기록.
// contract_id 가 유일하므로 계약당 최대 한 번만 기록된다.
type OwnershipTransfer struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	PropertyID     uint      `gorm:"not null;index" json:"property_id"`
	ContractID     uint      `gorm:"not null;uniqueIndex" json:"contract_id"`
	FromCustomerID uint      `gorm:"not null" json:"from_customer_id"`
	ToCustomerID   uint      `gorm:"not null" json:"to_customer_id"`
	TransferredAt  time.Time `gorm:"not null" json:"transferred_at"`
}

func (OwnershipTransfer) TableName() string {
	return "ownership_transfers"
}
