package model

import (
	"time"

	"gorm.io/gorm"
)

type ContractType string   // 계약 유형
type ContractStatus string // 계약 상태

const (
	ContractTypeSale    ContractType = "sale"    // 매매
	ContractTypeMonthly ContractType = "monthly" // 월세
	ContractTypeJeonse  ContractType = "jeonse"  // 전세
	ContractTypeGeneric ContractType = "generic" // 기타 일반 계약

	ContractStatusInProgress ContractStatus = "in_progress" // 진행중
	ContractStatusCompleted  ContractStatus = "completed"   // 완료
	ContractStatusCancelled  ContractStatus = "cancelled"   // 취소
	ContractStatusOnHold     ContractStatus = "on_hold"     // 보류
)

// 계약번호 접두어. 유형별로 하나씩 대응한다.
var contractNumberPrefixes = map[ContractType]string{
	ContractTypeSale:    "MM",
	ContractTypeMonthly: "MS",
	ContractTypeJeonse:  "JS",
	ContractTypeGeneric: "CT",
}

func (t ContractType) Valid() bool {
	_, ok := contractNumberPrefixes[t]
	return ok
}

// NumberPrefix returns the contract number prefix for the type.
func (t ContractType) NumberPrefix() string {
	return contractNumberPrefixes[t]
}

// RequiresProperty reports whether a property must be attached before saving.
func (t ContractType) RequiresProperty() bool {
	return t == ContractTypeSale || t == ContractTypeMonthly || t == ContractTypeJeonse
}

// IsLease covers both monthly rent and jeonse.
func (t ContractType) IsLease() bool {
	return t == ContractTypeMonthly || t == ContractTypeJeonse
}

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusInProgress, ContractStatusCompleted, ContractStatusCancelled, ContractStatusOnHold:
		return true
	}
	return false
}

type Contract struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                                // 계약 ID
	ContractNumber       string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"contract_number"`        // 계약번호 (접두어로 유형 구분)
	Type                 ContractType   `gorm:"type:varchar(20);not null;index" json:"type"`                         // 계약 유형
	PropertyID           *uint          `gorm:"index" json:"property_id,omitempty"`                                  // 대상 매물
	BuyerID              uint           `gorm:"not null;index" json:"buyer_id"`                                      // 매수인/임차인 (고객)
	SellerID             uint           `gorm:"not null;index" json:"seller_id"`                                     // 매도인/임대인 (고객)
	AgentID              uint           `gorm:"not null;index" json:"agent_id"`                                      // 담당 중개인 (회원)
	Price                int64          `gorm:"not null;default:0" json:"price"`                                     // 거래가
	Commission           *int64         `json:"commission,omitempty"`                                                // 중개보수
	Deposit              int64          `gorm:"not null;default:0" json:"deposit"`                                   // 보증금 (월세/전세)
	MonthlyRent          int64          `gorm:"not null;default:0" json:"monthly_rent"`                              // 월 임대료 (월세)
	ContractDate         time.Time      `gorm:"not null;index" json:"contract_date"`                                 // 계약일
	ClosingDate          *time.Time     `json:"closing_date,omitempty"`                                              // 잔금일 (매매)
	StartDate            *time.Time     `json:"start_date,omitempty"`                                                // 임대 시작일
	EndDate              *time.Time     `json:"end_date,omitempty"`                                                  // 임대 종료일
	Status               ContractStatus `gorm:"type:varchar(20);not null;default:'in_progress';index" json:"status"` // 상태
	Notes                string         `gorm:"type:text" json:"notes"`                                              // 메모
	BusinessNumber       string         `gorm:"type:varchar(10);not null;index" json:"business_number"`              // 소유 회사 (생성자 사업자번호)
	CreatedByID          uint           `gorm:"not null;index" json:"created_by_id"`                                 // 생성자
	OwnershipTransferred bool           `gorm:"default:false;not null" json:"ownership_transferred"`                 // 소유권 이전 완료 여부
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`                                              // 완료 시각
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Buyer    *Customer `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller   *Customer `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Agent    *User     `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}

func (Contract) TableName() string {
	return "contracts"
}

func (c *Contract) IsCompleted() bool {
	return c.Status == ContractStatusCompleted
}

// CommissionAmount treats a missing commission as zero.
func (c *Contract) CommissionAmount() int64 {
	if c.Commission == nil {
		return 0
	}
	return *c.Commission
}
