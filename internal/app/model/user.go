package model

import (
	"time"

	"gorm.io/gorm"
)

// 권한 레벨. 숫자가 클수록 더 많은 작업이 허용된다.
const (
	LevelMember      = 1  // 기본 가입자
	LevelStaff       = 2  // 직원 (멤버 조회, 계약 생성)
	LevelManager     = 5  // 실장 (계약 수정/삭제, 레벨 변경)
	LevelOwner       = 10 // 사업자 최초 가입자 (대표)
	LevelSystemAdmin = 11 // 시스템 관리자 (회사 범위 무시)
)

type User struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                   // 사용자 ID
	Email             string         `gorm:"uniqueIndex;not null" json:"email"`                      // 이메일
	PasswordHash      string         `gorm:"not null" json:"-"`                                      // 비밀번호 해시
	Name              string         `gorm:"not null" json:"name"`                                   // 이름
	Nickname          string         `gorm:"uniqueIndex;not null" json:"nickname"`                   // 닉네임
	Phone             string         `gorm:"type:varchar(20)" json:"phone"`                          // 휴대폰 번호 (숫자만)
	Level             int            `gorm:"not null;default:1" json:"level"`                        // 권한 레벨
	BusinessNumber    string         `gorm:"type:varchar(10);not null;index" json:"business_number"` // 소속 사업자등록번호 (하이픈 제외 10자리)
	IsFirstRegistrant bool           `gorm:"default:false;not null" json:"is_first_registrant"`      // 사업자번호 최초 가입자 여부
	IsPremium         bool           `gorm:"default:false;not null" json:"is_premium"`               // 구독 여부
	PremiumExpiresAt  *time.Time     `json:"premium_expires_at,omitempty"`                           // 구독 만료 시각
	CreatedAt         time.Time      `json:"created_at"`                                             // 생성 시각
	UpdatedAt         time.Time      `json:"updated_at"`                                             // 수정 시각
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                         // 삭제 시각(소프트 삭제)
}

func (User) TableName() string {
	return "users"
}

// Company 사업자(중개사무소) 정보. 사업자번호당 한 행만 존재하며,
// 이 행을 생성한 가입자가 최초 가입자가 된다.
type Company struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	BusinessNumber     string     `gorm:"type:varchar(10);uniqueIndex;not null" json:"business_number"` // 사업자등록번호
	Name               string     `gorm:"not null" json:"name"`                                         // 상호
	RepresentativeName string     `gorm:"type:varchar(100)" json:"representative_name"`                 // 대표자명
	BusinessStartDate  string     `gorm:"type:varchar(8)" json:"business_start_date,omitempty"`         // 개업일자 (YYYYMMDD)
	Address            string     `gorm:"type:text" json:"address"`                                     // 사무소 주소
	Phone              string     `gorm:"type:varchar(30)" json:"phone"`                                // 대표 번호
	FounderUserID      *uint      `gorm:"index" json:"founder_user_id,omitempty"`                       // 최초 가입자 ID
	IsVerified         bool       `gorm:"default:false;not null" json:"is_verified"`                    // 국세청 진위확인 여부
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Company) TableName() string {
	return "companies"
}
