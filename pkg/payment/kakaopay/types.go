package kakaopay

import (
	"encoding/json"
	"fmt"
	"time"
)

const timeLayout = "2006-01-02T15:04:05"

// SID 상태
const (
	SIDStatusActive   = "ACTIVE"
	SIDStatusInactive = "INACTIVE"
)

// ReadyRequest 정기결제 1회차 준비 요청
type ReadyRequest struct {
	CID            string `json:"cid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	TotalAmount    int64  `json:"total_amount"`
	TaxFreeAmount  int64  `json:"tax_free_amount"`
	ApprovalURL    string `json:"approval_url"`
	FailURL        string `json:"fail_url"`
	CancelURL      string `json:"cancel_url"`
}

// ReadyResponse represents the response from the Ready API
type ReadyResponse struct {
	TID                   string `json:"tid"`
	NextRedirectAppURL    string `json:"next_redirect_app_url"`
	NextRedirectMobileURL string `json:"next_redirect_mobile_url"`
	NextRedirectPCURL     string `json:"next_redirect_pc_url"`
}

// ApproveRequest 1회차 승인 요청. 승인 응답의 SID 가 이후 정기결제 키가 된다.
type ApproveRequest struct {
	CID            string `json:"cid"`
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	PgToken        string `json:"pg_token"`
}

// SubscriptionRequest 2회차 이후 정기결제 요청
type SubscriptionRequest struct {
	CID            string `json:"cid"`
	SID            string `json:"sid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	TotalAmount    int64  `json:"total_amount"`
	TaxFreeAmount  int64  `json:"tax_free_amount"`
}

// InactiveRequest 정기결제 키 비활성화 요청
type InactiveRequest struct {
	CID string `json:"cid"`
	SID string `json:"sid"`
}

// Amount represents payment amount information
type Amount struct {
	Total    int64 `json:"total"`
	TaxFree  int64 `json:"tax_free"`
	VAT      int64 `json:"vat"`
	Point    int64 `json:"point"`
	Discount int64 `json:"discount"`
}

// PaymentResponse 승인/정기결제 응답 (두 API 형식이 같다)
type PaymentResponse struct {
	AID               string    `json:"aid"`
	TID               string    `json:"tid"`
	CID               string    `json:"cid"`
	SID               string    `json:"sid"`
	PartnerOrderID    string    `json:"partner_order_id"`
	PartnerUserID     string    `json:"partner_user_id"`
	PaymentMethodType string    `json:"payment_method_type"`
	Amount            Amount    `json:"amount"`
	ItemName          string    `json:"item_name"`
	Quantity          int       `json:"quantity"`
	CreatedAt         time.Time `json:"created_at"`
	ApprovedAt        time.Time `json:"approved_at"`
}

// UnmarshalJSON parses the zone-less datetime format used by the API
func (p *PaymentResponse) UnmarshalJSON(data []byte) error {
	type Alias PaymentResponse
	aux := &struct {
		CreatedAt  string `json:"created_at"`
		ApprovedAt string `json:"approved_at"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if p.CreatedAt, err = parseTime(aux.CreatedAt); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	if p.ApprovedAt, err = parseTime(aux.ApprovedAt); err != nil {
		return fmt.Errorf("failed to parse approved_at: %w", err)
	}
	return nil
}

// InactiveResponse 정기결제 키 비활성화 응답
type InactiveResponse struct {
	CID           string    `json:"cid"`
	SID           string    `json:"sid"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	InactivatedAt time.Time `json:"inactivated_at"`
}

func (r *InactiveResponse) UnmarshalJSON(data []byte) error {
	type Alias InactiveResponse
	aux := &struct {
		CreatedAt     string `json:"created_at"`
		InactivatedAt string `json:"inactivated_at"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if r.CreatedAt, err = parseTime(aux.CreatedAt); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.InactivatedAt, err = parseTime(aux.InactivatedAt); err != nil {
		return fmt.Errorf("failed to parse inactivated_at: %w", err)
	}
	return nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, value)
}

// ErrorResponse represents an error response from Kakao Pay API
type ErrorResponse struct {
	Code    int                    `json:"error_code"`
	Message string                 `json:"error_message"`
	Extras  map[string]interface{} `json:"extras,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("kakao pay error: code=%d, msg=%s", e.Code, e.Message)
}
