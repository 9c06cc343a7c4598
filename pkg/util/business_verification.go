package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultNTSBaseURL = "https://api.odcloud.kr/api/nts-businessman/v1"

// BusinessVerificationRequest 사업자 등록번호 진위확인 요청 구조체
type BusinessVerificationRequest struct {
	BusinessNumber     string `json:"b_no"`     // 사업자등록번호 (10자리)
	StartDate          string `json:"start_dt"` // 개업일자 (YYYYMMDD)
	RepresentativeName string `json:"p_nm"`     // 대표자명
}

// BusinessVerificationResponse 사업자 등록번호 진위확인 응답 구조체
type BusinessVerificationResponse struct {
	RequestCount int                        `json:"request_cnt"`
	StatusCode   string                     `json:"status_code"`
	Data         []BusinessVerificationData `json:"data"`
}

type BusinessVerificationData struct {
	BusinessNumber string                      `json:"b_no"`
	Valid          string                      `json:"valid"` // "01": 확인, "02": 미확인
	ValidMessage   string                      `json:"valid_msg"`
	RequestParam   BusinessVerificationRequest `json:"request_param"`
	Status         *BusinessStatus             `json:"status"`
}

type BusinessStatus struct {
	BusinessStatus     string `json:"b_stt"`    // 사업자 상태 (계속사업자, 휴업자, 폐업자)
	BusinessStatusCode string `json:"b_stt_cd"` // 01: 계속사업자, 02: 휴업자, 03: 폐업자
	TaxType            string `json:"tax_type"` // 과세 유형 (일반과세자, 간이과세자)
	EndDate            string `json:"end_dt"`   // 폐업일 (YYYYMMDD)
}

// BusinessVerificationResult 사업자 인증 결과
type BusinessVerificationResult struct {
	IsValid            bool   `json:"is_valid"`
	BusinessStatus     string `json:"business_status"`
	BusinessStatusCode string `json:"business_status_code"`
	TaxType            string `json:"tax_type"`
	Message            string `json:"message"`
}

// BusinessVerifier 국세청 사업자등록정보 진위확인 API 클라이언트
type BusinessVerifier struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewBusinessVerifier creates a verifier. An empty apiKey puts it in development
// mode where every number is approved.
func NewBusinessVerifier(apiKey, baseURL string) *BusinessVerifier {
	if baseURL == "" {
		baseURL = defaultNTSBaseURL
	}
	return &BusinessVerifier{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Verify 사업자 등록번호 진위 확인
func (v *BusinessVerifier) Verify(ctx context.Context, businessNumber, startDate, representativeName string) (*BusinessVerificationResult, error) {
	if v.apiKey == "" {
		return &BusinessVerificationResult{
			IsValid:            true,
			BusinessStatus:     "계속사업자",
			BusinessStatusCode: "01",
			TaxType:            "일반과세자",
			Message:            "개발 모드: 자동 승인",
		}, nil
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"businesses": []BusinessVerificationRequest{{
			BusinessNumber:     businessNumber,
			StartDate:          startDate,
			RepresentativeName: representativeName,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/validate?serviceKey=%s", v.baseURL, url.QueryEscape(v.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var apiResponse BusinessVerificationResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(apiResponse.Data) == 0 {
		return nil, fmt.Errorf("no data in API response")
	}

	data := apiResponse.Data[0]
	result := &BusinessVerificationResult{
		IsValid: data.Valid == "01",
		Message: data.ValidMessage,
	}

	if data.Status != nil {
		result.BusinessStatus = data.Status.BusinessStatus
		result.BusinessStatusCode = data.Status.BusinessStatusCode
		result.TaxType = data.Status.TaxType

		// 계속사업자가 아니면 등록 불가
		switch data.Status.BusinessStatusCode {
		case "01":
		case "02":
			result.IsValid = false
			result.Message = "휴업 중인 사업자입니다"
		case "03":
			result.IsValid = false
			result.Message = "폐업한 사업자입니다"
		default:
			result.IsValid = false
		}
	}

	return result, nil
}
