package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨기되, 사용자가 문제를 해결할 수 있는 정보 제공
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return ErrorInfo{Code: domainErr.ErrorCode(), Message: domainErr.UserMessage()}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM 에러 (TranslateError 로 드라이버 에러가 변환됨)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(errStr, context)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorInfo{Code: ResourceInUse, Message: "연결된 데이터가 있어 처리할 수 없습니다"}
	}

	// 2. 변환되지 않은 DB 에러 문자열
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr, context)
	}
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceInUse, Message: "연결된 데이터가 있어 처리할 수 없습니다"}
	}
	if strings.Contains(errStrLower, "not null constraint") || strings.Contains(errStrLower, "violates not-null") {
		return ErrorInfo{Code: ValidationRequired, Message: "필수 항목이 누락되었습니다"}
	}

	// 3. 네트워크/연결 에러
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// parseDuplicateKeyError Unique constraint 위반 에러 파싱
func parseDuplicateKeyError(errStr string, context string) ErrorInfo {
	hint := strings.ToLower(errStr + " " + context)

	switch {
	case strings.Contains(hint, "business_number") || strings.Contains(hint, "company"):
		return ErrorInfo{Code: AuthDuplicateBusinessNumber, Message: "이미 등록된 사업자번호입니다"}
	case strings.Contains(hint, "email"):
		return ErrorInfo{Code: AuthDuplicateEmail, Message: "이미 사용 중인 이메일입니다"}
	case strings.Contains(hint, "nickname"):
		return ErrorInfo{Code: AuthDuplicateNickname, Message: "이미 사용 중인 닉네임입니다"}
	case strings.Contains(hint, "contract_number"):
		return ErrorInfo{Code: ResourceConflict, Message: "계약번호가 중복되었습니다. 다시 시도해주세요"}
	case strings.Contains(hint, "ownership") || strings.Contains(hint, "transfer"):
		return ErrorInfo{Code: ContractAlreadyTransfer, Message: "이미 소유권 이전이 처리된 계약입니다"}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "이미 존재하는 데이터입니다",
	}
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "contract") || strings.Contains(contextLower, "계약"):
		return "계약을 찾을 수 없습니다"
	case strings.Contains(contextLower, "customer") || strings.Contains(contextLower, "고객"):
		return "고객을 찾을 수 없습니다"
	case strings.Contains(contextLower, "property") || strings.Contains(contextLower, "매물"):
		return "매물을 찾을 수 없습니다"
	case strings.Contains(contextLower, "schedule") || strings.Contains(contextLower, "일정"):
		return "일정을 찾을 수 없습니다"
	case strings.Contains(contextLower, "user") || strings.Contains(contextLower, "member") || strings.Contains(contextLower, "회원"):
		return "회원을 찾을 수 없습니다"
	case strings.Contains(contextLower, "notification") || strings.Contains(contextLower, "알림"):
		return "알림을 찾을 수 없습니다"
	case strings.Contains(contextLower, "subscription") || strings.Contains(contextLower, "구독"):
		return "구독 정보를 찾을 수 없습니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "등록") {
		return "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "수정") {
		return "수정 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "삭제") {
		return "삭제 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}

// ParseAndRespond 에러를 파싱하여 응답 반환 (헬퍼 함수)
// controller에서 간편하게 사용할 수 있도록
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
