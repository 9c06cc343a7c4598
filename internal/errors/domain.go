package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DomainError 서비스 계층에서 반환하는 분류된 에러
type DomainError interface {
	error
	HTTPStatus() int
	ErrorCode() string
	UserMessage() string
}

// ValidationError 입력값 누락/형식 오류. 호출자가 입력을 고치면 해결된다.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Code)
}

func (e *ValidationError) HTTPStatus() int     { return http.StatusBadRequest }
func (e *ValidationError) ErrorCode() string   { return e.Code }
func (e *ValidationError) UserMessage() string { return e.Message }

// AuthorizationError 등급/회사/계약 당사자 조건 불충족. Rule 은 실패한 규칙 이름.
type AuthorizationError struct {
	Rule    string
	Code    string
	Message string
}

func NewAuthorizationError(rule, code, message string) *AuthorizationError {
	return &AuthorizationError{Rule: rule, Code: code, Message: message}
}

func (e *AuthorizationError) Error() string {
	return "authorization failed: " + e.Rule
}

func (e *AuthorizationError) HTTPStatus() int { return http.StatusForbidden }

func (e *AuthorizationError) ErrorCode() string {
	if e.Code == "" {
		return AuthzForbidden
	}
	return e.Code
}

func (e *AuthorizationError) UserMessage() string {
	if e.Message == "" {
		return "접근 권한이 없습니다"
	}
	return e.Message
}

// StateError 완료된 계약처럼 더 이상 변경할 수 없는 상태에 대한 요청
type StateError struct {
	Code    string
	Message string
}

func NewStateError(code, message string) *StateError {
	return &StateError{Code: code, Message: message}
}

func (e *StateError) Error() string       { return "invalid state: " + e.Code }
func (e *StateError) HTTPStatus() int     { return http.StatusConflict }
func (e *StateError) ErrorCode() string   { return e.Code }
func (e *StateError) UserMessage() string { return e.Message }

// ConflictError 동시 변경 또는 중복 키 충돌. 새 데이터로 한 번 재시도할 수 있다.
type ConflictError struct {
	Code    string
	Message string
}

func NewConflictError(code, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

func (e *ConflictError) Error() string       { return "conflict: " + e.Code }
func (e *ConflictError) HTTPStatus() int     { return http.StatusConflict }
func (e *ConflictError) ErrorCode() string   { return e.Code }
func (e *ConflictError) UserMessage() string { return e.Message }

// IsValidation / IsAuthorization / IsState / IsConflict 는 wrap 된 에러도 판별한다.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// RespondWithDomainError writes the mapped response and reports whether err was a domain error.
func RespondWithDomainError(c *gin.Context, err error) bool {
	var domainErr DomainError
	if !errors.As(err, &domainErr) {
		return false
	}

	resp := ErrorResponse{
		Error:   domainErr.ErrorCode(),
		Message: domainErr.UserMessage(),
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) && validationErr.Field != "" {
		c.JSON(domainErr.HTTPStatus(), ValidationErrorResponse{
			Error:   resp.Error,
			Message: resp.Message,
			Fields:  map[string]string{validationErr.Field: validationErr.Message},
		})
		return true
	}

	c.JSON(domainErr.HTTPStatus(), resp)
	return true
}
