package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/middleware"
	"github.com/ikkim/budongsan-crm/pkg/util"
)

const dateLayout = "2006-01-02"

// currentUser 인증 미들웨어가 넣어 둔 사용자. 없으면 401 을 쓰고 false.
func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return nil, false
	}
	return user, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 ID 입니다")
		return 0, false
	}
	return uint(id), true
}

func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// parseDate 날짜는 서울 기준 YYYY-MM-DD. 빈 값은 nil.
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, service.SeoulLocation())
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalUint(value string) *uint {
	if value == "" {
		return nil
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil
	}
	v := uint(id)
	return &v
}

func bindError(c *gin.Context, err error, msg string) {
	middleware.GetLoggerFromContext(c).Warn(msg, map[string]interface{}{
		"error": err.Error(),
	})
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
}

// respondError maps service errors to responses. Domain errors carry their own status,
// sentinel errors become 401/403/404 and the rest go through the DB error parser.
func respondError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	if apperrors.RespondWithDomainError(c, err) {
		log.Warn("Request rejected", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrContractNotFound):
		apperrors.NotFound(c, apperrors.ContractNotFound, "계약을 찾을 수 없습니다")
	case errors.Is(err, service.ErrCustomerNotFound):
		apperrors.NotFound(c, apperrors.CustomerNotFound, "고객을 찾을 수 없습니다")
	case errors.Is(err, service.ErrPropertyNotFound):
		apperrors.NotFound(c, apperrors.PropertyNotFound, "매물을 찾을 수 없습니다")
	case errors.Is(err, service.ErrScheduleNotFound):
		apperrors.NotFound(c, apperrors.ScheduleNotFound, "일정을 찾을 수 없습니다")
	case errors.Is(err, service.ErrMemberNotFound), errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.MemberNotFound, "회원을 찾을 수 없습니다")
	case errors.Is(err, service.ErrNotificationNotFound):
		apperrors.NotFound(c, apperrors.NotificationNotFound, "알림을 찾을 수 없습니다")
	case errors.Is(err, service.ErrNotificationAccess):
		apperrors.Forbidden(c, "본인의 알림만 처리할 수 있습니다")
	case errors.Is(err, service.ErrSubscriptionNotFound):
		apperrors.NotFound(c, apperrors.SubscriptionNotFound, "구독 정보를 찾을 수 없습니다")
	case errors.Is(err, service.ErrAccountNotFound):
		apperrors.NotFound(c, apperrors.AuthAccountNotFound, "복구할 계정을 찾을 수 없습니다")
	case errors.Is(err, service.ErrInvalidCredentials):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "이메일 또는 비밀번호가 올바르지 않습니다")
	case errors.Is(err, service.ErrTokenRevoked):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "로그아웃된 인증 토큰입니다")
	case errors.Is(err, util.ErrExpiredToken):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "로그인이 만료되었습니다")
	case errors.Is(err, util.ErrInvalidToken):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "유효하지 않은 인증 토큰입니다")
	case errors.Is(err, service.ErrStorageUnavailable):
		apperrors.ServiceUnavailable(c, "파일 업로드를 사용할 수 없습니다")
	case errors.Is(err, service.ErrBillingUnavailable):
		apperrors.ServiceUnavailable(c, "결제 기능을 사용할 수 없습니다")
	default:
		info := apperrors.ParseError(err, action)
		switch info.Code {
		case apperrors.ResourceNotFound:
			apperrors.NotFound(c, info.Code, info.Message)
		case apperrors.ResourceAlreadyExists, apperrors.ResourceConflict, apperrors.ResourceInUse,
			apperrors.AuthDuplicateEmail, apperrors.AuthDuplicateNickname,
			apperrors.AuthDuplicateBusinessNumber, apperrors.ContractAlreadyTransfer:
			apperrors.Conflict(c, info.Code, info.Message)
		default:
			log.Error("Request failed", err, map[string]interface{}{
				"action": action,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
			return
		}
	}

	log.Warn("Request rejected", map[string]interface{}{
		"action": action,
		"error":  err.Error(),
	})
}
