package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperrors.NewValidationError("price", apperrors.ValidationInvalidRange, "금액 오류"), http.StatusBadRequest, apperrors.ValidationInvalidRange},
		{"authorization", apperrors.NewAuthorizationError("manage_contract", apperrors.AuthzLevelTooLow, "권한 없음"), http.StatusForbidden, apperrors.AuthzLevelTooLow},
		{"state", apperrors.NewStateError(apperrors.ContractCompleted, "완료됨"), http.StatusConflict, apperrors.ContractCompleted},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrContractNotFound), http.StatusNotFound, apperrors.ContractNotFound},
		{"customer not found", service.ErrCustomerNotFound, http.StatusNotFound, apperrors.CustomerNotFound},
		{"expired token", util.ErrExpiredToken, http.StatusUnauthorized, apperrors.AuthTokenExpired},
		{"storage unavailable", service.ErrStorageUnavailable, http.StatusServiceUnavailable, apperrors.InternalConfigError},
		{"billing unavailable", service.ErrBillingUnavailable, http.StatusServiceUnavailable, apperrors.InternalConfigError},
		{"duplicate key", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), http.StatusConflict, apperrors.ResourceAlreadyExists},
		{"row in use", gorm.ErrForeignKeyViolated, http.StatusConflict, apperrors.ResourceInUse},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err, "test")

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, tt.wantCode, response["error"])
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	empty, err := parseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	date, err := parseDate("2025-05-20")
	require.NoError(t, err)
	_, offset := date.Zone()
	assert.Equal(t, 9*60*60, offset)
	assert.Equal(t, 20, date.Day())

	_, err = parseDate("2025/05/20")
	assert.Error(t, err)
}
