package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/internal/db"
	"github.com/ikkim/budongsan-crm/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testBusinessNumber = "1111111111"

type contractControllerFixture struct {
	db     *gorm.DB
	owner  *model.User
	other  *model.User
	buyer  *model.Customer
	seller *model.Customer
	ctrl   *ContractController
}

// actingAs stands in for the auth middleware
func actingAs(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.UserKey, user)
		c.Next()
	}
}

func setupContractControllerTest(t *testing.T) *contractControllerFixture {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	owner := &model.User{Email: "owner@example.com", PasswordHash: "x", Name: "대표", Nickname: "대표", Level: model.LevelOwner, BusinessNumber: testBusinessNumber}
	other := &model.User{Email: "other@example.com", PasswordHash: "x", Name: "타사", Nickname: "타사", Level: model.LevelOwner, BusinessNumber: "2222222222"}
	require.NoError(t, testDB.Create(owner).Error)
	require.NoError(t, testDB.Create(other).Error)

	buyer := &model.Customer{Name: "김매수", Type: model.CustomerTypeBuyer, Status: model.CustomerStatusActive, BusinessNumber: testBusinessNumber, CreatedByID: owner.ID}
	seller := &model.Customer{Name: "이매도", Type: model.CustomerTypeSeller, Status: model.CustomerStatusActive, BusinessNumber: testBusinessNumber, CreatedByID: owner.ID}
	require.NoError(t, testDB.Create(buyer).Error)
	require.NoError(t, testDB.Create(seller).Error)

	contractService := service.NewContractService(
		testDB,
		repository.NewContractRepository(testDB),
		repository.NewCustomerRepository(testDB),
		repository.NewPropertyRepository(testDB),
		repository.NewUserRepository(testDB),
		repository.NewScheduleRepository(testDB),
		repository.NewActivityRepository(testDB),
		nil,
		nil,
	)

	return &contractControllerFixture{
		db:     testDB,
		owner:  owner,
		other:  other,
		buyer:  buyer,
		seller: seller,
		ctrl:   NewContractController(contractService),
	}
}

func (f *contractControllerFixture) router(user *model.User) *gin.Engine {
	router := gin.New()
	group := router.Group("/contracts", actingAs(user))
	group.POST("", f.ctrl.CreateContract)
	group.GET("", f.ctrl.ListContracts)
	group.GET("/:id", f.ctrl.GetContract)
	group.PUT("/:id", f.ctrl.UpdateContract)
	group.DELETE("/:id", f.ctrl.DeleteContract)
	return router
}

func serveJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (f *contractControllerFixture) createContract(t *testing.T, date string) uint {
	t.Helper()
	w := serveJSON(f.router(f.owner), http.MethodPost, "/contracts", map[string]interface{}{
		"type":          "generic",
		"buyer_id":      f.buyer.ID,
		"seller_id":     f.seller.ID,
		"contract_date": date,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Contract model.Contract `json:"contract"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Regexp(t, `^CT-`, response.Contract.ContractNumber)
	return response.Contract.ID
}

func TestContractController_Create_InvalidDate(t *testing.T) {
	f := setupContractControllerTest(t)

	w := serveJSON(f.router(f.owner), http.MethodPost, "/contracts", map[string]interface{}{
		"type":          "generic",
		"buyer_id":      f.buyer.ID,
		"seller_id":     f.seller.ID,
		"contract_date": "20/05/2025",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "contract_date")
}

func TestContractController_Create_MissingParties(t *testing.T) {
	f := setupContractControllerTest(t)

	w := serveJSON(f.router(f.owner), http.MethodPost, "/contracts", map[string]interface{}{
		"type": "generic",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractController_List_ToIsInclusive(t *testing.T) {
	f := setupContractControllerTest(t)
	f.createContract(t, "2025-05-20")
	f.createContract(t, "2025-05-21")

	tests := []struct {
		query string
		want  float64
	}{
		{"?from=2025-05-20&to=2025-05-20", 1},
		{"?from=2025-05-20&to=2025-05-21", 2},
		{"?from=2025-05-22", 0},
		{"", 2},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serveJSON(f.router(f.owner), http.MethodGet, "/contracts"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.want, response["total"])
		})
	}

	w := serveJSON(f.router(f.owner), http.MethodGet, "/contracts?to=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractController_OtherCompany(t *testing.T) {
	f := setupContractControllerTest(t)
	id := f.createContract(t, "2025-05-20")
	path := fmt.Sprintf("/contracts/%d", id)

	w := serveJSON(f.router(f.other), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveJSON(f.router(f.other), http.MethodPut, path, map[string]interface{}{"notes": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serveJSON(f.router(f.other), http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestContractController_UpdateAndDelete(t *testing.T) {
	f := setupContractControllerTest(t)
	id := f.createContract(t, "2025-05-20")
	path := fmt.Sprintf("/contracts/%d", id)

	w := serveJSON(f.router(f.owner), http.MethodPut, path, map[string]interface{}{
		"notes":    "잔금일 조정",
		"end_date": "2026-05-19",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "잔금일 조정")

	w = serveJSON(f.router(f.owner), http.MethodPut, path, map[string]interface{}{"start_date": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serveJSON(f.router(f.owner), http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["deleted_schedules"])

	w = serveJSON(f.router(f.owner), http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveJSON(f.router(f.owner), http.MethodGet, "/contracts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
