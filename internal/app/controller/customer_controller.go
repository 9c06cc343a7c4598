package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
)

type CustomerController struct {
	customerService service.CustomerService
}

func NewCustomerController(customerService service.CustomerService) *CustomerController {
	return &CustomerController{customerService: customerService}
}

// CustomerRequest 등록과 수정에 같이 쓴다. 수정 시 빠진 필드는 유지된다.
type CustomerRequest struct {
	Name   *string             `json:"name"`
	Type   *model.CustomerType `json:"type"`
	Phone  *string             `json:"phone"`
	Email  *string             `json:"email"`
	Memo   *string             `json:"memo"`
	Locked *bool               `json:"locked"`
	UserID *uint               `json:"user_id"`
}

func (r CustomerRequest) input() service.CustomerInput {
	return service.CustomerInput{
		Name:   r.Name,
		Type:   r.Type,
		Phone:  r.Phone,
		Email:  r.Email,
		Memo:   r.Memo,
		Locked: r.Locked,
		UserID: r.UserID,
	}
}

type CustomerStatusRequest struct {
	Status model.CustomerStatus `json:"status" binding:"required"`
}

// CreateCustomer 고객 등록
// POST /api/v1/customers
func (ctrl *CustomerController) CreateCustomer(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid create customer request")
		return
	}

	customer, err := ctrl.customerService.CreateCustomer(actor, req.input())
	if err != nil {
		respondError(c, err, "create customer")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "고객이 등록되었습니다",
		"customer": customer,
	})
}

// GetCustomer 고객 상세 (소유 매물 포함)
// GET /api/v1/customers/:id
func (ctrl *CustomerController) GetCustomer(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := ctrl.customerService.GetCustomer(actor, id)
	if err != nil {
		respondError(c, err, "get customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// ListCustomers 고객 목록
// GET /api/v1/customers?type=&status=&search=&page=&page_size=
func (ctrl *CustomerController) ListCustomers(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	page, pageSize := parsePage(c)
	filter := service.CustomerListFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("type"); v != "" {
		t := model.CustomerType(v)
		filter.Type = &t
	}
	if v := c.Query("status"); v != "" {
		s := model.CustomerStatus(v)
		filter.Status = &s
	}

	customers, total, err := ctrl.customerService.ListCustomers(actor, filter)
	if err != nil {
		respondError(c, err, "list customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListSelectable 계약 당사자로 선택할 수 있는 고객
// GET /api/v1/customers/selectable?search=
func (ctrl *CustomerController) ListSelectable(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	customers, err := ctrl.customerService.ListSelectable(actor, c.Query("search"))
	if err != nil {
		respondError(c, err, "list selectable customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"count":     len(customers),
	})
}

// UpdateCustomer 고객 수정
// PUT /api/v1/customers/:id
func (ctrl *CustomerController) UpdateCustomer(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid update customer request")
		return
	}

	customer, err := ctrl.customerService.UpdateCustomer(actor, id, req.input())
	if err != nil {
		respondError(c, err, "update customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "고객 정보가 수정되었습니다",
		"customer": customer,
	})
}

// SetCustomerStatus 활성/비활성 전환
// PATCH /api/v1/customers/:id/status
func (ctrl *CustomerController) SetCustomerStatus(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CustomerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid customer status request")
		return
	}
	if req.Status != model.CustomerStatusActive && req.Status != model.CustomerStatusInactive {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "고객 상태가 올바르지 않습니다")
		return
	}

	customer, err := ctrl.customerService.SetStatus(actor, id, req.Status)
	if err != nil {
		respondError(c, err, "update customer status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "고객 상태가 변경되었습니다",
		"customer": customer,
	})
}

// DeleteCustomer 고객 삭제 (레벨 5 이상)
// DELETE /api/v1/customers/:id
func (ctrl *CustomerController) DeleteCustomer(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.customerService.DeleteCustomer(actor, id); err != nil {
		respondError(c, err, "delete customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "고객이 삭제되었습니다"})
}
