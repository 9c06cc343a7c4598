package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/middleware"
)

type ContractController struct {
	contractService service.ContractService
}

func NewContractController(contractService service.ContractService) *ContractController {
	return &ContractController{contractService: contractService}
}

// CreateContractRequest 날짜는 YYYY-MM-DD
type CreateContractRequest struct {
	Type         model.ContractType    `json:"type" binding:"required"`
	PropertyID   *uint                 `json:"property_id"`
	BuyerID      uint                  `json:"buyer_id" binding:"required"`
	SellerID     uint                  `json:"seller_id" binding:"required"`
	AgentID      *uint                 `json:"agent_id"`
	Price        int64                 `json:"price"`
	Commission   *int64                `json:"commission"`
	Deposit      int64                 `json:"deposit"`
	MonthlyRent  int64                 `json:"monthly_rent"`
	ContractDate string                `json:"contract_date"`
	ClosingDate  string                `json:"closing_date"`
	StartDate    string                `json:"start_date"`
	EndDate      string                `json:"end_date"`
	Status       *model.ContractStatus `json:"status"`
	Notes        string                `json:"notes"`
}

// UpdateContractRequest 보낸 필드만 변경한다
type UpdateContractRequest struct {
	Type         *model.ContractType   `json:"type"`
	PropertyID   *uint                 `json:"property_id"`
	BuyerID      *uint                 `json:"buyer_id"`
	SellerID     *uint                 `json:"seller_id"`
	AgentID      *uint                 `json:"agent_id"`
	Price        *int64                `json:"price"`
	Commission   *int64                `json:"commission"`
	Deposit      *int64                `json:"deposit"`
	MonthlyRent  *int64                `json:"monthly_rent"`
	ContractDate *string               `json:"contract_date"`
	ClosingDate  *string               `json:"closing_date"`
	StartDate    *string               `json:"start_date"`
	EndDate      *string               `json:"end_date"`
	Status       *model.ContractStatus `json:"status"`
	Notes        *string               `json:"notes"`
}

type dateField struct {
	value  string
	target **time.Time
	skip   bool
}

func optionalDate(value *string, target **time.Time) dateField {
	if value == nil {
		return dateField{skip: true}
	}
	return dateField{value: *value, target: target}
}

// parseDates fills each target. On the first bad value it writes a 400 and returns false.
func parseDates(c *gin.Context, fields map[string]dateField) bool {
	for name, f := range fields {
		if f.skip {
			continue
		}
		t, err := parseDate(f.value)
		if err != nil {
			apperrors.RespondWithValidationError(c, map[string]string{name: "날짜 형식은 YYYY-MM-DD 입니다"})
			return false
		}
		*f.target = t
	}
	return true
}

// CreateContract 계약 등록. 완료 상태로 등록한 매매 계약은 즉시 소유권이 이전된다.
// POST /api/v1/contracts
func (ctrl *ContractController) CreateContract(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid create contract request")
		return
	}

	input := service.ContractInput{
		Type:        req.Type,
		PropertyID:  req.PropertyID,
		BuyerID:     req.BuyerID,
		SellerID:    req.SellerID,
		AgentID:     req.AgentID,
		Price:       req.Price,
		Commission:  req.Commission,
		Deposit:     req.Deposit,
		MonthlyRent: req.MonthlyRent,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if !parseDates(c, map[string]dateField{
		"contract_date": {value: req.ContractDate, target: &input.ContractDate},
		"closing_date":  {value: req.ClosingDate, target: &input.ClosingDate},
		"start_date":    {value: req.StartDate, target: &input.StartDate},
		"end_date":      {value: req.EndDate, target: &input.EndDate},
	}) {
		return
	}

	contract, err := ctrl.contractService.CreateContract(actor, input)
	if err != nil {
		respondError(c, err, "create contract")
		return
	}

	log.Info("Contract created", map[string]interface{}{
		"contract_id":     contract.ID,
		"contract_number": contract.ContractNumber,
		"status":          contract.Status,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "계약이 등록되었습니다",
		"contract": contract,
	})
}

// GetContract 계약 상세
// GET /api/v1/contracts/:id
func (ctrl *ContractController) GetContract(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	contract, err := ctrl.contractService.GetContract(actor, id)
	if err != nil {
		respondError(c, err, "get contract")
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// ListContracts 회사 계약 목록
// GET /api/v1/contracts?status=&type=&property_id=&search=&from=&to=&page=&page_size=
func (ctrl *ContractController) ListContracts(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	page, pageSize := parsePage(c)
	filter := service.ContractListFilter{
		PropertyID: optionalUint(c.Query("property_id")),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	}
	if v := c.Query("status"); v != "" {
		s := model.ContractStatus(v)
		filter.Status = &s
	}
	if v := c.Query("type"); v != "" {
		t := model.ContractType(v)
		filter.Type = &t
	}
	if !parseDates(c, map[string]dateField{
		"from": {value: c.Query("from"), target: &filter.From},
		"to":   {value: c.Query("to"), target: &filter.To},
	}) {
		return
	}
	if filter.To != nil {
		// to 는 그 날짜를 포함한다
		end := filter.To.AddDate(0, 0, 1)
		filter.To = &end
	}

	contracts, total, err := ctrl.contractService.ListContracts(actor, filter)
	if err != nil {
		respondError(c, err, "list contracts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts": contracts,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// UpdateContract 계약 수정. 완료로 바뀌는 순간 소유권 이전이 같은 트랜잭션에서 처리된다.
// PUT /api/v1/contracts/:id
func (ctrl *ContractController) UpdateContract(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid update contract request")
		return
	}

	patch := service.ContractPatch{
		Type:        req.Type,
		PropertyID:  req.PropertyID,
		BuyerID:     req.BuyerID,
		SellerID:    req.SellerID,
		AgentID:     req.AgentID,
		Price:       req.Price,
		Commission:  req.Commission,
		Deposit:     req.Deposit,
		MonthlyRent: req.MonthlyRent,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if !parseDates(c, map[string]dateField{
		"contract_date": optionalDate(req.ContractDate, &patch.ContractDate),
		"closing_date":  optionalDate(req.ClosingDate, &patch.ClosingDate),
		"start_date":    optionalDate(req.StartDate, &patch.StartDate),
		"end_date":      optionalDate(req.EndDate, &patch.EndDate),
	}) {
		return
	}

	contract, err := ctrl.contractService.UpdateContract(actor, id, patch)
	if err != nil {
		respondError(c, err, "update contract")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "계약이 수정되었습니다",
		"contract": contract,
	})
}

// DeleteContract 계약과 연결된 일정을 삭제한다
// DELETE /api/v1/contracts/:id
func (ctrl *ContractController) DeleteContract(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removedSchedules, err := ctrl.contractService.DeleteContract(actor, id)
	if err != nil {
		respondError(c, err, "delete contract")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "계약이 삭제되었습니다",
		"deleted_schedules": removedSchedules,
	})
}

// ListContractTransfers 계약으로 발생한 소유권 이전 기록
// GET /api/v1/contracts/:id/transfers
func (ctrl *ContractController) ListContractTransfers(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transfers, err := ctrl.contractService.ListTransfers(actor, id)
	if err != nil {
		respondError(c, err, "list contract transfers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}
