package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/internal/middleware"
)

type PropertyController struct {
	propertyService service.PropertyService
}

func NewPropertyController(propertyService service.PropertyService) *PropertyController {
	return &PropertyController{propertyService: propertyService}
}

// PropertyRequest owner_id 는 등록 시에만 반영된다. 소유자는 매매 계약 완료로만 바뀐다.
type PropertyRequest struct {
	Title         *string             `json:"title"`
	Address       *string             `json:"address"`
	AddressDetail *string             `json:"address_detail"`
	Type          *model.PropertyType `json:"type"`
	Price         *int64              `json:"price"`
	Deposit       *int64              `json:"deposit"`
	MonthlyRent   *int64              `json:"monthly_rent"`
	Area          *float64            `json:"area"`
	Description   *string             `json:"description"`
	ImageURL      *string             `json:"image_url"`
	OwnerID       *uint               `json:"owner_id"`
}

func (r PropertyRequest) input() service.PropertyInput {
	return service.PropertyInput{
		Title:         r.Title,
		Address:       r.Address,
		AddressDetail: r.AddressDetail,
		Type:          r.Type,
		Price:         r.Price,
		Deposit:       r.Deposit,
		MonthlyRent:   r.MonthlyRent,
		Area:          r.Area,
		Description:   r.Description,
		ImageURL:      r.ImageURL,
		OwnerID:       r.OwnerID,
	}
}

type PresignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// CreateProperty 매물 등록
// POST /api/v1/properties
func (ctrl *PropertyController) CreateProperty(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid create property request")
		return
	}

	property, err := ctrl.propertyService.CreateProperty(actor, req.input())
	if err != nil {
		respondError(c, err, "create property")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "매물이 등록되었습니다",
		"property": property,
	})
}

// GetProperty 매물 상세
// GET /api/v1/properties/:id
func (ctrl *PropertyController) GetProperty(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	property, err := ctrl.propertyService.GetProperty(actor, id)
	if err != nil {
		respondError(c, err, "get property")
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": property})
}

// ListProperties 매물 목록
// GET /api/v1/properties?type=&owner_id=&search=&page=&page_size=
func (ctrl *PropertyController) ListProperties(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	page, pageSize := parsePage(c)
	filter := service.PropertyListFilter{
		OwnerID:  optionalUint(c.Query("owner_id")),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("type"); v != "" {
		t := model.PropertyType(v)
		filter.Type = &t
	}

	properties, total, err := ctrl.propertyService.ListProperties(actor, filter)
	if err != nil {
		respondError(c, err, "list properties")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}

// UpdateProperty 매물 수정
// PUT /api/v1/properties/:id
func (ctrl *PropertyController) UpdateProperty(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid update property request")
		return
	}

	property, err := ctrl.propertyService.UpdateProperty(actor, id, req.input())
	if err != nil {
		respondError(c, err, "update property")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "매물 정보가 수정되었습니다",
		"property": property,
	})
}

// DeleteProperty 매물 삭제 (레벨 5 이상)
// DELETE /api/v1/properties/:id
func (ctrl *PropertyController) DeleteProperty(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.propertyService.DeleteProperty(actor, id); err != nil {
		respondError(c, err, "delete property")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "매물이 삭제되었습니다"})
}

// ListPropertyTransfers 소유권 이전 이력
// GET /api/v1/properties/:id/transfers
func (ctrl *PropertyController) ListPropertyTransfers(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transfers, err := ctrl.propertyService.ListTransfers(actor, id)
	if err != nil {
		respondError(c, err, "list property transfers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

// PresignImageUpload 매물 사진 업로드 URL
// POST /api/v1/properties/images/presigned-url
func (ctrl *PropertyController) PresignImageUpload(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req PresignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid presigned URL request")
		return
	}

	resp, err := ctrl.propertyService.PresignImageUpload(actor, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err, "presign property image")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Presigned URL generated successfully", map[string]interface{}{
		"user_id": actor.ID,
		"key":     resp.Key,
	})

	c.JSON(http.StatusOK, resp)
}
