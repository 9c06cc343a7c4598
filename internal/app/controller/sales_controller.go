package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SalesController struct {
	salesService service.SalesService
}

func NewSalesController(salesService service.SalesService) *SalesController {
	return &SalesController{salesService: salesService}
}

func parseYear(c *gin.Context) (int, bool) {
	v := c.Query("year")
	if v == "" {
		return time.Now().In(service.SeoulLocation()).Year(), true
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "연도 형식이 올바르지 않습니다")
		return 0, false
	}
	return year, true
}

// GetMonthlySales 완료 계약 기준 월별 중개보수
// GET /api/v1/sales/monthly?year=2025
func (ctrl *SalesController) GetMonthlySales(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	year, ok := parseYear(c)
	if !ok {
		return
	}

	report, err := ctrl.salesService.MonthlyReport(actor, year)
	if err != nil {
		respondError(c, err, "monthly sales")
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportMonthlySales 월별 매출 엑셀 다운로드
// GET /api/v1/sales/monthly/export?year=2025
func (ctrl *SalesController) ExportMonthlySales(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	year, ok := parseYear(c)
	if !ok {
		return
	}

	data, err := ctrl.salesService.ExportMonthlyReport(actor, year)
	if err != nil {
		respondError(c, err, "export monthly sales")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sales-%d.xlsx"`, year))
	c.Data(http.StatusOK, xlsxContentType, data)
}
