package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// MonthlySales 한 달 매출 집계
type MonthlySales struct {
	Month      int   `json:"month"`
	Commission int64 `json:"commission"`
	Count      int   `json:"count"`
}

// SalesReport 연간 월별 매출. Months 는 항상 12개다.
type SalesReport struct {
	Year            int            `json:"year"`
	Months          []MonthlySales `json:"months"`
	TotalCommission int64          `json:"total_commission"`
	TotalCount      int            `json:"total_count"`
}

type SalesService interface {
	MonthlyReport(actor *model.User, year int) (*SalesReport, error)
	ExportMonthlyReport(actor *model.User, year int) ([]byte, error)
}

type salesService struct {
	contractRepo repository.ContractRepository
	location     *time.Location
}

// NewSalesService 월 구분은 location 기준 달력을 따른다. nil 이면 Asia/Seoul.
func NewSalesService(contractRepo repository.ContractRepository, location *time.Location) SalesService {
	if location == nil {
		location = SeoulLocation()
	}
	return &salesService{
		contractRepo: contractRepo,
		location:     location,
	}
}

// SeoulLocation 매출/일정 달력 기준 시간대
func SeoulLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// aggregateSales buckets completed contracts of year by contract month.
// Contracts outside the year or not completed contribute nothing.
func aggregateSales(contracts []model.Contract, year int, loc *time.Location) *SalesReport {
	report := &SalesReport{
		Year:   year,
		Months: make([]MonthlySales, 12),
	}
	for i := range report.Months {
		report.Months[i].Month = i + 1
	}

	for i := range contracts {
		contract := &contracts[i]
		if contract.Status != model.ContractStatusCompleted {
			continue
		}
		date := contract.ContractDate.In(loc)
		if date.Year() != year {
			continue
		}
		bucket := &report.Months[date.Month()-1]
		bucket.Commission += contract.CommissionAmount()
		bucket.Count++
		report.TotalCommission += contract.CommissionAmount()
		report.TotalCount++
	}
	return report
}

func (s *salesService) MonthlyReport(actor *model.User, year int) (*SalesReport, error) {
	if year < 1900 || year > 9999 {
		return nil, apperrors.NewValidationError("year", apperrors.ValidationInvalidRange, "조회 연도가 올바르지 않습니다")
	}

	// 시간대 차이로 경계가 밀리는 계약까지 읽고 집계 단계에서 연도를 다시 거른다
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.location).AddDate(0, 0, -1)
	to := time.Date(year+1, time.January, 1, 0, 0, 0, 0, s.location).AddDate(0, 0, 1)

	contracts, err := s.contractRepo.FindCompletedBetween(actor.BusinessNumber, from, to)
	if err != nil {
		return nil, err
	}

	report := aggregateSales(contracts, year, s.location)
	logger.Debug("Sales report built", map[string]interface{}{
		"user_id":          actor.ID,
		"year":             year,
		"total_count":      report.TotalCount,
		"total_commission": report.TotalCommission,
	})
	return report, nil
}

// ExportMonthlyReport 월별 매출을 XLSX 로 내보낸다
func (s *salesService) ExportMonthlyReport(actor *model.User, year int) ([]byte, error) {
	report, err := s.MonthlyReport(actor, year)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%d년 매출", year)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := [][]interface{}{{"월", "완료 계약 수", "중개보수 합계"}}
	for _, m := range report.Months {
		rows = append(rows, []interface{}{fmt.Sprintf("%d월", m.Month), m.Count, m.Commission})
	}
	rows = append(rows, []interface{}{"합계", report.TotalCount, report.TotalCommission})

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		logger.Error("Failed to write sales workbook", err, map[string]interface{}{
			"user_id": actor.ID,
			"year":    year,
		})
		return nil, err
	}
	return buf.Bytes(), nil
}
