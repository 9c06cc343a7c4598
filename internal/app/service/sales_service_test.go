package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/internal/db"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func commissionPtr(v int64) *int64 { return &v }

func TestAggregateSales(t *testing.T) {
	loc := time.UTC
	contracts := []model.Contract{
		{Status: model.ContractStatusCompleted, ContractDate: time.Date(2025, 3, 5, 0, 0, 0, 0, loc), Commission: commissionPtr(100)},
		{Status: model.ContractStatusCompleted, ContractDate: time.Date(2025, 3, 31, 0, 0, 0, 0, loc), Commission: commissionPtr(50)},
		{Status: model.ContractStatusCompleted, ContractDate: time.Date(2025, 12, 1, 0, 0, 0, 0, loc)},
		{Status: model.ContractStatusInProgress, ContractDate: time.Date(2025, 3, 10, 0, 0, 0, 0, loc), Commission: commissionPtr(999)},
		{Status: model.ContractStatusCancelled, ContractDate: time.Date(2025, 4, 10, 0, 0, 0, 0, loc), Commission: commissionPtr(999)},
		{Status: model.ContractStatusCompleted, ContractDate: time.Date(2024, 12, 31, 0, 0, 0, 0, loc), Commission: commissionPtr(999)},
	}

	report := aggregateSales(contracts, 2025, loc)
	require.Len(t, report.Months, 12)

	for _, m := range report.Months {
		switch m.Month {
		case 3:
			assert.Equal(t, int64(150), m.Commission)
			assert.Equal(t, 2, m.Count)
		case 12:
			assert.Zero(t, m.Commission)
			assert.Equal(t, 1, m.Count)
		default:
			assert.Zero(t, m.Commission, "month %d", m.Month)
			assert.Zero(t, m.Count, "month %d", m.Month)
		}
	}
	assert.Equal(t, int64(150), report.TotalCommission)
	assert.Equal(t, 3, report.TotalCount)
}

func TestAggregateSales_UsesLocationCalendar(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	// 2025-01-31 16:00 UTC 는 서울 기준 2월 1일이다
	contracts := []model.Contract{
		{Status: model.ContractStatusCompleted, ContractDate: time.Date(2025, 1, 31, 16, 0, 0, 0, time.UTC), Commission: commissionPtr(10)},
	}

	report := aggregateSales(contracts, 2025, kst)
	assert.Zero(t, report.Months[0].Commission)
	assert.Equal(t, int64(10), report.Months[1].Commission)
}

func setupSalesServiceTest(t *testing.T) (SalesService, *contractFixture) {
	f := setupContractServiceTest(t)
	return NewSalesService(repository.NewContractRepository(f.db), time.UTC), f
}

func TestSalesService_MonthlyReport(t *testing.T) {
	salesService, f := setupSalesServiceTest(t)

	contractDate := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	input := f.saleInput()
	input.ContractDate = &contractDate
	input.Status = statusPtr(model.ContractStatusCompleted)
	_, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)

	// 진행중 계약과 다른 회사 계약은 집계되지 않는다
	inProgress := f.saleInput()
	inProgress.Type = model.ContractTypeGeneric
	inProgress.ContractDate = &contractDate
	_, err = f.service.CreateContract(f.owner, inProgress)
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&model.Contract{
		ContractNumber: "CT-20250520-OTHER1",
		Type:           model.ContractTypeGeneric,
		BuyerID:        1,
		SellerID:       2,
		AgentID:        1,
		Commission:     commissionPtr(777),
		ContractDate:   contractDate,
		Status:         model.ContractStatusCompleted,
		BusinessNumber: otherBusinessNumber,
		CreatedByID:    1,
	}).Error)

	report, err := salesService.MonthlyReport(f.member, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(9000000), report.Months[4].Commission)
	assert.Equal(t, 1, report.Months[4].Count)
	assert.Equal(t, int64(9000000), report.TotalCommission)
	for i, m := range report.Months {
		if i != 4 {
			assert.Zero(t, m.Commission, "month %d", m.Month)
		}
	}

	empty, err := salesService.MonthlyReport(f.member, 2024)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCount)
}

func TestSalesService_MonthlyReport_InvalidYear(t *testing.T) {
	salesService, f := setupSalesServiceTest(t)

	_, err := salesService.MonthlyReport(f.owner, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSalesService_ExportMonthlyReport(t *testing.T) {
	salesService, f := setupSalesServiceTest(t)

	contractDate := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	input := f.saleInput()
	input.ContractDate = &contractDate
	input.Status = statusPtr(model.ContractStatusCompleted)
	_, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)

	data, err := salesService.ExportMonthlyReport(f.owner, 2025)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("2025년 매출")
	require.NoError(t, err)
	require.Len(t, rows, 14)
	assert.Equal(t, []string{"월", "완료 계약 수", "중개보수 합계"}, rows[0])
	assert.Equal(t, []string{"2월", "1", "9000000"}, rows[2])
	assert.Equal(t, "합계", rows[13][0])
}

func TestSalesService_UsesSeoulByDefault(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	svc := NewSalesService(repository.NewContractRepository(testDB), nil).(*salesService)
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, svc.location).Zone()
	assert.Equal(t, 9*60*60, offset)
}
