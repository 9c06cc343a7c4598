package repository

import (
	"testing"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupContractTest(t *testing.T) (*gorm.DB, ContractRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB, NewContractRepository(testDB)
}

func createContract(t *testing.T, repo ContractRepository, number, businessNumber string, status model.ContractStatus, date time.Time, buyerID, sellerID uint) *model.Contract {
	t.Helper()
	commission := int64(1000)
	contract := &model.Contract{
		ContractNumber: number,
		Type:           model.ContractTypeGeneric,
		BuyerID:        buyerID,
		SellerID:       sellerID,
		AgentID:        1,
		Commission:     &commission,
		ContractDate:   date,
		Status:         status,
		BusinessNumber: businessNumber,
		CreatedByID:    1,
	}
	require.NoError(t, repo.Create(contract))
	return contract
}

func TestContractRepository_FindWithFilter(t *testing.T) {
	testDB, repo := setupContractTest(t)
	kim := createCustomer(t, testDB, "김철수", "1111111111")
	lee := createCustomer(t, testDB, "이영희", "1111111111")

	march := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	createContract(t, repo, "CT-20250310-000001", "1111111111", model.ContractStatusInProgress, march, kim.ID, lee.ID)
	createContract(t, repo, "CT-20250410-000002", "1111111111", model.ContractStatusCompleted, april, lee.ID, kim.ID)
	createContract(t, repo, "CT-20250410-000003", "2222222222", model.ContractStatusCompleted, april, kim.ID, lee.ID)

	completed := model.ContractStatusCompleted
	aprilStart := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter ContractFilter
		want   int64
	}{
		{name: "company scope", filter: ContractFilter{BusinessNumber: "1111111111"}, want: 2},
		{name: "other company", filter: ContractFilter{BusinessNumber: "2222222222"}, want: 1},
		{name: "status", filter: ContractFilter{BusinessNumber: "1111111111", Status: &completed}, want: 1},
		{name: "date from", filter: ContractFilter{BusinessNumber: "1111111111", From: &aprilStart}, want: 1},
		{name: "search customer", filter: ContractFilter{BusinessNumber: "1111111111", Search: "김철수"}, want: 2},
		{name: "search number", filter: ContractFilter{BusinessNumber: "1111111111", Search: "000002"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contracts, total, err := repo.FindWithFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, contracts, int(tt.want))
			for _, c := range contracts {
				assert.Equal(t, tt.filter.BusinessNumber, c.BusinessNumber)
			}
		})
	}
}

func TestContractRepository_FindCompletedBetween(t *testing.T) {
	_, repo := setupContractTest(t)

	inRange := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	createContract(t, repo, "CT-20250601-000001", "1111111111", model.ContractStatusCompleted, inRange, 1, 2)
	createContract(t, repo, "CT-20250601-000002", "1111111111", model.ContractStatusInProgress, inRange, 1, 2)
	createContract(t, repo, "CT-20260101-000003", "1111111111", model.ContractStatusCompleted, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2)
	createContract(t, repo, "CT-20250601-000004", "2222222222", model.ContractStatusCompleted, inRange, 1, 2)

	contracts, err := repo.FindCompletedBetween("1111111111",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "CT-20250601-000001", contracts[0].ContractNumber)
}

func TestContractRepository_UniqueContractNumber(t *testing.T) {
	_, repo := setupContractTest(t)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	createContract(t, repo, "CT-20250601-000001", "1111111111", model.ContractStatusInProgress, date, 1, 2)

	duplicate := &model.Contract{
		ContractNumber: "CT-20250601-000001",
		Type:           model.ContractTypeGeneric,
		BuyerID:        1,
		SellerID:       2,
		AgentID:        1,
		ContractDate:   date,
		Status:         model.ContractStatusInProgress,
		BusinessNumber: "1111111111",
		CreatedByID:    1,
	}
	assert.Error(t, repo.Create(duplicate))
}
