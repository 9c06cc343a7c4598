package service

import (
	"strings"
	"testing"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/internal/db"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testBusinessNumber  = "1111111111"
	otherBusinessNumber = "2222222222"
)

type contractFixture struct {
	service   ContractService
	db        *gorm.DB
	publisher *queue.RecordingPublisher
	owner     *model.User
	staff     *model.User
	member    *model.User
	seller    *model.Customer
	buyer     *model.Customer
	property  *model.Property
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string, level int, businessNumber string) *model.User {
	t.Helper()
	user := &model.User{
		Email:          email,
		PasswordHash:   "hash",
		Name:           "테스트",
		Nickname:       strings.Split(email, "@")[0],
		Level:          level,
		BusinessNumber: businessNumber,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createTestCustomer(t *testing.T, testDB *gorm.DB, name, businessNumber string, createdBy uint) *model.Customer {
	t.Helper()
	customer := &model.Customer{
		Name:           name,
		Type:           model.CustomerTypeOther,
		Status:         model.CustomerStatusActive,
		BusinessNumber: businessNumber,
		CreatedByID:    createdBy,
	}
	require.NoError(t, testDB.Create(customer).Error)
	return customer
}

func setupContractServiceTest(t *testing.T) *contractFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	publisher := &queue.RecordingPublisher{}
	notifier := NewNotificationService(repository.NewNotificationRepository(testDB), nil)
	contractService := NewContractService(
		testDB,
		repository.NewContractRepository(testDB),
		repository.NewCustomerRepository(testDB),
		repository.NewPropertyRepository(testDB),
		repository.NewUserRepository(testDB),
		repository.NewScheduleRepository(testDB),
		repository.NewActivityRepository(testDB),
		notifier,
		publisher,
	)

	owner := createTestUser(t, testDB, "owner@example.com", model.LevelOwner, testBusinessNumber)
	staff := createTestUser(t, testDB, "staff@example.com", model.LevelStaff, testBusinessNumber)
	member := createTestUser(t, testDB, "member@example.com", model.LevelMember, testBusinessNumber)

	seller := createTestCustomer(t, testDB, "매도인", testBusinessNumber, owner.ID)
	buyer := createTestCustomer(t, testDB, "매수인", testBusinessNumber, owner.ID)

	property := &model.Property{
		Title:          "래미안 101동 1001호",
		Address:        "서울시 서초구 반포대로 1",
		Type:           model.PropertyTypeSale,
		Price:          1500000000,
		OwnerID:        &seller.ID,
		BusinessNumber: testBusinessNumber,
		CreatedByID:    owner.ID,
	}
	require.NoError(t, testDB.Create(property).Error)

	return &contractFixture{
		service:   contractService,
		db:        testDB,
		publisher: publisher,
		owner:     owner,
		staff:     staff,
		member:    member,
		seller:    seller,
		buyer:     buyer,
		property:  property,
	}
}

func (f *contractFixture) saleInput() ContractInput {
	commission := int64(9000000)
	return ContractInput{
		Type:       model.ContractTypeSale,
		PropertyID: &f.property.ID,
		BuyerID:    f.buyer.ID,
		SellerID:   f.seller.ID,
		Price:      1500000000,
		Commission: &commission,
	}
}

func (f *contractFixture) propertyOwner(t *testing.T) uint {
	t.Helper()
	var property model.Property
	require.NoError(t, f.db.First(&property, f.property.ID).Error)
	require.NotNil(t, property.OwnerID)
	return *property.OwnerID
}

func (f *contractFixture) transferCount(t *testing.T, contractID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.OwnershipTransfer{}).Where("contract_id = ?", contractID).Count(&count).Error)
	return count
}

func statusPtr(s model.ContractStatus) *model.ContractStatus { return &s }

func TestContractService_CreateSale_InProgressKeepsOwner(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusInProgress, contract.Status)
	assert.True(t, strings.HasPrefix(contract.ContractNumber, "MM-"))
	assert.Equal(t, testBusinessNumber, contract.BusinessNumber)
	assert.Equal(t, f.owner.ID, contract.AgentID)
	assert.False(t, contract.OwnershipTransferred)

	assert.Equal(t, f.seller.ID, f.propertyOwner(t))
	assert.Zero(t, f.transferCount(t, contract.ID))
	assert.Equal(t, []string{queue.RoutingContractCreated}, f.publisher.Types())

	var activities int64
	f.db.Model(&model.ActivityLog{}).Where("action = ?", model.ActivityContractCreated).Count(&activities)
	assert.Equal(t, int64(1), activities)
}

func TestContractService_CompleteSale_TransfersOwnershipOnce(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	completed, err := f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusCompleted, completed.Status)
	assert.True(t, completed.OwnershipTransferred)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, f.buyer.ID, f.propertyOwner(t))
	assert.Equal(t, int64(1), f.transferCount(t, contract.ID))
	assert.Contains(t, f.publisher.Types(), queue.RoutingContractCompleted)
	assert.Contains(t, f.publisher.Types(), queue.RoutingOwnershipTransfer)

	// 완료 후 수정 시도
	price := int64(1)
	_, err = f.service.UpdateContract(f.owner, contract.ID, ContractPatch{Price: &price})
	require.Error(t, err)
	assert.True(t, apperrors.IsState(err))

	// 같은 상태로 재제출
	again, err := f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusCompleted, again.Status)
	assert.Equal(t, f.buyer.ID, f.propertyOwner(t))
	assert.Equal(t, int64(1), f.transferCount(t, contract.ID))
}

func TestContractService_CreateCompletedSale_TransfersImmediately(t *testing.T) {
	f := setupContractServiceTest(t)

	input := f.saleInput()
	input.Status = statusPtr(model.ContractStatusCompleted)

	contract, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusCompleted, contract.Status)
	assert.True(t, contract.OwnershipTransferred)
	assert.Equal(t, f.buyer.ID, f.propertyOwner(t))
	assert.Equal(t, []string{
		queue.RoutingContractCreated,
		queue.RoutingContractCompleted,
		queue.RoutingOwnershipTransfer,
	}, f.publisher.Types())
}

func TestContractService_CompleteSale_RecordedTransferWithoutMarker(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	// 이전 기록은 있지만 계약의 표시가 빠진 상태
	require.NoError(t, f.db.Create(&model.OwnershipTransfer{
		PropertyID:     f.property.ID,
		ContractID:     contract.ID,
		FromCustomerID: f.seller.ID,
		ToCustomerID:   f.buyer.ID,
		TransferredAt:  time.Now(),
	}).Error)

	_, err = f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCompleted),
	})
	require.Error(t, err)
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, apperrors.ContractAlreadyTransfer, conflict.Code)

	var stored model.Contract
	require.NoError(t, f.db.First(&stored, contract.ID).Error)
	assert.Equal(t, model.ContractStatusInProgress, stored.Status)
	assert.False(t, stored.OwnershipTransferred)
	assert.Equal(t, f.seller.ID, f.propertyOwner(t))
	assert.Equal(t, int64(1), f.transferCount(t, contract.ID))
}

func TestContractService_CompleteSale_OwnerMismatchRollsBack(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	// 다른 경로로 소유자가 바뀐 상태
	third := createTestCustomer(t, f.db, "제3자", testBusinessNumber, f.owner.ID)
	require.NoError(t, f.db.Model(&model.Property{}).Where("id = ?", f.property.ID).Update("owner_id", third.ID).Error)

	_, err = f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCompleted),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	var stored model.Contract
	require.NoError(t, f.db.First(&stored, contract.ID).Error)
	assert.Equal(t, model.ContractStatusInProgress, stored.Status)
	assert.False(t, stored.OwnershipTransferred)
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, third.ID, f.propertyOwner(t))
	assert.Zero(t, f.transferCount(t, contract.ID))
	assert.NotContains(t, f.publisher.Types(), queue.RoutingContractCompleted)
}

func TestContractService_CompleteLease_NoTransfer(t *testing.T) {
	f := setupContractServiceTest(t)

	input := f.saleInput()
	input.Type = model.ContractTypeJeonse
	input.Deposit = 500000000

	contract, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(contract.ContractNumber, "JS-"))

	completed, err := f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCompleted),
	})
	require.NoError(t, err)
	assert.False(t, completed.OwnershipTransferred)
	assert.Equal(t, f.seller.ID, f.propertyOwner(t))
}

func TestContractService_Create_Validation(t *testing.T) {
	f := setupContractServiceTest(t)

	inactive := createTestCustomer(t, f.db, "휴면 고객", testBusinessNumber, f.owner.ID)
	require.NoError(t, f.db.Model(inactive).Update("status", model.CustomerStatusInactive).Error)

	tests := []struct {
		name   string
		mutate func(*ContractInput)
	}{
		{"same buyer and seller", func(in *ContractInput) { in.BuyerID = in.SellerID }},
		{"sale without property", func(in *ContractInput) { in.PropertyID = nil }},
		{"missing buyer", func(in *ContractInput) { in.BuyerID = 0 }},
		{"unknown type", func(in *ContractInput) { in.Type = "barter" }},
		{"negative price", func(in *ContractInput) { in.Price = -1 }},
		{"inactive buyer", func(in *ContractInput) { in.BuyerID = inactive.ID }},
		{"unknown seller", func(in *ContractInput) { in.SellerID = 9999 }},
		{"invalid status", func(in *ContractInput) { in.Status = statusPtr("archived") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := f.saleInput()
			tt.mutate(&input)
			_, err := f.service.CreateContract(f.owner, input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestContractService_GenericWithoutProperty(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, ContractInput{
		Type:     model.ContractTypeGeneric,
		BuyerID:  f.buyer.ID,
		SellerID: f.seller.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, contract.PropertyID)
	assert.True(t, strings.HasPrefix(contract.ContractNumber, "CT-"))
}

func TestContractService_Create_Authorization(t *testing.T) {
	f := setupContractServiceTest(t)

	// 레벨 1 은 계약 등록 불가
	_, err := f.service.CreateContract(f.member, f.saleInput())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	// 레벨 2 는 등록은 가능하지만 고객을 선택할 수 없다
	_, err = f.service.CreateContract(f.staff, f.saleInput())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	// 다른 회사 고객
	outsider := createTestCustomer(t, f.db, "타사 고객", otherBusinessNumber, f.owner.ID)
	input := f.saleInput()
	input.BuyerID = outsider.ID
	_, err = f.service.CreateContract(f.owner, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	var count int64
	f.db.Model(&model.Contract{}).Count(&count)
	assert.Zero(t, count)
}

func TestContractService_OtherCompanyScoping(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	outsider := createTestUser(t, f.db, "outsider@example.com", model.LevelOwner, otherBusinessNumber)

	_, err = f.service.GetContract(outsider, contract.ID)
	assert.ErrorIs(t, err, ErrContractNotFound)

	price := int64(1)
	_, err = f.service.UpdateContract(outsider, contract.ID, ContractPatch{Price: &price})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	_, err = f.service.DeleteContract(outsider, contract.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	contracts, total, err := f.service.ListContracts(outsider, ContractListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, contracts)

	contracts, total, err = f.service.ListContracts(f.member, ContractListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, contracts, 1)
}

func TestContractService_PartyMayEdit(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	notes := "잔금일 조율 중"
	_, err = f.service.UpdateContract(f.member, contract.ID, ContractPatch{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	// 매수인 고객에 연결된 계정이라도 레벨 1 이면 수정할 수 없다
	require.NoError(t, f.db.Model(f.buyer).Update("user_id", f.member.ID).Error)
	_, err = f.service.UpdateContract(f.member, contract.ID, ContractPatch{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	require.NoError(t, f.db.Model(f.member).Update("level", model.LevelStaff).Error)
	f.member.Level = model.LevelStaff

	updated, err := f.service.UpdateContract(f.member, contract.ID, ContractPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
}

func TestContractService_CreatorWhoIsNotAgentCannotManage(t *testing.T) {
	f := setupContractServiceTest(t)

	creator := createTestUser(t, f.db, "creator@example.com", model.LevelStaff+1, testBusinessNumber)
	input := f.saleInput()
	input.AgentID = &f.staff.ID

	contract, err := f.service.CreateContract(creator, input)
	require.NoError(t, err)
	assert.Equal(t, f.staff.ID, contract.AgentID)
	assert.Equal(t, creator.ID, contract.CreatedByID)

	notes := "담당자 변경 후 메모"
	_, err = f.service.UpdateContract(creator, contract.ID, ContractPatch{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	removed, err := f.service.DeleteContract(creator, contract.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))
	assert.Zero(t, removed)

	_, err = f.service.GetContract(f.owner, contract.ID)
	require.NoError(t, err)

	// 담당 중개인은 레벨 2 라도 수정할 수 있다
	updated, err := f.service.UpdateContract(f.staff, contract.ID, ContractPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
}

func TestContractService_TypeChange(t *testing.T) {
	f := setupContractServiceTest(t)

	closing := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	input := f.saleInput()
	input.ClosingDate = &closing

	contract, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)
	require.NotNil(t, contract.ClosingDate)
	suffix := strings.SplitN(contract.ContractNumber, "-", 2)[1]

	monthly := model.ContractTypeMonthly
	rent := int64(1200000)
	updated, err := f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Type:        &monthly,
		MonthlyRent: &rent,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContractTypeMonthly, updated.Type)
	assert.Equal(t, "MS-"+suffix, updated.ContractNumber)
	assert.Nil(t, updated.ClosingDate)
	assert.Equal(t, rent, updated.MonthlyRent)

	// 현재 유형이 월세이므로 완료해도 소유권은 그대로다
	_, err = f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, f.seller.ID, f.propertyOwner(t))
}

func TestContractService_Delete_CascadesSchedules(t *testing.T) {
	f := setupContractServiceTest(t)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	for _, title := range []string{"계약서 작성", "잔금"} {
		require.NoError(t, f.db.Create(&model.Schedule{
			Title:          title,
			Type:           model.ScheduleTypeMeeting,
			StartAt:        time.Now().Add(48 * time.Hour),
			ContractID:     &contract.ID,
			UserID:         f.owner.ID,
			BusinessNumber: testBusinessNumber,
		}).Error)
	}
	require.NoError(t, f.db.Create(&model.Schedule{
		Title:          "무관한 일정",
		StartAt:        time.Now(),
		UserID:         f.owner.ID,
		BusinessNumber: testBusinessNumber,
	}).Error)

	// 레벨 1 비당사자는 삭제 불가
	_, err = f.service.DeleteContract(f.member, contract.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	removed, err := f.service.DeleteContract(f.owner, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var remaining int64
	f.db.Model(&model.Schedule{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)

	_, err = f.service.GetContract(f.owner, contract.ID)
	assert.ErrorIs(t, err, ErrContractNotFound)
	assert.Contains(t, f.publisher.Types(), queue.RoutingContractDeleted)
}

func TestContractService_DeleteCompletedSale_KeepsOwner(t *testing.T) {
	f := setupContractServiceTest(t)

	input := f.saleInput()
	input.Status = statusPtr(model.ContractStatusCompleted)
	contract, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)

	_, err = f.service.DeleteContract(f.owner, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, f.buyer.ID, f.propertyOwner(t))
}

func TestContractService_NotifiesAgentExceptActor(t *testing.T) {
	f := setupContractServiceTest(t)

	manager := createTestUser(t, f.db, "manager@example.com", model.LevelManager, testBusinessNumber)
	input := f.saleInput()
	input.AgentID = &manager.ID

	_, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)

	var notifications []model.Notification
	require.NoError(t, f.db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, manager.ID, notifications[0].UserID)
	assert.Equal(t, model.NotificationTypeContractCreated, notifications[0].Type)
}

func TestContractPatch_Changes(t *testing.T) {
	commission := int64(100)
	contract := &model.Contract{
		Type:         model.ContractTypeSale,
		Status:       model.ContractStatusCompleted,
		Price:        1000,
		Commission:   &commission,
		ContractDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	same := int64(1000)
	other := int64(2000)
	assert.False(t, ContractPatch{}.changes(contract))
	assert.False(t, ContractPatch{Price: &same, Status: statusPtr(model.ContractStatusCompleted)}.changes(contract))
	assert.True(t, ContractPatch{Price: &other}.changes(contract))
	assert.True(t, ContractPatch{Status: statusPtr(model.ContractStatusCancelled)}.changes(contract))

	unlink := uint(0)
	assert.False(t, ContractPatch{PropertyID: &unlink}.changes(contract))
}

func TestClearFieldsForType(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	base := func(contractType model.ContractType) *model.Contract {
		return &model.Contract{
			Type:        contractType,
			Deposit:     50000000,
			MonthlyRent: 800000,
			ClosingDate: &day,
			StartDate:   &day,
			EndDate:     &day,
		}
	}

	sale := base(model.ContractTypeSale)
	clearFieldsForType(sale)
	assert.Zero(t, sale.Deposit)
	assert.Zero(t, sale.MonthlyRent)
	assert.Nil(t, sale.StartDate)
	assert.NotNil(t, sale.ClosingDate)

	monthly := base(model.ContractTypeMonthly)
	clearFieldsForType(monthly)
	assert.Nil(t, monthly.ClosingDate)
	assert.Equal(t, int64(800000), monthly.MonthlyRent)

	jeonse := base(model.ContractTypeJeonse)
	clearFieldsForType(jeonse)
	assert.Nil(t, jeonse.ClosingDate)
	assert.Zero(t, jeonse.MonthlyRent)
	assert.Equal(t, int64(50000000), jeonse.Deposit)

	generic := base(model.ContractTypeGeneric)
	clearFieldsForType(generic)
	assert.NotNil(t, generic.ClosingDate)
	assert.Equal(t, int64(800000), generic.MonthlyRent)
}
