package service

import (
	"testing"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCustomerServiceTest(t *testing.T) (CustomerService, *contractFixture) {
	f := setupContractServiceTest(t)
	customerService := NewCustomerService(
		repository.NewCustomerRepository(f.db),
		repository.NewActivityRepository(f.db),
	)
	return customerService, f
}

func strPtr(s string) *string { return &s }

func TestCustomerService_CreateCustomer(t *testing.T) {
	customerService, f := setupCustomerServiceTest(t)

	customer, err := customerService.CreateCustomer(f.staff, CustomerInput{
		Name:  strPtr("  김매수  "),
		Phone: strPtr("010-1111-2222"),
	})
	require.NoError(t, err)
	assert.Equal(t, "김매수", customer.Name)
	assert.Equal(t, model.CustomerTypeOther, customer.Type)
	assert.Equal(t, model.CustomerStatusActive, customer.Status)
	assert.Equal(t, testBusinessNumber, customer.BusinessNumber)
	assert.Equal(t, f.staff.ID, customer.CreatedByID)

	_, err = customerService.CreateCustomer(f.staff, CustomerInput{Name: strPtr(" ")})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCustomerService_Scoping(t *testing.T) {
	customerService, f := setupCustomerServiceTest(t)
	outsider := createTestUser(t, f.db, "outsider@example.com", model.LevelOwner, otherBusinessNumber)
	admin := createTestUser(t, f.db, "admin@example.com", model.LevelSystemAdmin, otherBusinessNumber)

	_, err := customerService.GetCustomer(outsider, f.buyer.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	customers, total, err := customerService.ListCustomers(outsider, CustomerListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, customers)

	seller, err := customerService.GetCustomer(admin, f.seller.ID)
	require.NoError(t, err)
	assert.Len(t, seller.Properties, 1)

	_, total, err = customerService.ListCustomers(admin, CustomerListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestCustomerService_ListSelectable(t *testing.T) {
	customerService, f := setupCustomerServiceTest(t)
	inactive := createTestCustomer(t, f.db, "휴면", testBusinessNumber, f.owner.ID)
	_, err := customerService.SetStatus(f.owner, inactive.ID, model.CustomerStatusInactive)
	require.NoError(t, err)

	// 레벨 2 는 선택 가능한 고객이 없다
	selectable, err := customerService.ListSelectable(f.staff, "")
	require.NoError(t, err)
	assert.Empty(t, selectable)

	selectable, err = customerService.ListSelectable(f.owner, "")
	require.NoError(t, err)
	assert.Len(t, selectable, 2)
	for _, c := range selectable {
		assert.NotEqual(t, inactive.ID, c.ID)
	}
}

func TestCustomerService_LockedCustomer(t *testing.T) {
	customerService, f := setupCustomerServiceTest(t)
	admin := createTestUser(t, f.db, "admin@example.com", model.LevelSystemAdmin, testBusinessNumber)

	locked := true
	_, err := customerService.UpdateCustomer(f.owner, f.buyer.ID, CustomerInput{Locked: &locked})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	_, err = customerService.UpdateCustomer(admin, f.buyer.ID, CustomerInput{Locked: &locked})
	require.NoError(t, err)

	_, err = customerService.SetStatus(f.owner, f.buyer.ID, model.CustomerStatusInactive)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	updated, err := customerService.SetStatus(admin, f.buyer.ID, model.CustomerStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, model.CustomerStatusInactive, updated.Status)

	// 비활성 고객은 잠금과 관계없이 다시 활성화할 수 있다
	updated, err = customerService.SetStatus(f.owner, f.buyer.ID, model.CustomerStatusActive)
	require.NoError(t, err)
	assert.Equal(t, model.CustomerStatusActive, updated.Status)

	_, err = customerService.SetStatus(f.owner, f.buyer.ID, "deleted")
	assert.True(t, apperrors.IsValidation(err))
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	customerService, f := setupCustomerServiceTest(t)

	err := customerService.DeleteCustomer(f.staff, f.buyer.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	// 매물 소유자는 삭제 불가
	err = customerService.DeleteCustomer(f.owner, f.seller.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	require.NoError(t, customerService.DeleteCustomer(f.owner, f.buyer.ID))
	_, err = customerService.GetCustomer(f.owner, f.buyer.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}
