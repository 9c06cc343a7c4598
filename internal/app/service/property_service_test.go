package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	folder string
}

func (p *fakePresigner) PresignUpload(_ context.Context, folder, filename, contentType string) (*storage.PresignedURLResponse, error) {
	p.folder = folder
	return &storage.PresignedURLResponse{
		UploadURL: "https://bucket.s3/" + folder + "/" + filename + "?sig",
		FileURL:   "https://cdn/" + folder + "/" + filename,
		Key:       folder + "/" + filename,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func setupPropertyServiceTest(t *testing.T, presigner storage.Presigner) (PropertyService, *contractFixture) {
	f := setupContractServiceTest(t)
	propertyService := NewPropertyService(
		repository.NewPropertyRepository(f.db),
		repository.NewCustomerRepository(f.db),
		repository.NewContractRepository(f.db),
		repository.NewActivityRepository(f.db),
		presigner,
	)
	return propertyService, f
}

func TestPropertyService_CreateProperty(t *testing.T) {
	propertyService, f := setupPropertyServiceTest(t, nil)

	saleType := model.PropertyTypeSale
	price := int64(800000000)
	property, err := propertyService.CreateProperty(f.staff, PropertyInput{
		Title:   strPtr("자이 203동 502호"),
		Address: strPtr("서울시 마포구 월드컵로 10"),
		Type:    &saleType,
		Price:   &price,
		OwnerID: &f.buyer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, testBusinessNumber, property.BusinessNumber)
	require.NotNil(t, property.OwnerID)
	assert.Equal(t, f.buyer.ID, *property.OwnerID)

	_, err = propertyService.CreateProperty(f.staff, PropertyInput{Title: strPtr("주소 없음")})
	assert.True(t, apperrors.IsValidation(err))

	outsider := createTestCustomer(t, f.db, "타사 고객", otherBusinessNumber, f.owner.ID)
	_, err = propertyService.CreateProperty(f.staff, PropertyInput{
		Title:   strPtr("타사 매물"),
		Address: strPtr("부산시"),
		Type:    &saleType,
		OwnerID: &outsider.ID,
	})
	assert.True(t, apperrors.IsValidation(err))

	negative := int64(-1)
	_, err = propertyService.CreateProperty(f.staff, PropertyInput{
		Title:   strPtr("음수"),
		Address: strPtr("서울시"),
		Type:    &saleType,
		Price:   &negative,
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestPropertyService_UpdateNeverChangesOwner(t *testing.T) {
	propertyService, f := setupPropertyServiceTest(t, nil)

	title := "래미안 101동 1001호 (수리 완료)"
	updated, err := propertyService.UpdateProperty(f.staff, f.property.ID, PropertyInput{
		Title:   &title,
		OwnerID: &f.buyer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, f.seller.ID, f.propertyOwner(t))
}

func TestPropertyService_DeleteProperty(t *testing.T) {
	propertyService, f := setupPropertyServiceTest(t, nil)

	contract, err := f.service.CreateContract(f.owner, f.saleInput())
	require.NoError(t, err)

	err = propertyService.DeleteProperty(f.staff, f.property.ID)
	assert.True(t, apperrors.IsAuthorization(err))

	err = propertyService.DeleteProperty(f.owner, f.property.ID)
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.service.UpdateContract(f.owner, contract.ID, ContractPatch{
		Status: statusPtr(model.ContractStatusCancelled),
	})
	require.NoError(t, err)

	require.NoError(t, propertyService.DeleteProperty(f.owner, f.property.ID))
	_, err = propertyService.GetProperty(f.owner, f.property.ID)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestPropertyService_ListTransfers(t *testing.T) {
	propertyService, f := setupPropertyServiceTest(t, nil)

	input := f.saleInput()
	input.Status = statusPtr(model.ContractStatusCompleted)
	contract, err := f.service.CreateContract(f.owner, input)
	require.NoError(t, err)

	transfers, err := propertyService.ListTransfers(f.member, f.property.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, contract.ID, transfers[0].ContractID)
	assert.Equal(t, f.seller.ID, transfers[0].FromCustomerID)
	assert.Equal(t, f.buyer.ID, transfers[0].ToCustomerID)

	outsider := createTestUser(t, f.db, "outsider@example.com", model.LevelOwner, otherBusinessNumber)
	_, err = propertyService.ListTransfers(outsider, f.property.ID)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestPropertyService_PresignImageUpload(t *testing.T) {
	_, f := setupPropertyServiceTest(t, nil)
	noStorage := NewPropertyService(nil, nil, nil, nil, nil)
	_, err := noStorage.PresignImageUpload(f.owner, "a.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	presigner := &fakePresigner{}
	propertyService, _ := setupPropertyServiceTest(t, presigner)

	_, err = propertyService.PresignImageUpload(f.owner, "a.pdf", "application/pdf")
	assert.True(t, apperrors.IsValidation(err))

	resp, err := propertyService.PresignImageUpload(f.owner, "a.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, storage.FolderPropertyImages, presigner.folder)
	assert.Contains(t, resp.FileURL, "a.jpg")
}
