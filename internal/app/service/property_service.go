package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/storage"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrPropertyNotFound   = errors.New("property not found")
	ErrStorageUnavailable = errors.New("file storage is not configured")
)

// PropertyInput 매물 등록/수정 입력. 수정 시 nil 필드는 유지되며 소유자는 바뀌지 않는다.
type PropertyInput struct {
	Title         *string
	Address       *string
	AddressDetail *string
	Type          *model.PropertyType
	Price         *int64
	Deposit       *int64
	MonthlyRent   *int64
	Area          *float64
	Description   *string
	ImageURL      *string
	OwnerID       *uint // 등록 시에만 사용
}

type PropertyListFilter struct {
	Type     *model.PropertyType
	OwnerID  *uint
	Search   string
	Page     int
	PageSize int
}

type PropertyService interface {
	CreateProperty(actor *model.User, input PropertyInput) (*model.Property, error)
	GetProperty(actor *model.User, id uint) (*model.Property, error)
	ListProperties(actor *model.User, filter PropertyListFilter) ([]model.Property, int64, error)
	UpdateProperty(actor *model.User, id uint, input PropertyInput) (*model.Property, error)
	DeleteProperty(actor *model.User, id uint) error
	ListTransfers(actor *model.User, id uint) ([]model.OwnershipTransfer, error)
	PresignImageUpload(actor *model.User, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type propertyService struct {
	propertyRepo repository.PropertyRepository
	customerRepo repository.CustomerRepository
	contractRepo repository.ContractRepository
	activityRepo repository.ActivityRepository
	presigner    storage.Presigner
}

// NewPropertyService presigner 가 nil 이면 이미지 업로드 URL 발급을 하지 않는다.
func NewPropertyService(
	propertyRepo repository.PropertyRepository,
	customerRepo repository.CustomerRepository,
	contractRepo repository.ContractRepository,
	activityRepo repository.ActivityRepository,
	presigner storage.Presigner,
) PropertyService {
	return &propertyService{
		propertyRepo: propertyRepo,
		customerRepo: customerRepo,
		contractRepo: contractRepo,
		activityRepo: activityRepo,
		presigner:    presigner,
	}
}

func (s *propertyService) applyInput(property *model.Property, input PropertyInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return apperrors.NewValidationError("title", apperrors.ValidationRequired, "매물명을 입력해주세요")
		}
		property.Title = title
	}
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return apperrors.NewValidationError("address", apperrors.ValidationRequired, "주소를 입력해주세요")
		}
		property.Address = address
	}
	if input.AddressDetail != nil {
		property.AddressDetail = *input.AddressDetail
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return apperrors.NewValidationError("type", apperrors.ValidationInvalidInput, "매물 유형이 올바르지 않습니다")
		}
		property.Type = *input.Type
	}
	if input.Price != nil {
		property.Price = *input.Price
	}
	if input.Deposit != nil {
		property.Deposit = *input.Deposit
	}
	if input.MonthlyRent != nil {
		property.MonthlyRent = *input.MonthlyRent
	}
	if input.Area != nil {
		property.Area = *input.Area
	}
	if input.Description != nil {
		property.Description = *input.Description
	}
	if input.ImageURL != nil {
		property.ImageURL = *input.ImageURL
	}

	if property.Price < 0 || property.Deposit < 0 || property.MonthlyRent < 0 {
		return apperrors.NewValidationError("price", apperrors.ValidationInvalidRange, "금액은 0 이상이어야 합니다")
	}
	return nil
}

func (s *propertyService) CreateProperty(actor *model.User, input PropertyInput) (*model.Property, error) {
	logger.Info("Creating property", map[string]interface{}{
		"user_id": actor.ID,
	})

	if input.Title == nil || input.Address == nil || input.Type == nil {
		return nil, apperrors.NewValidationError("title", apperrors.ValidationRequired, "매물명, 주소, 유형은 필수입니다")
	}

	property := &model.Property{
		BusinessNumber: actor.BusinessNumber,
		CreatedByID:    actor.ID,
	}
	if err := s.applyInput(property, input); err != nil {
		return nil, err
	}

	if input.OwnerID != nil {
		owner, err := s.customerRepo.FindByID(*input.OwnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewValidationError("owner_id", apperrors.CustomerNotFound, "소유자 고객을 찾을 수 없습니다")
			}
			return nil, err
		}
		if owner.BusinessNumber != actor.BusinessNumber {
			return nil, apperrors.NewValidationError("owner_id", apperrors.CustomerNotFound, "소유자 고객을 찾을 수 없습니다")
		}
		property.OwnerID = &owner.ID
	}

	if err := s.propertyRepo.Create(property); err != nil {
		return nil, err
	}

	entry := newActivity(actor, model.ActivityPropertyCreated, "property", property.ID, "%s", property.Title)
	if err := s.activityRepo.Create(entry); err != nil {
		logger.Warn("Failed to record property activity", map[string]interface{}{
			"property_id": property.ID,
			"error":       err.Error(),
		})
	}

	logger.Info("Property created", map[string]interface{}{
		"property_id": property.ID,
		"owner_id":    property.OwnerID,
	})
	return property, nil
}

func (s *propertyService) GetProperty(actor *model.User, id uint) (*model.Property, error) {
	property, err := s.propertyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	if scope := scopeFor(actor); scope != "" && property.BusinessNumber != scope {
		return nil, ErrPropertyNotFound
	}
	return property, nil
}

func (s *propertyService) ListProperties(actor *model.User, filter PropertyListFilter) ([]model.Property, int64, error) {
	limit, offset := normalizePage(filter.Page, filter.PageSize)
	return s.propertyRepo.FindWithFilter(repository.PropertyFilter{
		BusinessNumber: scopeFor(actor),
		Type:           filter.Type,
		OwnerID:        filter.OwnerID,
		Search:         filter.Search,
		Limit:          limit,
		Offset:         offset,
	})
}

func (s *propertyService) UpdateProperty(actor *model.User, id uint, input PropertyInput) (*model.Property, error) {
	property, err := s.GetProperty(actor, id)
	if err != nil {
		return nil, err
	}
	if input.OwnerID != nil && (property.OwnerID == nil || *input.OwnerID != *property.OwnerID) {
		logger.Warn("Owner change through property update ignored", map[string]interface{}{
			"property_id": id,
			"user_id":     actor.ID,
		})
	}
	input.OwnerID = nil

	if err := s.applyInput(property, input); err != nil {
		return nil, err
	}
	if err := s.propertyRepo.Update(property); err != nil {
		return nil, err
	}

	logger.Info("Property updated", map[string]interface{}{
		"property_id": id,
		"user_id":     actor.ID,
	})
	return property, nil
}

// DeleteProperty 진행중 계약이 걸린 매물은 삭제할 수 없다.
func (s *propertyService) DeleteProperty(actor *model.User, id uint) error {
	if err := authz.CanDeleteDirectoryEntry(actor); err != nil {
		return err
	}
	property, err := s.GetProperty(actor, id)
	if err != nil {
		return err
	}

	inProgress, err := s.contractRepo.CountInProgressByProperty(id)
	if err != nil {
		return err
	}
	if inProgress > 0 {
		logger.Warn("Property delete refused: in-progress contracts", map[string]interface{}{
			"property_id": id,
			"contracts":   inProgress,
		})
		return apperrors.NewConflictError(apperrors.ResourceInUse, "진행중인 계약이 있는 매물은 삭제할 수 없습니다")
	}

	if err := s.propertyRepo.Delete(id); err != nil {
		return err
	}

	entry := newActivity(actor, model.ActivityPropertyDeleted, "property", id, "%s", property.Title)
	if err := s.activityRepo.Create(entry); err != nil {
		logger.Warn("Failed to record property activity", map[string]interface{}{
			"property_id": id,
			"error":       err.Error(),
		})
	}
	return nil
}

// ListTransfers 소유권 이전 이력 (최신순)
func (s *propertyService) ListTransfers(actor *model.User, id uint) ([]model.OwnershipTransfer, error) {
	if _, err := s.GetProperty(actor, id); err != nil {
		return nil, err
	}
	return s.propertyRepo.FindTransfers(id)
}

func (s *propertyService) PresignImageUpload(actor *model.User, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if s.presigner == nil {
		return nil, ErrStorageUnavailable
	}
	if err := storage.ValidateContentType(storage.FolderPropertyImages, contentType); err != nil {
		return nil, apperrors.NewValidationError("content_type", apperrors.UploadInvalidFileType, "jpg, png, webp 이미지만 업로드할 수 있습니다")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := s.presigner.PresignUpload(ctx, storage.FolderPropertyImages, filename, contentType)
	if err != nil {
		logger.Error("Failed to presign property image upload", err, map[string]interface{}{
			"user_id": actor.ID,
		})
		return nil, err
	}
	return resp, nil
}
