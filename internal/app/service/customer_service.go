package service

import (
	"errors"
	"strings"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/ikkim/budongsan-crm/pkg/util"
	"gorm.io/gorm"
)

var ErrCustomerNotFound = errors.New("customer not found")

// CustomerInput 고객 등록/수정 입력. 수정 시 nil 필드는 유지된다.
type CustomerInput struct {
	Name   *string
	Type   *model.CustomerType
	Phone  *string
	Email  *string
	Memo   *string
	Locked *bool
	UserID *uint
}

type CustomerListFilter struct {
	Type     *model.CustomerType
	Status   *model.CustomerStatus
	Search   string
	Page     int
	PageSize int
}

type CustomerService interface {
	CreateCustomer(actor *model.User, input CustomerInput) (*model.Customer, error)
	GetCustomer(actor *model.User, id uint) (*model.Customer, error)
	ListCustomers(actor *model.User, filter CustomerListFilter) ([]model.Customer, int64, error)
	ListSelectable(actor *model.User, search string) ([]model.Customer, error)
	UpdateCustomer(actor *model.User, id uint, input CustomerInput) (*model.Customer, error)
	SetStatus(actor *model.User, id uint, status model.CustomerStatus) (*model.Customer, error)
	DeleteCustomer(actor *model.User, id uint) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	activityRepo repository.ActivityRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository, activityRepo repository.ActivityRepository) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		activityRepo: activityRepo,
	}
}

// scopeFor 시스템 관리자는 전체 회사, 그 외에는 소속 회사만
func scopeFor(actor *model.User) string {
	if actor.Level >= model.LevelSystemAdmin {
		return ""
	}
	return actor.BusinessNumber
}

func (s *customerService) applyInput(actor *model.User, customer *model.Customer, input CustomerInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return apperrors.NewValidationError("name", apperrors.ValidationRequired, "고객 이름을 입력해주세요")
		}
		customer.Name = name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return apperrors.NewValidationError("type", apperrors.ValidationInvalidInput, "고객 유형이 올바르지 않습니다")
		}
		customer.Type = *input.Type
	}
	if input.Phone != nil {
		if *input.Phone == "" {
			customer.Phone = ""
		} else {
			phone, ok := util.NormalizePhone(*input.Phone)
			if !ok {
				return apperrors.NewValidationError("phone", apperrors.AuthInvalidPhone, "휴대폰 번호 형식이 올바르지 않습니다")
			}
			customer.Phone = phone
		}
	}
	if input.Email != nil {
		customer.Email = strings.TrimSpace(*input.Email)
	}
	if input.Memo != nil {
		customer.Memo = *input.Memo
	}
	if input.Locked != nil && *input.Locked != customer.Locked {
		if err := authz.CanDeactivateLockedCustomer(actor); err != nil {
			return err
		}
		customer.Locked = *input.Locked
	}
	if input.UserID != nil {
		if *input.UserID == 0 {
			customer.UserID = nil
		} else {
			id := *input.UserID
			customer.UserID = &id
		}
	}
	return nil
}

func (s *customerService) CreateCustomer(actor *model.User, input CustomerInput) (*model.Customer, error) {
	logger.Info("Creating customer", map[string]interface{}{
		"user_id": actor.ID,
	})

	customer := &model.Customer{
		Type:           model.CustomerTypeOther,
		Status:         model.CustomerStatusActive,
		BusinessNumber: actor.BusinessNumber,
		CreatedByID:    actor.ID,
	}
	if input.Name == nil {
		return nil, apperrors.NewValidationError("name", apperrors.ValidationRequired, "고객 이름을 입력해주세요")
	}
	if err := s.applyInput(actor, customer, input); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Create(customer); err != nil {
		return nil, err
	}

	logger.Info("Customer created", map[string]interface{}{
		"customer_id": customer.ID,
		"type":        customer.Type,
	})
	return customer, nil
}

func (s *customerService) findVisible(actor *model.User, id uint, withProperties bool) (*model.Customer, error) {
	var (
		customer *model.Customer
		err      error
	)
	if withProperties {
		customer, err = s.customerRepo.FindByIDWithProperties(id)
	} else {
		customer, err = s.customerRepo.FindByID(id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	if scope := scopeFor(actor); scope != "" && customer.BusinessNumber != scope {
		logger.Warn("Customer hidden from other company", map[string]interface{}{
			"customer_id": id,
			"user_id":     actor.ID,
		})
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetCustomer 소유 매물을 포함한 고객 상세
func (s *customerService) GetCustomer(actor *model.User, id uint) (*model.Customer, error) {
	return s.findVisible(actor, id, true)
}

func (s *customerService) ListCustomers(actor *model.User, filter CustomerListFilter) ([]model.Customer, int64, error) {
	limit, offset := normalizePage(filter.Page, filter.PageSize)
	return s.customerRepo.FindWithFilter(repository.CustomerFilter{
		BusinessNumber: scopeFor(actor),
		Type:           filter.Type,
		Status:         filter.Status,
		Search:         filter.Search,
		Limit:          limit,
		Offset:         offset,
	})
}

// ListSelectable 계약 당사자로 선택 가능한 고객만 반환한다.
func (s *customerService) ListSelectable(actor *model.User, search string) ([]model.Customer, error) {
	active := model.CustomerStatusActive
	candidates, _, err := s.customerRepo.FindWithFilter(repository.CustomerFilter{
		BusinessNumber: scopeFor(actor),
		Status:         &active,
		Search:         search,
		Limit:          100,
	})
	if err != nil {
		return nil, err
	}

	selectable := make([]model.Customer, 0, len(candidates))
	for i := range candidates {
		if authz.CanSelectCustomer(actor, &candidates[i]) == nil {
			selectable = append(selectable, candidates[i])
		}
	}
	return selectable, nil
}

func (s *customerService) UpdateCustomer(actor *model.User, id uint, input CustomerInput) (*model.Customer, error) {
	customer, err := s.findVisible(actor, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.applyInput(actor, customer, input); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}

	logger.Info("Customer updated", map[string]interface{}{
		"customer_id": id,
		"user_id":     actor.ID,
	})
	return customer, nil
}

// SetStatus 잠긴 고객의 비활성화는 시스템 관리자만 가능하다.
func (s *customerService) SetStatus(actor *model.User, id uint, status model.CustomerStatus) (*model.Customer, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", apperrors.ValidationInvalidInput, "고객 상태가 올바르지 않습니다")
	}

	customer, err := s.findVisible(actor, id, false)
	if err != nil {
		return nil, err
	}
	if customer.Status == status {
		return customer, nil
	}
	if status == model.CustomerStatusInactive && customer.Locked {
		if err := authz.CanDeactivateLockedCustomer(actor); err != nil {
			logger.Warn("Locked customer deactivation denied", map[string]interface{}{
				"customer_id": id,
				"user_id":     actor.ID,
			})
			return nil, err
		}
	}

	if err := s.customerRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	customer.Status = status

	entry := newActivity(actor, model.ActivityCustomerStatus, "customer", id, "%s → %s", customer.Name, status)
	if err := s.activityRepo.Create(entry); err != nil {
		logger.Warn("Failed to record customer status activity", map[string]interface{}{
			"customer_id": id,
			"error":       err.Error(),
		})
	}

	logger.Info("Customer status changed", map[string]interface{}{
		"customer_id": id,
		"status":      status,
	})
	return customer, nil
}

// DeleteCustomer 매물을 소유한 고객은 삭제할 수 없다.
func (s *customerService) DeleteCustomer(actor *model.User, id uint) error {
	if err := authz.CanDeleteDirectoryEntry(actor); err != nil {
		return err
	}
	customer, err := s.findVisible(actor, id, false)
	if err != nil {
		return err
	}

	owned, err := s.customerRepo.CountOwnedProperties(id)
	if err != nil {
		return err
	}
	if owned > 0 {
		logger.Warn("Customer delete refused: owns properties", map[string]interface{}{
			"customer_id": id,
			"properties":  owned,
		})
		return apperrors.NewConflictError(apperrors.ResourceInUse, "매물을 소유한 고객은 삭제할 수 없습니다")
	}

	if err := s.customerRepo.Delete(customer.ID); err != nil {
		return err
	}
	logger.Info("Customer deleted", map[string]interface{}{
		"customer_id": id,
		"user_id":     actor.ID,
	})
	return nil
}
