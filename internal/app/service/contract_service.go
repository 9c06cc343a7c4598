package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/ikkim/budongsan-crm/pkg/queue"
	"gorm.io/gorm"
)

var ErrContractNotFound = errors.New("contract not found")

// ContractInput 계약 등록 입력
type ContractInput struct {
	Type         model.ContractType
	PropertyID   *uint
	BuyerID      uint
	SellerID     uint
	AgentID      *uint // 비어 있으면 등록자
	Price        int64
	Commission   *int64
	Deposit      int64
	MonthlyRent  int64
	ContractDate *time.Time // 비어 있으면 오늘
	ClosingDate  *time.Time
	StartDate    *time.Time
	EndDate      *time.Time
	Status       *model.ContractStatus // 비어 있으면 진행중
	Notes        string
}

// ContractPatch 계약 수정 입력. nil 필드는 변경하지 않는다.
// PropertyID 에 0 을 넣으면 매물 연결을 해제한다.
type ContractPatch struct {
	Type         *model.ContractType
	PropertyID   *uint
	BuyerID      *uint
	SellerID     *uint
	AgentID      *uint
	Price        *int64
	Commission   *int64
	Deposit      *int64
	MonthlyRent  *int64
	ContractDate *time.Time
	ClosingDate  *time.Time
	StartDate    *time.Time
	EndDate      *time.Time
	Status       *model.ContractStatus
	Notes        *string
}

// changes reports whether applying the patch would alter the contract.
func (p ContractPatch) changes(c *model.Contract) bool {
	sameTime := func(patch, current *time.Time) bool {
		return current != nil && patch.Equal(*current)
	}
	switch {
	case p.Type != nil && *p.Type != c.Type,
		p.Status != nil && *p.Status != c.Status,
		p.BuyerID != nil && *p.BuyerID != c.BuyerID,
		p.SellerID != nil && *p.SellerID != c.SellerID,
		p.AgentID != nil && *p.AgentID != c.AgentID,
		p.Price != nil && *p.Price != c.Price,
		p.Commission != nil && (c.Commission == nil || *p.Commission != *c.Commission),
		p.Deposit != nil && *p.Deposit != c.Deposit,
		p.MonthlyRent != nil && *p.MonthlyRent != c.MonthlyRent,
		p.ContractDate != nil && !p.ContractDate.Equal(c.ContractDate),
		p.ClosingDate != nil && !sameTime(p.ClosingDate, c.ClosingDate),
		p.StartDate != nil && !sameTime(p.StartDate, c.StartDate),
		p.EndDate != nil && !sameTime(p.EndDate, c.EndDate),
		p.Notes != nil && *p.Notes != c.Notes:
		return true
	}
	if p.PropertyID != nil {
		if *p.PropertyID == 0 {
			return c.PropertyID != nil
		}
		return c.PropertyID == nil || *c.PropertyID != *p.PropertyID
	}
	return false
}

// ContractListFilter 계약 목록 조회 조건. 회사 범위는 요청자 기준으로 강제된다.
type ContractListFilter struct {
	Status     *model.ContractStatus
	Type       *model.ContractType
	PropertyID *uint
	Search     string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

type ContractService interface {
	CreateContract(actor *model.User, input ContractInput) (*model.Contract, error)
	GetContract(actor *model.User, id uint) (*model.Contract, error)
	ListContracts(actor *model.User, filter ContractListFilter) ([]model.Contract, int64, error)
	UpdateContract(actor *model.User, id uint, patch ContractPatch) (*model.Contract, error)
	DeleteContract(actor *model.User, id uint) (int64, error)
	ListTransfers(actor *model.User, id uint) ([]model.OwnershipTransfer, error)
}

type contractService struct {
	db           *gorm.DB
	contractRepo repository.ContractRepository
	customerRepo repository.CustomerRepository
	propertyRepo repository.PropertyRepository
	userRepo     repository.UserRepository
	scheduleRepo repository.ScheduleRepository
	activityRepo repository.ActivityRepository
	notifier     NotificationService
	publisher    queue.Publisher
	now          func() time.Time
}

func NewContractService(
	db *gorm.DB,
	contractRepo repository.ContractRepository,
	customerRepo repository.CustomerRepository,
	propertyRepo repository.PropertyRepository,
	userRepo repository.UserRepository,
	scheduleRepo repository.ScheduleRepository,
	activityRepo repository.ActivityRepository,
	notifier NotificationService,
	publisher queue.Publisher,
) ContractService {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	return &contractService{
		db:           db,
		contractRepo: contractRepo,
		customerRepo: customerRepo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		scheduleRepo: scheduleRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
		publisher:    publisher,
		now:          time.Now,
	}
}

// contractEvent 큐로 발행되는 계약 이벤트 본문
type contractEvent struct {
	ContractID       uint                 `json:"contract_id"`
	ContractNumber   string               `json:"contract_number"`
	Type             model.ContractType   `json:"type"`
	Status           model.ContractStatus `json:"status"`
	BusinessNumber   string               `json:"business_number"`
	PropertyID       *uint                `json:"property_id,omitempty"`
	BuyerID          uint                 `json:"buyer_id"`
	SellerID         uint                 `json:"seller_id"`
	ActorID          uint                 `json:"actor_id"`
	RemovedSchedules int64                `json:"removed_schedules,omitempty"`
}

func newContractEvent(actor *model.User, contract *model.Contract) contractEvent {
	return contractEvent{
		ContractID:     contract.ID,
		ContractNumber: contract.ContractNumber,
		Type:           contract.Type,
		Status:         contract.Status,
		BusinessNumber: contract.BusinessNumber,
		PropertyID:     contract.PropertyID,
		BuyerID:        contract.BuyerID,
		SellerID:       contract.SellerID,
		ActorID:        actor.ID,
	}
}

// generateContractNumber PREFIX-YYYYMMDD-XXXXXX
func generateContractNumber(contractType model.ContractType, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", contractType.NumberPrefix(), at.Format("20060102"), suffix)
}

// renumber swaps the type prefix and keeps the date and suffix.
func renumber(number string, contractType model.ContractType, at time.Time) string {
	_, rest, found := strings.Cut(number, "-")
	if !found || rest == "" {
		return generateContractNumber(contractType, at)
	}
	return contractType.NumberPrefix() + "-" + rest
}

// clearFieldsForType zeroes the fields that do not apply to the contract's current type.
// Generic contracts keep everything.
func clearFieldsForType(contract *model.Contract) {
	switch {
	case contract.Type == model.ContractTypeSale:
		contract.Deposit = 0
		contract.MonthlyRent = 0
		contract.StartDate = nil
		contract.EndDate = nil
	case contract.Type.IsLease():
		contract.ClosingDate = nil
		if contract.Type == model.ContractTypeJeonse {
			contract.MonthlyRent = 0
		}
	}
}

func validateContractFields(contract *model.Contract) error {
	switch {
	case !contract.Type.Valid():
		return apperrors.NewValidationError("type", apperrors.ValidationInvalidInput, "계약 유형이 올바르지 않습니다")
	case contract.BuyerID == 0:
		return apperrors.NewValidationError("buyer_id", apperrors.ValidationRequired, "매수인(임차인)을 선택해주세요")
	case contract.SellerID == 0:
		return apperrors.NewValidationError("seller_id", apperrors.ValidationRequired, "매도인(임대인)을 선택해주세요")
	case contract.BuyerID == contract.SellerID:
		return apperrors.NewValidationError("seller_id", apperrors.ValidationInvalidInput, "매수인과 매도인은 같은 고객일 수 없습니다")
	case contract.Type.RequiresProperty() && contract.PropertyID == nil:
		return apperrors.NewValidationError("property_id", apperrors.ValidationRequired, "매매/월세/전세 계약은 매물을 선택해야 합니다")
	case contract.Price < 0 || contract.Deposit < 0 || contract.MonthlyRent < 0:
		return apperrors.NewValidationError("price", apperrors.ValidationInvalidRange, "금액은 0 이상이어야 합니다")
	case contract.Commission != nil && *contract.Commission < 0:
		return apperrors.NewValidationError("commission", apperrors.ValidationInvalidRange, "중개보수는 0 이상이어야 합니다")
	case contract.ContractDate.IsZero():
		return apperrors.NewValidationError("contract_date", apperrors.ValidationRequired, "계약일을 입력해주세요")
	case contract.StartDate != nil && contract.EndDate != nil && contract.EndDate.Before(*contract.StartDate):
		return apperrors.NewValidationError("end_date", apperrors.ValidationInvalidRange, "임대 종료일은 시작일 이후여야 합니다")
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// resolveParty loads a buyer or seller and checks that the actor may select it.
func (s *contractService) resolveParty(tx *gorm.DB, actor *model.User, customerID uint, field string) (*model.Customer, error) {
	customer, err := s.customerRepo.WithTx(tx).FindByID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError(field, apperrors.CustomerNotFound, "고객을 찾을 수 없습니다")
		}
		return nil, err
	}
	if !customer.IsActive() {
		logger.Warn("Inactive customer selected as contract party", map[string]interface{}{
			"customer_id": customerID,
			"field":       field,
		})
		return nil, apperrors.NewValidationError(field, apperrors.CustomerInactive, "비활성 고객은 계약 당사자로 선택할 수 없습니다")
	}
	if err := authz.CanSelectCustomer(actor, customer); err != nil {
		logger.Warn("Customer selection denied", map[string]interface{}{
			"customer_id": customerID,
			"user_id":     actor.ID,
			"level":       actor.Level,
		})
		return nil, err
	}
	return customer, nil
}

func (s *contractService) resolveProperty(tx *gorm.DB, actor *model.User, propertyID uint) (*model.Property, error) {
	property, err := s.propertyRepo.WithTx(tx).FindByID(propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("property_id", apperrors.PropertyNotFound, "매물을 찾을 수 없습니다")
		}
		return nil, err
	}
	if actor.Level < model.LevelSystemAdmin {
		if err := authz.SameCompany(actor, property.BusinessNumber); err != nil {
			return nil, err
		}
	}
	return property, nil
}

func (s *contractService) resolveAgent(tx *gorm.DB, actor *model.User, agentID uint) error {
	if agentID == actor.ID {
		return nil
	}
	agent, err := s.userRepo.WithTx(tx).FindByID(agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewValidationError("agent_id", apperrors.MemberNotFound, "담당 중개인을 찾을 수 없습니다")
		}
		return err
	}
	if agent.BusinessNumber != actor.BusinessNumber {
		return apperrors.NewValidationError("agent_id", apperrors.MemberNotFound, "담당 중개인을 찾을 수 없습니다")
	}
	return nil
}

// applyStatus is the only place a contract's status changes. Entering completed
// stamps CompletedAt and, for sale contracts, moves the property to the buyer.
// It reports whether the contract became completed by this call.
func (s *contractService) applyStatus(tx *gorm.DB, actor *model.User, contract *model.Contract, next model.ContractStatus) (bool, error) {
	if !next.Valid() {
		return false, apperrors.NewValidationError("status", apperrors.ValidationInvalidInput, "계약 상태가 올바르지 않습니다")
	}

	prev := contract.Status
	contract.Status = next
	if prev == model.ContractStatusCompleted || next != model.ContractStatusCompleted {
		return false, nil
	}

	completedAt := s.now()
	contract.CompletedAt = &completedAt
	if contract.Type == model.ContractTypeSale {
		if err := s.transferOwnership(tx, actor, contract); err != nil {
			return false, err
		}
	}
	return true, nil
}

// transferOwnership moves the property from the seller to the buyer at most once per contract.
func (s *contractService) transferOwnership(tx *gorm.DB, actor *model.User, contract *model.Contract) error {
	if contract.OwnershipTransferred {
		logger.Info("Ownership already transferred for contract", map[string]interface{}{
			"contract_id": contract.ID,
		})
		return nil
	}
	if contract.PropertyID == nil {
		return apperrors.NewValidationError("property_id", apperrors.ValidationRequired, "매매 계약은 매물을 선택해야 합니다")
	}

	propertyRepo := s.propertyRepo.WithTx(tx)
	recorded, err := propertyRepo.CountTransfersByContract(contract.ID)
	if err != nil {
		return err
	}
	if recorded > 0 {
		logger.Warn("Transfer row exists without ownership marker", map[string]interface{}{
			"contract_id": contract.ID,
		})
		return apperrors.NewConflictError(apperrors.ContractAlreadyTransfer, "이미 소유권이 이전된 계약입니다")
	}

	property, err := propertyRepo.FindByIDForUpdate(*contract.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewValidationError("property_id", apperrors.PropertyNotFound, "매물을 찾을 수 없습니다")
		}
		return err
	}

	if err := propertyRepo.TransferOwner(property.ID, contract.SellerID, contract.BuyerID); err != nil {
		if errors.Is(err, repository.ErrOwnerMismatch) {
			return apperrors.NewConflictError(apperrors.ContractOwnershipConflict, "매도인이 현재 소유자가 아니어서 소유권을 이전할 수 없습니다")
		}
		return err
	}

	transfer := &model.OwnershipTransfer{
		PropertyID:     property.ID,
		ContractID:     contract.ID,
		FromCustomerID: contract.SellerID,
		ToCustomerID:   contract.BuyerID,
		TransferredAt:  s.now(),
	}
	if err := propertyRepo.CreateTransfer(transfer); err != nil {
		// unique contract_id 는 DB 차원의 마지막 보호선이다. 위의 확인을 통과했다면 보통 도달하지 않는다.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflictError(apperrors.ContractAlreadyTransfer, "이미 소유권이 이전된 계약입니다")
		}
		return err
	}
	contract.OwnershipTransferred = true

	entry := newActivity(actor, model.ActivityOwnershipTransfer, "property", property.ID,
		"계약 %s: 고객 %d → 고객 %d", contract.ContractNumber, contract.SellerID, contract.BuyerID)
	if err := s.activityRepo.WithTx(tx).Create(entry); err != nil {
		return err
	}

	logger.Info("Property ownership transferred", map[string]interface{}{
		"contract_id": contract.ID,
		"property_id": property.ID,
		"from":        contract.SellerID,
		"to":          contract.BuyerID,
	})
	return nil
}

func (s *contractService) CreateContract(actor *model.User, input ContractInput) (*model.Contract, error) {
	logger.Info("Creating contract", map[string]interface{}{
		"user_id": actor.ID,
		"type":    input.Type,
	})

	if err := authz.CanCreateContract(actor); err != nil {
		logger.Warn("Contract creation denied", map[string]interface{}{
			"user_id": actor.ID,
			"level":   actor.Level,
		})
		return nil, err
	}

	now := s.now()
	contract := &model.Contract{
		Type:           input.Type,
		PropertyID:     input.PropertyID,
		BuyerID:        input.BuyerID,
		SellerID:       input.SellerID,
		AgentID:        actor.ID,
		Price:          input.Price,
		Commission:     input.Commission,
		Deposit:        input.Deposit,
		MonthlyRent:    input.MonthlyRent,
		ContractDate:   startOfDay(now),
		ClosingDate:    input.ClosingDate,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Status:         model.ContractStatusInProgress,
		Notes:          input.Notes,
		BusinessNumber: actor.BusinessNumber,
		CreatedByID:    actor.ID,
	}
	if input.AgentID != nil {
		contract.AgentID = *input.AgentID
	}
	if input.ContractDate != nil {
		contract.ContractDate = *input.ContractDate
	}

	target := model.ContractStatusInProgress
	if input.Status != nil {
		target = *input.Status
	}
	if !target.Valid() {
		return nil, apperrors.NewValidationError("status", apperrors.ValidationInvalidInput, "계약 상태가 올바르지 않습니다")
	}

	clearFieldsForType(contract)
	if err := validateContractFields(contract); err != nil {
		logger.Warn("Contract validation failed", map[string]interface{}{
			"user_id": actor.ID,
			"error":   err.Error(),
		})
		return nil, err
	}
	contract.ContractNumber = generateContractNumber(contract.Type, now)

	var completed bool
	err := runInTx(s.db, "create_contract", func(tx *gorm.DB) error {
		if _, err := s.resolveParty(tx, actor, contract.BuyerID, "buyer_id"); err != nil {
			return err
		}
		if _, err := s.resolveParty(tx, actor, contract.SellerID, "seller_id"); err != nil {
			return err
		}
		if contract.PropertyID != nil {
			if _, err := s.resolveProperty(tx, actor, *contract.PropertyID); err != nil {
				return err
			}
		}
		if err := s.resolveAgent(tx, actor, contract.AgentID); err != nil {
			return err
		}

		repo := s.contractRepo.WithTx(tx)
		if err := repo.Create(contract); err != nil {
			return err
		}

		if target != model.ContractStatusInProgress {
			var err error
			if completed, err = s.applyStatus(tx, actor, contract, target); err != nil {
				return err
			}
			if err := repo.Update(contract); err != nil {
				return err
			}
		}

		entry := newActivity(actor, model.ActivityContractCreated, "contract", contract.ID,
			"%s 계약 등록 (%s)", contract.ContractNumber, contract.Status)
		return s.activityRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Contract created", map[string]interface{}{
		"contract_id":     contract.ID,
		"contract_number": contract.ContractNumber,
		"status":          contract.Status,
		"transferred":     contract.OwnershipTransferred,
	})

	s.afterCommit(actor, contract, queue.RoutingContractCreated, 0)
	if completed {
		s.afterCommit(actor, contract, queue.RoutingContractCompleted, 0)
	}
	return s.reload(contract.ID)
}

func (s *contractService) reload(id uint) (*model.Contract, error) {
	contract, err := s.contractRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}
	return contract, nil
}

// GetContract 다른 회사의 계약은 존재하지 않는 것으로 취급한다.
func (s *contractService) GetContract(actor *model.User, id uint) (*model.Contract, error) {
	contract, err := s.reload(id)
	if err != nil {
		return nil, err
	}
	if contract.BusinessNumber != actor.BusinessNumber {
		logger.Warn("Contract hidden from other company", map[string]interface{}{
			"contract_id": id,
			"user_id":     actor.ID,
		})
		return nil, ErrContractNotFound
	}
	return contract, nil
}

func (s *contractService) ListContracts(actor *model.User, filter ContractListFilter) ([]model.Contract, int64, error) {
	limit, offset := normalizePage(filter.Page, filter.PageSize)
	return s.contractRepo.FindWithFilter(repository.ContractFilter{
		BusinessNumber: actor.BusinessNumber,
		Status:         filter.Status,
		Type:           filter.Type,
		PropertyID:     filter.PropertyID,
		Search:         filter.Search,
		From:           filter.From,
		To:             filter.To,
		Limit:          limit,
		Offset:         offset,
	})
}

func (s *contractService) applyPatch(tx *gorm.DB, actor *model.User, contract *model.Contract, patch ContractPatch) error {
	if patch.Type != nil && *patch.Type != contract.Type {
		if !patch.Type.Valid() {
			return apperrors.NewValidationError("type", apperrors.ValidationInvalidInput, "계약 유형이 올바르지 않습니다")
		}
		logger.Info("Contract type changed", map[string]interface{}{
			"contract_id": contract.ID,
			"from":        contract.Type,
			"to":          *patch.Type,
		})
		contract.Type = *patch.Type
		contract.ContractNumber = renumber(contract.ContractNumber, contract.Type, s.now())
	}

	if patch.PropertyID != nil {
		if *patch.PropertyID == 0 {
			contract.PropertyID = nil
		} else {
			if _, err := s.resolveProperty(tx, actor, *patch.PropertyID); err != nil {
				return err
			}
			id := *patch.PropertyID
			contract.PropertyID = &id
		}
		contract.Property = nil
	}
	if patch.BuyerID != nil && *patch.BuyerID != contract.BuyerID {
		if _, err := s.resolveParty(tx, actor, *patch.BuyerID, "buyer_id"); err != nil {
			return err
		}
		contract.BuyerID = *patch.BuyerID
		contract.Buyer = nil
	}
	if patch.SellerID != nil && *patch.SellerID != contract.SellerID {
		if _, err := s.resolveParty(tx, actor, *patch.SellerID, "seller_id"); err != nil {
			return err
		}
		contract.SellerID = *patch.SellerID
		contract.Seller = nil
	}
	if patch.AgentID != nil && *patch.AgentID != contract.AgentID {
		if err := s.resolveAgent(tx, actor, *patch.AgentID); err != nil {
			return err
		}
		contract.AgentID = *patch.AgentID
	}

	if patch.Price != nil {
		contract.Price = *patch.Price
	}
	if patch.Commission != nil {
		contract.Commission = patch.Commission
	}
	if patch.Deposit != nil {
		contract.Deposit = *patch.Deposit
	}
	if patch.MonthlyRent != nil {
		contract.MonthlyRent = *patch.MonthlyRent
	}
	if patch.ContractDate != nil {
		contract.ContractDate = *patch.ContractDate
	}
	if patch.ClosingDate != nil {
		contract.ClosingDate = patch.ClosingDate
	}
	if patch.StartDate != nil {
		contract.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		contract.EndDate = patch.EndDate
	}
	if patch.Notes != nil {
		contract.Notes = *patch.Notes
	}
	return nil
}

func (s *contractService) UpdateContract(actor *model.User, id uint, patch ContractPatch) (*model.Contract, error) {
	logger.Info("Updating contract", map[string]interface{}{
		"contract_id": id,
		"user_id":     actor.ID,
	})

	var (
		contract  *model.Contract
		completed bool
		unchanged bool
	)
	err := runInTx(s.db, "update_contract", func(tx *gorm.DB) error {
		repo := s.contractRepo.WithTx(tx)

		var err error
		contract, err = repo.FindByIDForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}

		if err := authz.CanManageContract(actor, contract); err != nil {
			logger.Warn("Contract update denied", map[string]interface{}{
				"contract_id": id,
				"user_id":     actor.ID,
				"level":       actor.Level,
			})
			return err
		}

		if contract.IsCompleted() {
			// 같은 값으로 다시 저장하는 요청은 아무것도 바꾸지 않는다
			if !patch.changes(contract) {
				unchanged = true
				return nil
			}
			logger.Warn("Attempt to modify completed contract", map[string]interface{}{
				"contract_id": id,
				"user_id":     actor.ID,
			})
			return apperrors.NewStateError(apperrors.ContractCompleted, "완료된 계약은 수정할 수 없습니다")
		}

		if err := s.applyPatch(tx, actor, contract, patch); err != nil {
			return err
		}
		clearFieldsForType(contract)
		if err := validateContractFields(contract); err != nil {
			return err
		}

		if patch.Status != nil {
			if completed, err = s.applyStatus(tx, actor, contract, *patch.Status); err != nil {
				return err
			}
		}

		if err := repo.Update(contract); err != nil {
			return err
		}

		action := model.ActivityContractUpdated
		if completed {
			action = model.ActivityContractCompleted
		}
		entry := newActivity(actor, action, "contract", contract.ID,
			"%s 계약 수정 (%s)", contract.ContractNumber, contract.Status)
		return s.activityRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		return nil, err
	}

	if unchanged {
		logger.Info("Completed contract resubmitted without changes", map[string]interface{}{
			"contract_id": id,
		})
		return s.reload(id)
	}

	logger.Info("Contract updated", map[string]interface{}{
		"contract_id": id,
		"status":      contract.Status,
		"completed":   completed,
	})
	if completed {
		s.afterCommit(actor, contract, queue.RoutingContractCompleted, 0)
	}
	return s.reload(id)
}

// DeleteContract removes the contract and its schedules in one transaction and
// returns how many schedules were removed. A completed sale keeps its transferred owner.
func (s *contractService) DeleteContract(actor *model.User, id uint) (int64, error) {
	logger.Info("Deleting contract", map[string]interface{}{
		"contract_id": id,
		"user_id":     actor.ID,
	})

	var (
		contract *model.Contract
		removed  int64
	)
	err := runInTx(s.db, "delete_contract", func(tx *gorm.DB) error {
		repo := s.contractRepo.WithTx(tx)

		var err error
		contract, err = repo.FindByIDForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}

		if err := authz.CanManageContract(actor, contract); err != nil {
			logger.Warn("Contract delete denied", map[string]interface{}{
				"contract_id": id,
				"user_id":     actor.ID,
				"level":       actor.Level,
			})
			return err
		}

		if removed, err = s.scheduleRepo.WithTx(tx).DeleteByContractID(id); err != nil {
			return err
		}
		if err := repo.Delete(id); err != nil {
			return err
		}

		entry := newActivity(actor, model.ActivityContractDeleted, "contract", id,
			"%s 계약 삭제 (일정 %d건 함께 삭제)", contract.ContractNumber, removed)
		return s.activityRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Contract deleted", map[string]interface{}{
		"contract_id":       id,
		"removed_schedules": removed,
	})
	s.afterCommit(actor, contract, queue.RoutingContractDeleted, removed)
	return removed, nil
}

func (s *contractService) ListTransfers(actor *model.User, id uint) ([]model.OwnershipTransfer, error) {
	if _, err := s.GetContract(actor, id); err != nil {
		return nil, err
	}
	return s.propertyRepo.FindTransfersByContract(id)
}

// afterCommit notifies the agent and the creator and publishes the event.
// Failures are logged only; the transaction is already committed.
func (s *contractService) afterCommit(actor *model.User, contract *model.Contract, routingKey string, removedSchedules int64) {
	event := newContractEvent(actor, contract)
	event.RemovedSchedules = removedSchedules

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		logger.Warn("Failed to publish contract event", map[string]interface{}{
			"contract_id": contract.ID,
			"routing_key": routingKey,
			"error":       err.Error(),
		})
	}
	if routingKey == queue.RoutingContractCompleted && contract.OwnershipTransferred {
		if err := s.publisher.Publish(ctx, queue.RoutingOwnershipTransfer, event); err != nil {
			logger.Warn("Failed to publish ownership event", map[string]interface{}{
				"contract_id": contract.ID,
				"error":       err.Error(),
			})
		}
	}

	if s.notifier == nil {
		return
	}

	var (
		notifType model.NotificationType
		title     string
	)
	switch routingKey {
	case queue.RoutingContractCreated:
		notifType, title = model.NotificationTypeContractCreated, "새 계약이 등록되었습니다"
	case queue.RoutingContractCompleted:
		notifType, title = model.NotificationTypeContractCompleted, "계약이 완료되었습니다"
	case queue.RoutingContractDeleted:
		notifType, title = model.NotificationTypeContractDeleted, "계약이 삭제되었습니다"
	default:
		return
	}

	seen := map[uint]bool{actor.ID: true}
	for _, userID := range []uint{contract.AgentID, contract.CreatedByID} {
		if userID == 0 || seen[userID] {
			continue
		}
		seen[userID] = true

		contractID := contract.ID
		notification := &model.Notification{
			UserID:  userID,
			Type:    notifType,
			Title:   title,
			Content: fmt.Sprintf("계약번호 %s", contract.ContractNumber),
			Link:    fmt.Sprintf("/contracts/%d", contract.ID),
		}
		if routingKey != queue.RoutingContractDeleted {
			notification.RelatedContractID = &contractID
		}
		if err := s.notifier.Notify(notification); err != nil {
			logger.Warn("Failed to notify contract participant", map[string]interface{}{
				"contract_id": contract.ID,
				"user_id":     userID,
				"error":       err.Error(),
			})
		}
	}
}
