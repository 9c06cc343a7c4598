package repository

import (
	"strings"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractFilter struct {
	BusinessNumber string
	Status         *model.ContractStatus
	Type           *model.ContractType
	PropertyID     *uint
	Search         string // 계약번호, 고객 이름, 매물명
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

type ContractRepository interface {
	Create(contract *model.Contract) error
	FindByID(id uint) (*model.Contract, error)
	FindByIDForUpdate(id uint) (*model.Contract, error)
	FindWithFilter(filter ContractFilter) ([]model.Contract, int64, error)
	FindCompletedBetween(businessNumber string, from, to time.Time) ([]model.Contract, error)
	CountInProgressByProperty(propertyID uint) (int64, error)
	Update(contract *model.Contract) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) ContractRepository
}

type contractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) WithTx(tx *gorm.DB) ContractRepository {
	return &contractRepository{db: tx}
}

func (r *contractRepository) preloaded(db *gorm.DB) *gorm.DB {
	return db.Preload("Property").Preload("Buyer").Preload("Seller").Preload("Agent")
}

func (r *contractRepository) Create(contract *model.Contract) error {
	logger.Debug("Creating contract in database", map[string]interface{}{
		"contract_number": contract.ContractNumber,
		"type":            contract.Type,
		"status":          contract.Status,
	})

	if err := r.db.Omit(clause.Associations).Create(contract).Error; err != nil {
		logger.Error("Failed to create contract in database", err, map[string]interface{}{
			"contract_number": contract.ContractNumber,
		})
		return err
	}

	logger.Debug("Contract created in database", map[string]interface{}{
		"contract_id": contract.ID,
	})
	return nil
}

func (r *contractRepository) FindByID(id uint) (*model.Contract, error) {
	var contract model.Contract
	if err := r.preloaded(r.db).First(&contract, id).Error; err != nil {
		logger.Debug("Contract not found", map[string]interface{}{
			"contract_id": id,
			"error":       err.Error(),
		})
		return nil, err
	}
	return &contract, nil
}

// FindByIDForUpdate locks the contract row and loads the parties needed for authorization
func (r *contractRepository) FindByIDForUpdate(id uint) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Buyer").
		Preload("Seller").
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindWithFilter(filter ContractFilter) ([]model.Contract, int64, error) {
	logger.Debug("Finding contracts with filter", map[string]interface{}{
		"business_number": filter.BusinessNumber,
		"status":          filter.Status,
		"type":            filter.Type,
		"search":          filter.Search,
		"limit":           filter.Limit,
		"offset":          filter.Offset,
	})

	query := r.db.Model(&model.Contract{}).Where("contracts.business_number = ?", filter.BusinessNumber)
	if filter.Status != nil {
		query = query.Where("contracts.status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("contracts.type = ?", *filter.Type)
	}
	if filter.PropertyID != nil {
		query = query.Where("contracts.property_id = ?", *filter.PropertyID)
	}
	if filter.From != nil {
		query = query.Where("contracts.contract_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("contracts.contract_date < ?", *filter.To)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.
			Joins("LEFT JOIN customers buyers ON buyers.id = contracts.buyer_id").
			Joins("LEFT JOIN customers sellers ON sellers.id = contracts.seller_id").
			Joins("LEFT JOIN properties ON properties.id = contracts.property_id").
			Where("LOWER(contracts.contract_number) LIKE ? OR LOWER(buyers.name) LIKE ? OR LOWER(sellers.name) LIKE ? OR LOWER(properties.title) LIKE ?",
				like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count contracts", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var contracts []model.Contract
	err := r.preloaded(query).
		Select("contracts.*").
		Order("contracts.contract_date DESC, contracts.id DESC").
		Find(&contracts).Error
	if err != nil {
		logger.Error("Failed to find contracts with filter", err)
		return nil, 0, err
	}

	logger.Debug("Contracts found with filter", map[string]interface{}{
		"count": len(contracts),
		"total": total,
	})
	return contracts, total, nil
}

// FindCompletedBetween returns completed contracts of one company with contract_date in [from, to)
func (r *contractRepository) FindCompletedBetween(businessNumber string, from, to time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.
		Where("business_number = ? AND status = ? AND contract_date >= ? AND contract_date < ?",
			businessNumber, model.ContractStatusCompleted, from, to).
		Order("contract_date ASC").
		Find(&contracts).Error
	if err != nil {
		logger.Error("Failed to find completed contracts", err, map[string]interface{}{
			"business_number": businessNumber,
		})
		return nil, err
	}
	return contracts, nil
}

func (r *contractRepository) CountInProgressByProperty(propertyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Contract{}).
		Where("property_id = ? AND status = ?", propertyID, model.ContractStatusInProgress).
		Count(&count).Error
	return count, err
}

func (r *contractRepository) Update(contract *model.Contract) error {
	logger.Debug("Updating contract in database", map[string]interface{}{
		"contract_id": contract.ID,
		"status":      contract.Status,
	})

	if err := r.db.Omit(clause.Associations).Save(contract).Error; err != nil {
		logger.Error("Failed to update contract in database", err, map[string]interface{}{
			"contract_id": contract.ID,
		})
		return err
	}
	return nil
}

func (r *contractRepository) Delete(id uint) error {
	logger.Debug("Deleting contract from database", map[string]interface{}{
		"contract_id": id,
	})

	if err := r.db.Delete(&model.Contract{}, id).Error; err != nil {
		logger.Error("Failed to delete contract from database", err, map[string]interface{}{
			"contract_id": id,
		})
		return err
	}
	return nil
}
