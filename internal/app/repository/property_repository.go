package repository

import (
	"errors"
	"strings"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrOwnerMismatch is returned by TransferOwner when the property's current owner
// is not the expected previous owner.
var ErrOwnerMismatch = errors.New("property owner does not match expected owner")

type PropertyFilter struct {
	BusinessNumber string
	Type           *model.PropertyType
	OwnerID        *uint
	Search         string
	Limit          int
	Offset         int
}

type PropertyRepository interface {
	Create(property *model.Property) error
	FindByID(id uint) (*model.Property, error)
	FindByIDForUpdate(id uint) (*model.Property, error)
	FindWithFilter(filter PropertyFilter) ([]model.Property, int64, error)
	Update(property *model.Property) error
	Delete(id uint) error
	TransferOwner(propertyID, fromCustomerID, toCustomerID uint) error
	CreateTransfer(transfer *model.OwnershipTransfer) error
	FindTransfers(propertyID uint) ([]model.OwnershipTransfer, error)
	FindTransfersByContract(contractID uint) ([]model.OwnershipTransfer, error)
	CountTransfersByContract(contractID uint) (int64, error)
	WithTx(tx *gorm.DB) PropertyRepository
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) WithTx(tx *gorm.DB) PropertyRepository {
	return &propertyRepository{db: tx}
}

func (r *propertyRepository) Create(property *model.Property) error {
	logger.Debug("Creating property in database", map[string]interface{}{
		"title":           property.Title,
		"type":            property.Type,
		"business_number": property.BusinessNumber,
	})

	if err := r.db.Omit("Owner").Create(property).Error; err != nil {
		logger.Error("Failed to create property in database", err, map[string]interface{}{
			"title": property.Title,
		})
		return err
	}

	logger.Debug("Property created in database", map[string]interface{}{
		"property_id": property.ID,
	})
	return nil
}

func (r *propertyRepository) FindByID(id uint) (*model.Property, error) {
	var property model.Property
	if err := r.db.Preload("Owner").First(&property, id).Error; err != nil {
		logger.Debug("Property not found", map[string]interface{}{
			"property_id": id,
			"error":       err.Error(),
		})
		return nil, err
	}
	return &property, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends
func (r *propertyRepository) FindByIDForUpdate(id uint) (*model.Property, error) {
	var property model.Property
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) FindWithFilter(filter PropertyFilter) ([]model.Property, int64, error) {
	logger.Debug("Finding properties with filter", map[string]interface{}{
		"business_number": filter.BusinessNumber,
		"type":            filter.Type,
		"owner_id":        filter.OwnerID,
		"search":          filter.Search,
	})

	query := r.db.Model(&model.Property{})
	if filter.BusinessNumber != "" {
		query = query.Where("business_number = ?", filter.BusinessNumber)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(address) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count properties", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var properties []model.Property
	if err := query.Preload("Owner").Order("id DESC").Find(&properties).Error; err != nil {
		logger.Error("Failed to find properties with filter", err)
		return nil, 0, err
	}
	return properties, total, nil
}

// Update never writes owner_id; ownership moves only through TransferOwner.
func (r *propertyRepository) Update(property *model.Property) error {
	logger.Debug("Updating property in database", map[string]interface{}{
		"property_id": property.ID,
	})

	if err := r.db.Omit("Owner", "owner_id").Save(property).Error; err != nil {
		logger.Error("Failed to update property in database", err, map[string]interface{}{
			"property_id": property.ID,
		})
		return err
	}
	return nil
}

func (r *propertyRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Property{}, id).Error; err != nil {
		logger.Error("Failed to delete property from database", err, map[string]interface{}{
			"property_id": id,
		})
		return err
	}
	return nil
}

// TransferOwner is a compare-and-set on owner_id: it only moves the property
// when the current owner is still fromCustomerID.
func (r *propertyRepository) TransferOwner(propertyID, fromCustomerID, toCustomerID uint) error {
	logger.Debug("Transferring property owner", map[string]interface{}{
		"property_id": propertyID,
		"from":        fromCustomerID,
		"to":          toCustomerID,
	})

	result := r.db.Model(&model.Property{}).
		Where("id = ? AND owner_id = ?", propertyID, fromCustomerID).
		Update("owner_id", toCustomerID)
	if result.Error != nil {
		logger.Error("Failed to transfer property owner", result.Error, map[string]interface{}{
			"property_id": propertyID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Property owner mismatch on transfer", map[string]interface{}{
			"property_id": propertyID,
			"expected":    fromCustomerID,
		})
		return ErrOwnerMismatch
	}
	return nil
}

func (r *propertyRepository) CreateTransfer(transfer *model.OwnershipTransfer) error {
	if err := r.db.Create(transfer).Error; err != nil {
		logger.Error("Failed to record ownership transfer", err, map[string]interface{}{
			"property_id": transfer.PropertyID,
			"contract_id": transfer.ContractID,
		})
		return err
	}
	return nil
}

func (r *propertyRepository) FindTransfers(propertyID uint) ([]model.OwnershipTransfer, error) {
	var transfers []model.OwnershipTransfer
	err := r.db.Where("property_id = ?", propertyID).
		Order("transferred_at DESC, id DESC").
		Find(&transfers).Error
	return transfers, err
}

func (r *propertyRepository) FindTransfersByContract(contractID uint) ([]model.OwnershipTransfer, error) {
	var transfers []model.OwnershipTransfer
	err := r.db.Where("contract_id = ?", contractID).Find(&transfers).Error
	return transfers, err
}

func (r *propertyRepository) CountTransfersByContract(contractID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.OwnershipTransfer{}).Where("contract_id = ?", contractID).Count(&count).Error
	return count, err
}
