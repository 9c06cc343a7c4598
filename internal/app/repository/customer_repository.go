package repository

import (
	"strings"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

type CustomerFilter struct {
	BusinessNumber string // 빈 값이면 전체 회사 (시스템 관리자)
	Type           *model.CustomerType
	Status         *model.CustomerStatus
	Search         string
	Limit          int
	Offset         int
}

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindByID(id uint) (*model.Customer, error)
	FindByIDWithProperties(id uint) (*model.Customer, error)
	FindWithFilter(filter CustomerFilter) ([]model.Customer, int64, error)
	Update(customer *model.Customer) error
	UpdateStatus(id uint, status model.CustomerStatus) error
	CountOwnedProperties(id uint) (int64, error)
	Delete(id uint) error
	WithTx(tx *gorm.DB) CustomerRepository
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepository{db: tx}
}

func (r *customerRepository) Create(customer *model.Customer) error {
	logger.Debug("Creating customer in database", map[string]interface{}{
		"name":            customer.Name,
		"type":            customer.Type,
		"business_number": customer.BusinessNumber,
	})

	if err := r.db.Create(customer).Error; err != nil {
		logger.Error("Failed to create customer in database", err, map[string]interface{}{
			"name": customer.Name,
		})
		return err
	}

	logger.Debug("Customer created in database", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return nil
}

func (r *customerRepository) FindByID(id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		logger.Debug("Customer not found", map[string]interface{}{
			"customer_id": id,
			"error":       err.Error(),
		})
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByIDWithProperties(id uint) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.Preload("Properties", func(db *gorm.DB) *gorm.DB {
		return db.Order("properties.id DESC")
	}).First(&customer, id).Error
	if err != nil {
		return nil, err
	}

	logger.Debug("Customer with properties found", map[string]interface{}{
		"customer_id":    customer.ID,
		"property_count": len(customer.Properties),
	})
	return &customer, nil
}

func (r *customerRepository) FindWithFilter(filter CustomerFilter) ([]model.Customer, int64, error) {
	logger.Debug("Finding customers with filter", map[string]interface{}{
		"business_number": filter.BusinessNumber,
		"type":            filter.Type,
		"status":          filter.Status,
		"search":          filter.Search,
		"limit":           filter.Limit,
		"offset":          filter.Offset,
	})

	query := r.db.Model(&model.Customer{})
	if filter.BusinessNumber != "" {
		query = query.Where("business_number = ?", filter.BusinessNumber)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count customers", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var customers []model.Customer
	if err := query.Order("id DESC").Find(&customers).Error; err != nil {
		logger.Error("Failed to find customers with filter", err)
		return nil, 0, err
	}

	logger.Debug("Customers found with filter", map[string]interface{}{
		"count": len(customers),
		"total": total,
	})
	return customers, total, nil
}

func (r *customerRepository) Update(customer *model.Customer) error {
	logger.Debug("Updating customer in database", map[string]interface{}{
		"customer_id": customer.ID,
	})

	if err := r.db.Omit("Properties").Save(customer).Error; err != nil {
		logger.Error("Failed to update customer in database", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return err
	}
	return nil
}

func (r *customerRepository) UpdateStatus(id uint, status model.CustomerStatus) error {
	result := r.db.Model(&model.Customer{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update customer status", result.Error, map[string]interface{}{
			"customer_id": id,
			"status":      status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *customerRepository) CountOwnedProperties(id uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Property{}).Where("owner_id = ?", id).Count(&count).Error
	return count, err
}

func (r *customerRepository) Delete(id uint) error {
	logger.Debug("Deleting customer from database", map[string]interface{}{
		"customer_id": id,
	})

	if err := r.db.Delete(&model.Customer{}, id).Error; err != nil {
		logger.Error("Failed to delete customer from database", err, map[string]interface{}{
			"customer_id": id,
		})
		return err
	}
	return nil
}
