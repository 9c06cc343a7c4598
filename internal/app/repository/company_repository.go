package repository

import (
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(company *model.Company) error
	FindByBusinessNumber(businessNumber string) (*model.Company, error)
	Exists(businessNumber string) (bool, error)
	Update(company *model.Company) error
	WithTx(tx *gorm.DB) CompanyRepository
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) WithTx(tx *gorm.DB) CompanyRepository {
	return &companyRepository{db: tx}
}

// Create inserts the company row. The unique business_number index makes this
// the point where concurrent first registrations are decided.
func (r *companyRepository) Create(company *model.Company) error {
	logger.Debug("Creating company in database", map[string]interface{}{
		"business_number": company.BusinessNumber,
	})

	if err := r.db.Create(company).Error; err != nil {
		logger.Warn("Failed to create company in database", map[string]interface{}{
			"business_number": company.BusinessNumber,
			"error":           err.Error(),
		})
		return err
	}
	return nil
}

func (r *companyRepository) FindByBusinessNumber(businessNumber string) (*model.Company, error) {
	var company model.Company
	if err := r.db.Where("business_number = ?", businessNumber).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) Exists(businessNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Company{}).Where("business_number = ?", businessNumber).Count(&count).Error
	if err != nil {
		logger.Error("Failed to check company existence", err, map[string]interface{}{
			"business_number": businessNumber,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *companyRepository) Update(company *model.Company) error {
	if err := r.db.Save(company).Error; err != nil {
		logger.Error("Failed to update company", err, map[string]interface{}{
			"company_id": company.ID,
		})
		return err
	}
	return nil
}
