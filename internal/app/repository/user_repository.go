package repository

import (
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	ExistsByEmail(email string) (bool, error)
	ExistsByNickname(nickname string) (bool, error)
	FindByBusinessNumber(businessNumber string) ([]model.User, error)
	FindDeletedByEmailAndBusinessNumber(email, businessNumber string) (*model.User, error)
	Update(user *model.User) error
	UpdateLevel(id uint, level int) error
	Delete(id uint) error
	Restore(id uint) error
	WithTx(tx *gorm.DB) UserRepository
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email":           user.Email,
		"business_number": user.BusinessNumber,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"level":   user.Level,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Debug("User not found by ID", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		logger.Debug("User not found by email", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail includes withdrawn accounts because the unique index covers them too
func (r *userRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		logger.Error("Failed to check email existence", err, map[string]interface{}{
			"email": email,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) ExistsByNickname(nickname string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.User{}).Where("nickname = ?", nickname).Count(&count).Error
	if err != nil {
		logger.Error("Failed to check nickname existence", err, map[string]interface{}{
			"nickname": nickname,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) FindByBusinessNumber(businessNumber string) ([]model.User, error) {
	var users []model.User
	err := r.db.Where("business_number = ?", businessNumber).
		Order("level DESC, id ASC").
		Find(&users).Error
	if err != nil {
		logger.Error("Failed to find users by business number", err, map[string]interface{}{
			"business_number": businessNumber,
		})
		return nil, err
	}

	logger.Debug("Users found by business number", map[string]interface{}{
		"business_number": businessNumber,
		"count":           len(users),
	})
	return users, nil
}

func (r *userRepository) FindDeletedByEmailAndBusinessNumber(email, businessNumber string) (*model.User, error) {
	var user model.User
	err := r.db.Unscoped().
		Where("email = ? AND business_number = ? AND deleted_at IS NOT NULL", email, businessNumber).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
	})

	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

func (r *userRepository) UpdateLevel(id uint, level int) error {
	logger.Debug("Updating user level in database", map[string]interface{}{
		"user_id": id,
		"level":   level,
	})

	result := r.db.Model(&model.User{}).Where("id = ?", id).Update("level", level)
	if result.Error != nil {
		logger.Error("Failed to update user level", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Delete(id uint) error {
	logger.Debug("Soft deleting user", map[string]interface{}{
		"user_id": id,
	})

	if err := r.db.Delete(&model.User{}, id).Error; err != nil {
		logger.Error("Failed to delete user from database", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}

func (r *userRepository) Restore(id uint) error {
	logger.Debug("Restoring soft deleted user", map[string]interface{}{
		"user_id": id,
	})

	err := r.db.Unscoped().Model(&model.User{}).Where("id = ?", id).Update("deleted_at", nil).Error
	if err != nil {
		logger.Error("Failed to restore user", err, map[string]interface{}{
			"user_id": id,
		})
		return err
	}
	return nil
}
