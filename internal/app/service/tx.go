package service

import (
	"fmt"

	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

// runInTx begins a transaction, rolls it back when fn fails or panics and commits otherwise.
// Inside fn only tx-bound repositories may be used.
func runInTx(db *gorm.DB, operation string, fn func(tx *gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction", tx.Error, map[string]interface{}{
			"operation": operation,
		})
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Transaction rolled back due to panic", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"operation": operation,
			})
			err = fmt.Errorf("%s: panic: %v", operation, r)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err = tx.Commit().Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to commit transaction", err, map[string]interface{}{
			"operation": operation,
		})
		return err
	}
	return nil
}
