package repository

import (
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(subscription *model.Subscription) error
	FindByPartnerOrderID(partnerOrderID string) (*model.Subscription, error)
	FindLatestByUser(userID uint, statuses ...model.SubscriptionStatus) (*model.Subscription, error)
	FindDueForRenewal(now time.Time) ([]model.Subscription, error)
	FindExpired(now time.Time) ([]model.Subscription, error)
	Update(subscription *model.Subscription) error
	WithTx(tx *gorm.DB) SubscriptionRepository
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) Create(subscription *model.Subscription) error {
	logger.Debug("Creating subscription in database", map[string]interface{}{
		"user_id":          subscription.UserID,
		"partner_order_id": subscription.PartnerOrderID,
	})

	if err := r.db.Create(subscription).Error; err != nil {
		logger.Error("Failed to create subscription", err, map[string]interface{}{
			"user_id": subscription.UserID,
		})
		return err
	}
	return nil
}

func (r *subscriptionRepository) FindByPartnerOrderID(partnerOrderID string) (*model.Subscription, error) {
	var subscription model.Subscription
	if err := r.db.Where("partner_order_id = ?", partnerOrderID).First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *subscriptionRepository) FindLatestByUser(userID uint, statuses ...model.SubscriptionStatus) (*model.Subscription, error) {
	query := r.db.Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var subscription model.Subscription
	if err := query.Order("id DESC").First(&subscription).Error; err != nil {
		return nil, err
	}
	return &subscription, nil
}

// FindDueForRenewal returns active subscriptions whose period has ended
func (r *subscriptionRepository) FindDueForRenewal(now time.Time) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := r.db.Where("status = ? AND current_period_end <= ?", model.SubscriptionStatusActive, now).
		Order("current_period_end ASC").
		Find(&subscriptions).Error
	if err != nil {
		logger.Error("Failed to find subscriptions due for renewal", err)
		return nil, err
	}
	return subscriptions, nil
}

// FindExpired returns cancelled subscriptions whose paid period has run out
func (r *subscriptionRepository) FindExpired(now time.Time) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := r.db.Where("status = ? AND current_period_end <= ?", model.SubscriptionStatusCancelled, now).
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *subscriptionRepository) Update(subscription *model.Subscription) error {
	if err := r.db.Save(subscription).Error; err != nil {
		logger.Error("Failed to update subscription", err, map[string]interface{}{
			"subscription_id": subscription.ID,
		})
		return err
	}
	return nil
}
