package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/ikkim/budongsan-crm/pkg/payment/kakaopay"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrBillingUnavailable   = errors.New("billing is not configured")
)

// BillingClient 정기결제 API. *kakaopay.Client 가 구현한다.
type BillingClient interface {
	Ready(ctx context.Context, req kakaopay.ReadyRequest) (*kakaopay.ReadyResponse, error)
	Approve(ctx context.Context, req kakaopay.ApproveRequest) (*kakaopay.PaymentResponse, error)
	Charge(ctx context.Context, req kakaopay.SubscriptionRequest) (*kakaopay.PaymentResponse, error)
	Inactivate(ctx context.Context, sid string) (*kakaopay.InactiveResponse, error)
}

// SubscriptionPlan 월 구독 상품
type SubscriptionPlan struct {
	Name  string
	Price int64
}

// SubscriptionReadyResponse 결제창 이동 정보
type SubscriptionReadyResponse struct {
	PartnerOrderID        string `json:"partner_order_id"`
	TID                   string `json:"tid"`
	NextRedirectAppURL    string `json:"next_redirect_app_url"`
	NextRedirectMobileURL string `json:"next_redirect_mobile_url"`
	NextRedirectPCURL     string `json:"next_redirect_pc_url"`
}

// RenewalResult 정기결제 배치 결과
type RenewalResult struct {
	Renewed int `json:"renewed"`
	Failed  int `json:"failed"`
	Expired int `json:"expired"`
}

type SubscriptionService interface {
	Ready(ctx context.Context, actor *model.User) (*SubscriptionReadyResponse, error)
	Approve(ctx context.Context, actor *model.User, pgToken string) (*model.Subscription, error)
	Cancel(ctx context.Context, actor *model.User) (*model.Subscription, error)
	GetCurrent(actor *model.User) (*model.Subscription, error)
	RenewDue(ctx context.Context, now time.Time) (*RenewalResult, error)
}

type subscriptionService struct {
	db               *gorm.DB
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	activityRepo     repository.ActivityRepository
	notifier         NotificationService
	client           BillingClient
	plan             SubscriptionPlan
	now              func() time.Time
}

// NewSubscriptionService client 가 nil 이면 결제 요청은 ErrBillingUnavailable 을 돌려준다.
func NewSubscriptionService(
	db *gorm.DB,
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	notifier NotificationService,
	client BillingClient,
	plan SubscriptionPlan,
) SubscriptionService {
	return &subscriptionService{
		db:               db,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		activityRepo:     activityRepo,
		notifier:         notifier,
		client:           client,
		plan:             plan,
		now:              time.Now,
	}
}

func paymentFailed(err error) error {
	logger.Warn("Subscription payment failed", map[string]interface{}{
		"error": err.Error(),
	})
	return apperrors.NewStateError(apperrors.SubscriptionPaymentFailed, "결제가 처리되지 않았습니다. 잠시 후 다시 시도해주세요")
}

// Ready 1회차 결제 준비. 이미 구독 중이면 거절한다.
func (s *subscriptionService) Ready(ctx context.Context, actor *model.User) (*SubscriptionReadyResponse, error) {
	if s.client == nil {
		return nil, ErrBillingUnavailable
	}
	if _, err := s.subscriptionRepo.FindLatestByUser(actor.ID, model.SubscriptionStatusActive); err == nil {
		return nil, apperrors.NewConflictError(apperrors.SubscriptionAlreadyActive, "이미 구독 중입니다")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	partnerOrderID := "SUB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	resp, err := s.client.Ready(ctx, kakaopay.ReadyRequest{
		PartnerOrderID: partnerOrderID,
		PartnerUserID:  strconv.FormatUint(uint64(actor.ID), 10),
		ItemName:       s.plan.Name,
		Quantity:       1,
		TotalAmount:    s.plan.Price,
	})
	if err != nil {
		return nil, paymentFailed(err)
	}

	subscription := &model.Subscription{
		UserID:         actor.ID,
		PlanName:       s.plan.Name,
		Amount:         s.plan.Price,
		Status:         model.SubscriptionStatusReady,
		PartnerOrderID: partnerOrderID,
		TID:            resp.TID,
	}
	if err := s.subscriptionRepo.Create(subscription); err != nil {
		return nil, err
	}

	logger.Info("Subscription payment ready", map[string]interface{}{
		"user_id":          actor.ID,
		"partner_order_id": partnerOrderID,
	})

	return &SubscriptionReadyResponse{
		PartnerOrderID:        partnerOrderID,
		TID:                   resp.TID,
		NextRedirectAppURL:    resp.NextRedirectAppURL,
		NextRedirectMobileURL: resp.NextRedirectMobileURL,
		NextRedirectPCURL:     resp.NextRedirectPCURL,
	}, nil
}

// Approve 1회차 승인. SID 를 저장하고 한 달간 프리미엄을 켠다.
func (s *subscriptionService) Approve(ctx context.Context, actor *model.User, pgToken string) (*model.Subscription, error) {
	if strings.TrimSpace(pgToken) == "" {
		return nil, apperrors.NewValidationError("pg_token", apperrors.ValidationRequired, "결제 승인 토큰이 필요합니다")
	}

	if s.client == nil {
		return nil, ErrBillingUnavailable
	}

	subscription, err := s.subscriptionRepo.FindLatestByUser(actor.ID, model.SubscriptionStatusReady)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	resp, err := s.client.Approve(ctx, kakaopay.ApproveRequest{
		TID:            subscription.TID,
		PartnerOrderID: subscription.PartnerOrderID,
		PartnerUserID:  strconv.FormatUint(uint64(actor.ID), 10),
		PgToken:        pgToken,
	})
	if err != nil {
		subscription.Status = model.SubscriptionStatusFailed
		subscription.FailureReason = err.Error()
		if updateErr := s.subscriptionRepo.Update(subscription); updateErr != nil {
			logger.Error("Failed to record subscription approval failure", updateErr, map[string]interface{}{
				"subscription_id": subscription.ID,
			})
		}
		return nil, paymentFailed(err)
	}

	now := s.now()
	periodEnd := now.AddDate(0, 1, 0)
	err = runInTx(s.db, "approve_subscription", func(tx *gorm.DB) error {
		subscription.Status = model.SubscriptionStatusActive
		subscription.SID = resp.SID
		subscription.ApprovedAt = &now
		subscription.CurrentPeriodEnd = &periodEnd
		subscription.FailureReason = ""
		if err := s.subscriptionRepo.WithTx(tx).Update(subscription); err != nil {
			return err
		}
		if err := s.setPremium(tx, actor.ID, &periodEnd); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).Create(newActivity(actor, model.ActivitySubscriptionChanged,
			"subscription", subscription.ID, "구독 시작 (%s, %d원)", subscription.PlanName, subscription.Amount))
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Subscription activated", map[string]interface{}{
		"user_id":            actor.ID,
		"subscription_id":    subscription.ID,
		"current_period_end": periodEnd,
	})
	s.notify(actor.ID, "구독이 시작되었습니다", fmt.Sprintf("%s 구독이 %s까지 적용됩니다", subscription.PlanName, periodEnd.Format("2006-01-02")))
	return subscription, nil
}

// Cancel SID 를 비활성화한다. 결제된 기간이 끝날 때까지 프리미엄은 유지된다.
func (s *subscriptionService) Cancel(ctx context.Context, actor *model.User) (*model.Subscription, error) {
	if s.client == nil {
		return nil, ErrBillingUnavailable
	}
	subscription, err := s.subscriptionRepo.FindLatestByUser(actor.ID, model.SubscriptionStatusActive)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if _, err := s.client.Inactivate(ctx, subscription.SID); err != nil && !errors.Is(err, kakaopay.ErrInactiveSID) {
		return nil, paymentFailed(err)
	}

	now := s.now()
	err = runInTx(s.db, "cancel_subscription", func(tx *gorm.DB) error {
		subscription.Status = model.SubscriptionStatusCancelled
		subscription.CancelledAt = &now
		if err := s.subscriptionRepo.WithTx(tx).Update(subscription); err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).Create(newActivity(actor, model.ActivitySubscriptionChanged,
			"subscription", subscription.ID, "구독 해지"))
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Subscription cancelled", map[string]interface{}{
		"user_id":         actor.ID,
		"subscription_id": subscription.ID,
	})
	return subscription, nil
}

func (s *subscriptionService) GetCurrent(actor *model.User) (*model.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindLatestByUser(actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return subscription, nil
}

// RenewDue 기간이 끝난 구독을 결제하고, 해지 후 기간이 끝난 사용자의 프리미엄을 해제한다
func (s *subscriptionService) RenewDue(ctx context.Context, now time.Time) (*RenewalResult, error) {
	result := &RenewalResult{}
	if s.client == nil {
		return result, ErrBillingUnavailable
	}

	due, err := s.subscriptionRepo.FindDueForRenewal(now)
	if err != nil {
		return nil, err
	}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.renew(ctx, &due[i], now) {
			result.Renewed++
		} else {
			result.Failed++
		}
	}

	expired, err := s.subscriptionRepo.FindExpired(now)
	if err != nil {
		return result, err
	}
	for i := range expired {
		user, err := s.userRepo.FindByID(expired[i].UserID)
		if err != nil || !user.IsPremium {
			continue
		}
		if err := s.setPremium(s.db, user.ID, nil); err != nil {
			logger.Error("Failed to expire premium", err, map[string]interface{}{
				"user_id": user.ID,
			})
			continue
		}
		result.Expired++
	}

	logger.Info("Subscription renewal finished", map[string]interface{}{
		"renewed": result.Renewed,
		"failed":  result.Failed,
		"expired": result.Expired,
	})
	return result, nil
}

// renew charges one period. A failed charge ends the subscription and revokes premium.
func (s *subscriptionService) renew(ctx context.Context, subscription *model.Subscription, now time.Time) bool {
	periodEnd := now
	if subscription.CurrentPeriodEnd != nil {
		periodEnd = *subscription.CurrentPeriodEnd
	}
	nextEnd := periodEnd.AddDate(0, 1, 0)

	_, chargeErr := s.client.Charge(ctx, kakaopay.SubscriptionRequest{
		SID:            subscription.SID,
		PartnerOrderID: fmt.Sprintf("%s-%s", subscription.PartnerOrderID, periodEnd.Format("200601")),
		PartnerUserID:  strconv.FormatUint(uint64(subscription.UserID), 10),
		ItemName:       subscription.PlanName,
		Quantity:       1,
		TotalAmount:    subscription.Amount,
	})

	err := runInTx(s.db, "renew_subscription", func(tx *gorm.DB) error {
		if chargeErr != nil {
			subscription.Status = model.SubscriptionStatusFailed
			subscription.FailureReason = chargeErr.Error()
			if err := s.subscriptionRepo.WithTx(tx).Update(subscription); err != nil {
				return err
			}
			return s.setPremium(tx, subscription.UserID, nil)
		}

		subscription.CurrentPeriodEnd = &nextEnd
		if err := s.subscriptionRepo.WithTx(tx).Update(subscription); err != nil {
			return err
		}
		return s.setPremium(tx, subscription.UserID, &nextEnd)
	})
	if err != nil {
		logger.Error("Failed to save subscription renewal", err, map[string]interface{}{
			"subscription_id": subscription.ID,
		})
		return false
	}

	if chargeErr != nil {
		logger.Warn("Subscription renewal charge failed", map[string]interface{}{
			"subscription_id": subscription.ID,
			"user_id":         subscription.UserID,
			"error":           chargeErr.Error(),
		})
		s.notify(subscription.UserID, "정기결제 실패", "정기결제가 실패하여 구독이 종료되었습니다")
		return false
	}

	s.notify(subscription.UserID, "정기결제 완료", fmt.Sprintf("구독이 %s까지 연장되었습니다", nextEnd.Format("2006-01-02")))
	return true
}

// setPremium turns premium on until expiresAt, or off when expiresAt is nil.
func (s *subscriptionService) setPremium(tx *gorm.DB, userID uint, expiresAt *time.Time) error {
	repo := s.userRepo.WithTx(tx)
	user, err := repo.FindByID(userID)
	if err != nil {
		return err
	}
	user.IsPremium = expiresAt != nil
	user.PremiumExpiresAt = expiresAt
	return repo.Update(user)
}

func (s *subscriptionService) notify(userID uint, title, content string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(&model.Notification{
		UserID:  userID,
		Type:    model.NotificationTypeSubscription,
		Title:   title,
		Content: content,
		Link:    "/subscription",
	})
	if err != nil {
		logger.Error("Failed to send subscription notification", err, map[string]interface{}{
			"user_id": userID,
		})
	}
}
