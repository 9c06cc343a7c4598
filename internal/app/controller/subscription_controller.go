package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/internal/middleware"
)

// SubscriptionController 프리미엄 정기결제 (카카오페이)
type SubscriptionController struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionController(subscriptionService service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

type ApproveSubscriptionRequest struct {
	PgToken string `json:"pg_token" binding:"required"`
}

// ReadySubscription godoc
// @Summary 정기결제 준비
// @Description 카카오페이 결제창 URL 을 발급합니다
// @Tags subscriptions
// @Produce json
// @Success 200 {object} service.SubscriptionReadyResponse
// @Failure 409 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/subscriptions/ready [post]
func (ctrl *SubscriptionController) ReadySubscription(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := ctrl.subscriptionService.Ready(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "ready subscription")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ApproveSubscription godoc
// @Summary 정기결제 1회차 승인
// @Description 결제창에서 돌아온 pg_token 으로 승인하고 프리미엄을 적용합니다
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body ApproveSubscriptionRequest true "pg_token"
// @Success 200 {object} gin.H{subscription=model.Subscription}
// @Failure 404 {object} gin.H
// @Failure 409 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/subscriptions/approve [post]
func (ctrl *SubscriptionController) ApproveSubscription(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req ApproveSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid approve subscription request")
		return
	}

	subscription, err := ctrl.subscriptionService.Approve(c.Request.Context(), actor, req.PgToken)
	if err != nil {
		respondError(c, err, "approve subscription")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Subscription approved", map[string]interface{}{
		"user_id":         actor.ID,
		"subscription_id": subscription.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":      "구독이 시작되었습니다",
		"subscription": subscription,
	})
}

// CancelSubscription godoc
// @Summary 정기결제 해지
// @Description 다음 결제부터 청구하지 않습니다. 결제된 기간까지는 프리미엄이 유지됩니다
// @Tags subscriptions
// @Produce json
// @Success 200 {object} gin.H{subscription=model.Subscription}
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/subscriptions/cancel [post]
func (ctrl *SubscriptionController) CancelSubscription(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	subscription, err := ctrl.subscriptionService.Cancel(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "cancel subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "구독이 해지되었습니다",
		"subscription": subscription,
	})
}

// GetSubscription godoc
// @Summary 현재 구독 조회
// @Tags subscriptions
// @Produce json
// @Success 200 {object} gin.H{subscription=model.Subscription}
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/subscriptions/me [get]
func (ctrl *SubscriptionController) GetSubscription(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	subscription, err := ctrl.subscriptionService.GetCurrent(actor)
	if err != nil {
		respondError(c, err, "get subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": subscription})
}
