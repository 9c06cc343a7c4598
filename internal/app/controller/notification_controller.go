package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/middleware"
	ws "github.com/ikkim/budongsan-crm/internal/websocket"
)

// NotificationController 알림 컨트롤러
type NotificationController struct {
	service  service.NotificationService
	hub      *ws.Hub
	upgrader gorillaws.Upgrader
}

// NewNotificationController 알림 컨트롤러 생성자. allowedOrigins 는 웹소켓 Origin 허용 목록.
func NewNotificationController(service service.NotificationService, hub *ws.Hub, allowedOrigins []string) *NotificationController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &NotificationController{
		service: service,
		hub:     hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origins["*"] || origins[r.Header.Get("Origin")]
			},
		},
	}
}

// GetNotifications godoc
// @Summary 알림 목록 조회
// @Description 사용자의 알림 목록을 조회합니다
// @Tags notifications
// @Produce json
// @Param page query int false "페이지 번호" default(1)
// @Param page_size query int false "페이지 크기" default(20)
// @Param unread query bool false "안읽은 알림만"
// @Success 200 {object} gin.H{data=[]model.Notification,total=int,page=int,page_size=int,unread_count=int}
// @Failure 401 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	page, pageSize := parsePage(ctx)
	unreadOnly := ctx.Query("unread") == "true"

	notifications, total, unreadCount, err := c.service.GetNotifications(userID, unreadOnly, page, pageSize)
	if err != nil {
		respondError(ctx, err, "list notifications")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":         notifications,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"unread_count": unreadCount,
	})
}

// GetUnreadCount godoc
// @Summary 안읽은 알림 개수 조회
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{unread_count=int}
// @Failure 401 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	count, err := c.service.GetUnreadCount(userID)
	if err != nil {
		apperrors.InternalError(ctx, "안읽은 알림 개수를 조회하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead godoc
// @Summary 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Param id path int true "알림 ID"
// @Success 200 {object} gin.H{notification=model.Notification}
// @Failure 403 {object} gin.H
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [patch]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 알림 ID입니다")
		return
	}

	notification, err := c.service.MarkAsRead(uint(id), userID)
	if err != nil {
		respondError(ctx, err, "mark notification read")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notification": notification,
	})
}

// MarkAllAsRead godoc
// @Summary 모든 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{message=string,updated=int}
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [patch]
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	updated, err := c.service.MarkAllAsRead(userID)
	if err != nil {
		apperrors.InternalError(ctx, "알림을 읽음 처리하는 중 오류가 발생했습니다")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "모든 알림을 읽음 처리했습니다",
		"updated": updated,
	})
}

// DeleteNotification godoc
// @Summary 알림 삭제
// @Tags notifications
// @Produce json
// @Param id path int true "알림 ID"
// @Success 200 {object} gin.H{message=string}
// @Failure 403 {object} gin.H
// @Failure 404 {object} gin.H
// @Security BearerAuth
// @Router /api/v1/notifications/{id} [delete]
func (c *NotificationController) DeleteNotification(ctx *gin.Context) {
	userID, exists := middleware.GetUserID(ctx)
	if !exists {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidID, "잘못된 알림 ID입니다")
		return
	}

	if err := c.service.DeleteNotification(uint(id), userID); err != nil {
		respondError(ctx, err, "delete notification")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "알림이 삭제되었습니다",
	})
}

// Connect WebSocket 연결. 토큰은 쿼리 파라미터로 받고 로그에 남기지 않는다.
// GET /api/v1/notifications/ws?token=
func (c *NotificationController) Connect(ctx *gin.Context) {
	log := middleware.GetLoggerFromContext(ctx)

	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(c.hub, &ws.Conn{Conn: conn}, user.ID, user.BusinessNumber)
	client.LastResetTime = time.Now()
	c.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": user.ID,
	})
}
