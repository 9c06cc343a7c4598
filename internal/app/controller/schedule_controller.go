package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
)

type ScheduleController struct {
	scheduleService service.ScheduleService
}

func NewScheduleController(scheduleService service.ScheduleService) *ScheduleController {
	return &ScheduleController{scheduleService: scheduleService}
}

// CreateScheduleRequest 시각은 RFC3339
type CreateScheduleRequest struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Type        model.ScheduleType `json:"type"`
	StartAt     time.Time          `json:"start_at" binding:"required"`
	EndAt       *time.Time         `json:"end_at"`
	ContractID  *uint              `json:"contract_id"`
}

// CreateSchedule 일정 등록
// POST /api/v1/schedules
func (ctrl *ScheduleController) CreateSchedule(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid create schedule request")
		return
	}

	schedule, err := ctrl.scheduleService.CreateSchedule(actor, service.ScheduleInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		ContractID:  req.ContractID,
	})
	if err != nil {
		respondError(c, err, "create schedule")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "일정이 등록되었습니다",
		"schedule": schedule,
	})
}

// ListSchedules 월별 일정. year, month 가 없으면 이번 달.
// GET /api/v1/schedules?year=2025&month=3
func (ctrl *ScheduleController) ListSchedules(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	now := time.Now().In(service.SeoulLocation())
	year, month := now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "연도 형식이 올바르지 않습니다")
			return
		}
		year = parsed
	}
	if v := c.Query("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "월은 1부터 12 사이여야 합니다")
			return
		}
		month = parsed
	}

	schedules, err := ctrl.scheduleService.ListMonth(actor, year, time.Month(month))
	if err != nil {
		respondError(c, err, "list schedules")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":      year,
		"month":     month,
		"schedules": schedules,
	})
}

// DeleteSchedule 등록자 또는 레벨 5 이상만 삭제할 수 있다
// DELETE /api/v1/schedules/:id
func (ctrl *ScheduleController) DeleteSchedule(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.scheduleService.DeleteSchedule(actor, id); err != nil {
		respondError(c, err, "delete schedule")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "일정이 삭제되었습니다"})
}
