package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
)

type ActivityController struct {
	activityService service.ActivityService
}

func NewActivityController(activityService service.ActivityService) *ActivityController {
	return &ActivityController{activityService: activityService}
}

// ListActivities 회사 작업 이력 (레벨 5 이상)
// GET /api/v1/activities?action=&page=&page_size=
func (ctrl *ActivityController) ListActivities(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var action *model.ActivityAction
	if v := c.Query("action"); v != "" {
		a := model.ActivityAction(v)
		action = &a
	}
	page, pageSize := parsePage(c)

	logs, total, err := ctrl.activityService.List(actor, action, page, pageSize)
	if err != nil {
		respondError(c, err, "list activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": logs,
		"total":      total,
		"page":       page,
		"page_size":  pageSize,
	})
}
