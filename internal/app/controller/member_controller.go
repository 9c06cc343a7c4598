package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/internal/middleware"
)

type MemberController struct {
	memberService service.MemberService
}

func NewMemberController(memberService service.MemberService) *MemberController {
	return &MemberController{memberService: memberService}
}

type ChangeLevelRequest struct {
	Level int `json:"level" binding:"required,min=1"`
}

// ListMembers 같은 회사 회원 목록
// GET /api/v1/members
func (ctrl *MemberController) ListMembers(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	members, err := ctrl.memberService.ListMembers(actor)
	if err != nil {
		respondError(c, err, "list members")
		return
	}

	result := make([]gin.H, 0, len(members))
	for i := range members {
		result = append(result, userResponse(&members[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"members": result,
		"count":   len(result),
	})
}

// ChangeLevel 회원 레벨 변경
// PUT /api/v1/members/:id/level
func (ctrl *MemberController) ChangeLevel(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ChangeLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid change level request")
		return
	}

	member, err := ctrl.memberService.ChangeLevel(actor, targetID, req.Level)
	if err != nil {
		respondError(c, err, "change member level")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Member level changed", map[string]interface{}{
		"actor_id":  actor.ID,
		"target_id": member.ID,
		"level":     member.Level,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "레벨이 변경되었습니다",
		"member":  userResponse(member),
	})
}
