package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/middleware"
	"github.com/ikkim/budongsan-crm/internal/storage"
)

// UploadController 계약 첨부파일 업로드 URL 발급
type UploadController struct {
	contractService service.ContractService
	presigner       storage.Presigner
}

// NewUploadController presigner 가 nil 이면 업로드를 받지 않는다.
func NewUploadController(contractService service.ContractService, presigner storage.Presigner) *UploadController {
	return &UploadController{
		contractService: contractService,
		presigner:       presigner,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignContractAttachment generates a presigned URL for a contract attachment (image or PDF)
// POST /api/v1/contracts/:id/attachments/presigned-url
func (ctrl *UploadController) PresignContractAttachment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentUser(c)
	if !ok {
		return
	}
	contractID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid presigned URL request")
		return
	}

	if ctrl.presigner == nil {
		respondError(c, service.ErrStorageUnavailable, "presign contract attachment")
		return
	}

	if err := storage.ValidateContentType(storage.FolderContractAttachments, req.ContentType); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "jpg, png 이미지 또는 PDF 만 첨부할 수 있습니다")
		return
	}

	// 조회 권한이 있는 계약에만 첨부할 수 있다
	if _, err := ctrl.contractService.GetContract(actor, contractID); err != nil {
		respondError(c, err, "presign contract attachment")
		return
	}

	response, err := ctrl.presigner.PresignUpload(c.Request.Context(), storage.FolderContractAttachments, req.Filename, req.ContentType)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"contract_id":  contractID,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "업로드 URL 발급에 실패했습니다")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"contract_id": contractID,
		"key":         response.Key,
	})

	c.JSON(http.StatusOK, response)
}
