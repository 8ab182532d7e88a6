package lead

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"terminal-terrace/video-lead/internal/dto"
	"terminal-terrace/video-lead/internal/middleware"
	"terminal-terrace/video-lead/pkg/response"
)

type LeadHandler struct {
	service *LeadService
}

func NewLeadHandler(service *LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// ParseID 解析路径参数中的正整数 ID
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		dto.ErrorResponse(c, response.NewBusinessError(
			response.WithErrorCode(response.InvalidParameter),
			response.WithErrorMessage("无效的 "+name),
		))
		return 0, false
	}
	return uint(id), true
}

// Create 创建线索
// @Summary 创建线索
// @Description 视频以 base64 整段上传，适合小文件；大文件使用分片上传
// @Tags Lead
// @Accept json
// @Produce json
// @Security AuthToken
// @Param request body CreateLeadRequest true "线索"
// @Success 200 {object} CreateLeadResponse
// @Failure 400 {object} response.ErrorBody
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.ValidationErrorResponse(c, err)
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	result, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// List 当前用户的线索列表
// @Summary 获取我的线索
// @Tags Lead
// @Produce json
// @Security AuthToken
// @Success 200 {object} ListLeadsResponse
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	result, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Video 获取线索视频
// @Summary 获取线索视频（data URL）
// @Tags Lead
// @Produce json
// @Security AuthToken
// @Param id path int true "线索ID"
// @Success 200 {object} VideoResponse
// @Failure 404 {object} response.ErrorBody
// @Router /leads/{id}/video [get]
func (h *LeadHandler) Video(c *gin.Context) {
	leadID, ok := ParseID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.CurrentUserID(c)
	result, err := h.service.GetVideo(c.Request.Context(), leadID, userID, false)
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// AdminVideo 管理员读取任意线索的视频
// @Summary 管理员获取线索视频
// @Tags Admin
// @Produce json
// @Security AuthToken
// @Param id path int true "线索ID"
// @Success 200 {object} VideoResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /admin/leads/{id}/video [get]
func (h *LeadHandler) AdminVideo(c *gin.Context) {
	leadID, ok := ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetVideo(c.Request.Context(), leadID, 0, true)
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// Delete 删除线索
// @Summary 删除线索（管理员）
// @Tags Lead
// @Produce json
// @Security AuthToken
// @Param id path int true "线索ID"
// @Success 200 {object} DeleteLeadResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	leadID, ok := ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Delete(c.Request.Context(), leadID)
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}
