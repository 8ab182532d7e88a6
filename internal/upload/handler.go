package upload

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"terminal-terrace/video-lead/internal/dto"
	"terminal-terrace/video-lead/internal/middleware"
	"terminal-terrace/video-lead/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Handle 分片上传入口，按 action 分发
// @Summary 分片上传
// @Description action=start_upload 初始化会话；action=upload_chunk（默认）上传一个 base64 分片，最后一个分片到达后自动合并为线索
// @Tags Upload
// @Accept json
// @Produce json
// @Security AuthToken
// @Param request body ChunkedRequest true "分片上传请求"
// @Success 200 {object} ChunkProgressResponse "分片已保存；最后一个分片返回 UploadCompleteResponse"
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /upload-chunked [post]
func (h *Handler) Handle(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		dto.ErrorResponse(c, response.NewBusinessError(
			response.WithErrorCode(response.Unauthorized),
			response.WithErrorMessage("未登录"),
		))
		return
	}

	var req ChunkedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "请求体不是合法的 JSON"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "请求体过大"
		}
		dto.ErrorResponse(c, response.NewBusinessError(
			response.WithErrorCode(response.ParseError),
			response.WithErrorMessage(msg),
			response.WithError(err),
		))
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case ActionStartUpload:
		result, err := h.service.StartUpload(ctx, userID, req.StartRequest())
		if err != nil {
			h.fail(c, err)
			return
		}
		dto.SuccessResponse(c, result)
	case ActionUploadChunk, "":
		result, err := h.service.UploadChunk(ctx, userID, req.ChunkRequest())
		if err != nil {
			h.fail(c, err)
			return
		}
		dto.SuccessResponse(c, result.Body())
	default:
		h.fail(c, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action))
	}
}

// Status 查询上传进度
// @Summary 查询分片上传进度
// @Description 返回已上传/缺失的分片序号，next_chunk 为最小的缺失序号
// @Tags Upload
// @Produce json
// @Security AuthToken
// @Param upload_id path string true "上传ID"
// @Success 200 {object} UploadStatusResponse
// @Failure 404 {object} response.ErrorBody
// @Router /upload-chunked/{upload_id} [get]
func (h *Handler) Status(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		dto.ErrorResponse(c, response.NewBusinessError(
			response.WithErrorCode(response.Unauthorized),
			response.WithErrorMessage("未登录"),
		))
		return
	}

	result, err := h.service.GetStatus(c.Request.Context(), userID, c.Param("upload_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

func (h *Handler) fail(c *gin.Context, err error) {
	be := toBusinessError(err)
	if be.HTTPStatus() >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("chunked upload failed")
	}
	_ = c.Error(err)
	dto.ErrorResponse(c, be)
}
