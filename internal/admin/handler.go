package admin

import (
	"github.com/gin-gonic/gin"

	"terminal-terrace/video-lead/internal/dto"
	"terminal-terrace/video-lead/internal/lead"
)

type AdminHandler struct {
	service *AdminService
}

// ListUsers 用户列表
// @Summary 用户及线索列表（管理员）
// @Tags Admin
// @Produce json
// @Security AuthToken
// @Success 200 {object} UsersResponse
// @Failure 403 {object} response.ErrorBody
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	result, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}

// DeleteUser 删除用户
// @Summary 删除用户及其全部数据（管理员）
// @Description 同一事务内删除用户的线索、上传会话与分片
// @Tags Admin
// @Produce json
// @Security AuthToken
// @Security AdminToken
// @Param id path int true "用户ID"
// @Success 200 {object} DeleteUserResponse
// @Failure 404 {object} response.ErrorBody
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := lead.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		dto.ErrorResponse(c, err)
		return
	}
	dto.SuccessResponse(c, result)
}
