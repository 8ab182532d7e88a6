package admin

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"terminal-terrace/video-lead/pkg/response"
)

type AdminService struct {
	repo AdminRepository
	log  zerolog.Logger
}

func NewAdminService(repo AdminRepository, log zerolog.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

// ListUsers 全部用户及其线索，附带统计
func (s *AdminService) ListUsers(ctx context.Context) (*UsersResponse, *response.BusinessError) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storageError("查询用户失败", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	leads, err := s.repo.ListLeads(ctx, ids)
	if err != nil {
		return nil, storageError("查询线索失败", err)
	}
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, storageError("统计失败", err)
	}

	byUser := make(map[uint][]AdminLead, len(users))
	for _, l := range leads {
		byUser[l.UserID] = append(byUser[l.UserID], AdminLead{
			ID:            l.ID,
			Title:         l.Title,
			Comments:      l.Comments,
			CreatedAt:     l.CreatedAt,
			VideoFilename: l.VideoFilename,
			VideoSize:     l.VideoSize,
			HasVideo:      l.VideoFilename != "",
		})
	}

	result := &UsersResponse{Success: true, Statistics: stats, Users: make([]AdminUser, 0, len(users))}
	for _, u := range users {
		userLeads := byUser[u.ID]
		if userLeads == nil {
			userLeads = []AdminLead{}
		}
		result.Users = append(result.Users, AdminUser{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			Leads:     userLeads,
		})
	}
	return result, nil
}

// DeleteUser 删除用户及其全部数据
func (s *AdminService) DeleteUser(ctx context.Context, userID uint) (*DeleteUserResponse, *response.BusinessError) {
	deleted, err := s.repo.DeleteUserCascade(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage("User not found"),
		)
	}
	if err != nil {
		return nil, storageError("删除用户失败", err)
	}

	s.log.Warn().
		Uint("user_id", userID).
		Int64("leads_deleted", deleted.LeadsDeleted).
		Int64("uploads_deleted", deleted.UploadsDeleted).
		Msg("user deleted by admin")
	return &DeleteUserResponse{
		Success:     true,
		Message:     "User and all related data deleted successfully",
		DeletedData: *deleted,
	}, nil
}

func storageError(msg string, err error) *response.BusinessError {
	return response.NewBusinessError(
		response.WithErrorCode(response.StorageFailed),
		response.WithErrorMessage(msg),
		response.WithError(err),
	)
}
