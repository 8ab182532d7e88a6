package admin

import (
	"context"

	"gorm.io/gorm"

	"terminal-terrace/video-lead/internal/lead"
	leadModel "terminal-terrace/video-lead/internal/model/lead"
	uploadModel "terminal-terrace/video-lead/internal/model/upload"
	userModel "terminal-terrace/video-lead/internal/model/user"
	"terminal-terrace/video-lead/internal/user"
)

// AdminRepository 管理后台数据访问接口
type AdminRepository interface {
	ListUsers(ctx context.Context) ([]userModel.User, error)
	ListLeads(ctx context.Context, userIDs []uint) ([]leadModel.Lead, error)
	Statistics(ctx context.Context) (Statistics, error)
	// DeleteUserCascade 在一个事务中删除用户及其线索、上传会话和分片
	// 用户不存在时返回 gorm.ErrRecordNotFound
	DeleteUserCascade(ctx context.Context, userID uint) (*DeletedData, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) ListUsers(ctx context.Context) ([]userModel.User, error) {
	return user.NewUserRepository(r.db).List(ctx)
}

func (r *adminRepository) ListLeads(ctx context.Context, userIDs []uint) ([]leadModel.Lead, error) {
	return lead.NewLeadRepository(r.db).ListByUsers(ctx, userIDs)
}

func (r *adminRepository) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	var err error

	if stats.TotalUsers, err = user.NewUserRepository(r.db).Count(ctx); err != nil {
		return stats, err
	}
	leads := lead.NewLeadRepository(r.db)
	if stats.TotalLeads, err = leads.Count(ctx); err != nil {
		return stats, err
	}
	if stats.TotalVideos, err = leads.CountWithVideo(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *adminRepository) DeleteUserCascade(ctx context.Context, userID uint) (*DeletedData, error) {
	deleted := &DeletedData{UserID: userID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := user.NewUserRepository(tx)
		if _, err := users.FindByID(ctx, userID); err != nil {
			return err
		}

		uploads := tx.Model(&uploadModel.ChunkedUpload{}).Select("upload_id").Where("user_id = ?", userID)
		chunks := tx.Where("upload_id IN (?)", uploads).Delete(&uploadModel.UploadChunk{})
		if chunks.Error != nil {
			return chunks.Error
		}
		deleted.ChunksDeleted = chunks.RowsAffected

		sessions := tx.Where("user_id = ?", userID).Delete(&uploadModel.ChunkedUpload{})
		if sessions.Error != nil {
			return sessions.Error
		}
		deleted.UploadsDeleted = sessions.RowsAffected

		n, err := lead.NewLeadRepository(tx).DeleteByUser(ctx, userID)
		if err != nil {
			return err
		}
		deleted.LeadsDeleted = n

		_, err = users.Delete(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
