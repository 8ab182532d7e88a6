package lead

import (
	"context"

	"gorm.io/gorm"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
)

// 列表查询不读取 video_data
var summaryColumns = []string{"id", "user_id", "title", "comments", "video_filename", "video_content_type", "video_size", "created_at"}

// LeadRepository 线索数据访问接口
type LeadRepository interface {
	CreateLead(ctx context.Context, lead *leadModel.Lead) error
	FindByID(ctx context.Context, id uint) (*leadModel.Lead, error)
	ListByUser(ctx context.Context, userID uint) ([]leadModel.Lead, error)
	ListByUsers(ctx context.Context, userIDs []uint) ([]leadModel.Lead, error)
	DeleteByID(ctx context.Context, id uint) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountWithVideo(ctx context.Context) (int64, error)
}

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository 创建 Repository 实例
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) CreateLead(ctx context.Context, lead *leadModel.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// FindByID 读取完整线索（含视频）
func (r *leadRepository) FindByID(ctx context.Context, id uint) (*leadModel.Lead, error) {
	var lead leadModel.Lead
	if err := r.db.WithContext(ctx).First(&lead, id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// ListByUser 用户的线索，新的在前
func (r *leadRepository) ListByUser(ctx context.Context, userID uint) ([]leadModel.Lead, error) {
	var leads []leadModel.Lead
	err := r.db.WithContext(ctx).
		Select(summaryColumns).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&leads).Error
	return leads, err
}

// ListByUsers 多个用户的线索，新的在前
func (r *leadRepository) ListByUsers(ctx context.Context, userIDs []uint) ([]leadModel.Lead, error) {
	var leads []leadModel.Lead
	if len(userIDs) == 0 {
		return leads, nil
	}
	err := r.db.WithContext(ctx).
		Select(summaryColumns).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC, id DESC").
		Find(&leads).Error
	return leads, err
}

func (r *leadRepository) DeleteByID(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&leadModel.Lead{}, id)
	return result.RowsAffected, result.Error
}

func (r *leadRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&leadModel.Lead{})
	return result.RowsAffected, result.Error
}

func (r *leadRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&leadModel.Lead{}).Count(&count).Error
	return count, err
}

// CountWithVideo 带视频文件名的线索数
func (r *leadRepository) CountWithVideo(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&leadModel.Lead{}).
		Where("video_filename <> ''").
		Count(&count).Error
	return count, err
}
