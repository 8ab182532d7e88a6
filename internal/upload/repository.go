package upload

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
	uploadModel "terminal-terrace/video-lead/internal/model/upload"
)

// LeadWriter 合并完成后写入最终线索
type LeadWriter interface {
	CreateLead(ctx context.Context, lead *leadModel.Lead) error
}

// LeadWriterFactory 为给定事务创建 LeadWriter，保证线索与会话在同一事务内提交
type LeadWriterFactory func(tx *gorm.DB) LeadWriter

// Repository 上传会话与分片的数据访问接口
type Repository interface {
	// 会话
	UpsertSession(ctx context.Context, session *uploadModel.ChunkedUpload) (bool, error)
	FindSession(ctx context.Context, uploadID string) (*uploadModel.ChunkedUpload, error)
	LockSession(ctx context.Context, uploadID string) (*uploadModel.ChunkedUpload, error)
	MarkCompleted(ctx context.Context, uploadID string, ownerID uint, at time.Time) (bool, error)
	AttachLead(ctx context.Context, uploadID string, leadID uint) error

	// 分片
	UpsertChunk(ctx context.Context, chunk *uploadModel.UploadChunk) error
	CountChunks(ctx context.Context, uploadID string, total int) (int, error)
	ChunkIndexes(ctx context.Context, uploadID string, total int) ([]int, error)
	ListChunks(ctx context.Context, uploadID string, total int) ([]uploadModel.UploadChunk, error)
	DeleteChunks(ctx context.Context, uploadID string) (int64, error)

	// Transaction 在一个数据库事务中执行 fn
	Transaction(ctx context.Context, fn func(repo Repository, leads LeadWriter) error) error
}

type uploadRepository struct {
	db    *gorm.DB
	leads LeadWriterFactory
}

// NewUploadRepository 创建 Repository 实例
func NewUploadRepository(db *gorm.DB, leads LeadWriterFactory) Repository {
	return &uploadRepository{db: db, leads: leads}
}

// ========== 会话 ==========

// UpsertSession 创建会话；已存在且属于同一用户时重置为 active
// 返回 false 表示会话属于其他用户，未做任何修改
func (r *uploadRepository) UpsertSession(ctx context.Context, session *uploadModel.ChunkedUpload) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "upload_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_size":   gorm.Expr("EXCLUDED.total_size"),
			"total_chunks": gorm.Expr("EXCLUDED.total_chunks"),
			"status":       uploadModel.StatusActive,
			"lead_id":      nil,
			"completed_at": nil,
			"updated_at":   gorm.Expr("EXCLUDED.updated_at"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "chunked_uploads.user_id = EXCLUDED.user_id"},
		}},
	}).Create(session)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindSession 按 upload_id 查找会话
func (r *uploadRepository) FindSession(ctx context.Context, uploadID string) (*uploadModel.ChunkedUpload, error) {
	var session uploadModel.ChunkedUpload
	err := r.db.WithContext(ctx).Where("upload_id = ?", uploadID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// LockSession 对会话行加共享锁（FOR SHARE），只能在事务中使用
// 并发的分片写入互不阻塞，但会与合并时的状态更新互斥
func (r *uploadRepository) LockSession(ctx context.Context, uploadID string) (*uploadModel.ChunkedUpload, error) {
	var session uploadModel.ChunkedUpload
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("upload_id = ?", uploadID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkCompleted active -> completed 的条件更新，返回 false 表示状态已不是 active
func (r *uploadRepository) MarkCompleted(ctx context.Context, uploadID string, ownerID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&uploadModel.ChunkedUpload{}).
		Where("upload_id = ? AND user_id = ? AND status = ?", uploadID, ownerID, uploadModel.StatusActive).
		Updates(map[string]any{
			"status":       uploadModel.StatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AttachLead 记录合并生成的线索 ID
func (r *uploadRepository) AttachLead(ctx context.Context, uploadID string, leadID uint) error {
	return r.db.WithContext(ctx).
		Model(&uploadModel.ChunkedUpload{}).
		Where("upload_id = ?", uploadID).
		Update("lead_id", leadID).Error
}

// ========== 分片 ==========

// UpsertChunk 写入分片，同一 (upload_id, chunk_index) 后写覆盖先写
func (r *uploadRepository) UpsertChunk(ctx context.Context, chunk *uploadModel.UploadChunk) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "upload_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"chunk_data", "chunk_size", "updated_at"}),
	}).Create(chunk).Error
}

// CountChunks 统计 [0, total) 范围内已上传的分片数
func (r *uploadRepository) CountChunks(ctx context.Context, uploadID string, total int) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&uploadModel.UploadChunk{}).
		Where("upload_id = ? AND chunk_index < ?", uploadID, total).
		Count(&count).Error
	return int(count), err
}

// ChunkIndexes 已上传分片的序号（升序），不读取分片内容
func (r *uploadRepository) ChunkIndexes(ctx context.Context, uploadID string, total int) ([]int, error) {
	var indexes []int
	err := r.db.WithContext(ctx).
		Model(&uploadModel.UploadChunk{}).
		Where("upload_id = ? AND chunk_index < ?", uploadID, total).
		Order("chunk_index ASC").
		Pluck("chunk_index", &indexes).Error
	return indexes, err
}

// ListChunks 按序号升序读取分片
func (r *uploadRepository) ListChunks(ctx context.Context, uploadID string, total int) ([]uploadModel.UploadChunk, error) {
	var chunks []uploadModel.UploadChunk
	err := r.db.WithContext(ctx).
		Where("upload_id = ? AND chunk_index < ?", uploadID, total).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

// DeleteChunks 删除会话的全部分片
func (r *uploadRepository) DeleteChunks(ctx context.Context, uploadID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("upload_id = ?", uploadID).
		Delete(&uploadModel.UploadChunk{})
	return result.RowsAffected, result.Error
}

func (r *uploadRepository) Transaction(ctx context.Context, fn func(repo Repository, leads LeadWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&uploadRepository{db: tx, leads: r.leads}, r.leads(tx))
	})
}
