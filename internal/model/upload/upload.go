package upload

import "time"

// 上传会话状态
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ChunkedUpload 分片上传会话
type ChunkedUpload struct {
	UploadID    string     `gorm:"column:upload_id;primaryKey" json:"upload_id"`
	UserID      uint       `gorm:"column:user_id;index" json:"user_id"`
	Filename    string     `gorm:"column:filename" json:"filename"`
	Title       string     `gorm:"column:title" json:"title"`
	Comments    string     `gorm:"column:comments" json:"comments"`
	ContentType string     `gorm:"column:content_type" json:"content_type"`
	TotalSize   int64      `gorm:"column:total_size" json:"total_size"`
	TotalChunks int        `gorm:"column:total_chunks" json:"total_chunks"`
	Status      string     `gorm:"column:status" json:"status"`
	LeadID      *uint      `gorm:"column:lead_id" json:"lead_id,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (ChunkedUpload) TableName() string {
	return "chunked_uploads"
}

// UploadChunk 单个分片，(upload_id, chunk_index) 唯一
type UploadChunk struct {
	UploadID   string    `gorm:"column:upload_id;primaryKey" json:"upload_id"`
	ChunkIndex int       `gorm:"column:chunk_index;primaryKey;autoIncrement:false" json:"chunk_index"`
	ChunkData  []byte    `gorm:"column:chunk_data" json:"-"`
	ChunkSize  int       `gorm:"column:chunk_size" json:"chunk_size"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (UploadChunk) TableName() string {
	return "upload_chunks"
}
