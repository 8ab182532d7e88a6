package lead

import "time"

// Lead 线索，附带完整视频内容
type Lead struct {
	ID               uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID           uint      `gorm:"column:user_id;index" json:"user_id"`
	Title            string    `gorm:"column:title" json:"title"`
	Comments         string    `gorm:"column:comments" json:"comments"`
	VideoData        []byte    `gorm:"column:video_data" json:"-"`
	VideoFilename    string    `gorm:"column:video_filename" json:"video_filename"`
	VideoContentType string    `gorm:"column:video_content_type" json:"video_content_type"`
	VideoSize        int64     `gorm:"column:video_size" json:"video_size"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Lead) TableName() string {
	return "video_leads"
}
