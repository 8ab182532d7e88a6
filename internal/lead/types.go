package lead

import (
	"fmt"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
)

// 对外展示的时间格式 dd.mm.yyyy HH:MM
const TimeLayout = "02.01.2006 15:04"

// CreateLeadRequest 直接创建线索（小视频，整段 base64）
type CreateLeadRequest struct {
	Title            string `json:"title" binding:"required,max=500"`
	Comments         string `json:"comments" binding:"required"`
	VideoData        string `json:"video_data" binding:"required"`
	VideoFilename    string `json:"video_filename" binding:"max=255"`
	VideoContentType string `json:"video_content_type" binding:"max=100"`
}

type CreateLeadResponse struct {
	Success   bool   `json:"success"`
	LeadID    uint   `json:"lead_id"`
	CreatedAt string `json:"created_at"`
}

type LeadItem struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	Comments         string `json:"comments"`
	VideoFilename    string `json:"video_filename"`
	VideoContentType string `json:"video_content_type"`
	VideoSize        int64  `json:"video_size"`
	CreatedAt        string `json:"created_at"`
	VideoURL         string `json:"video_url"`
}

type ListLeadsResponse struct {
	Leads []LeadItem `json:"leads"`
}

// VideoResponse 视频以 data URL 返回
type VideoResponse struct {
	VideoURL    string `json:"video_url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type DeleteLeadResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	DeletedLeadID uint   `json:"deleted_lead_id"`
}

// VideoPath 获取视频的接口路径
func VideoPath(id uint) string {
	return fmt.Sprintf("/api/v1/leads/%d/video", id)
}

func toLeadItem(l leadModel.Lead) LeadItem {
	return LeadItem{
		ID:               l.ID,
		Title:            l.Title,
		Comments:         l.Comments,
		VideoFilename:    l.VideoFilename,
		VideoContentType: l.VideoContentType,
		VideoSize:        l.VideoSize,
		CreatedAt:        l.CreatedAt.Format(TimeLayout),
		VideoURL:         VideoPath(l.ID),
	}
}
