package lead

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
	"terminal-terrace/video-lead/pkg/response"
)

const (
	defaultFilename    = "recording.webm"
	defaultContentType = "video/webm"
)

type LeadService struct {
	repo LeadRepository
	log  zerolog.Logger
}

func NewLeadService(repo LeadRepository, log zerolog.Logger) *LeadService {
	return &LeadService{repo: repo, log: log}
}

// Create 创建线索，视频为整段 base64
func (s *LeadService) Create(ctx context.Context, userID uint, req CreateLeadRequest) (*CreateLeadResponse, *response.BusinessError) {
	title := strings.TrimSpace(req.Title)
	comments := strings.TrimSpace(req.Comments)
	if title == "" || comments == "" || req.VideoData == "" {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.InvalidParameter),
			response.WithErrorMessage("Missing required fields"),
		)
	}

	video, err := DecodeVideo(req.VideoData)
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.InvalidParameter),
			response.WithErrorMessage("Invalid video data"),
			response.WithError(err),
		)
	}

	filename := strings.TrimSpace(req.VideoFilename)
	if filename == "" {
		filename = defaultFilename
	}
	contentType := strings.TrimSpace(req.VideoContentType)
	if contentType == "" {
		contentType = defaultContentType
	}

	lead := &leadModel.Lead{
		UserID:           userID,
		Title:            title,
		Comments:         comments,
		VideoData:        video,
		VideoFilename:    filename,
		VideoContentType: contentType,
		VideoSize:        int64(len(video)),
	}
	if err := s.repo.CreateLead(ctx, lead); err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("create lead failed")
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("保存线索失败"),
			response.WithError(err),
		)
	}

	s.log.Info().Uint("lead_id", lead.ID).Uint("user_id", userID).Int64("video_size", lead.VideoSize).Msg("lead created")
	return &CreateLeadResponse{
		Success:   true,
		LeadID:    lead.ID,
		CreatedAt: lead.CreatedAt.Format(TimeLayout),
	}, nil
}

// List 当前用户的线索
func (s *LeadService) List(ctx context.Context, userID uint) (*ListLeadsResponse, *response.BusinessError) {
	leads, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("查询线索失败"),
			response.WithError(err),
		)
	}

	items := make([]LeadItem, 0, len(leads))
	for _, l := range leads {
		items = append(items, toLeadItem(l))
	}
	return &ListLeadsResponse{Leads: items}, nil
}

// GetVideo 读取线索视频；非管理员只能读取自己的线索
func (s *LeadService) GetVideo(ctx context.Context, leadID, userID uint, asAdmin bool) (*VideoResponse, *response.BusinessError) {
	lead, err := s.repo.FindByID(ctx, leadID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !asAdmin && lead.UserID != userID) {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage("Video not found or access denied"),
		)
	}
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("查询视频失败"),
			response.WithError(err),
		)
	}
	if len(lead.VideoData) == 0 {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage("No video data found"),
		)
	}

	return &VideoResponse{
		VideoURL:    DataURL(lead.VideoContentType, lead.VideoData),
		Filename:    lead.VideoFilename,
		ContentType: lead.VideoContentType,
	}, nil
}

// Delete 删除线索（管理员）
func (s *LeadService) Delete(ctx context.Context, leadID uint) (*DeleteLeadResponse, *response.BusinessError) {
	n, err := s.repo.DeleteByID(ctx, leadID)
	if err != nil {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.StorageFailed),
			response.WithErrorMessage("删除线索失败"),
			response.WithError(err),
		)
	}
	if n == 0 {
		return nil, response.NewBusinessError(
			response.WithErrorCode(response.NotFound),
			response.WithErrorMessage("Lead not found"),
		)
	}

	s.log.Info().Uint("lead_id", leadID).Msg("lead deleted")
	return &DeleteLeadResponse{
		Success:       true,
		Message:       "Lead deleted successfully",
		DeletedLeadID: leadID,
	}, nil
}

// DecodeVideo 解码 base64 视频，兼容 data URL 前缀
func DecodeVideo(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if _, after, ok := strings.Cut(data, ","); ok {
			data = after
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(data))
}

// DataURL 拼接 data:<type>;base64,<payload>
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
