package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	uploadModel "terminal-terrace/video-lead/internal/model/upload"
)

// maxUploadIDLen 与 chunked_uploads.upload_id 列宽一致
const maxUploadIDLen = 64

// Options 上传行为配置
type Options struct {
	MaxChunkBytes        int  // 解码后的单个分片上限，0 表示不限制
	AllowReopenCompleted bool // 允许对已完成的会话重新 start_upload
}

// Service 上传协调器：start -> 分片写入 -> 合并
type Service struct {
	repo      Repository
	verifier  Verifier
	assembler *Assembler
	opts      Options
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, verifier Verifier, assembler *Assembler, opts Options, log zerolog.Logger) *Service {
	if verifier == nil {
		verifier = MD5Verifier{}
	}
	return &Service{
		repo:      repo,
		verifier:  verifier,
		assembler: assembler,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// StartUpload 创建或重置上传会话
func (s *Service) StartUpload(ctx context.Context, ownerID uint, req StartUploadRequest) (*StartUploadResponse, error) {
	req.UploadID = strings.TrimSpace(req.UploadID)
	if req.UploadID == "" || req.TotalSize == 0 || req.TotalChunks == 0 {
		return nil, fmt.Errorf("%w: missing upload parameters", ErrValidation)
	}
	if req.TotalSize < 0 || req.TotalChunks < 0 {
		return nil, fmt.Errorf("%w: total_size and total_chunks must be positive", ErrValidation)
	}
	if len(req.UploadID) > maxUploadIDLen {
		return nil, fmt.Errorf("%w: upload_id longer than %d", ErrValidation, maxUploadIDLen)
	}

	log := s.log.With().Str("upload_id", req.UploadID).Uint("user_id", ownerID).Logger()

	existing, err := s.repo.FindSession(ctx, req.UploadID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, storageErr("find session", err)
	case existing.UserID != ownerID:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.UploadID)
	case existing.Status == uploadModel.StatusCompleted:
		if !s.opts.AllowReopenCompleted {
			return nil, fmt.Errorf("%w: upload already completed", ErrState)
		}
		log.Warn().Msg("reopening completed upload session")
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = defaultFilename
	}
	session := &uploadModel.ChunkedUpload{
		UploadID:    req.UploadID,
		UserID:      ownerID,
		Filename:    filename,
		Title:       req.Title,
		Comments:    req.Comments,
		ContentType: resolveContentType(req.ContentType, filename),
		TotalSize:   req.TotalSize,
		TotalChunks: req.TotalChunks,
		Status:      uploadModel.StatusActive,
	}
	ok, err := s.repo.UpsertSession(ctx, session)
	if err != nil {
		return nil, storageErr("upsert session", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.UploadID)
	}

	log.Info().Int64("total_size", req.TotalSize).Int("total_chunks", req.TotalChunks).Msg("upload session started")
	return &StartUploadResponse{
		Success:   true,
		UploadID:  req.UploadID,
		NextChunk: 0,
		Message:   "Upload session initialized",
	}, nil
}

// UploadChunk 校验并保存一个分片；全部分片到齐后触发合并
func (s *Service) UploadChunk(ctx context.Context, ownerID uint, req UploadChunkRequest) (*ChunkResult, error) {
	req.UploadID = strings.TrimSpace(req.UploadID)
	if req.UploadID == "" || req.ChunkData == "" {
		return nil, fmt.Errorf("%w: missing chunk data", ErrValidation)
	}

	var total int
	err := s.repo.Transaction(ctx, func(repo Repository, _ LeadWriter) error {
		session, err := repo.LockSession(ctx, req.UploadID)
		if err != nil {
			return storageErr("lock session", err)
		}
		if session.UserID != ownerID {
			return fmt.Errorf("%w: %s", ErrNotFound, req.UploadID)
		}
		if session.Status != uploadModel.StatusActive {
			return fmt.Errorf("%w: status is %s", ErrState, session.Status)
		}

		payload, err := decodeChunk(req.ChunkData)
		if err != nil {
			return fmt.Errorf("%w: invalid chunk data", ErrValidation)
		}
		if s.opts.MaxChunkBytes > 0 && len(payload) > s.opts.MaxChunkBytes {
			return fmt.Errorf("%w: chunk larger than %d bytes", ErrValidation, s.opts.MaxChunkBytes)
		}
		if !s.verifier.Verify(payload, req.ChunkHash) {
			return fmt.Errorf("%w: %s mismatch for chunk %d", ErrIntegrity, s.verifier.Algorithm(), req.ChunkIndex)
		}
		if req.ChunkIndex < 0 || req.ChunkIndex >= session.TotalChunks {
			return fmt.Errorf("%w: chunk_index %d out of range [0, %d)", ErrValidation, req.ChunkIndex, session.TotalChunks)
		}

		if err := repo.UpsertChunk(ctx, &uploadModel.UploadChunk{
			UploadID:   req.UploadID,
			ChunkIndex: req.ChunkIndex,
			ChunkData:  payload,
			ChunkSize:  len(payload),
		}); err != nil {
			return storageErr("store chunk", err)
		}
		total = session.TotalChunks
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交后再计数：事务内看不到并发请求尚未提交的分片
	uploaded, err := s.repo.CountChunks(ctx, req.UploadID, total)
	if err != nil {
		return nil, storageErr("count chunks", err)
	}
	if uploaded == 0 {
		// 分片已提交却计数为 0，说明并发请求已完成合并并清理了分片
		return nil, fmt.Errorf("%w: upload already assembled", ErrState)
	}

	if uploaded < total {
		return &ChunkResult{Progress: &ChunkProgressResponse{
			Success:        true,
			UploadID:       req.UploadID,
			ChunksUploaded: uploaded,
			ChunksTotal:    total,
			NextChunk:      uploaded,
			Progress:       progress(uploaded, total),
		}}, nil
	}

	ref, err := s.assembler.Assemble(ctx, req.UploadID, ownerID)
	if err != nil {
		return nil, err
	}
	return &ChunkResult{Complete: &UploadCompleteResponse{
		Success:        true,
		LeadID:         ref.LeadID,
		UploadComplete: true,
		FinalSize:      ref.FinalSize,
		CreatedAt:      ref.CreatedAt.Format(TimeLayout),
		Message:        "Video successfully uploaded and saved",
	}}, nil
}

// GetStatus 查询会话进度，用于客户端断点续传
func (s *Service) GetStatus(ctx context.Context, ownerID uint, uploadID string) (*UploadStatusResponse, error) {
	session, err := s.repo.FindSession(ctx, uploadID)
	if err != nil {
		return nil, storageErr("find session", err)
	}
	if session.UserID != ownerID {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uploadID)
	}

	resp := &UploadStatusResponse{
		Success:       true,
		UploadID:      session.UploadID,
		Status:        session.Status,
		ChunksTotal:   session.TotalChunks,
		MissingChunks: []int{},
		LeadID:        session.LeadID,
	}

	if session.Status == uploadModel.StatusCompleted {
		resp.ChunksUploaded = session.TotalChunks
		resp.NextChunk = session.TotalChunks
		resp.Progress = 100
		return resp, nil
	}

	indexes, err := s.repo.ChunkIndexes(ctx, uploadID, session.TotalChunks)
	if err != nil {
		return nil, storageErr("list chunk indexes", err)
	}
	resp.ChunksUploaded = len(indexes)
	resp.MissingChunks = missingChunks(indexes, session.TotalChunks)
	resp.NextChunk = session.TotalChunks
	if len(resp.MissingChunks) > 0 {
		resp.NextChunk = resp.MissingChunks[0]
	}
	resp.Progress = progress(resp.ChunksUploaded, session.TotalChunks)
	return resp, nil
}

// missingChunks indexes 必须升序
func missingChunks(indexes []int, total int) []int {
	missing := []int{}
	next := 0
	for i := 0; i < total; i++ {
		if next < len(indexes) && indexes[next] == i {
			next++
			continue
		}
		missing = append(missing, i)
	}
	return missing
}

// decodeChunk 解码 base64 分片，兼容 data URL 前缀
func decodeChunk(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if _, after, ok := strings.Cut(data, ","); ok {
			data = after
		}
	}
	data = strings.TrimSpace(data)
	// 不带填充的输入按 RawStdEncoding 解码，带填充的必须严格合法
	if !strings.Contains(data, "=") && len(data)%4 != 0 {
		return base64.RawStdEncoding.DecodeString(data)
	}
	return base64.StdEncoding.DecodeString(data)
}

// 常见视频扩展名，系统 mime 表不一定包含
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".3gp":  "video/3gpp",
}

func resolveContentType(given, filename string) string {
	if given = strings.TrimSpace(given); given != "" {
		return given
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		if t, ok := videoTypes[ext]; ok {
			return t
		}
		if t := mime.TypeByExtension(ext); t != "" {
			if mt, _, err := mime.ParseMediaType(t); err == nil {
				return mt
			}
			return t
		}
	}
	return defaultContentType
}
