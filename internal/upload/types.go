package upload

import (
	"math"
	"time"
)

// 请求动作
const (
	ActionStartUpload = "start_upload"
	ActionUploadChunk = "upload_chunk"
)

const (
	defaultFilename    = "video.mp4"
	defaultContentType = "video/mp4"

	// 对外展示的时间格式 dd.mm.yyyy HH:MM
	TimeLayout = "02.01.2006 15:04"
)

// ChunkedRequest POST /upload-chunked 的请求体，action 决定使用哪些字段
type ChunkedRequest struct {
	Action string `json:"action" example:"upload_chunk"`

	UploadID    string `json:"upload_id"`
	TotalSize   int64  `json:"total_size"`
	TotalChunks int    `json:"total_chunks"`
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	Comments    string `json:"comments"`
	ContentType string `json:"content_type"`

	ChunkIndex *int   `json:"chunk_index"`
	ChunkData  string `json:"chunk_data"` // base64
	ChunkHash  string `json:"chunk_hash"`
}

// StartUploadRequest 初始化上传会话
type StartUploadRequest struct {
	UploadID    string
	TotalSize   int64
	TotalChunks int
	Filename    string
	Title       string
	Comments    string
	ContentType string
}

// UploadChunkRequest 上传单个分片
type UploadChunkRequest struct {
	UploadID   string
	ChunkIndex int
	ChunkData  string
	ChunkHash  string
}

func (r *ChunkedRequest) StartRequest() StartUploadRequest {
	return StartUploadRequest{
		UploadID:    r.UploadID,
		TotalSize:   r.TotalSize,
		TotalChunks: r.TotalChunks,
		Filename:    r.Filename,
		Title:       r.Title,
		Comments:    r.Comments,
		ContentType: r.ContentType,
	}
}

func (r *ChunkedRequest) ChunkRequest() UploadChunkRequest {
	req := UploadChunkRequest{
		UploadID:  r.UploadID,
		ChunkData: r.ChunkData,
		ChunkHash: r.ChunkHash,
	}
	if r.ChunkIndex != nil {
		req.ChunkIndex = *r.ChunkIndex
	}
	return req
}

type StartUploadResponse struct {
	Success   bool   `json:"success"`
	UploadID  string `json:"upload_id"`
	NextChunk int    `json:"next_chunk"`
	Message   string `json:"message"`
}

type ChunkProgressResponse struct {
	Success        bool    `json:"success"`
	UploadID       string  `json:"upload_id"`
	ChunksUploaded int     `json:"chunks_uploaded"`
	ChunksTotal    int     `json:"chunks_total"`
	NextChunk      int     `json:"next_chunk"`
	Progress       float64 `json:"progress"`
}

type UploadCompleteResponse struct {
	Success        bool   `json:"success"`
	LeadID         uint   `json:"lead_id"`
	UploadComplete bool   `json:"upload_complete"`
	FinalSize      int64  `json:"final_size"`
	CreatedAt      string `json:"created_at"`
	Message        string `json:"message"`
}

// ChunkResult 分片上传结果，二者恰有一个非空
type ChunkResult struct {
	Progress *ChunkProgressResponse
	Complete *UploadCompleteResponse
}

// Body 返回要输出的响应体
func (r *ChunkResult) Body() any {
	if r.Complete != nil {
		return r.Complete
	}
	return r.Progress
}

type UploadStatusResponse struct {
	Success        bool    `json:"success"`
	UploadID       string  `json:"upload_id"`
	Status         string  `json:"status"`
	ChunksUploaded int     `json:"chunks_uploaded"`
	ChunksTotal    int     `json:"chunks_total"`
	NextChunk      int     `json:"next_chunk"`
	MissingChunks  []int   `json:"missing_chunks"`
	Progress       float64 `json:"progress"`
	LeadID         *uint   `json:"lead_id,omitempty"`
}

// FinalObjectRef 合并完成后生成的线索
type FinalObjectRef struct {
	LeadID    uint
	FinalSize int64
	CreatedAt time.Time
}

// progress 百分比，保留一位小数
func progress(uploaded, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(uploaded)/float64(total)*1000) / 10
}
