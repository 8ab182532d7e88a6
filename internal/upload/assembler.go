package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
)

// Assembler 将全部分片按序合并为一条线索
type Assembler struct {
	repo Repository
	lock AssemblyLock
	log  zerolog.Logger
	now  func() time.Time
}

func NewAssembler(repo Repository, lock AssemblyLock, log zerolog.Logger) *Assembler {
	if lock == nil {
		lock = NoopLock{}
	}
	return &Assembler{repo: repo, lock: lock, log: log, now: time.Now}
}

// Assemble 在同一事务内完成：状态 active -> completed、按序拼接分片、写入线索、删除分片
// 任一步失败则整体回滚，会话保持 active
func (a *Assembler) Assemble(ctx context.Context, uploadID string, ownerID uint) (*FinalObjectRef, error) {
	log := a.log.With().Str("upload_id", uploadID).Uint("user_id", ownerID).Logger()

	unlock, acquired, err := a.lock.TryLock(ctx, uploadID)
	if err != nil {
		log.Warn().Err(err).Msg("assembly lock unavailable, relying on database")
	} else if !acquired {
		return nil, fmt.Errorf("%w: assembly already in progress", ErrState)
	} else {
		defer unlock()
	}

	var ref *FinalObjectRef
	err = a.repo.Transaction(ctx, func(repo Repository, leads LeadWriter) error {
		completed, err := repo.MarkCompleted(ctx, uploadID, ownerID, a.now())
		if err != nil {
			return storageErr("mark completed", err)
		}

		session, err := repo.FindSession(ctx, uploadID)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: upload metadata not found", ErrAssembly)
		}
		if err != nil {
			return storageErr("load session", err)
		}
		if session.UserID != ownerID {
			return fmt.Errorf("%w: upload metadata not found", ErrAssembly)
		}
		if !completed {
			return fmt.Errorf("%w: status is %s", ErrState, session.Status)
		}

		chunks, err := repo.ListChunks(ctx, uploadID, session.TotalChunks)
		if err != nil {
			return storageErr("list chunks", err)
		}
		if len(chunks) == 0 {
			return fmt.Errorf("%w: no chunks found", ErrAssembly)
		}

		var size int
		for i, chunk := range chunks {
			if chunk.ChunkIndex != i {
				return fmt.Errorf("%w: chunk %d missing", ErrAssembly, i)
			}
			size += len(chunk.ChunkData)
		}
		if len(chunks) != session.TotalChunks {
			return fmt.Errorf("%w: %d of %d chunks present", ErrAssembly, len(chunks), session.TotalChunks)
		}

		var buf bytes.Buffer
		buf.Grow(size)
		for _, chunk := range chunks {
			buf.Write(chunk.ChunkData)
		}
		if int64(buf.Len()) != session.TotalSize {
			log.Warn().Int64("declared_size", session.TotalSize).Int("final_size", buf.Len()).Msg("assembled size differs from declared size")
		}

		contentType := session.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}
		lead := &leadModel.Lead{
			UserID:           ownerID,
			Title:            session.Title,
			Comments:         session.Comments,
			VideoData:        buf.Bytes(),
			VideoFilename:    session.Filename,
			VideoContentType: contentType,
			VideoSize:        int64(buf.Len()),
		}
		if err := leads.CreateLead(ctx, lead); err != nil {
			return storageErr("create lead", err)
		}

		if err := repo.AttachLead(ctx, uploadID, lead.ID); err != nil {
			return storageErr("attach lead", err)
		}
		if _, err := repo.DeleteChunks(ctx, uploadID); err != nil {
			return storageErr("delete chunks", err)
		}

		ref = &FinalObjectRef{LeadID: lead.ID, FinalSize: lead.VideoSize, CreatedAt: lead.CreatedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("lead_id", ref.LeadID).Int64("final_size", ref.FinalSize).Msg("upload assembled")
	return ref, nil
}
