package upload

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"terminal-terrace/video-lead/internal/lead"
	leadModel "terminal-terrace/video-lead/internal/model/lead"
	uploadModel "terminal-terrace/video-lead/internal/model/upload"
	userModel "terminal-terrace/video-lead/internal/model/user"
	"terminal-terrace/video-lead/internal/testutils"
)

func newGormRepo(db *gorm.DB) Repository {
	return NewUploadRepository(db, func(tx *gorm.DB) LeadWriter { return lead.NewLeadRepository(tx) })
}

func TestUploadRepository_Sessions(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := newGormRepo(db)
	ctx := context.Background()

	alice := testutils.CreateTestUser(db)
	bob := testutils.CreateTestUser(db)

	session := &uploadModel.ChunkedUpload{
		UploadID: "repo-session", UserID: alice.ID, Filename: "a.mp4", ContentType: "video/mp4",
		TotalSize: 10, TotalChunks: 2, Status: uploadModel.StatusActive,
	}
	ok, err := repo.UpsertSession(ctx, session)
	require.NoError(t, err)
	assert.True(t, ok)

	// 同一用户重新开始：覆盖大小与分片数
	ok, err = repo.UpsertSession(ctx, &uploadModel.ChunkedUpload{
		UploadID: "repo-session", UserID: alice.ID, TotalSize: 30, TotalChunks: 3, Status: uploadModel.StatusActive,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// 其他用户不能接管
	ok, err = repo.UpsertSession(ctx, &uploadModel.ChunkedUpload{
		UploadID: "repo-session", UserID: bob.ID, TotalSize: 1, TotalChunks: 1, Status: uploadModel.StatusActive,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindSession(ctx, "repo-session")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.UserID)
	assert.Equal(t, int64(30), found.TotalSize)
	assert.Equal(t, 3, found.TotalChunks)
	assert.Equal(t, "a.mp4", found.Filename)

	_, err = repo.FindSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRepository_ChunksAndCompletion(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := newGormRepo(db)
	ctx := context.Background()

	user := testutils.CreateTestUser(db)
	session := testutils.CreateTestUpload(db, user.ID, 3)

	require.NoError(t, repo.UpsertChunk(ctx, &uploadModel.UploadChunk{UploadID: session.UploadID, ChunkIndex: 2, ChunkData: []byte("ghi"), ChunkSize: 3}))
	require.NoError(t, repo.UpsertChunk(ctx, &uploadModel.UploadChunk{UploadID: session.UploadID, ChunkIndex: 0, ChunkData: []byte("xxx"), ChunkSize: 3}))
	require.NoError(t, repo.UpsertChunk(ctx, &uploadModel.UploadChunk{UploadID: session.UploadID, ChunkIndex: 0, ChunkData: []byte("abc"), ChunkSize: 3}))
	require.NoError(t, repo.UpsertChunk(ctx, &uploadModel.UploadChunk{UploadID: session.UploadID, ChunkIndex: 7, ChunkData: []byte("old"), ChunkSize: 3}))

	count, err := repo.CountChunks(ctx, session.UploadID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	indexes, err := repo.ChunkIndexes(ctx, session.UploadID, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, indexes)

	chunks, err := repo.ListChunks(ctx, session.UploadID, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "abc", string(chunks[0].ChunkData))

	locked, err := repo.LockSession(ctx, session.UploadID)
	require.NoError(t, err)
	assert.Equal(t, uploadModel.StatusActive, locked.Status)

	ok, err := repo.MarkCompleted(ctx, session.UploadID, user.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCompleted(ctx, session.UploadID, user.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "second transition must not apply")

	deleted, err := repo.DeleteChunks(ctx, session.UploadID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestUploadRepository_AssembleEndToEnd(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := newGormRepo(db)
	ctx := context.Background()

	user := testutils.CreateTestUser(db)
	svc := NewService(repo, MD5Verifier{}, NewAssembler(repo, NoopLock{}, zerolog.Nop()), Options{}, zerolog.Nop())

	_, err := svc.StartUpload(ctx, user.ID, StartUploadRequest{UploadID: "e2e-" + user.Email, TotalSize: 9, TotalChunks: 3, Title: "e2e", Comments: "c"})
	require.NoError(t, err)

	var result *ChunkResult
	for i, part := range []string{"abc", "def", "ghi"} {
		result, err = svc.UploadChunk(ctx, user.ID, chunkReq("e2e-"+user.Email, i, []byte(part)))
		require.NoError(t, err)
	}
	require.NotNil(t, result.Complete)
	assert.Equal(t, int64(9), result.Complete.FinalSize)

	stored, err := lead.NewLeadRepository(db).FindByID(ctx, result.Complete.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghi", string(stored.VideoData))
	assert.Equal(t, user.ID, stored.UserID)

	session, err := repo.FindSession(ctx, "e2e-"+user.Email)
	require.NoError(t, err)
	assert.Equal(t, uploadModel.StatusCompleted, session.Status)
	require.NotNil(t, session.LeadID)
	assert.Equal(t, stored.ID, *session.LeadID)

	count, err := repo.CountChunks(ctx, session.UploadID, session.TotalChunks)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// 并发请求需要各自的连接与事务，因此使用真实提交的数据并在结束时清理
func TestUploadRepository_ParallelFinalChunks(t *testing.T) {
	db := testutils.OpenTestDB(t)
	repo := newGormRepo(db)
	ctx := context.Background()

	user := testutils.CreateTestUser(db)
	uploadID := "parallel-" + user.Email
	t.Cleanup(func() {
		db.Where("upload_id = ?", uploadID).Delete(&uploadModel.UploadChunk{})
		db.Where("upload_id = ?", uploadID).Delete(&uploadModel.ChunkedUpload{})
		db.Where("user_id = ?", user.ID).Delete(&leadModel.Lead{})
		db.Delete(&userModel.User{}, user.ID)
	})

	svc := NewService(repo, MD5Verifier{}, NewAssembler(repo, NoopLock{}, zerolog.Nop()), Options{}, zerolog.Nop())
	_, err := svc.StartUpload(ctx, user.ID, StartUploadRequest{UploadID: uploadID, TotalSize: 15, TotalChunks: 5})
	require.NoError(t, err)

	_, err = svc.UploadChunk(ctx, user.ID, chunkReq(uploadID, 0, []byte("aaa")))
	require.NoError(t, err)

	parts := []string{"", "bbb", "ccc", "ddd", "eee"}
	results := make([]*ChunkResult, len(parts))
	errs := make([]error, len(parts))

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 1; i < len(parts); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.UploadChunk(ctx, user.ID, chunkReq(uploadID, i, []byte(parts[i])))
		}(i)
	}
	close(start)
	wg.Wait()

	completed := 0
	for i := 1; i < len(parts); i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], ErrState)
			continue
		}
		if results[i].Complete != nil {
			completed++
		}
	}
	assert.Equal(t, 1, completed)

	var leads []leadModel.Lead
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&leads).Error)
	require.Len(t, leads, 1)
	assert.Equal(t, "aaabbbcccdddeee", string(leads[0].VideoData))

	session, err := repo.FindSession(ctx, uploadID)
	require.NoError(t, err)
	assert.Equal(t, uploadModel.StatusCompleted, session.Status)

	count, err := repo.CountChunks(ctx, uploadID, session.TotalChunks)
	require.NoError(t, err)
	assert.Zero(t, count)
}
