package upload

import (
	"context"
	"sort"
	"sync"
	"time"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
	uploadModel "terminal-terrace/video-lead/internal/model/upload"
)

// memStore 内存版存储，隔离级别近似 READ COMMITTED：
// 事务内写入的分片提交前对其他事务不可见；会话行上 LockSession 持共享锁、MarkCompleted 持排他锁直到事务结束
type memStore struct {
	mu         sync.Mutex
	sessions   map[string]uploadModel.ChunkedUpload
	chunks     map[string]map[int][]byte
	leads      []leadModel.Lead
	nextLeadID uint
	rows       map[string]*sync.RWMutex

	createLeadErr error
	// afterStage 事务内暂存分片后调用，用于控制并发请求的交错顺序
	afterStage func(uploadID string, index int)
}

func newMemStore() *memStore {
	return &memStore{
		sessions: map[string]uploadModel.ChunkedUpload{},
		chunks:   map[string]map[int][]byte{},
		rows:     map[string]*sync.RWMutex{},
	}
}

func (s *memStore) rowLock(uploadID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rows[uploadID]
	if !ok {
		l = &sync.RWMutex{}
		s.rows[uploadID] = l
	}
	return l
}

func (s *memStore) leadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

func (s *memStore) chunkCount(uploadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks[uploadID])
}

func (s *memStore) session(uploadID string) (uploadModel.ChunkedUpload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[uploadID]
	return sess, ok
}

func (s *memStore) lead(id uint) (leadModel.Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == id {
			return l, true
		}
	}
	return leadModel.Lead{}, false
}

// fakeTx 事务状态：暂存的分片、回滚操作、事务结束时释放的行锁
type fakeTx struct {
	staged  map[string]map[int][]byte
	undo    []func()
	release []func()
}

type fakeRepo struct {
	store *memStore
	tx    *fakeTx
}

func newFakeRepo() (*fakeRepo, *memStore) {
	store := newMemStore()
	return &fakeRepo{store: store}, store
}

func (r *fakeRepo) lock() func() {
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

// onRollback 调用方持有 store.mu
func (r *fakeRepo) onRollback(fn func()) {
	if r.tx != nil {
		r.tx.undo = append(r.tx.undo, fn)
	}
}

func (r *fakeRepo) UpsertSession(_ context.Context, session *uploadModel.ChunkedUpload) (bool, error) {
	defer r.lock()()
	now := time.Now()
	existing, ok := r.store.sessions[session.UploadID]
	if !ok {
		session.CreatedAt, session.UpdatedAt = now, now
		r.store.sessions[session.UploadID] = *session
		return true, nil
	}
	if existing.UserID != session.UserID {
		return false, nil
	}
	existing.TotalSize = session.TotalSize
	existing.TotalChunks = session.TotalChunks
	existing.Status = uploadModel.StatusActive
	existing.LeadID = nil
	existing.CompletedAt = nil
	existing.UpdatedAt = now
	r.store.sessions[session.UploadID] = existing
	return true, nil
}

func (r *fakeRepo) FindSession(_ context.Context, uploadID string) (*uploadModel.ChunkedUpload, error) {
	defer r.lock()()
	sess, ok := r.store.sessions[uploadID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (r *fakeRepo) LockSession(ctx context.Context, uploadID string) (*uploadModel.ChunkedUpload, error) {
	if r.tx != nil {
		l := r.store.rowLock(uploadID)
		l.RLock()
		r.tx.release = append(r.tx.release, l.RUnlock)
	}
	return r.FindSession(ctx, uploadID)
}

func (r *fakeRepo) MarkCompleted(_ context.Context, uploadID string, ownerID uint, at time.Time) (bool, error) {
	if r.tx != nil {
		l := r.store.rowLock(uploadID)
		l.Lock()
		r.tx.release = append(r.tx.release, l.Unlock)
	}
	defer r.lock()()
	sess, ok := r.store.sessions[uploadID]
	if !ok || sess.UserID != ownerID || sess.Status != uploadModel.StatusActive {
		return false, nil
	}
	prev := sess
	r.onRollback(func() { r.store.sessions[uploadID] = prev })

	sess.Status = uploadModel.StatusCompleted
	sess.CompletedAt = &at
	sess.UpdatedAt = at
	r.store.sessions[uploadID] = sess
	return true, nil
}

func (r *fakeRepo) AttachLead(_ context.Context, uploadID string, leadID uint) error {
	defer r.lock()()
	sess := r.store.sessions[uploadID]
	prev := sess
	r.onRollback(func() { r.store.sessions[uploadID] = prev })

	sess.LeadID = &leadID
	r.store.sessions[uploadID] = sess
	return nil
}

func (r *fakeRepo) UpsertChunk(_ context.Context, chunk *uploadModel.UploadChunk) error {
	data := append([]byte(nil), chunk.ChunkData...)
	if r.tx != nil {
		m, ok := r.tx.staged[chunk.UploadID]
		if !ok {
			m = map[int][]byte{}
			r.tx.staged[chunk.UploadID] = m
		}
		m[chunk.ChunkIndex] = data
		if hook := r.store.afterStage; hook != nil {
			hook(chunk.UploadID, chunk.ChunkIndex)
		}
		return nil
	}

	defer r.lock()()
	r.store.putChunk(chunk.UploadID, chunk.ChunkIndex, data)
	return nil
}

// putChunk 调用方持有 store.mu
func (s *memStore) putChunk(uploadID string, index int, data []byte) {
	m, ok := s.chunks[uploadID]
	if !ok {
		m = map[int][]byte{}
		s.chunks[uploadID] = m
	}
	m[index] = data
}

// visible 已提交的分片加上本事务暂存的分片，调用方持有 store.mu
func (r *fakeRepo) visible(uploadID string) map[int][]byte {
	out := map[int][]byte{}
	for i, b := range r.store.chunks[uploadID] {
		out[i] = b
	}
	if r.tx != nil {
		for i, b := range r.tx.staged[uploadID] {
			out[i] = b
		}
	}
	return out
}

func (r *fakeRepo) indexes(uploadID string, total int) []int {
	var idx []int
	for i := range r.visible(uploadID) {
		if i < total {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	return idx
}

func (r *fakeRepo) CountChunks(_ context.Context, uploadID string, total int) (int, error) {
	defer r.lock()()
	return len(r.indexes(uploadID, total)), nil
}

func (r *fakeRepo) ChunkIndexes(_ context.Context, uploadID string, total int) ([]int, error) {
	defer r.lock()()
	return r.indexes(uploadID, total), nil
}

func (r *fakeRepo) ListChunks(_ context.Context, uploadID string, total int) ([]uploadModel.UploadChunk, error) {
	defer r.lock()()
	all := r.visible(uploadID)
	var chunks []uploadModel.UploadChunk
	for _, i := range r.indexes(uploadID, total) {
		data := all[i]
		chunks = append(chunks, uploadModel.UploadChunk{UploadID: uploadID, ChunkIndex: i, ChunkData: data, ChunkSize: len(data)})
	}
	return chunks, nil
}

func (r *fakeRepo) DeleteChunks(_ context.Context, uploadID string) (int64, error) {
	defer r.lock()()
	n := int64(len(r.visible(uploadID)))
	if prev, ok := r.store.chunks[uploadID]; ok {
		r.onRollback(func() { r.store.chunks[uploadID] = prev })
	}
	delete(r.store.chunks, uploadID)
	if r.tx != nil {
		delete(r.tx.staged, uploadID)
	}
	return n, nil
}

func (r *fakeRepo) Transaction(_ context.Context, fn func(repo Repository, leads LeadWriter) error) error {
	if r.tx != nil {
		return fn(r, &fakeLeadWriter{repo: r})
	}

	tx := &fakeRepo{store: r.store, tx: &fakeTx{staged: map[string]map[int][]byte{}}}
	defer func() {
		for i := len(tx.tx.release) - 1; i >= 0; i-- {
			tx.tx.release[i]()
		}
	}()

	err := fn(tx, &fakeLeadWriter{repo: tx})

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err != nil {
		for i := len(tx.tx.undo) - 1; i >= 0; i-- {
			tx.tx.undo[i]()
		}
		return err
	}
	for id, m := range tx.tx.staged {
		for i, b := range m {
			r.store.putChunk(id, i, b)
		}
	}
	return nil
}

type fakeLeadWriter struct {
	repo *fakeRepo
}

func (w *fakeLeadWriter) CreateLead(_ context.Context, lead *leadModel.Lead) error {
	store := w.repo.store
	defer w.repo.lock()()
	if store.createLeadErr != nil {
		return store.createLeadErr
	}
	store.nextLeadID++
	lead.ID = store.nextLeadID
	lead.CreatedAt = time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	store.leads = append(store.leads, *lead)

	id := lead.ID
	w.repo.onRollback(func() {
		for i, l := range store.leads {
			if l.ID == id {
				store.leads = append(store.leads[:i], store.leads[i+1:]...)
				return
			}
		}
	})
	return nil
}

// busyLock 模拟锁已被其他请求持有
type busyLock struct{}

func (busyLock) TryLock(context.Context, string) (func(), bool, error) {
	return nil, false, nil
}
