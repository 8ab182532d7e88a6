package lead

import (
	"context"
	"encoding/base64"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	leadModel "terminal-terrace/video-lead/internal/model/lead"
	"terminal-terrace/video-lead/pkg/response"
)

type fakeLeadRepo struct {
	leads  map[uint]leadModel.Lead
	nextID uint
	clock  time.Time
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: map[uint]leadModel.Lead{}, clock: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)}
}

func (r *fakeLeadRepo) CreateLead(_ context.Context, lead *leadModel.Lead) error {
	r.nextID++
	lead.ID = r.nextID
	lead.CreatedAt = r.clock.Add(time.Duration(r.nextID) * time.Minute)
	r.leads[lead.ID] = *lead
	return nil
}

func (r *fakeLeadRepo) FindByID(_ context.Context, id uint) (*leadModel.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *fakeLeadRepo) ListByUser(ctx context.Context, userID uint) ([]leadModel.Lead, error) {
	return r.ListByUsers(ctx, []uint{userID})
}

func (r *fakeLeadRepo) ListByUsers(_ context.Context, userIDs []uint) ([]leadModel.Lead, error) {
	want := map[uint]bool{}
	for _, id := range userIDs {
		want[id] = true
	}
	var out []leadModel.Lead
	for _, l := range r.leads {
		if want[l.UserID] {
			l.VideoData = nil
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeLeadRepo) DeleteByID(_ context.Context, id uint) (int64, error) {
	if _, ok := r.leads[id]; !ok {
		return 0, nil
	}
	delete(r.leads, id)
	return 1, nil
}

func (r *fakeLeadRepo) DeleteByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	for id, l := range r.leads {
		if l.UserID == userID {
			delete(r.leads, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeLeadRepo) Count(context.Context) (int64, error) {
	return int64(len(r.leads)), nil
}

func (r *fakeLeadRepo) CountWithVideo(context.Context) (int64, error) {
	var n int64
	for _, l := range r.leads {
		if l.VideoFilename != "" {
			n++
		}
	}
	return n, nil
}

func TestLeadService_Create(t *testing.T) {
	svc := NewLeadService(newFakeLeadRepo(), zerolog.Nop())
	video := base64.StdEncoding.EncodeToString([]byte("webm-bytes"))

	tests := []struct {
		name     string
		req      CreateLeadRequest
		wantCode response.ResponseCode
	}{
		{name: "有效请求", req: CreateLeadRequest{Title: "t", Comments: "c", VideoData: video}},
		{name: "data URL", req: CreateLeadRequest{Title: "t", Comments: "c", VideoData: "data:video/webm;base64," + video}},
		{name: "标题为空白", req: CreateLeadRequest{Title: "  ", Comments: "c", VideoData: video}, wantCode: response.InvalidParameter},
		{name: "缺少视频", req: CreateLeadRequest{Title: "t", Comments: "c"}, wantCode: response.InvalidParameter},
		{name: "非法 base64", req: CreateLeadRequest{Title: "t", Comments: "c", VideoData: "@@@"}, wantCode: response.InvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Create(context.Background(), 1, tt.req)
			if tt.wantCode != 0 {
				require.NotNil(t, err)
				assert.Equal(t, tt.wantCode, err.Code)
				assert.Equal(t, 400, err.HTTPStatus())
				return
			}
			require.Nil(t, err)
			assert.True(t, result.Success)
			assert.NotZero(t, result.LeadID)
			assert.Regexp(t, `^\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}$`, result.CreatedAt)
		})
	}
}

func TestLeadService_CreateDefaults(t *testing.T) {
	repo := newFakeLeadRepo()
	svc := NewLeadService(repo, zerolog.Nop())

	result, err := svc.Create(context.Background(), 3, CreateLeadRequest{
		Title:     " Title ",
		Comments:  "Comments",
		VideoData: base64.StdEncoding.EncodeToString([]byte("abc")),
	})
	require.Nil(t, err)

	stored := repo.leads[result.LeadID]
	assert.Equal(t, "Title", stored.Title)
	assert.Equal(t, "recording.webm", stored.VideoFilename)
	assert.Equal(t, "video/webm", stored.VideoContentType)
	assert.Equal(t, int64(3), stored.VideoSize)
	assert.Equal(t, uint(3), stored.UserID)
}

func TestLeadService_ListAndVideo(t *testing.T) {
	repo := newFakeLeadRepo()
	svc := NewLeadService(repo, zerolog.Nop())
	ctx := context.Background()

	first, _ := svc.Create(ctx, 1, CreateLeadRequest{Title: "first", Comments: "c", VideoData: base64.StdEncoding.EncodeToString([]byte("one")), VideoContentType: "video/mp4"})
	second, _ := svc.Create(ctx, 1, CreateLeadRequest{Title: "second", Comments: "c", VideoData: base64.StdEncoding.EncodeToString([]byte("two"))})
	_, _ = svc.Create(ctx, 2, CreateLeadRequest{Title: "other", Comments: "c", VideoData: base64.StdEncoding.EncodeToString([]byte("x"))})

	list, err := svc.List(ctx, 1)
	require.Nil(t, err)
	require.Len(t, list.Leads, 2)
	assert.Equal(t, second.LeadID, list.Leads[0].ID, "newest first")
	assert.Equal(t, VideoPath(first.LeadID), list.Leads[1].VideoURL)

	video, err := svc.GetVideo(ctx, first.LeadID, 1, false)
	require.Nil(t, err)
	assert.Equal(t, "data:video/mp4;base64,b25l", video.VideoURL)
	assert.Equal(t, "video/mp4", video.ContentType)

	_, err = svc.GetVideo(ctx, first.LeadID, 2, false)
	require.NotNil(t, err)
	assert.Equal(t, response.NotFound, err.Code)

	video, err = svc.GetVideo(ctx, first.LeadID, 0, true)
	require.Nil(t, err)
	assert.NotEmpty(t, video.VideoURL)

	_, err = svc.GetVideo(ctx, 999, 1, false)
	require.NotNil(t, err)
	assert.Equal(t, 404, err.HTTPStatus())
}

func TestLeadService_Delete(t *testing.T) {
	svc := NewLeadService(newFakeLeadRepo(), zerolog.Nop())
	ctx := context.Background()

	created, _ := svc.Create(ctx, 1, CreateLeadRequest{Title: "t", Comments: "c", VideoData: "YWJj"})

	result, err := svc.Delete(ctx, created.LeadID)
	require.Nil(t, err)
	assert.Equal(t, created.LeadID, result.DeletedLeadID)

	_, err = svc.Delete(ctx, created.LeadID)
	require.NotNil(t, err)
	assert.Equal(t, response.NotFound, err.Code)
}
