package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsmood/internal/domain/entity"
)

type fakeRepo struct {
	articles  []*entity.Article
	gotStart  time.Time
	gotEnd    time.Time
	gotState  entity.ArticleState
	queryErr  error
	unrelated int64
}

func (f *fakeRepo) FindByURL(context.Context, string) (*entity.Article, error) { return nil, nil }
func (f *fakeRepo) InsertPending(context.Context, string, time.Time) (*entity.Article, error) {
	return nil, nil
}
func (f *fakeRepo) ListPending(context.Context) ([]*entity.Article, error) { return nil, nil }
func (f *fakeRepo) MarkTerminal(context.Context, int64, entity.ArticleState, string, string, time.Time) (bool, error) {
	return false, nil
}
func (f *fakeRepo) QueryByWindow(_ context.Context, start, end time.Time, state entity.ArticleState) ([]*entity.Article, error) {
	f.gotStart, f.gotEnd, f.gotState = start, end, state
	return f.articles, f.queryErr
}
func (f *fakeRepo) CountAll(context.Context) (int64, error)                  { return f.unrelated, nil }
func (f *fakeRepo) CountCrawledSince(context.Context, time.Time) (int64, error) { return 0, nil }
func (f *fakeRepo) CountPending(context.Context) (int64, error)              { return 0, nil }
func (f *fakeRepo) Ping(context.Context) error                               { return nil }

type captureMailer struct {
	subject    string
	body       string
	attachment *Attachment
	sent       int
}

func (m *captureMailer) Send(_ context.Context, subject, body string, attachment *Attachment) error {
	m.subject, m.body, m.attachment = subject, body, attachment
	m.sent++
	return nil
}

func successArticle(id int64, url, analysis string, analyzedAt time.Time) *entity.Article {
	return &entity.Article{
		ID:         id,
		URL:        url,
		Content:    "nội dung",
		Analysis:   analysis,
		State:      entity.StateSuccess,
		CrawledAt:  analyzedAt.Add(-time.Hour),
		AnalyzedAt: &analyzedAt,
	}
}

func newTestService(repo *fakeRepo, mailer Mailer, now time.Time) *Service {
	s := NewService(repo, mailer, now.Location())
	s.now = func() time.Time { return now }
	return s
}

func TestWindow_Day(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, loc)

	start, end := Window(PeriodDay, now)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), start)
	assert.Equal(t, now, end)
}

func TestWindow_DayBoundary(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	now := time.Date(2026, 3, 10, 0, 1, 0, 0, loc)

	start, _ := Window(PeriodDay, now)

	yesterday := time.Date(2026, 3, 9, 23, 59, 0, 0, loc)
	assert.True(t, yesterday.Before(start), "23:59 yesterday falls outside today's window")
}

func TestWindow_Week(t *testing.T) {
	loc := time.UTC
	// 2026-03-12 is a Thursday; the week starts Monday 2026-03-09.
	now := time.Date(2026, 3, 12, 9, 0, 0, 0, loc)

	start, _ := Window(PeriodWeek, now)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), start)

	// On a Monday the window starts that same midnight.
	monday := time.Date(2026, 3, 9, 8, 0, 0, 0, loc)
	start, _ = Window(PeriodWeek, monday)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), start)

	// Sunday belongs to the week begun the previous Monday.
	sunday := time.Date(2026, 3, 15, 8, 0, 0, 0, loc)
	start, _ = Window(PeriodWeek, sunday)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), start)
}

func TestEmotionExtractor(t *testing.T) {
	e := NewEmotionExtractor()

	tests := []struct {
		verdict string
		want    string
	}{
		{"Cảm xúc chủ đạo là Tích cực.", "Tích cực"},
		{"bài viết mang giọng điệu tiêu cực rõ rệt", "Tiêu cực"},
		{"TRUNG LẬP", "Trung lập"},
		{"Phẫn nộ trước vụ việc", "Phẫn nộ"},
		{"Một kết quả đầy bất ngờ", "Bất ngờ"},
		{"không rõ cảm xúc nào", "Không xác định"},
		{"", "Không xác định"},
		// Order decides when several categories appear.
		{"Vừa Tiêu cực vừa Tích cực", "Tích cực"},
	}

	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.verdict))
		})
	}
}

func TestSend_Day(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, loc)

	repo := &fakeRepo{articles: []*entity.Article{
		successArticle(1, "https://a.vn/1", "Tích cực", now.Add(-2*time.Hour)),
		successArticle(2, "https://a.vn/2", "Cảm xúc: Tích cực", now.Add(-time.Hour)),
		successArticle(3, "https://a.vn/3", "Buồn bã", now.Add(-30*time.Minute)),
		successArticle(4, "https://a.vn/4", "mơ hồ", now.Add(-10*time.Minute)),
	}}
	mailer := &captureMailer{}

	err := newTestService(repo, mailer, now).Send(context.Background(), PeriodDay)
	require.NoError(t, err)

	assert.Equal(t, entity.StateSuccess, repo.gotState)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), repo.gotStart)
	assert.Equal(t, now, repo.gotEnd)

	assert.Equal(t, "[Báo cáo phân tích tin tức] Tổng kết ngày 10/03/2026.", mailer.subject)
	assert.Contains(t, mailer.body, "- Tích cực: 2")
	assert.Contains(t, mailer.body, "- Buồn bã: 1")
	assert.Contains(t, mailer.body, "- Hài hước: 0", "zero categories still listed")
	assert.Contains(t, mailer.body, "- Không xác định: 1")
	assert.Contains(t, mailer.body, "Tổng số bài báo đã phân tích thành công: 4")

	require.NotNil(t, mailer.attachment)
	assert.Equal(t, "bao_cao_phan_tich_20260310.csv", mailer.attachment.Filename)
	csvText := string(mailer.attachment.Data)
	assert.Contains(t, csvText, "https://a.vn/3")
	assert.Contains(t, csvText, "Buồn bã")
	assert.Equal(t, 5, strings.Count(csvText, "\n"), "header plus one line per article")
}

func TestSend_WeekSubjectAndFilename(t *testing.T) {
	now := time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)
	mailer := &captureMailer{}

	err := newTestService(&fakeRepo{}, mailer, now).Send(context.Background(), PeriodWeek)
	require.NoError(t, err)

	assert.Equal(t, "[Báo cáo phân tích tin tức] Tổng kết tuần 15/03/2026.", mailer.subject)
	assert.Equal(t, "bao_cao_phan_tich_tuan_20260315.csv", mailer.attachment.Filename)
}

func TestSend_EmptyWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	mailer := &captureMailer{}

	err := newTestService(&fakeRepo{}, mailer, now).Send(context.Background(), PeriodDay)
	require.NoError(t, err)

	assert.Equal(t, 1, mailer.sent, "empty report still goes out")
	assert.Contains(t, mailer.body, "Tổng số bài báo đã phân tích thành công: 0")
	assert.NotContains(t, mailer.body, "Không xác định", "no undetermined line without undetermined records")
}

func TestSend_StoreError(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	repo := &fakeRepo{queryErr: assert.AnError}
	mailer := &captureMailer{}

	err := newTestService(repo, mailer, now).Send(context.Background(), PeriodDay)
	assert.Error(t, err)
	assert.Zero(t, mailer.sent)
}
