package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"newsmood/internal/domain/entity"
	"newsmood/internal/observability/metrics"
	"newsmood/internal/repository"
)

// Service builds and sends periodic emotion reports.
type Service struct {
	repo      repository.ArticleRepository
	mailer    Mailer
	extractor *EmotionExtractor
	location  *time.Location
	now       func() time.Time
}

// NewService creates a report service. The location fixes what "today" and
// "this week" mean, independent of the host timezone.
func NewService(repo repository.ArticleRepository, mailer Mailer, location *time.Location) *Service {
	return &Service{
		repo:      repo,
		mailer:    mailer,
		extractor: NewEmotionExtractor(),
		location:  location,
		now:       func() time.Time { return time.Now().In(location) },
	}
}

// row is one analyzed article in the report detail.
type row struct {
	article *entity.Article
	emotion string
}

// Send aggregates the period's successfully analyzed articles and emails the
// summary. Store faults propagate; delivery faults do not (the mailer logs
// and swallows them).
func (s *Service) Send(ctx context.Context, period Period) error {
	now := s.now()
	start, end := Window(period, now)

	articles, err := s.repo.QueryByWindow(ctx, start, end, entity.StateSuccess)
	if err != nil {
		metrics.ReportsSentTotal.WithLabelValues(string(period), "error").Inc()
		return fmt.Errorf("Send: %w", err)
	}

	rows := make([]row, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, row{article: a, emotion: s.extractor.Extract(a.Analysis)})
	}
	tally := s.tally(rows)

	subject := s.subject(period, now)
	body := s.body(period, tally, len(rows))
	attachment, err := s.attachment(period, now, rows)
	if err != nil {
		metrics.ReportsSentTotal.WithLabelValues(string(period), "error").Inc()
		return fmt.Errorf("Send: %w", err)
	}

	if err := s.mailer.Send(ctx, subject, body, attachment); err != nil {
		// Mailers swallow their own failures; an error here is a bug.
		metrics.ReportsSentTotal.WithLabelValues(string(period), "error").Inc()
		return fmt.Errorf("Send: %w", err)
	}

	metrics.ReportsSentTotal.WithLabelValues(string(period), "sent").Inc()
	slog.Info("report sent",
		slog.String("period", string(period)),
		slog.Time("window_start", start),
		slog.Int("articles", len(rows)))
	return nil
}

// tally zero-initializes every known category so the report always shows the
// full list; the undetermined bucket appears only when something landed in it.
func (s *Service) tally(rows []row) map[string]int {
	tally := make(map[string]int, len(s.extractor.Categories())+1)
	for _, category := range s.extractor.Categories() {
		tally[category] = 0
	}
	for _, r := range rows {
		if _, known := tally[r.emotion]; known {
			tally[r.emotion]++
			continue
		}
		tally[s.extractor.Fallback()]++
	}
	return tally
}

func (s *Service) subject(period Period, now time.Time) string {
	label := "ngày"
	if period == PeriodWeek {
		label = "tuần"
	}
	return fmt.Sprintf("[Báo cáo phân tích tin tức] Tổng kết %s %s.", label, now.Format("02/01/2006"))
}

func (s *Service) body(period Period, tally map[string]int, total int) string {
	span := "trong ngày"
	if period == PeriodWeek {
		span = "trong tuần"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "Kính gửi Quản trị viên,\n\n")
	fmt.Fprintf(&b, "Dưới đây là thống kê cảm xúc các bài báo đã phân tích %s:\n", span)
	for _, category := range s.extractor.Categories() {
		fmt.Fprintf(&b, "- %s: %d\n", category, tally[category])
	}
	if undetermined := tally[s.extractor.Fallback()]; undetermined > 0 {
		fmt.Fprintf(&b, "- %s: %d\n", s.extractor.Fallback(), undetermined)
	}
	fmt.Fprintf(&b, "\nTổng số bài báo đã phân tích thành công: %d\n", total)
	fmt.Fprintf(&b, "\nFile đính kèm chứa chi tiết từng bài báo.\n\nTrân trọng.")
	return b.String()
}

// attachment renders the per-article detail as CSV.
func (s *Service) attachment(period Period, now time.Time, rows []row) (*Attachment, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "url", "crawled_at", "analyzed_at", "emotion", "analysis"}); err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}
	for _, r := range rows {
		analyzedAt := ""
		if r.article.AnalyzedAt != nil {
			analyzedAt = r.article.AnalyzedAt.In(s.location).Format(time.RFC3339)
		}
		record := []string{
			fmt.Sprintf("%d", r.article.ID),
			r.article.URL,
			r.article.CrawledAt.In(s.location).Format(time.RFC3339),
			analyzedAt,
			r.emotion,
			r.article.Analysis,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("attachment: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}

	name := fmt.Sprintf("bao_cao_phan_tich_%s.csv", now.Format("20060102"))
	if period == PeriodWeek {
		name = fmt.Sprintf("bao_cao_phan_tich_tuan_%s.csv", now.Format("20060102"))
	}
	return &Attachment{Filename: name, Data: buf.Bytes()}, nil
}
