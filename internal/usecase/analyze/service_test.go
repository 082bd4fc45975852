package analyze

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsmood/internal/domain/entity"
)

type fakeExtractor struct {
	content map[string]string
	title   map[string]string
	errs    map[string]error
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if err := f.errs[url]; err != nil {
		return "", "", err
	}
	return f.content[url], f.title[url], nil
}

type fakeClassifier struct {
	verdict string
	err     error
}

func (f *fakeClassifier) Classify(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.verdict, nil
}

type terminalUpdate struct {
	state    entity.ArticleState
	content  string
	analysis string
}

type fakeRepo struct {
	mu          sync.Mutex
	pending     []*entity.Article
	updates     map[int64]terminalUpdate
	alreadyDone map[int64]bool
	markErr     error
	listErr     error
}

func newFakeRepo(pending ...*entity.Article) *fakeRepo {
	return &fakeRepo{
		pending:     pending,
		updates:     map[int64]terminalUpdate{},
		alreadyDone: map[int64]bool{},
	}
}

func (f *fakeRepo) FindByURL(context.Context, string) (*entity.Article, error) { return nil, nil }

func (f *fakeRepo) InsertPending(context.Context, string, time.Time) (*entity.Article, error) {
	return nil, nil
}

func (f *fakeRepo) ListPending(context.Context) ([]*entity.Article, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pending, nil
}

func (f *fakeRepo) MarkTerminal(_ context.Context, id int64, state entity.ArticleState, content, analysis string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.alreadyDone[id] {
		return false, nil
	}
	f.updates[id] = terminalUpdate{state: state, content: content, analysis: analysis}
	return true, nil
}

func (f *fakeRepo) QueryByWindow(context.Context, time.Time, time.Time, entity.ArticleState) ([]*entity.Article, error) {
	return nil, nil
}

func (f *fakeRepo) CountAll(context.Context) (int64, error)                     { return 0, nil }
func (f *fakeRepo) CountCrawledSince(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeRepo) CountPending(context.Context) (int64, error) {
	return int64(len(f.pending) - len(f.updates)), nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

func pendingArticle(id int64, url string) *entity.Article {
	return &entity.Article{ID: id, URL: url, State: entity.StatePending, CrawledAt: time.Now()}
}

func newTestService(repo *fakeRepo, ex ContentExtractor, cl Classifier, broker *Broker) Service {
	return NewService(repo, ex, cl, broker, Parallelism{Extract: 4, Classify: 2})
}

func TestRun_ClassifiesPendingArticles(t *testing.T) {
	a1 := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	a2 := pendingArticle(2, "https://news.example.com/the-gioi/bai-2")
	repo := newFakeRepo(a1, a2)

	ex := &fakeExtractor{
		content: map[string]string{a1.URL: "nội dung một", a2.URL: "nội dung hai"},
		title:   map[string]string{a1.URL: "Bài một", a2.URL: "Bài hai"},
	}
	cl := &fakeClassifier{verdict: "Tích cực"}
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	stats, err := newTestService(repo, ex, cl, broker).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Processed)
	assert.Equal(t, int64(2), stats.Succeeded)
	assert.Equal(t, int64(0), stats.Failed)

	require.Len(t, repo.updates, 2)
	assert.Equal(t, terminalUpdate{state: entity.StateSuccess, content: "nội dung một", analysis: "Tích cực"}, repo.updates[1])
	assert.Equal(t, terminalUpdate{state: entity.StateSuccess, content: "nội dung hai", analysis: "Tích cực"}, repo.updates[2])

	var urls []string
	for range 2 {
		ev := <-sub
		urls = append(urls, ev.URL)
		assert.Equal(t, "Tích cực", ev.Sentiment)
	}
	sort.Strings(urls)
	assert.Equal(t, []string{a1.URL, a2.URL}, urls)

	sort.Strings(stats.URLs)
	assert.Equal(t, []string{a1.URL, a2.URL}, stats.URLs)
}

func TestRun_ExtractFailureIsTerminal(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)

	ex := &fakeExtractor{errs: map[string]error{art.URL: errors.New("HTTP 404: request failed")}}
	cl := &fakeClassifier{verdict: "Tích cực"}

	stats, err := newTestService(repo, ex, cl, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(0), stats.Succeeded)

	up := repo.updates[1]
	assert.Equal(t, entity.StateFailed, up.state)
	assert.Empty(t, up.content)
	assert.Equal(t, "ERROR[extract]: HTTP 404: request failed", up.analysis)

	// Failed records still show up in the run's URL list.
	assert.Equal(t, []string{art.URL}, stats.URLs)
}

func TestRun_ClassifyFailureKeepsContent(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)

	ex := &fakeExtractor{content: map[string]string{art.URL: "nội dung"}}
	cl := &fakeClassifier{err: errors.New("connection reset")}

	stats, err := newTestService(repo, ex, cl, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Failed)
	up := repo.updates[1]
	assert.Equal(t, entity.StateFailed, up.state)
	assert.Equal(t, "nội dung", up.content)
	assert.Equal(t, "ERROR[classify]: connection reset", up.analysis)
}

func TestRun_EmptyVerdictSentinel(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)

	ex := &fakeExtractor{content: map[string]string{art.URL: "nội dung"}}
	cl := &fakeClassifier{err: ErrEmptyVerdict}

	_, err := newTestService(repo, ex, cl, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ERROR[classify]: empty result", repo.updates[1].analysis)
}

func TestRun_ClassifierTimeoutIsTerminal(t *testing.T) {
	a1 := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	a2 := pendingArticle(2, "https://news.example.com/the-gioi/bai-2")
	repo := newFakeRepo(a1, a2)

	ex := &fakeExtractor{
		content: map[string]string{a1.URL: "nội dung một", a2.URL: "nội dung hai"},
	}
	// A slow model surfaces the per-call deadline through the retry wrap.
	// The record must fail terminally; the run itself is still live.
	cl := &fakeClassifier{
		err: fmt.Errorf("openai classify failed after retries: openai api error: %w", context.DeadlineExceeded),
	}

	stats, err := newTestService(repo, ex, cl, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Processed)
	assert.Equal(t, int64(2), stats.Failed)
	require.Len(t, repo.updates, 2)
	for id := int64(1); id <= 2; id++ {
		assert.Equal(t, entity.StateFailed, repo.updates[id].state)
		assert.Contains(t, repo.updates[id].analysis, "ERROR[classify]: ")
	}
}

func TestRun_CancelledContextAbortsBatch(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(repo, &fakeExtractor{}, &fakeClassifier{}, nil).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.updates)
}

func TestRun_FailureReachesStream(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)

	ex := &fakeExtractor{errs: map[string]error{art.URL: errors.New("HTTP 404: request failed")}}
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	_, err := newTestService(repo, ex, &fakeClassifier{}, broker).Run(context.Background())
	require.NoError(t, err)

	ev := <-sub
	assert.Equal(t, art.URL, ev.URL)
	assert.Equal(t, "ERROR[extract]: HTTP 404: request failed", ev.Sentiment)
}

func TestRun_AlreadyTerminalIsSkipped(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)
	repo.alreadyDone[1] = true

	ex := &fakeExtractor{content: map[string]string{art.URL: "nội dung"}}
	cl := &fakeClassifier{verdict: "Trung lập"}
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	stats, err := newTestService(repo, ex, cl, broker).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Skipped)
	assert.Equal(t, int64(0), stats.Succeeded)
	assert.Empty(t, repo.updates)

	select {
	case ev := <-sub:
		t.Fatalf("unexpected event for skipped article: %+v", ev)
	default:
	}
}

func TestRun_StoreFaultAbortsBatch(t *testing.T) {
	art := pendingArticle(1, "https://news.example.com/suc-khoe/bai-1")
	repo := newFakeRepo(art)
	repo.markErr = errors.New("store unavailable")

	ex := &fakeExtractor{content: map[string]string{art.URL: "nội dung"}}
	cl := &fakeClassifier{verdict: "Trung lập"}

	_, err := newTestService(repo, ex, cl, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestRun_EmptyBacklog(t *testing.T) {
	repo := newFakeRepo()

	stats, err := newTestService(repo, &fakeExtractor{}, &fakeClassifier{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestRun_ListFault(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errors.New("store unavailable")

	_, err := newTestService(repo, &fakeExtractor{}, &fakeClassifier{}, nil).Run(context.Background())
	require.Error(t, err)
}

func TestIsFailureNote(t *testing.T) {
	assert.True(t, IsFailureNote("ERROR[extract]: HTTP 404"))
	assert.True(t, IsFailureNote("ERROR[classify]: empty result"))
	assert.False(t, IsFailureNote("Tích cực"))
	assert.False(t, IsFailureNote(""))
}
