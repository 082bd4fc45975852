package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsmood/internal/config"
)

func TestIsArticleURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://vnexpress.net/2026/03/bai-viet-moi.html", true},
		{"https://tuoitre.vn/tin-tuc/chinh-tri.html", true},
		{"https://tuoitre.vn/phap-luat/vu-an.html", true},
		{"https://tuoitre.vn/the-thao/bong-da.html", true},
		{"https://vnexpress.net/tag/bong-da", false},
		{"https://vnexpress.net/search/?q=abc", false},
		{"https://vnexpress.net/rss/tin-moi.rss", false},
		{"https://vnexpress.net/logo.png", false},
		{"https://vnexpress.net/mot-bai-khong-theo-mau.html", true}, // lenient default
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArticleURL(tt.url))
		})
	}
}

func TestStripFragment(t *testing.T) {
	assert.Equal(t, "https://a.vn/bai", StripFragment("https://a.vn/bai#binh-luan"))
	assert.Equal(t, "https://a.vn/bai", StripFragment("https://a.vn/bai"))
	assert.Equal(t, "https://a.vn/bai", StripFragment("https://a.vn/bai#"))
}

func testCrawlerConfig() Config {
	return Config{
		Timeout:           5 * time.Second,
		MaxPerSite:        288,
		RequestsPerSecond: 100, // no throttling in tests
		UserAgent:         "NewsMoodBot/1.0",
	}
}

func TestArticleURLs_FrontPage(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `<html><body>
			<a href="/tin-tuc/bai-mot.html">Bài một</a>
			<a href="/tin-tuc/bai-mot.html#comment">Bài một (bình luận)</a>
			<a href="/phap-luat/bai-hai.html">Bài hai</a>
			<a href="/tag/bong-da">Tag</a>
			<a href="https://khac.example.vn/tin-tuc/ngoai.html">Ngoài site</a>
			<a href="/logo.png">Logo</a>
		</body></html>`
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	c := New(testCrawlerConfig())
	urls, err := c.ArticleURLs(context.Background(), config.Site{
		Name:    "Test",
		BaseURL: server.URL,
		Active:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		server.URL + "/tin-tuc/bai-mot.html",
		server.URL + "/phap-luat/bai-hai.html",
	}, urls, "same-host article links, fragment-normalized and deduplicated")
}

func TestArticleURLs_Feed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Tin mới</title>
<item><title>Bài một</title><link>https://site.vn/tin-tuc/bai-mot.html</link></item>
<item><title>Bài hai</title><link>https://site.vn/tin-tuc/bai-hai.html#top</link></item>
<item><title>Trùng</title><link>https://site.vn/tin-tuc/bai-mot.html</link></item>
</channel></rss>`
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	defer server.Close()

	c := New(testCrawlerConfig())
	urls, err := c.ArticleURLs(context.Background(), config.Site{
		Name:    "Feed site",
		BaseURL: "https://site.vn",
		FeedURL: server.URL + "/rss/tin-moi.rss",
		Active:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://site.vn/tin-tuc/bai-mot.html",
		"https://site.vn/tin-tuc/bai-hai.html",
	}, urls)
}

func TestArticleURLs_MaxPerSite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<a href="/tin-tuc/1.html">1</a>
			<a href="/tin-tuc/2.html">2</a>
			<a href="/tin-tuc/3.html">3</a>
		</body></html>`))
	}))
	defer server.Close()

	cfg := testCrawlerConfig()
	cfg.MaxPerSite = 2
	c := New(cfg)

	urls, err := c.ArticleURLs(context.Background(), config.Site{Name: "Capped", BaseURL: server.URL, Active: true})
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestArticleURLs_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	c := New(testCrawlerConfig())
	_, err := c.ArticleURLs(context.Background(), config.Site{Name: "Broken", BaseURL: server.URL, Active: true})
	assert.Error(t, err)
}
