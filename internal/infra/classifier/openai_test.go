package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsmood/internal/usecase/analyze"
)

func testConfig(baseURL string) Config {
	return Config{
		Provider:      "openai",
		APIKey:        "test-key",
		BaseURL:       baseURL,
		Model:         "test-model",
		MaxTokens:     256,
		Timeout:       5 * time.Second,
		MaxInputChars: 10000,
	}
}

// chatServer fakes an OpenAI-compatible chat completion endpoint.
func chatServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "cảm xúc")

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestOpenAI_Classify(t *testing.T) {
	server := chatServer(t, "Cảm xúc chủ đạo của bài báo là Tích cực.", http.StatusOK)
	defer server.Close()

	c := NewOpenAI(testConfig(server.URL + "/v1"))

	verdict, err := c.Classify(context.Background(), "Đội tuyển quốc gia giành chiến thắng lịch sử.")
	require.NoError(t, err)
	assert.Contains(t, verdict, "Tích cực")
}

func TestOpenAI_Classify_TimeoutIsNotContextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testConfig(server.URL + "/v1")
	cfg.Timeout = 50 * time.Millisecond
	c := NewOpenAI(cfg)

	_, err := c.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, analyze.ErrTimeout)
	// A live caller must not see its own context as the cause.
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestOpenAI_Classify_EmptyVerdict(t *testing.T) {
	server := chatServer(t, "   ", http.StatusOK)
	defer server.Close()

	c := NewOpenAI(testConfig(server.URL + "/v1"))

	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, analyze.ErrEmptyVerdict)
}

func TestOpenAI_Classify_ServerError(t *testing.T) {
	server := chatServer(t, "", http.StatusBadRequest)
	defer server.Close()

	c := NewOpenAI(testConfig(server.URL + "/v1"))

	_, err := c.Classify(context.Background(), "text")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, analyze.ErrEmptyVerdict)
}

func TestNoop_Classify(t *testing.T) {
	verdict, err := Noop{}.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Trung lập", verdict)
}

func TestNew_SelectsProvider(t *testing.T) {
	cfg := testConfig("")
	c, err := New(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)

	cfg.Provider = "noop"
	c, err = New(&cfg)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	cfg.Provider = "mystery"
	_, err = New(&cfg)
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults to openai and requires key", func(t *testing.T) {
		t.Setenv("CLASSIFIER_TYPE", "")
		t.Setenv("CLASSIFIER_API_KEY", "")
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("noop needs no key", func(t *testing.T) {
		t.Setenv("CLASSIFIER_TYPE", "noop")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "noop", cfg.Provider)
	})

	t.Run("openai with key and base url", func(t *testing.T) {
		t.Setenv("CLASSIFIER_TYPE", "openai")
		t.Setenv("CLASSIFIER_API_KEY", "k")
		t.Setenv("CLASSIFIER_BASE_URL", "https://api.deepseek.com/v1")
		t.Setenv("CLASSIFIER_MODEL", "deepseek-chat")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://api.deepseek.com/v1", cfg.BaseURL)
		assert.Equal(t, "deepseek-chat", cfg.Model)
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		t.Setenv("CLASSIFIER_TYPE", "phobert")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestTruncate(t *testing.T) {
	short := "ngắn"
	assert.Equal(t, short, truncate(short, 100))

	long := strings.Repeat("a", 200)
	got := truncate(long, 100)
	assert.Contains(t, got, "rút gọn")
	assert.Less(t, len(got), 200)
}
