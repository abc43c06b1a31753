package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/dictionary"
	"github.com/teatak/ikseg/segmenter"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type fixture struct {
	dir string
	svc *dictionary.Service
	srv *Server
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.dic"), "南京\n南京市\n市长\n长江\n大桥\n长江大桥\n江大桥\n")
	writeFile(t, filepath.Join(dir, "quantifier.dic"), "个\n")
	writeFile(t, filepath.Join(dir, "stopword.dic"), "的\n")

	dcfg := config.Default()
	dcfg.DictDir = dir

	reg := prometheus.NewRegistry()
	svc, err := dictionary.NewService(context.Background(), dcfg,
		dictionary.WithFetcher(nil),
		dictionary.WithMetrics(dictionary.MustNewMetrics(reg)))
	require.NoError(t, err)

	srv := New(cfg, svc, segmenter.DefaultOptions(), WithGatherer(reg))
	return &fixture{dir: dir, svc: svc, srv: srv}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func (f *fixture) tokens(t *testing.T, text string, smart bool) []string {
	t.Helper()
	code, resp := f.do(t, http.MethodPost, "/segment", map[string]any{"text": text, "smart": smart})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var out segmentResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out.Tokens
}

func TestSegment(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	assert.Equal(t, []string{"南京市", "长江大桥"}, f.tokens(t, "南京市长江大桥", true))
	assert.Equal(t, []string{"南京市", "南京", "市长", "长江大桥", "长江", "江大桥", "大桥"}, f.tokens(t, "南京市长江大桥", false))
	assert.Equal(t, []string{"你", "书"}, f.tokens(t, "你的书", true))
	assert.Equal(t, []string{}, f.tokens(t, "", true))

	code, resp := f.do(t, http.MethodPost, "/segment", map[string]any{"text": "三个人", "smart": true})
	require.Equal(t, http.StatusOK, code)
	var out struct {
		Lexemes []struct {
			Begin  int    `json:"begin"`
			Length int    `json:"length"`
			End    int    `json:"end"`
			Text   string `json:"text"`
			Type   string `json:"type"`
		} `json:"lexemes"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	require.Len(t, out.Lexemes, 2)
	assert.Equal(t, "TYPE_CQUAN", out.Lexemes[0].Type)
	assert.Equal(t, "CN_CHAR", out.Lexemes[1].Type)
	assert.Equal(t, 2, out.Lexemes[1].Begin)
	assert.Equal(t, 3, out.Lexemes[1].End)
}

func TestSegmentBadRequest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextLength = 3
	f := newFixture(t, cfg)

	code, resp := f.do(t, http.MethodPost, "/segment", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid request")

	code, _ = f.do(t, http.MethodPost, "/segment", map[string]any{"text": "南京市长江大桥"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
}

func TestWords(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	code, resp := f.do(t, http.MethodPost, "/dict/words", map[string]any{"words": []string{"江大", "  "}})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"applied":1}`, string(resp.Data))
	assert.True(t, f.svc.Current().Contains("江大"))

	code, resp = f.do(t, http.MethodDelete, "/dict/words", map[string]any{"words": []string{"市长"}})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"applied":1}`, string(resp.Data))
	assert.NotContains(t, f.tokens(t, "南京市长江大桥", false), "市长")

	code, _ = f.do(t, http.MethodPost, "/dict/words", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFeedback(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	code, resp := f.do(t, http.MethodPost, "/dict/feedback", map[string]any{"lines": []string{"南京 市 长江 大桥 真 好看"}})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var out feedbackResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, []string{"南京", "长江", "大桥", "好看"}, out.Added)
	assert.Equal(t, []string{"南京市", "市长", "江大桥", "长江大桥"}, out.Disabled)

	d := f.svc.Current()
	assert.True(t, d.Contains("好看"))
	assert.False(t, d.Contains("市长"))
	assert.Equal(t, []string{"南京", "市", "长江", "大桥"}, f.tokens(t, "南京市长江大桥", true))
}

func TestReloadAndStats(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	code, resp := f.do(t, http.MethodGet, "/dict/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats statsResponse
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, dictionary.Stats{Main: 7, Quantifier: 1, Stop: 1}, stats.Stats)

	writeFile(t, filepath.Join(f.dir, "main.dic"), "南京\n南京市\n市长\n长江\n大桥\n长江大桥\n江大桥\n分词\n")
	code, resp = f.do(t, http.MethodPost, "/dict/reload", nil)
	require.Equal(t, http.StatusOK, code, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 8, stats.Stats.Main)
	assert.True(t, f.svc.Current().Contains("分词"))
}

func TestReloadOutlivesRequest(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	writeFile(t, filepath.Join(f.dir, "main.dic"), "南京\n分词\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/dict/reload", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, f.svc.Current().Contains("分词"))
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	code, resp := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ikseg_dictionary_words{dict="main"} 7`)
}
