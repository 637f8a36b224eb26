package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfgen/internal/doppio"
	u "pdfgen/internal/utils"
)

type stubFetcher struct {
	dir string
	pdf []byte
	err error

	mu    sync.Mutex
	calls []doppio.RenderRequest
}

func (s *stubFetcher) Fetch(_ context.Context, req doppio.RenderRequest) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.pdf, nil
}

func (s *stubFetcher) OutputPath(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", doppio.ErrInvalidOutputName
	}
	return filepath.Join(s.dir, name), nil
}

func testCfg() u.Config {
	return u.Defaults()
}

func newTestApp(svc *PDFService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(16)})
	app.Get("/", svc.HandleIndex)
	app.Post("/generate-pdf", svc.HandleGenerate)
	app.Get("/download/:filename", svc.HandleDownload)
	return app
}

func postForm(t *testing.T, app *fiber.App, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate-pdf", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestGenerateAndDownload_EndToEnd(t *testing.T) {
	pdf := []byte("%PDF-1.4 abc")
	require.Len(t, pdf, 12)
	f := &stubFetcher{dir: t.TempDir(), pdf: pdf}
	app := newTestApp(NewPDFService(testCfg(), f, nil))

	resp, body := postForm(t, app, url.Values{"content": {"# Title\n\nBody text."}, "mode": {"markdown"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	filename, _ := body["filename"].(string)
	assert.Regexp(t, `^generated_[0-9a-v]{20}\.pdf$`, filename)
	assert.Equal(t, "/download/"+filename, body["download_url"])

	require.Len(t, f.calls, 1)
	html := f.calls[0].HTML
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<p>Body text.</p>")
	assert.Equal(t, doppio.FormatA4, f.calls[0].Format)
	assert.True(t, f.calls[0].PrintBackground)

	dl, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/"+filename, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/pdf", dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), filename)
	got, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, pdf, got)
}

func TestGenerate_PromptModeMatchesMarkdown(t *testing.T) {
	f := &stubFetcher{dir: t.TempDir(), pdf: []byte("pdf")}
	app := newTestApp(NewPDFService(testCfg(), f, nil))

	postForm(t, app, url.Values{"content": {"## Plan"}, "mode": {"markdown"}})
	postForm(t, app, url.Values{"content": {"## Plan"}, "mode": {"prompt"}})

	require.Len(t, f.calls, 2)
	assert.Equal(t, f.calls[0].HTML, f.calls[1].HTML)
}

func TestGenerate_MissingContent(t *testing.T) {
	f := &stubFetcher{dir: t.TempDir(), pdf: []byte("pdf")}
	app := newTestApp(NewPDFService(testCfg(), f, nil))

	for _, content := range []string{"", "   \n\t"} {
		resp, body := postForm(t, app, url.Values{"content": {content}, "mode": {"markdown"}})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, MsgContentRequired, body["error"])
	}
	assert.Empty(t, f.calls)
}

func TestGenerate_FailureIsGeneric(t *testing.T) {
	f := &stubFetcher{dir: t.TempDir(), err: &doppio.RemoteError{StatusCode: 401, Message: "Invalid API key dp_secret"}}
	app := newTestApp(NewPDFService(testCfg(), f, nil))

	resp, body := postForm(t, app, url.Values{"content": {"hello"}})

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": MsgGenerationFailed}, body)
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_BadConfiguredFormatIsGeneric(t *testing.T) {
	cfg := testCfg()
	cfg.PDF.DefaultFormat = "B9"
	f := &stubFetcher{dir: t.TempDir(), pdf: []byte("pdf")}
	app := newTestApp(NewPDFService(cfg, f, nil))

	resp, body := postForm(t, app, url.Values{"content": {"hello"}})

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, MsgGenerationFailed, body["error"])
	assert.Empty(t, f.calls)
}

func TestDownload_NotFoundCases(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	app := newTestApp(NewPDFService(testCfg(), &stubFetcher{dir: dir}, nil))

	for _, name := range []string{"missing.pdf", "notes.txt", "bad%20name.pdf", "..%2Fsecret.pdf"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/"+name, nil), -1)
		require.NoError(t, err, name)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, name)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body), name)
		assert.Equal(t, MsgFileNotFound, body["error"], name)
	}
}

func TestIndex_ServesForm(t *testing.T) {
	app := newTestApp(NewPDFService(testCfg(), &stubFetcher{dir: t.TempDir()}, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `id="pdf-form"`)
	assert.Contains(t, string(raw), "/generate-pdf")
}

func TestErrorHandler_TooLarge(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(16)})
	app.Post("/", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("secret internals") })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "File too large. Maximum size is 16MB.", body["error"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "secret")
}

func TestGenerate_RedisCacheServesIdenticalContent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testCfg()
	cfg.Cache.PDFCacheEnabled = true
	cfg.Cache.PDFCacheTTL = time.Minute

	f := &stubFetcher{dir: t.TempDir(), pdf: []byte("%PDF-cached")}
	app := newTestApp(NewPDFService(cfg, f, rdb))

	_, first := postForm(t, app, url.Values{"content": {"# Same"}})
	_, second := postForm(t, app, url.Values{"content": {"# Same"}})
	_, other := postForm(t, app, url.Values{"content": {"# Different"}})

	assert.Len(t, f.calls, 2, "second identical request must be served from cache")
	assert.NotEqual(t, first["filename"], second["filename"])
	data, err := os.ReadFile(filepath.Join(f.dir, second["filename"].(string)))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-cached"), data)
	assert.NotNil(t, other["filename"])
	assert.Len(t, mr.Keys(), 2)
	assert.True(t, mr.TTL(mr.Keys()[0]) > 0)
}

func TestGenerate_RedisDownFallsBackToRender(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	cfg := testCfg()
	cfg.Cache.PDFCacheEnabled = true
	f := &stubFetcher{dir: t.TempDir(), pdf: []byte("pdf")}
	app := newTestApp(NewPDFService(cfg, f, rdb))

	resp, body := postForm(t, app, url.Values{"content": {"x"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Len(t, f.calls, 1)
}

func TestGenerate_ThroughRenderingClient(t *testing.T) {
	pdf := []byte("%PDF-1.4 xyz")
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env struct {
			Page struct {
				SetContent struct {
					HTML string `json:"html"`
				} `json:"setContent"`
			} `json:"page"`
		}
		_ = json.NewDecoder(r.Body).Decode(&env)
		raw, _ := base64.StdEncoding.DecodeString(env.Page.SetContent.HTML)
		sent = string(raw)
		_, _ = w.Write(pdf)
	}))
	t.Cleanup(srv.Close)

	cfg := testCfg()
	cfg.Doppio.APIURL = srv.URL
	cfg.Paths.OutputDir = t.TempDir()
	client, err := doppio.NewClient(doppio.ConfigFrom(cfg, "dp_test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	app := newTestApp(NewPDFService(cfg, client, nil))
	resp, body := postForm(t, app, url.Values{"content": {"# Title\n\nBody text."}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Contains(t, sent, "<h1>Title</h1>")
	data, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, body["filename"].(string)))
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
}
