// Package doppio talks to the remote HTML-to-PDF rendering service.
//
// A Client sends one request per call and never retries; callers decide what
// to do with each failure kind (see errors.go).
package doppio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"resty.dev/v3"

	u "pdfgen/internal/utils"
)

// DefaultEndpoint is the direct-render URL of the rendering service.
const DefaultEndpoint = "https://api.doppio.sh/v1/render/pdf/direct"

// DefaultTimeout bounds a whole render exchange.
const DefaultTimeout = 60 * time.Second

// Config is everything a Client needs. It is passed explicitly; the client
// never reads the process environment.
type Config struct {
	APIKey    string
	Endpoint  string
	Timeout   time.Duration
	OutputDir string
}

// ConfigFrom builds a client Config from the application configuration.
func ConfigFrom(cfg u.Config, apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		Endpoint:  cfg.Doppio.APIURL,
		Timeout:   cfg.Doppio.Timeout,
		OutputDir: cfg.Paths.OutputDir,
	}
}

// Result describes a PDF written to disk.
type Result struct {
	Path string
	Size int64
}

// Client renders HTML through the rendering service.
type Client struct {
	cfg  Config
	http *resty.Client
}

// NewClient validates cfg and prepares the HTTP client. A missing API key is
// reported here, before any network traffic.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{cfg: cfg, http: hc}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// OutputDir is where rendered files are written.
func (c *Client) OutputDir() string {
	return c.cfg.OutputDir
}

// OutputPath joins name onto the output directory. Names must stay inside it.
func (c *Client) OutputPath(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputName, name)
	}
	return filepath.Join(c.cfg.OutputDir, name), nil
}

// Fetch performs the HTTP exchange and returns the PDF bytes.
func (c *Client) Fetch(ctx context.Context, req RenderRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u.Info("Sending HTML to rendering service",
		"format", string(req.Format),
		"html_chars", utf8.RuneCountInString(req.HTML),
		"print_background", req.PrintBackground,
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req.body()).
		Post(c.cfg.Endpoint)
	if err != nil {
		classified := classifyTransport(err)
		u.Error("Rendering request failed", "error", classified.Error())
		return nil, classified
	}

	body := resp.Bytes()
	if resp.StatusCode() != http.StatusOK {
		remote := decodeRemoteError(resp.StatusCode(), body)
		u.Error("Rendering service error", "status", remote.StatusCode, "message", remote.Message, "detail", remote.Detail)
		return nil, remote
	}
	if len(body) == 0 {
		u.Error("Rendering service returned an empty body")
		return nil, ErrEmptyResponse
	}
	return body, nil
}

// Render fetches the PDF for req and writes it to filename inside the output
// directory.
func (c *Client) Render(ctx context.Context, req RenderRequest, filename string) (*Result, error) {
	path, err := c.OutputPath(filename)
	if err != nil {
		return nil, err
	}
	pdf, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return WriteFile(path, pdf)
}

// WriteFile stores pdf at path, creating parent directories as needed.
func WriteFile(path string, pdf []byte) (*Result, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyResponse
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	// #nosec G306 -- PDFs are meant to be readable
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	u.Info("PDF written", "path", path, "bytes", len(pdf))
	return &Result{Path: path, Size: int64(len(pdf))}, nil
}

// IsServiceFailure reports whether err came from talking to the rendering
// service, as opposed to local input or output problems.
func IsServiceFailure(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) ||
		errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrTransport)
}
