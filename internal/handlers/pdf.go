package handlers

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"pdfgen/internal/content"
	"pdfgen/internal/doppio"
	u "pdfgen/internal/utils"
)

//go:embed static/index.html
var indexPage []byte

// Messages returned to browser clients. Internal error text is never exposed.
const (
	MsgContentRequired  = "Content is required"
	MsgGenerationFailed = "Failed to generate PDF. Please try again."
	MsgFileNotFound     = "File not found"
	MsgDownloadFailed   = "Download failed"
)

var downloadName = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// PDFFetcher is the part of doppio.Client the front-end needs.
type PDFFetcher interface {
	Fetch(ctx context.Context, req doppio.RenderRequest) ([]byte, error)
	OutputPath(name string) (string, error)
}

var _ PDFFetcher = (*doppio.Client)(nil)

// PDFService bundles configuration and dependencies of the front-end routes.
type PDFService struct {
	Config  *u.Config
	Fetcher PDFFetcher
	Redis   *redis.Client

	newName func() string
}

// NewPDFService creates a new PDFService. rdb may be nil.
func NewPDFService(cfg u.Config, f PDFFetcher, rdb *redis.Client) *PDFService {
	return &PDFService{
		Config:  &cfg,
		Fetcher: f,
		Redis:   rdb,
		newName: func() string { return "generated_" + xid.New().String() + ".pdf" },
	}
}

// HandleIndex serves the form page.
func (svc *PDFService) HandleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexPage)
}

// HandleGenerate converts the submitted content and renders it to a new file.
func (svc *PDFService) HandleGenerate(c *fiber.Ctx) error {
	text := strings.TrimSpace(c.FormValue("content"))
	if text == "" {
		return fiber.NewError(fiber.StatusBadRequest, MsgContentRequired)
	}
	// "prompt" has no enhancement step of its own and is converted like Markdown.
	mode := c.FormValue("mode", "markdown")

	html, err := content.MarkdownDocument(text, content.GeneratedDocument)
	if err != nil {
		u.Error("Content conversion failed", "mode", mode, "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, MsgGenerationFailed)
	}

	filename := svc.newName()
	req, err := svc.renderRequest(html)
	if err == nil {
		err = svc.generate(c, req, filename)
	}
	if err != nil {
		u.Error("PDF generation failed",
			"mode", mode,
			"filename", filename,
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		return fiber.NewError(fiber.StatusInternalServerError, MsgGenerationFailed)
	}

	u.Info("PDF generated", "filename", filename, "mode", mode)
	return c.JSON(fiber.Map{
		"success":      true,
		"filename":     filename,
		"download_url": "/download/" + filename,
	})
}

func (svc *PDFService) renderRequest(html string) (doppio.RenderRequest, error) {
	format, err := doppio.ParsePageFormat(svc.Config.PDF.DefaultFormat)
	if err != nil {
		return doppio.RenderRequest{}, err
	}
	wait, err := doppio.ParseWaitCondition(svc.Config.PDF.WaitUntil)
	if err != nil {
		return doppio.RenderRequest{}, err
	}
	return doppio.RenderRequest{
		HTML:            html,
		Format:          format,
		PrintBackground: svc.Config.PrintBackground(),
		WaitUntil:       wait,
	}, nil
}

func (svc *PDFService) generate(c *fiber.Ctx, req doppio.RenderRequest, filename string) error {
	path, err := svc.Fetcher.OutputPath(filename)
	if err != nil {
		return err
	}

	useCache := svc.Redis != nil && svc.Config.Cache.PDFCacheEnabled
	key := pdfCacheKey(req)
	if useCache {
		if cached := getCachedPDF(c.UserContext(), svc.Redis, key); cached != nil {
			_, err := doppio.WriteFile(path, cached)
			return err
		}
	}

	pdf, err := svc.Fetcher.Fetch(c.UserContext(), req)
	if err != nil {
		return err
	}
	if _, err := doppio.WriteFile(path, pdf); err != nil {
		return err
	}
	if useCache {
		setCachedPDF(c.UserContext(), svc.Redis, key, pdf, svc.Config.Cache.PDFCacheTTL)
	}
	return nil
}

// HandleDownload serves a previously generated file.
func (svc *PDFService) HandleDownload(c *fiber.Ctx) error {
	name := c.Params("filename")
	if !downloadName.MatchString(name) || !strings.HasSuffix(name, ".pdf") {
		return fiber.NewError(fiber.StatusNotFound, MsgFileNotFound)
	}
	path, err := svc.Fetcher.OutputPath(name)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, MsgFileNotFound)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- name validated above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fiber.NewError(fiber.StatusNotFound, MsgFileNotFound)
		}
		u.Error("Download failed", "filename", name, "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, MsgDownloadFailed)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}
