// Package batch converts many HTML files through one renderer and collects
// the per-file outcomes.
package batch

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"pdfgen/internal/content"
	"pdfgen/internal/doppio"
	u "pdfgen/internal/utils"
)

// Renderer is the part of doppio.Client the batch driver needs.
type Renderer interface {
	Render(ctx context.Context, req doppio.RenderRequest, filename string) (*doppio.Result, error)
}

var _ Renderer = (*doppio.Client)(nil)

// Options apply to every file of a batch.
type Options struct {
	Format          doppio.PageFormat
	PrintBackground bool
	WaitUntil       doppio.WaitCondition
	// Workers > 1 renders files concurrently. Entries keep input order.
	Workers int
	// OutputName overrides the default "<stem>.pdf" naming.
	OutputName func(source string) string
	// Progress, when set, is called once per file as soon as it finishes.
	Progress func(Entry)
}

// Entry is the outcome of one file.
type Entry struct {
	Source    string
	Output    string
	Succeeded bool
	Size      int64
	Err       error
}

// Message is the human-readable result of the entry.
func (e Entry) Message() string {
	if e.Succeeded {
		return "Success → " + filepath.Base(e.Output)
	}
	return "Failed: " + e.Err.Error()
}

// FindHTMLFiles returns the HTML files of dir in sorted order.
func FindHTMLFiles(dir string) ([]string, error) {
	return content.FindHTML(dir)
}

// ResolveFiles maps names onto dir. Names that do not exist are returned in
// missing and left out of found.
func ResolveFiles(dir string, names []string) (found, missing []string) {
	for _, name := range names {
		path := name
		if !filepath.IsAbs(name) {
			path = filepath.Join(dir, name)
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			missing = append(missing, name)
			continue
		}
		found = append(found, path)
	}
	return found, missing
}

// ConvertAll renders every file and never stops at a failure.
func ConvertAll(ctx context.Context, r Renderer, files []string, opts Options) Outcome {
	entries := make([]Entry, len(files))
	if opts.Workers <= 1 {
		for i, f := range files {
			entries[i] = convertOne(ctx, r, f, opts)
			report(opts, entries[i])
		}
		return Outcome{Entries: entries}
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			entries[i] = convertOne(ctx, r, f, opts)
			report(opts, entries[i])
			return nil
		})
	}
	_ = g.Wait()
	return Outcome{Entries: entries}
}

func report(opts Options, e Entry) {
	if opts.Progress != nil {
		opts.Progress(e)
	}
}

func convertOne(ctx context.Context, r Renderer, source string, opts Options) Entry {
	name := content.PDFName(source)
	if opts.OutputName != nil {
		name = opts.OutputName(source)
	}
	e := Entry{Source: filepath.Base(source), Output: name}

	if err := ctx.Err(); err != nil {
		e.Err = err
		return e
	}

	html, err := content.ReadHTML(source)
	if err != nil {
		e.Err = err
		return e
	}

	res, err := r.Render(ctx, doppio.RenderRequest{
		HTML:            html,
		Format:          opts.Format,
		PrintBackground: opts.PrintBackground,
		WaitUntil:       opts.WaitUntil,
	}, name)
	if err != nil {
		u.Warn("Batch conversion failed", "file", e.Source, "error", err.Error())
		e.Err = err
		return e
	}
	e.Succeeded = true
	e.Output = res.Path
	e.Size = res.Size
	return e
}
