package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	flag "github.com/spf13/pflag"

	"pdfgen/internal/content"
	u "pdfgen/internal/utils"
)

const defaultOutput = "output.pdf"

type renderFlags struct {
	common   commonFlags
	pdf      pdfFlags
	template string
	file     string
	html     string
	markdown string
	title    string
	output   string
}

func parseRenderFlags(args []string, env *Environment) (*renderFlags, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", env, func() { printRenderUsage(env.Stderr) })

	fs.StringVarP(&f.template, "template", "t", "", "template name inside paths.template_dir")
	fs.StringVarP(&f.file, "file", "f", "", "HTML file to render")
	fs.StringVar(&f.html, "html", "", "inline HTML to render")
	fs.StringVarP(&f.markdown, "markdown", "m", "", "Markdown file to render")
	fs.StringVar(&f.title, "title", "", "document title for --markdown")
	fs.StringVarP(&f.output, "output", "o", "", "output file name")
	addPDFFlags(fs, &f.pdf)
	addCommonFlags(fs, &f.common)

	if err := parseArgs(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	if n := countSet(fs, "template", "file", "html", "markdown"); n > 1 {
		return nil, fmt.Errorf("%w: choose only one of --template, --file, --html, --markdown", ErrUsage)
	}
	if f.title != "" && f.markdown == "" {
		return nil, fmt.Errorf("%w: --title requires --markdown", ErrUsage)
	}
	return f, nil
}

func countSet(fs *flag.FlagSet, names ...string) int {
	n := 0
	for _, name := range names {
		if fs.Changed(name) {
			n++
		}
	}
	return n
}

// input loads the HTML to render and the default output name for it.
func (f *renderFlags) input(cfg u.Config) (html, output string, err error) {
	switch {
	case f.html != "":
		return f.html, defaultOutput, nil
	case f.file != "":
		html, err = content.ReadHTML(f.file)
		return html, content.PDFName(f.file), err
	case f.markdown != "":
		raw, err := os.ReadFile(f.markdown) // #nosec G304 -- user-chosen input
		if err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		title := f.title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(f.markdown), filepath.Ext(f.markdown))
		}
		html, err = content.MarkdownDocument(string(raw), content.Document{Title: title})
		return html, content.PDFName(f.markdown), err
	}

	html, err = content.NewLoader(cfg.Paths.TemplateDir).LoadTemplate(f.templateName())
	return html, defaultOutput, err
}

// templateName is "" unless the input is a template.
func (f *renderFlags) templateName() string {
	if f.file != "" || f.html != "" || f.markdown != "" {
		return ""
	}
	if f.template == "" {
		return content.DefaultTemplate
	}
	return f.template
}

func runRenderCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseRenderFlags(args, env)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		return fail(env, err)
	}

	cfg, err := loadConfig(f.common.config)
	if err != nil {
		return fail(env, err)
	}
	setupLogging(env, f.common.verbose)

	client, err := newClient(cfg, env)
	if err != nil {
		return fail(env, err)
	}
	defer client.Close()

	if name := f.templateName(); name != "" {
		fmt.Fprintf(env.Stdout, "Loading template: %s\n", name)
	}
	html, output, err := f.input(cfg)
	if err != nil {
		return fail(env, err)
	}
	if f.output != "" {
		output = f.output
	}

	req, err := f.pdf.request(cfg, html)
	if err != nil {
		return fail(env, err)
	}
	path, err := client.OutputPath(output)
	if err != nil {
		return fail(env, err)
	}

	fmt.Fprintln(env.Stdout, "Sending HTML to the rendering service...")
	fmt.Fprintf(env.Stdout, "  Format: %s\n", req.Format)
	fmt.Fprintf(env.Stdout, "  Output: %s\n", path)
	fmt.Fprintf(env.Stdout, "  HTML size: %d characters\n", utf8.RuneCountInString(html))

	res, err := client.Render(ctx, req, output)
	if err != nil {
		return fail(env, err)
	}

	fmt.Fprintf(env.Stdout, "Success! PDF generated (%.1f KB)\n", float64(res.Size)/1024)
	fmt.Fprintf(env.Stdout, "  Saved to: %s\n", res.Path)
	return ExitSuccess
}
