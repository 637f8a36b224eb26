package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMarkdown(t *testing.T) {
	html, err := FromMarkdown("# Title\n\nBody text.")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<p>Body text.</p>")
}

func TestFromMarkdown_GFMTable(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	html, err := FromMarkdown(src)
	require.NoError(t, err)

	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>2</td>")
}

func TestFromMarkdown_PlainTextBecomesParagraph(t *testing.T) {
	html, err := FromMarkdown("just words")
	require.NoError(t, err)
	assert.Equal(t, "<p>just words</p>\n", html)
}

func TestWrap_GeneratedDocument(t *testing.T) {
	doc, err := MarkdownDocument("# Report\n\nAll good.", GeneratedDocument)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "<title>Generated PDF Document</title>")
	assert.Contains(t, doc, "<h1>Generated Document</h1>")
	assert.Contains(t, doc, `<p class="subtitle">Created with PDF Generation Agent</p>`)
	assert.Contains(t, doc, "<h1>Report</h1>")
	assert.Contains(t, doc, "<p>All good.</p>")
	assert.Contains(t, doc, "<p>Powered by Doppio API</p>")
	assert.Contains(t, doc, "font-family")
}

func TestWrap_EscapesShellFields(t *testing.T) {
	doc, err := Document{Heading: "<b>x</b>"}.Wrap("<em>kept</em>")
	require.NoError(t, err)

	assert.Contains(t, doc, "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, doc, "<em>kept</em>")
	assert.Contains(t, doc, "<title>Document</title>")
	assert.NotContains(t, doc, `class="footer"`)
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.html"), []byte("<p>default</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.html"), []byte("<p>other</p>"), 0o644))

	l := NewLoader(dir)

	got, err := l.LoadTemplate("")
	require.NoError(t, err)
	assert.Equal(t, "<p>default</p>", got)

	got, err = l.LoadTemplate("other.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>other</p>", got)

	_, err = l.LoadTemplate("missing.html")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = l.LoadTemplate("../template.html")
	assert.ErrorIs(t, err, ErrInvalidTemplateName)
}

func TestFindHTML_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.html", "a.html", "notes.txt", "C.HTML"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.html"), 0o755))

	files, err := FindHTML(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "C.HTML"),
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "b.html"),
	}, files)
}

func TestPDFName(t *testing.T) {
	assert.Equal(t, "report.pdf", PDFName("src/report.html"))
	assert.Equal(t, "invoice.v2.pdf", PDFName("/tmp/invoice.v2.html"))
	assert.Equal(t, "README.pdf", PDFName("README"))
}
