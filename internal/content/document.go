package content

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/document.html templates/document.css
var assets embed.FS

var (
	documentTmpl = template.Must(template.ParseFS(assets, "templates/document.html"))
	documentCSS  = mustRead("templates/document.css")
)

func mustRead(name string) string {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Document describes the shell around an HTML body.
type Document struct {
	Title    string
	Heading  string
	Subtitle string
	Footer   []string
}

// GeneratedDocument is the shell used by the web front-end.
var GeneratedDocument = Document{
	Title:    "Generated PDF Document",
	Heading:  "Generated Document",
	Subtitle: "Created with PDF Generation Agent",
	Footer:   []string{"Generated by PDF Generation Agent", "Powered by Doppio API"},
}

// Wrap places body, which must already be trusted HTML, inside the styled
// document.
func (d Document) Wrap(body string) (string, error) {
	data := struct {
		Document
		CSS  template.CSS
		Body template.HTML
	}{
		Document: d,
		CSS:      template.CSS(documentCSS), // #nosec G203
		Body:     template.HTML(body),       // #nosec G203
	}
	if data.Title == "" {
		data.Title = "Document"
	}
	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MarkdownDocument converts src and wraps the result in d.
func MarkdownDocument(src string, d Document) (string, error) {
	body, err := FromMarkdown(src)
	if err != nil {
		return "", err
	}
	return d.Wrap(body)
}
