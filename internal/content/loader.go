// Package content produces the HTML that gets rendered: template files read
// from disk, Markdown converted with goldmark, and the styled document shell
// used around converted Markdown.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrTemplateNotFound means the named template file does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidTemplateName means the name would leave the template directory.
	ErrInvalidTemplateName = errors.New("invalid template name")
)

// DefaultTemplate is rendered when no template name is given.
const DefaultTemplate = "template.html"

// Loader reads HTML templates from Dir. Nothing is cached.
type Loader struct {
	Dir string
}

// NewLoader returns a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Path returns the file a template name refers to.
func (l *Loader) Path(name string) (string, error) {
	if name == "" {
		name = DefaultTemplate
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTemplateName, name)
	}
	return filepath.Join(l.Dir, name), nil
}

// LoadTemplate returns the contents of the named template.
func (l *Loader) LoadTemplate(name string) (string, error) {
	path, err := l.Path(name)
	if err != nil {
		return "", err
	}
	return ReadHTML(path)
}

// ReadHTML reads an HTML file from any path.
func ReadHTML(path string) (string, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- caller-chosen input file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(raw), nil
}

// FindHTML lists the *.html files directly inside dir, sorted by name.
func FindHTML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// PDFName derives an output filename from a source path: stem + ".pdf".
func PDFName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}
