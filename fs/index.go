package fs

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"os"
	"time"

	"github.com/fwojciec/linkfeed"
)

//go:embed templates/index.html.tmpl
var templates embed.FS

// Ensure IndexRenderer implements linkfeed.IndexRenderer at compile time.
var _ linkfeed.IndexRenderer = (*IndexRenderer)(nil)

// IndexRenderer renders the index page with html/template and writes it
// atomically. It can additionally write a Markdown rendition.
type IndexRenderer struct {
	writer       *Writer
	path         string
	language     string
	tmpl         *template.Template
	markdownPath string
	converter    linkfeed.Converter
}

// IndexOption configures an IndexRenderer.
type IndexOption func(*IndexRenderer)

// WithLanguage sets the lang attribute of the rendered page.
func WithLanguage(lang string) IndexOption {
	return func(r *IndexRenderer) {
		r.language = lang
	}
}

// WithMarkdown also writes a Markdown rendition of the index to path,
// converted from the rendered HTML.
func WithMarkdown(path string, converter linkfeed.Converter) IndexOption {
	return func(r *IndexRenderer) {
		r.markdownPath = path
		r.converter = converter
	}
}

// NewIndexRenderer creates an IndexRenderer writing to path below w's base
// directory using the built-in template.
func NewIndexRenderer(w *Writer, path string, opts ...IndexOption) *IndexRenderer {
	r := &IndexRenderer{
		writer:   w,
		path:     path,
		language: linkfeed.DefaultLanguage,
		tmpl:     template.Must(newTemplate().ParseFS(templates, "templates/index.html.tmpl")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadTemplate replaces the built-in template with the template file at
// path. Returns ECONFIG if the file cannot be read or parsed.
func (r *IndexRenderer) LoadTemplate(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return linkfeed.Errorf(linkfeed.ECONFIG, "failed to read index template: %v", err)
	}
	tmpl, err := newTemplate().Parse(string(text))
	if err != nil {
		return linkfeed.Errorf(linkfeed.ECONFIG, "failed to parse index template: %v", err)
	}
	r.tmpl = tmpl
	return nil
}

// RenderIndex renders idx and writes the index files.
func (r *IndexRenderer) RenderIndex(ctx context.Context, idx *linkfeed.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	data := struct {
		Index    *linkfeed.Index
		Language string
	}{idx, r.language}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to render index: %v", err)
	}

	if _, err := r.writer.WriteFile(r.path, buf.Bytes()); err != nil {
		return err
	}

	if r.markdownPath == "" || r.converter == nil {
		return nil
	}
	md, err := r.converter.Convert(buf.String())
	if err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to convert index to markdown: %v", err)
	}
	_, err = r.writer.WriteFile(r.markdownPath, []byte(md+"\n"))
	return err
}

func newTemplate() *template.Template {
	return template.New("index.html.tmpl").Funcs(template.FuncMap{
		"updated": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.UTC().Format("2006-01-02 15:04 UTC")
		},
	})
}
