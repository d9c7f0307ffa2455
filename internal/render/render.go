// Package render turns pages, sections and blocks into HTML.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"ministry-site/internal/domain/content"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Renderer struct {
	tmpl    *template.Template
	widgets map[string]Widget
	log     *zap.Logger
}

type Option func(*Renderer)

// WithWidget installs the widget drawn for a specialized section type.
func WithWidget(sectionType string, w Widget) Option {
	return func(r *Renderer) { r.widgets[sectionType] = w }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

func New(opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("render").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r := &Renderer{
		tmpl:    tmpl,
		widgets: map[string]Widget{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// View is the per-request presentation state. The zero value is what an
// anonymous visitor sees.
type View struct {
	// CanEdit renders the edit-mode toggle. Without it no edit control is
	// drawn at all.
	CanEdit   bool
	EditMode  bool
	SessionID string

	InlineTarget string
	DialogTarget string

	// Drafts maps block ids to text shown instead of the stored text.
	Drafts map[string]string

	// Order is the working section order. It is only honoured in edit
	// mode; otherwise sections keep their persisted order.
	Order   []string
	Unsaved bool

	Notice string
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

type pageData struct {
	State       string
	Title       string
	Description string
	SessionID   string
	CanEdit     bool
	EditMode    bool
	Unsaved     bool
	Notice      string
	Sections    []template.HTML
}

// RenderPage writes a full HTML document for a page fetch result. A failed
// fetch renders the static default layout instead of an error page; a
// pending fetch renders a loading skeleton.
func (r *Renderer) RenderPage(ctx context.Context, w io.Writer, res content.LoadResult, v View) error {
	switch res.State {
	case content.Loading:
		return r.tmpl.ExecuteTemplate(w, "skeleton", nil)
	case content.Loaded:
		if res.Page != nil {
			return r.writePage(ctx, w, res.Page, content.Loaded.String(), v)
		}
		r.log.Warn("loaded result without page")
	default:
		r.log.Warn("page fetch failed, serving default layout", zap.Error(res.Err))
	}
	return r.RenderFallback(ctx, w)
}

// RenderFallback writes the static default layout with no edit controls.
func (r *Renderer) RenderFallback(ctx context.Context, w io.Writer) error {
	layout, err := content.DefaultLayout()
	if err != nil {
		return err
	}
	return r.writePage(ctx, w, layout, "fallback", View{})
}

func (r *Renderer) writePage(ctx context.Context, w io.Writer, p *content.Page, state string, v View) error {
	sections := p.Sections
	if v.EditMode && len(v.Order) > 0 {
		sections = ApplyOrder(sections, v.Order)
	}

	data := pageData{
		State:       state,
		Title:       p.Title,
		Description: p.MetaDescription,
		SessionID:   v.SessionID,
		CanEdit:     v.CanEdit,
		EditMode:    v.CanEdit && v.EditMode,
		Unsaved:     v.Unsaved,
		Notice:      v.Notice,
		Sections:    make([]template.HTML, 0, len(sections)),
	}
	for _, s := range sections {
		html, err := r.RenderSection(ctx, s, v)
		if err != nil {
			return err
		}
		data.Sections = append(data.Sections, html)
	}
	return r.tmpl.ExecuteTemplate(w, "page", data)
}

// ApplyOrder returns sections arranged by ids. Sections missing from ids
// keep their relative order after the listed ones; unknown ids are ignored.
func ApplyOrder(sections []content.Section, ids []string) []content.Section {
	byID := make(map[string]content.Section, len(sections))
	for _, s := range sections {
		byID[s.ID] = s
	}
	out := make([]content.Section, 0, len(sections))
	used := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok && !used[id] {
			out = append(out, s)
			used[id] = true
		}
	}
	for _, s := range sections {
		if !used[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
