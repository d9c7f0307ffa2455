package render

import (
	"context"
	"html/template"
	"strings"

	"ministry-site/internal/domain/content"

	"go.uber.org/zap"
)

// Widget draws a specialized section from data outside the section's own
// blocks.
type Widget interface {
	RenderWidget(ctx context.Context, s content.Section) (template.HTML, error)
}

type WidgetFunc func(ctx context.Context, s content.Section) (template.HTML, error)

func (f WidgetFunc) RenderWidget(ctx context.Context, s content.Section) (template.HTML, error) {
	return f(ctx, s)
}

var placeholderHeadings = map[string]string{
	content.SectionHero:      "Bem-vindo à nossa igreja",
	content.SectionWelcome:   "Boas-vindas",
	content.SectionSermons:   "Pregações",
	content.SectionEvents:    "Próximos eventos",
	content.SectionCourses:   "Cursos",
	content.SectionCommunity: "Comunidade",
}

type placeholder struct {
	r *Renderer
}

func (p placeholder) RenderWidget(_ context.Context, s content.Section) (template.HTML, error) {
	return p.r.execute("widget", struct{ Type, Heading string }{s.Type, placeholderHeadings[s.Type]})
}

type sectionData struct {
	ID        string
	Type      string
	Draggable bool
	Body      template.HTML
}

// RenderSection draws one section. Specialized types go through their
// widget and ignore the section's blocks; every other type lays out its
// blocks in order. A failing widget degrades to its placeholder.
func (r *Renderer) RenderSection(ctx context.Context, s content.Section, v View) (template.HTML, error) {
	var body template.HTML
	if content.IsSpecialized(s.Type) {
		body = r.renderWidget(ctx, s)
	} else {
		var b strings.Builder
		for _, blk := range s.Blocks {
			html, err := r.RenderBlock(blk, v)
			if err != nil {
				return "", err
			}
			b.WriteString(string(html))
		}
		body = template.HTML(b.String())
	}

	return r.execute("section", sectionData{
		ID:        s.ID,
		Type:      s.Type,
		Draggable: v.CanEdit && v.EditMode,
		Body:      body,
	})
}

func (r *Renderer) renderWidget(ctx context.Context, s content.Section) template.HTML {
	ph := placeholder{r: r}
	if w, ok := r.widgets[s.Type]; ok {
		html, err := w.RenderWidget(ctx, s)
		if err == nil {
			return html
		}
		r.log.Warn("widget failed", zap.String("section_type", s.Type), zap.String("section_id", s.ID), zap.Error(err))
	}
	html, err := ph.RenderWidget(ctx, s)
	if err != nil {
		r.log.Error("placeholder widget failed", zap.String("section_type", s.Type), zap.Error(err))
		return ""
	}
	return html
}
