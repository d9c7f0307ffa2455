package render

import (
	"bytes"
	"context"
	"errors"
	"html"
	"html/template"
	"strings"
	"testing"

	"ministry-site/internal/domain/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

func block(id, typ string, p content.Payload) content.Block {
	return content.Block{ID: id, Type: typ, Content: p}
}

func renderBlock(t *testing.T, r *Renderer, b content.Block, v View) string {
	t.Helper()
	out, err := r.RenderBlock(b, v)
	require.NoError(t, err)
	return html.UnescapeString(string(out))
}

func TestRenderBlockDefaults(t *testing.T) {
	r := newRenderer(t)

	assert.Contains(t, renderBlock(t, r, block("b", content.BlockTitle, nil), View{}), "<h2 class=\"block-title\">Título</h2>")
	assert.Contains(t, renderBlock(t, r, block("b", content.BlockSubtitle, nil), View{}), ">Subtítulo</h3>")
	assert.Contains(t, renderBlock(t, r, block("b", content.BlockParagraph, nil), View{}), ">Parágrafo de exemplo</p>")

	img := renderBlock(t, r, block("b", content.BlockImage, nil), View{})
	assert.Contains(t, img, `src="/placeholder.svg"`)
	assert.Contains(t, img, `alt="Imagem"`)
	assert.NotContains(t, img, "figcaption")

	assert.Contains(t, renderBlock(t, r, block("b", content.BlockVideo, nil), View{}), "Vídeo")
	assert.Contains(t, renderBlock(t, r, block("b", content.BlockSpacer, nil), View{}), "height: 20px")
	assert.Contains(t, renderBlock(t, r, block("b", content.BlockDivider, nil), View{}), "<hr>")
}

func TestRenderBlockEscapesText(t *testing.T) {
	r := newRenderer(t)
	out, err := r.RenderBlock(block("b", content.BlockParagraph, content.Payload{"text": "<script>x</script>"}), View{})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
}

func TestRenderButtonTargets(t *testing.T) {
	r := newRenderer(t)

	ext := renderBlock(t, r, block("b", content.BlockButton, content.Payload{"text": "Go", "url": "https://example.com"}), View{})
	assert.Contains(t, ext, `href="https://example.com"`)
	assert.Contains(t, ext, `target="_blank"`)

	internal := renderBlock(t, r, block("b", content.BlockButton, content.Payload{"text": "Go", "url": "/internal"}), View{})
	assert.Contains(t, internal, `href="/internal"`)
	assert.NotContains(t, internal, "target=")

	inert := renderBlock(t, r, block("b", content.BlockButton, nil), View{})
	assert.Contains(t, inert, "disabled")
	assert.Contains(t, inert, "Clique aqui")
	assert.NotContains(t, inert, "href")
}

func TestRenderUnknownBlock(t *testing.T) {
	r := newRenderer(t)
	out := renderBlock(t, r, block("b", "unknown_widget", content.Payload{"foo": "bar"}), View{})
	assert.Contains(t, out, "unknown_widget")
	assert.Contains(t, out, `{"foo":"bar"}`)
}

func TestRenderBlockEditAffordances(t *testing.T) {
	r := newRenderer(t)
	para := block("p1", content.BlockParagraph, content.Payload{"text": "Olá"})
	img := block("i1", content.BlockImage, nil)

	off := View{CanEdit: true}
	assert.NotContains(t, renderBlock(t, r, para, off), "inline-begin")
	assert.NotContains(t, renderBlock(t, r, img, off), "dialog-open")

	on := View{CanEdit: true, EditMode: true}
	assert.Contains(t, renderBlock(t, r, para, on), `data-action="inline-begin"`)
	assert.NotContains(t, renderBlock(t, r, para, on), "inline-toolbar")
	assert.Contains(t, renderBlock(t, r, img, on), `data-action="dialog-open"`)
	assert.NotContains(t, renderBlock(t, r, para, on), "dialog-open")

	active := View{CanEdit: true, EditMode: true, InlineTarget: "p1", Drafts: map[string]string{"p1": "rascunho"}}
	out := renderBlock(t, r, para, active)
	assert.Contains(t, out, "inline-toolbar")
	assert.Contains(t, out, `contenteditable="true"`)
	assert.Contains(t, out, "rascunho")

	// a view flag alone is not enough without CanEdit
	assert.NotContains(t, renderBlock(t, r, para, View{EditMode: true}), "inline-begin")
}

func TestRenderSectionDispatch(t *testing.T) {
	r := newRenderer(t)

	hero := content.Section{ID: "s1", Type: content.SectionHero, Blocks: []content.Block{
		block("b1", content.BlockTitle, content.Payload{"text": "ignored"}),
	}}
	out, err := r.RenderSection(context.Background(), hero, View{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `data-widget="hero-banner"`)
	assert.NotContains(t, string(out), "ignored")

	generic := content.Section{ID: "s2", Type: "made-up-section", Blocks: []content.Block{
		block("b1", content.BlockTitle, content.Payload{"text": "primeiro"}),
		block("b2", content.BlockParagraph, content.Payload{"text": "segundo"}),
	}}
	out, err = r.RenderSection(context.Background(), generic, View{})
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "primeiro")
	assert.Less(t, strings.Index(s, "primeiro"), strings.Index(s, "segundo"))
}

func TestRenderSectionWidgets(t *testing.T) {
	calls := 0
	events := WidgetFunc(func(ctx context.Context, s content.Section) (template.HTML, error) {
		calls++
		return `<ul class="events"><li>Culto</li></ul>`, nil
	})
	broken := WidgetFunc(func(ctx context.Context, s content.Section) (template.HTML, error) {
		return "", errors.New("feed down")
	})
	r := newRenderer(t, WithWidget(content.SectionEvents, events), WithWidget(content.SectionSermons, broken))

	out, err := r.RenderSection(context.Background(), content.Section{ID: "e", Type: content.SectionEvents}, View{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<li>Culto</li>`)
	assert.Equal(t, 1, calls)

	out, err = r.RenderSection(context.Background(), content.Section{ID: "s", Type: content.SectionSermons}, View{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `data-widget="sermons-section"`)
}

func testPage() *content.Page {
	return &content.Page{
		Slug:   "home",
		Title:  "Início",
		Status: content.StatusPublished,
		Sections: []content.Section{
			{ID: "s1", Type: content.SectionText, Status: content.StatusPublished, SortIndex: 0,
				Blocks: []content.Block{block("b1", content.BlockTitle, content.Payload{"text": "Primeira"})}},
			{ID: "s2", Type: content.SectionText, Status: content.StatusPublished, SortIndex: 1,
				Blocks: []content.Block{block("b2", content.BlockTitle, content.Payload{"text": "Segunda"})}},
		},
	}
}

func renderPage(t *testing.T, r *Renderer, res content.LoadResult, v View) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.RenderPage(context.Background(), &buf, res, v))
	return html.UnescapeString(buf.String())
}

func TestRenderPageVisitor(t *testing.T) {
	r := newRenderer(t)
	out := renderPage(t, r, content.LoadedResult(testPage()), View{})

	assert.Contains(t, out, `data-state="loaded"`)
	assert.Contains(t, out, "<title>Início</title>")
	assert.NotContains(t, out, "toggle-edit-mode")
	assert.NotContains(t, out, "drag-handle")
	assert.NotContains(t, out, "inline-begin")
}

func TestRenderPageEditControls(t *testing.T) {
	r := newRenderer(t)
	page := testPage()

	out := renderPage(t, r, content.LoadedResult(page), View{CanEdit: true})
	assert.Contains(t, out, "toggle-edit-mode")
	assert.NotContains(t, out, "drag-handle")
	assert.NotContains(t, out, "save-order")

	out = renderPage(t, r, content.LoadedResult(page), View{CanEdit: true, EditMode: true})
	assert.Contains(t, out, `aria-pressed="true"`)
	assert.Contains(t, out, "drag-handle")
	assert.NotContains(t, out, "save-order")

	out = renderPage(t, r, content.LoadedResult(page), View{CanEdit: true, EditMode: true, Unsaved: true, Notice: "Erro ao salvar ordem"})
	assert.Contains(t, out, "save-order")
	assert.Contains(t, out, "Erro ao salvar ordem")
}

func TestRenderPageWorkingOrderOnlyInEditMode(t *testing.T) {
	r := newRenderer(t)
	page := testPage()
	working := []string{"s2", "s1"}

	out := renderPage(t, r, content.LoadedResult(page), View{CanEdit: true, EditMode: true, Order: working})
	assert.Less(t, strings.Index(out, "Segunda"), strings.Index(out, "Primeira"))

	out = renderPage(t, r, content.LoadedResult(page), View{CanEdit: true, Order: working})
	assert.Less(t, strings.Index(out, "Primeira"), strings.Index(out, "Segunda"))
}

func TestRenderPageFallbackAndLoading(t *testing.T) {
	r := newRenderer(t)

	out := renderPage(t, r, content.FailedResult(errors.New("db down")), View{CanEdit: true, EditMode: true})
	assert.Contains(t, out, `data-state="fallback"`)
	assert.Contains(t, out, "Venha nos visitar")
	assert.NotContains(t, out, "toggle-edit-mode")

	out = renderPage(t, r, content.LoadedResult(nil), View{})
	assert.Contains(t, out, `data-state="fallback"`)

	out = renderPage(t, r, content.LoadingResult(), View{})
	assert.Contains(t, out, `data-state="loading"`)
}

func TestApplyOrder(t *testing.T) {
	secs := []content.Section{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := ApplyOrder(secs, []string{"c", "x", "a"})
	assert.Equal(t, []string{"c", "a", "b"}, content.SectionIDs(got))
}
