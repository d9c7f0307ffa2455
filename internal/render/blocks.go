package render

import (
	"html/template"

	"ministry-site/internal/domain/content"
)

type textData struct {
	Text     string
	Editable bool
	Active   bool
}

type buttonData struct {
	Text   string
	URL    string
	Target string
}

type unknownData struct {
	Type string
	JSON string
}

type blockData struct {
	ID             string
	Type           string
	Active         bool
	DialogEditable bool
	Body           template.HTML
}

var targetNames = map[content.LinkTarget]string{
	content.LinkInert:       "inert",
	content.LinkNewContext:  "new",
	content.LinkSameContext: "same",
}

// RenderBlock draws one block with the edit affordances v allows. Known
// types never fail on bad payloads; unknown types render a diagnostic with
// the type tag and the raw payload.
func (r *Renderer) RenderBlock(b content.Block, v View) (template.HTML, error) {
	editing := v.CanEdit && v.EditMode

	var (
		name string
		data any
	)
	switch view := content.Decode(b.Type, b.Content).(type) {
	case content.TextView:
		text := view.Text
		if d, ok := v.Drafts[b.ID]; ok {
			text = d
		}
		name = view.Type
		data = textData{
			Text:     text,
			Editable: editing && v.InlineTarget != b.ID,
			Active:   editing && v.InlineTarget == b.ID,
		}
	case content.ImageView:
		name, data = content.BlockImage, view
	case content.ButtonView:
		name = content.BlockButton
		data = buttonData{Text: view.Text, URL: view.URL, Target: targetNames[view.Target()]}
	case content.VideoView:
		name, data = content.BlockVideo, view
	case content.SpacerView:
		name, data = content.BlockSpacer, view
	case content.DividerView:
		name, data = content.BlockDivider, view
	case content.UnknownView:
		name = "unknown"
		data = unknownData{Type: view.Type, JSON: view.DiagnosticJSON()}
	}

	body, err := r.execute(name, data)
	if err != nil {
		return "", err
	}
	return r.execute("block", blockData{
		ID:             b.ID,
		Type:           b.Type,
		Active:         editing && v.InlineTarget == b.ID && content.InlineEditable(b.Type),
		DialogEditable: editing && !content.InlineEditable(b.Type) && v.DialogTarget != b.ID,
		Body:           body,
	})
}
