package content

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Closed block vocabulary.
const (
	BlockTitle     = "title"
	BlockSubtitle  = "subtitle"
	BlockParagraph = "paragraph"
	BlockImage     = "image"
	BlockButton    = "button"
	BlockVideo     = "video"
	BlockSpacer    = "spacer"
	BlockDivider   = "divider"
)

const (
	DefaultTitleText     = "Título"
	DefaultSubtitleText  = "Subtítulo"
	DefaultParagraphText = "Parágrafo de exemplo"
	DefaultImageURL      = "/placeholder.svg"
	DefaultImageAlt      = "Imagem"
	DefaultButtonText    = "Clique aqui"
	DefaultVideoTitle    = "Vídeo"
	DefaultSpacerHeight  = 20
)

// TextKey is the payload field inline edits write to.
const TextKey = "text"

func KnownBlockType(t string) bool {
	switch t {
	case BlockTitle, BlockSubtitle, BlockParagraph, BlockImage,
		BlockButton, BlockVideo, BlockSpacer, BlockDivider:
		return true
	}
	return false
}

// InlineEditable reports whether a block type is edited in place (headings
// and paragraphs) rather than through the full editing dialog.
func InlineEditable(t string) bool {
	return t == BlockTitle || t == BlockSubtitle || t == BlockParagraph
}

// View is the typed form of a block payload. Exactly one concrete variant is
// returned by Decode for every type tag.
type View interface {
	BlockType() string
}

type TextView struct {
	Type  string
	Text  string
	Level int // 2 for title, 3 for subtitle, 0 for paragraph
}

type ImageView struct {
	URL     string
	Alt     string
	Caption string
}

type ButtonView struct {
	Text string
	URL  string
}

type VideoView struct {
	URL         string
	Title       string
	Description string
}

type SpacerView struct {
	Height int
}

type DividerView struct{}

// UnknownView keeps the raw payload of an unrecognized type tag for the
// diagnostic fallback.
type UnknownView struct {
	Type    string
	Payload Payload
}

func (v TextView) BlockType() string { return v.Type }
func (ImageView) BlockType() string { return BlockImage }
func (ButtonView) BlockType() string { return BlockButton }
func (VideoView) BlockType() string { return BlockVideo }
func (SpacerView) BlockType() string { return BlockSpacer }
func (DividerView) BlockType() string { return BlockDivider }
func (v UnknownView) BlockType() string { return v.Type }

// Decode maps a type tag and payload to its typed view, filling documented
// defaults for missing or empty fields. Unknown keys are ignored.
func Decode(blockType string, p Payload) View {
	switch blockType {
	case BlockTitle:
		return TextView{Type: blockType, Text: str(p, TextKey, DefaultTitleText), Level: 2}
	case BlockSubtitle:
		return TextView{Type: blockType, Text: str(p, TextKey, DefaultSubtitleText), Level: 3}
	case BlockParagraph:
		return TextView{Type: blockType, Text: str(p, TextKey, DefaultParagraphText)}
	case BlockImage:
		return ImageView{
			URL:     str(p, "url", DefaultImageURL),
			Alt:     str(p, "alt", DefaultImageAlt),
			Caption: str(p, "caption", ""),
		}
	case BlockButton:
		return ButtonView{
			Text: str(p, TextKey, DefaultButtonText),
			URL:  str(p, "url", ""),
		}
	case BlockVideo:
		return VideoView{
			URL:         str(p, "url", ""),
			Title:       str(p, "title", DefaultVideoTitle),
			Description: str(p, "description", ""),
		}
	case BlockSpacer:
		return SpacerView{Height: positiveInt(p, "height", DefaultSpacerHeight)}
	case BlockDivider:
		return DividerView{}
	default:
		return UnknownView{Type: blockType, Payload: p}
	}
}

// LinkTarget says how a button click navigates.
type LinkTarget int

const (
	// LinkInert: no url, the button does nothing.
	LinkInert LinkTarget = iota
	// LinkNewContext: network url, opened in a new browsing context.
	LinkNewContext
	// LinkSameContext: internal path, navigated in place.
	LinkSameContext
)

func (b ButtonView) Target() LinkTarget {
	if b.URL == "" {
		return LinkInert
	}
	if IsNetworkURL(b.URL) {
		return LinkNewContext
	}
	return LinkSameContext
}

// IsNetworkURL reports whether raw carries an http or https scheme.
func IsNetworkURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// DiagnosticJSON is the compact JSON dump shown for unrecognized blocks.
func (v UnknownView) DiagnosticJSON() string {
	if v.Payload == nil {
		return "{}"
	}
	raw, err := json.Marshal(v.Payload)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// MergeText returns a copy of p with the text field replaced. Every other
// key is preserved unchanged.
func MergeText(p Payload, text string) Payload {
	out := p.Clone()
	out[TextKey] = text
	return out
}

func str(p Payload, key, fallback string) string {
	if p == nil {
		return fallback
	}
	s, ok := p[key].(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

func positiveInt(p Payload, key string, fallback int) int {
	if p == nil {
		return fallback
	}
	var n float64
	switch v := p[key].(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return fallback
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
		if err != nil {
			return fallback
		}
		n = f
	default:
		return fallback
	}
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return int(n)
}
