package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeDefaults(t *testing.T) {
	tests := []struct {
		blockType string
		payload   Payload
		want      View
	}{
		{BlockTitle, nil, TextView{Type: BlockTitle, Text: DefaultTitleText, Level: 2}},
		{BlockTitle, Payload{"text": ""}, TextView{Type: BlockTitle, Text: DefaultTitleText, Level: 2}},
		{BlockTitle, Payload{"text": 42}, TextView{Type: BlockTitle, Text: DefaultTitleText, Level: 2}},
		{BlockSubtitle, Payload{}, TextView{Type: BlockSubtitle, Text: DefaultSubtitleText, Level: 3}},
		{BlockParagraph, Payload{"text": "Olá", "extra": true}, TextView{Type: BlockParagraph, Text: "Olá"}},
		{BlockImage, Payload{}, ImageView{URL: DefaultImageURL, Alt: DefaultImageAlt}},
		{BlockImage, Payload{"url": "/a.png", "caption": "Culto"}, ImageView{URL: "/a.png", Alt: DefaultImageAlt, Caption: "Culto"}},
		{BlockButton, nil, ButtonView{Text: DefaultButtonText}},
		{BlockVideo, Payload{"url": "https://v.example/1"}, VideoView{URL: "https://v.example/1", Title: DefaultVideoTitle}},
		{BlockSpacer, nil, SpacerView{Height: DefaultSpacerHeight}},
		{BlockDivider, Payload{"ignored": 1}, DividerView{}},
		{"carousel", Payload{"a": 1}, UnknownView{Type: "carousel", Payload: Payload{"a": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.blockType, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.blockType, tt.payload))
		})
	}
}

func TestSpacerHeight(t *testing.T) {
	cases := map[string]struct {
		in   any
		want int
	}{
		"float":     {float64(48), 48},
		"int":       {12, 12},
		"px string": {"40px", 40},
		"zero":      {0, DefaultSpacerHeight},
		"negative":  {float64(-5), DefaultSpacerHeight},
		"garbage":   {"tall", DefaultSpacerHeight},
		"bool":      {true, DefaultSpacerHeight},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			v := Decode(BlockSpacer, Payload{"height": c.in}).(SpacerView)
			assert.Equal(t, c.want, v.Height)
		})
	}
}

func TestButtonTarget(t *testing.T) {
	assert.Equal(t, LinkInert, ButtonView{Text: "x"}.Target())
	assert.Equal(t, LinkNewContext, ButtonView{URL: "https://example.org/doar"}.Target())
	assert.Equal(t, LinkNewContext, ButtonView{URL: "HTTP://example.org"}.Target())
	assert.Equal(t, LinkSameContext, ButtonView{URL: "/contato"}.Target())
	assert.Equal(t, LinkSameContext, ButtonView{URL: "#agenda"}.Target())
	assert.Equal(t, LinkSameContext, ButtonView{URL: "mailto:secretaria@example.org"}.Target())
}

func TestUnknownDiagnosticJSON(t *testing.T) {
	v := UnknownView{Type: "carousel", Payload: Payload{"slides": []any{"a", "b"}, "auto": true}}
	assert.Equal(t, `{"auto":true,"slides":["a","b"]}`, v.DiagnosticJSON())
	assert.Equal(t, "{}", UnknownView{Type: "x"}.DiagnosticJSON())
}

func TestMergeTextPreservesOtherKeys(t *testing.T) {
	orig := Payload{"text": "old", "align": "center", "color": "#333"}

	got := MergeText(orig, "new")
	assert.Equal(t, Payload{"text": "new", "align": "center", "color": "#333"}, got)
	assert.Equal(t, "old", orig["text"], "input must not change")

	assert.Equal(t, Payload{"text": "only"}, MergeText(nil, "only"))
}

func TestInlineEditable(t *testing.T) {
	for _, bt := range []string{BlockTitle, BlockSubtitle, BlockParagraph} {
		assert.True(t, InlineEditable(bt), bt)
	}
	for _, bt := range []string{BlockImage, BlockButton, BlockVideo, BlockSpacer, BlockDivider, "carousel"} {
		assert.False(t, InlineEditable(bt), bt)
	}
}
