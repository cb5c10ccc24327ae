package card

import (
	"reflect"
	"testing"
)

func TestRenderText_BlockKinds(t *testing.T) {
	out := RenderText("intro line\n• first item\n\nclosing line", "center")

	if out.Alignment != "center" {
		t.Errorf("alignment = %q, want center", out.Alignment)
	}
	wantKinds := []BlockKind{BlockParagraph, BlockBullet, BlockSpacer, BlockParagraph}
	if len(out.Blocks) != len(wantKinds) {
		t.Fatalf("got %d blocks, want %d", len(out.Blocks), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if out.Blocks[i].Kind != kind {
			t.Errorf("block %d kind = %q, want %q", i, out.Blocks[i].Kind, kind)
		}
	}
	if got := out.Blocks[1].Spans[0].Text; got != "first item" {
		t.Errorf("bullet text = %q, want marker stripped", got)
	}
}

func TestTextAlignment(t *testing.T) {
	for input, want := range map[string]string{
		"center":  "center",
		"right":   "right",
		"left":    "left",
		"":        "left",
		"justify": "left",
	} {
		if got := TextAlignment(input); got != want {
			t.Errorf("TextAlignment(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRenderInline_BoldAndItalic(t *testing.T) {
	spans := renderInline("plain **bold** and *italic* tail")

	want := []Span{
		{Text: "plain "},
		{Text: "bold", Bold: true},
		{Text: " and "},
		{Text: "italic", Italic: true},
		{Text: " tail"},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %+v, want %+v", spans, want)
	}
}

func TestRenderInline_BoldTakesPrecedence(t *testing.T) {
	spans := renderInline("***c***")

	want := []Span{{Text: "c", Bold: true, Italic: true}}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %+v, want %+v", spans, want)
	}
	for _, s := range spans {
		if s.Text == "*" || s.Text == "**" {
			t.Errorf("literal marker survived: %+v", s)
		}
	}
}

func TestRenderInline_UnmatchedMarkersStayLiteral(t *testing.T) {
	spans := renderInline("price is 5* today")

	want := []Span{{Text: "price is 5* today"}}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %+v, want %+v", spans, want)
	}
}

func TestRenderInline_SentinelsInInputAreStripped(t *testing.T) {
	spans := renderInline("safe" + boldOpen + "text" + italicClose)

	want := []Span{{Text: "safetext"}}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %+v, want %+v", spans, want)
	}
}
