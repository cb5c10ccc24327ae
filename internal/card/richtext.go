package card

import (
	"regexp"
	"strings"
)

// The mini-renderer understands a deliberately tiny markup dialect used by
// product/service descriptions: **bold**, *italic*, and lines starting with
// "• " as bullets. It is a best-effort substitution pass, not a markdown
// parser: unmatched markers stay literal and no input ever fails.

// BlockKind classifies a rendered line.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockBullet    BlockKind = "bullet"
	BlockSpacer    BlockKind = "spacer"
)

// Span is a run of text with inline styling already applied.
type Span struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Block is one rendered line of a description.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Spans []Span    `json:"spans,omitempty"`
}

// RenderedText is the structured output fed to the presentation layer.
// Nothing in it is interpreted as markup downstream.
type RenderedText struct {
	Alignment string  `json:"alignment"`
	Blocks    []Block `json:"blocks"`
}

// TextAlignment normalizes an alignment value; anything unrecognized is left.
func TextAlignment(alignment string) string {
	switch alignment {
	case "center", "right":
		return alignment
	default:
		return "left"
	}
}

// RenderText splits text into lines and renders each as a bullet, spacer, or
// paragraph block with inline bold/italic styling applied.
func RenderText(text, alignment string) RenderedText {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "• "):
			content := strings.Replace(line, "• ", "", 1)
			blocks = append(blocks, Block{Kind: BlockBullet, Spans: renderInline(content)})
		case trimmed == "":
			blocks = append(blocks, Block{Kind: BlockSpacer})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Spans: renderInline(line)})
		}
	}

	return RenderedText{Alignment: TextAlignment(alignment), Blocks: blocks}
}

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
)

// Sentinel runes standing in for style open/close tags between the two
// substitution passes. Private-use codepoints so real text never collides;
// any that do appear in the input are stripped up front.
const (
	boldOpen    = ""
	boldClose   = ""
	italicOpen  = ""
	italicClose = ""
)

var sentinelStripper = strings.NewReplacer(boldOpen, "", boldClose, "", italicOpen, "", italicClose, "")

// renderInline applies the two-pass substitution: every **bold** span first,
// then every remaining *italic* span over the result. Running the italic pass
// over the already-marked string is what makes ***x*** come out bold — the
// leftover single asterisks pair up across the bold boundary, so no literal
// markers survive. That precedence is part of the dialect.
func renderInline(line string) []Span {
	marked := sentinelStripper.Replace(line)
	marked = boldPattern.ReplaceAllString(marked, boldOpen+"$1"+boldClose)
	marked = italicPattern.ReplaceAllString(marked, italicOpen+"$1"+italicClose)

	var (
		spans   []Span
		current strings.Builder
		bold    bool
		italic  bool
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		spans = append(spans, Span{Text: current.String(), Bold: bold, Italic: italic})
		current.Reset()
	}

	for _, r := range marked {
		switch string(r) {
		case boldOpen:
			flush()
			bold = true
		case boldClose:
			flush()
			bold = false
		case italicOpen:
			flush()
			italic = true
		case italicClose:
			flush()
			italic = false
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return spans
}
