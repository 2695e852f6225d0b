// Package render writes extracted slide records as JSON, Markdown or HTML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/tsawler/slidetag"
)

// Format names an output rendering.
type Format string

const (
	JSON     Format = "json"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// ParseFormat returns the Format with the given name. Matching ignores case
// and accepts "md" for Markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "markdown", "md":
		return Markdown, nil
	case "html":
		return HTML, nil
	default:
		return "", fmt.Errorf("render: unknown format %q", name)
	}
}

// Write renders slides to w in the given format.
func Write(w io.Writer, f Format, slides []slidetag.SlideRecord) error {
	switch f {
	case JSON:
		return WriteJSON(w, slides)
	case Markdown:
		_, err := io.WriteString(w, ToMarkdown(slides))
		return err
	case HTML:
		_, err := w.Write(ToHTML(slides))
		return err
	default:
		return fmt.Errorf("render: unknown format %q", f)
	}
}

// WriteJSON writes slides as an indented JSON array. A nil slice is written
// as an empty array.
func WriteJSON(w io.Writer, slides []slidetag.SlideRecord) error {
	if slides == nil {
		slides = []slidetag.SlideRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(slides)
}

// ToMarkdown renders one section per slide, each holding a two column
// table of tag and content.
func ToMarkdown(slides []slidetag.SlideRecord) string {
	var b strings.Builder
	for i, s := range slides {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## Slide %d\n\n", s.SlideNumber)
		b.WriteString("| Tag | Content |\n")
		b.WriteString("| --- | --- |\n")
		for _, sh := range s.Shapes {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(sh.Tag), escapeCell(sh.Content))
		}
	}
	return b.String()
}

// ToHTML renders the Markdown form to HTML. Punctuation is left as typed
// and links to unsafe schemes are not emitted.
func ToHTML(slides []slidetag.SlideRecord) []byte {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML | blackfriday.Safelink,
	})
	return blackfriday.Run([]byte(ToMarkdown(slides)),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(renderer))
}

var cellReplacer = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "<br>",
	"<", "&lt;",
	">", "&gt;",
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"~", `\~`,
)

// escapeCell keeps content inside a single table cell as literal text.
func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}
