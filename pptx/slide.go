package pptx

import (
	"encoding/xml"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// FallbackIdentifier is the identifier of a shape that carries no
// description, title or name.
const FallbackIdentifier = "Shape"

// Slide represents one entry of the presentation's slide list.
type Slide struct {
	Position int    // 1-based position in the slide list
	ID       string // sldId id attribute
	Path     string // Part name of the slide; empty if the entry is dangling
	shapes   []*Shape
}

// NewSlide returns a slide at the given list position. An empty path marks
// a dangling entry.
func NewSlide(position int, path string, shapes ...*Shape) *Slide {
	return &Slide{
		Position: position,
		Path:     path,
		shapes:   slices.Clone(shapes),
	}
}

// Dangling reports whether the slide list entry points at no slide part.
func (s *Slide) Dangling() bool {
	return s.Path == ""
}

// Shapes yields the slide's shapes in document order, including shapes
// nested in groups.
func (s *Slide) Shapes() iter.Seq[*Shape] {
	return func(yield func(*Shape) bool) {
		for _, sh := range s.shapes {
			if !yield(sh) {
				return
			}
		}
	}
}

// ShapeCount returns the number of shapes on the slide.
func (s *Slide) ShapeCount() int {
	return len(s.shapes)
}

// Shape is a p:sp element with its non-visual annotations and text runs.
type Shape struct {
	ID          int
	Name        string // cNvPr name
	Description string // cNvPr descr (alt text)
	Title       string // cNvPr title
	runs        []string
}

// NewShape returns a shape with the given annotations and runs.
func NewShape(name, description, title string, runs ...string) *Shape {
	return &Shape{
		Name:        name,
		Description: description,
		Title:       title,
		runs:        slices.Clone(runs),
	}
}

// Runs yields the text of every a:t element under the shape in document
// order. Empty runs are yielded too.
func (s *Shape) Runs() iter.Seq[string] {
	return slices.Values(s.runs)
}

// Text joins the shape's runs with a single space and trims the result.
func (s *Shape) Text() string {
	return JoinRuns(s.Runs())
}

// Identifier returns the first non-empty of description, title and name,
// or FallbackIdentifier.
func (s *Shape) Identifier() string {
	return FirstNonEmpty(s.Description, s.Title, s.Name, FallbackIdentifier)
}

// JoinRuns concatenates runs separated by one space, then trims leading and
// trailing whitespace once. Run boundaries are not otherwise normalised.
func JoinRuns(runs iter.Seq[string]) string {
	var b strings.Builder
	first := true
	for run := range runs {
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(run)
		first = false
	}
	return strings.TrimSpace(b.String())
}

// FirstNonEmpty returns the first value that is not the empty string.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseSlide parses a slide part. The returned slide has no position or
// path; those come from the presentation's slide list.
func ParseSlide(r io.Reader) (*Slide, error) {
	shapes, err := parseShapes(newDecoder(r))
	if err != nil {
		return nil, err
	}
	return &Slide{shapes: shapes}, nil
}

// parseShapes walks the slide XML as a token stream so that shapes keep
// their document order across groups.
func parseShapes(dec *xml.Decoder) ([]*Shape, error) {
	shapes := make([]*Shape, 0)
	var (
		stack   []xml.Name
		current *Shape
		depth   int // len(stack) when current was opened
		sawRoot bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				if el.Name.Local != "sld" || !isPresentationML(el.Name.Space) {
					return nil, fmt.Errorf("unexpected root element <%s>", el.Name.Local)
				}
				sawRoot = true
			}

			switch {
			case current == nil && el.Name.Local == "sp" && isPresentationML(el.Name.Space):
				current = &Shape{}
				depth = len(stack)

			case current != nil && el.Name.Local == "cNvPr" &&
				len(stack) == depth+2 && stack[depth+1].Local == "nvSpPr":
				readNonVisualProps(current, el.Attr)

			case current != nil && el.Name.Local == "t" && isDrawingML(el.Name.Space):
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return nil, err
				}
				current.runs = append(current.runs, text)
				continue // DecodeElement consumed the end element
			}
			stack = append(stack, el.Name)

		case xml.EndElement:
			stack = stack[:len(stack)-1]
			if current != nil && len(stack) == depth {
				shapes = append(shapes, current)
				current = nil
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("no root element")
	}
	return shapes, nil
}

// readNonVisualProps copies the cNvPr annotations onto sh.
func readNonVisualProps(sh *Shape, attrs []xml.Attr) {
	for _, a := range attrs {
		if a.Name.Space != "" {
			continue
		}
		switch a.Name.Local {
		case "id":
			sh.ID, _ = strconv.Atoi(a.Value)
		case "name":
			sh.Name = a.Value
		case "descr":
			sh.Description = a.Value
		case "title":
			sh.Title = a.Value
		}
	}
}
