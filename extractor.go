package slidetag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/slidetag/pptx"
	"github.com/tsawler/slidetag/tags"
)

// Extractor provides a fluent interface for extracting tagged slides.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source (exactly one is set)
	filename string
	src      io.Reader
	fromSrc  bool
	data     []byte
	fromData bool

	// Configuration
	resolver *tags.Resolver
	options  ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename: e.filename,
		src:      e.src,
		fromSrc:  e.fromSrc,
		data:     e.data,
		fromData: e.fromData,
		resolver: e.resolver,
		options:  e.options.clone(),
		err:      e.err,
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Tags sets the resolver used to turn shape identifiers into tags. Without
// it, tags.Default() is used.
//
// Example:
//
//	slides, _, err := slidetag.Open("deck.pptx").Tags(resolver).Records()
func (e *Extractor) Tags(r *tags.Resolver) *Extractor {
	newExt := e.clone()
	newExt.resolver = r
	return newExt
}

// MaxSize rejects documents larger than n bytes with ErrTooLarge. Zero or
// a negative n removes the limit.
func (e *Extractor) MaxSize(n int64) *Extractor {
	newExt := e.clone()
	if n < 0 {
		n = 0
	}
	newExt.options.maxSize = n
	return newExt
}

// NormalizeUnicode applies NFC normalisation to shape content, so that text
// typed with combining marks compares equal to precomposed text.
func (e *Extractor) NormalizeUnicode() *Extractor {
	newExt := e.clone()
	newExt.options.normalizeUnicode = true
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Records extracts the tagged slides in presentation order.
//
// Slides without any shape text are left out, but still count toward the
// slide numbers of the slides after them. Shapes whose text is empty are
// left out. A document without slides yields an empty, non-nil slice.
//
// Warnings report slide list entries that were skipped because their slide
// part could not be resolved. Errors wrap ErrInvalidInput or
// ErrMalformedDocument; no slides are returned alongside an error.
func (e *Extractor) Records() ([]SlideRecord, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	r, err := e.openReader()
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	resolver := e.resolver
	if resolver == nil {
		resolver = tags.Default()
	}

	slides, warnings := collect(r.Slides(), resolver, e.options)
	return slides, warnings, nil
}

// openReader opens the configured source as a pptx.Reader.
func (e *Extractor) openReader() (*pptx.Reader, error) {
	switch {
	case e.fromData:
		return e.readerFromBytes(e.data)

	case e.fromSrc:
		if e.src == nil {
			return nil, fmt.Errorf("%w: nil reader", ErrInvalidInput)
		}
		data, err := readAll(e.src, e.options.maxSize)
		if err != nil {
			return nil, err
		}
		return e.readerFromBytes(data)

	case e.filename != "":
		info, err := os.Stat(e.filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, e.filename)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidInput)
		}
		if e.options.maxSize > 0 && info.Size() > e.options.maxSize {
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), e.options.maxSize)
		}
		r, err := pptx.Open(e.filename)
		if err != nil {
			return nil, classify(err)
		}
		return r, nil

	default:
		return nil, fmt.Errorf("%w: no document specified", ErrInvalidInput)
	}
}

func (e *Extractor) readerFromBytes(data []byte) (*pptx.Reader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	if e.options.maxSize > 0 && int64(len(data)) > e.options.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), e.options.maxSize)
	}
	r, err := pptx.NewReader(data)
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// readAll drains src, reading at most one byte past limit so oversized
// streams are detected without buffering them whole. A reader that panics,
// such as a typed nil pointer, is reported as invalid input.
func readAll(src io.Reader, limit int64) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("%w: reading document: %v", ErrInvalidInput, r)
		}
	}()

	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("%w: reading document: %v", ErrInvalidInput, err)
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return buf.Bytes(), nil
}

// classify maps pptx failures onto the package's error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, pptx.ErrInvalidArchive),
		errors.Is(err, pptx.ErrNoPresentation),
		errors.Is(err, pptx.ErrInvalidPart):
		return fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
}

// collect turns slides into records. It relies on each slide's Position,
// so skipped slides never shift the numbers of later ones.
func collect(slides iter.Seq[*pptx.Slide], resolver *tags.Resolver, opts ExtractOptions) ([]SlideRecord, []Warning) {
	records := make([]SlideRecord, 0)
	var warnings []Warning

	for slide := range slides {
		if slide.Dangling() {
			warnings = append(warnings, Warning{
				Slide:   slide.Position,
				Message: "slide part could not be resolved; slide skipped",
			})
			continue
		}
		if rec, ok := buildRecord(slide, resolver, opts); ok {
			records = append(records, rec)
		}
	}

	return records, warnings
}

// buildRecord tags the shapes of one slide. It reports false when no shape
// has text.
func buildRecord(slide *pptx.Slide, resolver *tags.Resolver, opts ExtractOptions) (SlideRecord, bool) {
	var shapes []ShapeRecord
	for sh := range slide.Shapes() {
		content := sh.Text()
		if content == "" {
			continue
		}
		if opts.normalizeUnicode {
			content = norm.NFC.String(content)
		}
		shapes = append(shapes, ShapeRecord{
			Tag:     resolver.Resolve(sh.Identifier()),
			Content: content,
		})
	}

	if len(shapes) == 0 {
		return SlideRecord{}, false
	}
	return SlideRecord{SlideNumber: slide.Position, Shapes: shapes}, true
}
