package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"os"
	"path"
	"strings"

	"golang.org/x/net/html/charset"
)

// Reader-related errors.
var (
	ErrInvalidArchive = errors.New("pptx: invalid or corrupted archive")
	ErrNoPresentation = errors.New("pptx: missing presentation part")
	ErrInvalidPart    = errors.New("pptx: part is not well-formed")
)

// Reader provides access to PPTX document content. All parts are parsed
// when the Reader is opened.
type Reader struct {
	closer       io.Closer
	parts        map[string]*zip.File // lower-cased part name -> entry
	presentation string
	slides       []*Slide
}

// Open opens a PPTX file for reading.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r, err := OpenReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader opens a PPTX held in memory.
func NewReader(data []byte) (*Reader, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

// OpenReader opens a PPTX from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	r := &Reader{
		parts: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		r.parts[normalizePartName(f.Name)] = f
	}

	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases resources associated with the Reader.
func (r *Reader) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

// init validates the package and parses the slide list.
func (r *Reader) init() error {
	if _, ok := r.part(contentTypesPart); !ok {
		return fmt.Errorf("%w: missing %s", ErrInvalidArchive, contentTypesPart)
	}

	presPath, err := r.findPresentation()
	if err != nil {
		return err
	}
	r.presentation = presPath

	var pres presentationXML
	if err := r.decodePart(presPath, &pres); err != nil {
		return err
	}

	// Slide relationships are optional; without them every entry dangles.
	presRels, err := r.readRelationships(presPath)
	if err != nil {
		return err
	}

	if pres.SlideIdList == nil {
		return nil
	}

	r.slides = make([]*Slide, 0, len(pres.SlideIdList.SlideId))
	for i, entry := range pres.SlideIdList.SlideId {
		slide, err := r.loadSlide(entry, presRels)
		if err != nil {
			return err
		}
		slide.Position = i + 1
		slide.ID = entry.ID()
		r.slides = append(r.slides, slide)
	}
	return nil
}

// findPresentation locates the presentation part through the package
// relationships, falling back to the conventional location.
func (r *Reader) findPresentation() (string, error) {
	rels, err := r.readRelationships("")
	if err != nil {
		return "", err
	}
	if rel, ok := rels.byType(relOfficeDocument); ok && !rel.external() {
		name := resolveTarget("", rel.Target)
		if _, ok := r.part(name); ok {
			return name, nil
		}
	}
	if _, ok := r.part(defaultPresentationPart); ok {
		return defaultPresentationPart, nil
	}
	return "", ErrNoPresentation
}

// loadSlide resolves a slide list entry to its part and parses it. A
// dangling entry yields a slide without a path.
func (r *Reader) loadSlide(entry slideIdXML, presRels *relationshipsXML) (*Slide, error) {
	rel, ok := presRels.byID(entry.RelID())
	if !ok || rel.external() || !strings.HasSuffix(rel.Type, relSlide) {
		return &Slide{}, nil
	}

	name := resolveTarget(r.presentation, rel.Target)
	f, ok := r.part(name)
	if !ok {
		return &Slide{}, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPart, name, err)
	}
	defer rc.Close()

	slide, err := ParseSlide(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPart, name, err)
	}
	slide.Path = name
	return slide, nil
}

// readRelationships parses the relationships part belonging to source. An
// empty source means the package itself. A missing part is not an error.
func (r *Reader) readRelationships(source string) (*relationshipsXML, error) {
	name := packageRelsPart
	if source != "" {
		name = path.Join(path.Dir(source), "_rels", path.Base(source)+".rels")
	}
	if _, ok := r.part(name); !ok {
		return nil, nil
	}

	rels := &relationshipsXML{}
	if err := r.decodePart(name, rels); err != nil {
		return nil, err
	}
	return rels, nil
}

// decodePart unmarshals a part into v.
func (r *Reader) decodePart(name string, v any) error {
	f, ok := r.part(name)
	if !ok {
		return fmt.Errorf("%w: %s not found", ErrInvalidPart, name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPart, name, err)
	}
	defer rc.Close()

	if err := newDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPart, name, err)
	}
	return nil
}

// part looks up a part by name. Part names are case-insensitive.
func (r *Reader) part(name string) (*zip.File, bool) {
	f, ok := r.parts[normalizePartName(name)]
	return f, ok
}

// SlideCount returns the number of entries in the slide list, including
// dangling ones.
func (r *Reader) SlideCount() int {
	return len(r.slides)
}

// Slide returns the slide at the given index (0-indexed).
func (r *Reader) Slide(index int) (*Slide, error) {
	if index < 0 || index >= len(r.slides) {
		return nil, fmt.Errorf("slide index %d out of range (0-%d)", index, len(r.slides)-1)
	}
	return r.slides[index], nil
}

// Slides yields every slide list entry in presentation order.
func (r *Reader) Slides() iter.Seq[*Slide] {
	return func(yield func(*Slide) bool) {
		for _, s := range r.slides {
			if !yield(s) {
				return
			}
		}
	}
}

// PresentationPath returns the part name of the presentation.
func (r *Reader) PresentationPath() string {
	return r.presentation
}

// newDecoder returns an XML decoder that understands the encodings
// declared by legacy producers.
func newDecoder(rd io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(rd)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// resolveTarget turns a relationship target into a part name. Relative
// targets are resolved against the directory of source.
func resolveTarget(source, target string) string {
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(source), target)
}

func normalizePartName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "/"))
}
