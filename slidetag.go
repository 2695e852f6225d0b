// Package slidetag extracts semantically tagged text from PPTX presentations.
//
// Every shape with visible text becomes a record whose tag is resolved from
// the shape's description, title or name through a label mapping.
//
// Basic usage:
//
//	slides, warnings, err := slidetag.Open("proposal.pptx").Records()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", slidetag.FormatWarnings(warnings))
//	}
//
// With a custom mapping:
//
//	m, err := tags.LoadMappingFile("tags.yaml")
//	if err != nil {
//	    // handle error
//	}
//	slides, _, err := slidetag.FromReader(upload).
//	    Tags(tags.NewResolver(m)).
//	    MaxSize(32 << 20).
//	    Records()
//
// For lower-level access to slides and shapes, use the pptx package.
package slidetag

import (
	"io"

	"github.com/tsawler/slidetag/tags"
)

// Open returns an Extractor reading the PPTX file at filename.
//
// Example:
//
//	slides, _, err := slidetag.Open("deck.pptx").Records()
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader returns an Extractor that reads the whole document from r when
// a terminal operation runs. The stream is consumed once; the caller keeps
// ownership of r.
func FromReader(r io.Reader) *Extractor {
	return &Extractor{
		src:     r,
		fromSrc: true,
		options: defaultOptions(),
	}
}

// FromBytes returns an Extractor over an in-memory document. Records may be
// called any number of times and always yields the same result.
func FromBytes(data []byte) *Extractor {
	return &Extractor{
		data:     data,
		fromData: true,
		options:  defaultOptions(),
	}
}

// Extract reads a PPTX document from r and returns its tagged slides. A nil
// resolver uses tags.Default().
func Extract(r io.Reader, resolver *tags.Resolver) ([]SlideRecord, error) {
	ext := FromReader(r)
	if resolver != nil {
		ext = ext.Tags(resolver)
	}
	slides, _, err := ext.Records()
	return slides, err
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustRecords is a helper that wraps a call to Records() and panics if the
// error is non-nil. It discards warnings and returns just the slides.
//
// Example:
//
//	slides := slidetag.MustRecords(slidetag.Open("deck.pptx").Records())
func MustRecords(slides []SlideRecord, _ []Warning, err error) []SlideRecord {
	if err != nil {
		panic(err)
	}
	return slides
}
