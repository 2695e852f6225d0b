package slidetag

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when there is no usable document, such as
	// a nil or empty stream or a file that cannot be read.
	ErrInvalidInput = errors.New("slidetag: invalid input")

	// ErrMalformedDocument is returned when the document is not a readable
	// PPTX package or one of its slide parts is not well-formed XML.
	ErrMalformedDocument = errors.New("slidetag: malformed document")

	// ErrTooLarge is returned when the document exceeds the MaxSize limit.
	// It also matches ErrInvalidInput.
	ErrTooLarge = fmt.Errorf("%w: document exceeds size limit", ErrInvalidInput)
)
