package slidetag

// ExtractOptions holds configuration for slide extraction.
type ExtractOptions struct {
	// Input limits
	maxSize int64 // 0 means unlimited

	// Content processing
	normalizeUnicode bool
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		maxSize:          0,
		normalizeUnicode: false,
	}
}

// clone creates a copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	return ExtractOptions{
		maxSize:          o.maxSize,
		normalizeUnicode: o.normalizeUnicode,
	}
}
