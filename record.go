package slidetag

// SlideRecord is the tagged content of one slide.
type SlideRecord struct {
	// SlideNumber is the 1-based position of the slide in the presentation's
	// slide list. Skipped slides keep their numbers, so gaps are possible.
	SlideNumber int           `json:"slideNumber"`
	Shapes      []ShapeRecord `json:"shapes"`
}

// ShapeRecord is one shape's resolved tag and its text.
type ShapeRecord struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// Tags returns the distinct tags on the slide in first-seen order.
func (s SlideRecord) Tags() []string {
	seen := make(map[string]bool, len(s.Shapes))
	var out []string
	for _, sh := range s.Shapes {
		if !seen[sh.Tag] {
			seen[sh.Tag] = true
			out = append(out, sh.Tag)
		}
	}
	return out
}

// Lookup returns the content of the first shape with the given tag.
func (s SlideRecord) Lookup(tag string) (string, bool) {
	for _, sh := range s.Shapes {
		if sh.Tag == tag {
			return sh.Content, true
		}
	}
	return "", false
}
