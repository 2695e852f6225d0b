package slidetag

import (
	"fmt"
	"strings"
)

// Warning reports a non-fatal problem found while extracting.
type Warning struct {
	Slide   int    `json:"slide"` // 1-based slide list position, 0 if not slide specific
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Slide > 0 {
		return fmt.Sprintf("slide %d: %s", w.Slide, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single line.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
