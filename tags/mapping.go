package tags

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Mapping pairs shape labels with the tag they resolve to.
type Mapping map[string]Tag

// DefaultMapping returns the label table used when no mapping file is
// configured. It is an example deployment: Text Placeholder 1 and 3 are the
// fixed City and Medium entries, and the remaining placeholders give every
// other tag one label. Real templates supply their own table through
// LoadMappingFile.
func DefaultMapping() Mapping {
	return Mapping{
		"Text Placeholder 1":  City,
		"Text Placeholder 2":  Location,
		"Text Placeholder 3":  Medium,
		"Text Placeholder 4":  Size,
		"Text Placeholder 5":  SiteStatus,
		"Text Placeholder 6":  TrafficDirection,
		"Text Placeholder 7":  DurationDays,
		"Text Placeholder 8":  CostDuration,
		"Text Placeholder 9":  MoveID,
		"Text Placeholder 10": ImpressionID,
		"Text Placeholder 11": QTY,
	}
}

// mappingFile is the on-disk layout of a mapping:
//
//	tags:
//	  "Text Placeholder 1": City
//	  "Site Photo Caption": Location
type mappingFile struct {
	Tags map[string]string `yaml:"tags"`
}

// LoadMapping decodes a YAML mapping document. Every value must be a
// canonical tag name.
func LoadMapping(r io.Reader) (Mapping, error) {
	var f mappingFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return Mapping{}, nil
		}
		return nil, fmt.Errorf("decoding tag mapping: %w", err)
	}

	m := make(Mapping, len(f.Tags))
	for label, name := range f.Tags {
		tag, err := ParseTag(name)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
		m[label] = tag
	}
	return m, nil
}

// LoadMappingFile reads a YAML mapping from path.
func LoadMappingFile(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := LoadMapping(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// MarshalYAML renders the mapping in the same layout LoadMapping reads.
func (m Mapping) MarshalYAML() (interface{}, error) {
	f := mappingFile{Tags: make(map[string]string, len(m))}
	for label, tag := range m {
		f.Tags[label] = tag.String()
	}
	return f, nil
}
