// Package pptxtest builds small PPTX packages in memory for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
)

// Shape describes a p:sp element.
type Shape struct {
	Name        string
	Description string
	Title       string
	Runs        []string
}

// Slide describes one slide list entry.
type Slide struct {
	Shapes   []Shape
	Groups   [][]Shape // Shapes wrapped in p:grpSp, written after Shapes
	XML      string    // Raw slide part; overrides Shapes and Groups
	Dangling bool      // Entry whose relationship points at a missing part
}

// File is an extra part added to the package verbatim.
type File struct {
	Name    string
	Content string
}

// Deck builds a PPTX package containing the given slides in order.
func Deck(tb testing.TB, slides ...Slide) []byte {
	tb.Helper()
	return Package(tb, slides, nil)
}

// Package builds a PPTX package with extra parts. Extra parts with the name
// of a generated part replace it.
func Package(tb testing.TB, slides []Slide, extra []File) []byte {
	tb.Helper()

	parts := []File{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"ppt/presentation.xml", Presentation(len(slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRels(len(slides))},
	}
	for i, s := range slides {
		if s.Dangling {
			continue
		}
		body := s.XML
		if body == "" {
			body = SlideXML(s.Shapes, s.Groups...)
		}
		parts = append(parts, File{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), body})
	}

	overrides := make(map[string]string, len(extra))
	for _, f := range extra {
		overrides[f.Name] = f.Content
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	written := make(map[string]bool)
	for _, p := range parts {
		content := p.Content
		if c, ok := overrides[p.Name]; ok {
			content = c
		}
		writeZipFile(tb, zw, p.Name, content)
		written[p.Name] = true
	}
	for _, f := range extra {
		if !written[f.Name] {
			writeZipFile(tb, zw, f.Name, f.Content)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// Zip builds a bare archive from the given parts.
func Zip(tb testing.TB, files ...File) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		writeZipFile(tb, zw, f.Name, f.Content)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func writeZipFile(tb testing.TB, zw *zip.Writer, name, content string) {
	tb.Helper()
	w, err := zw.Create(name)
	if err != nil {
		tb.Fatalf("Failed to create %s in zip: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		tb.Fatalf("Failed to write %s: %v", name, err)
	}
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`

// Presentation returns a presentation part listing n slides.
func Presentation(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	if n > 0 {
		b.WriteString("<p:sldIdLst>")
		for i := 1; i <= n; i++ {
			fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i)
		}
		b.WriteString("</p:sldIdLst>")
	}
	b.WriteString(`<p:sldSz cx="9144000" cy="6858000"/></p:presentation>`)
	return b.String()
}

func presentationRels(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i, i)
	}
	b.WriteString("</Relationships>")
	return b.String()
}

// SlideXML returns a slide part containing the given shapes followed by one
// group shape per entry of groups.
func SlideXML(shapes []Shape, groups ...[]Shape) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	id := 2
	for _, s := range shapes {
		writeShape(&b, id, s)
		id++
	}
	for _, g := range groups {
		fmt.Fprintf(&b, `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group %d"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`, id, id)
		id++
		for _, s := range g {
			writeShape(&b, id, s)
			id++
		}
		b.WriteString("</p:grpSp>")
	}
	b.WriteString("</p:spTree></p:cSld></p:sld>")
	return b.String()
}

func writeShape(b *strings.Builder, id int, s Shape) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d"`, id)
	if s.Name != "" {
		fmt.Fprintf(b, ` name="%s"`, escape(s.Name))
	}
	if s.Description != "" {
		fmt.Fprintf(b, ` descr="%s"`, escape(s.Description))
	}
	if s.Title != "" {
		fmt.Fprintf(b, ` title="%s"`, escape(s.Title))
	}
	b.WriteString(`/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p>`)
	for _, run := range s.Runs {
		fmt.Fprintf(b, `<a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r>`, escape(run))
	}
	b.WriteString(`</a:p></p:txBody></p:sp>`)
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
