// Package pptx provides PPTX (Office Open XML Presentation) document parsing.
package pptx

import (
	"encoding/xml"
	"strings"
)

// XML namespaces used in PPTX files. Strict documents use the purl.oclc.org
// variants.
const (
	nsPresentationML       = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML            = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPresentationMLStrict = "http://purl.oclc.org/ooxml/presentationml/main"
	nsDrawingMLStrict      = "http://purl.oclc.org/ooxml/drawingml/main"
	nsRelationshipsStrict  = "http://purl.oclc.org/ooxml/officeDocument/relationships"
)

// Relationship type suffixes. Matching on the suffix covers both the
// Transitional and Strict type URIs.
const (
	relOfficeDocument = "/officeDocument"
	relSlide          = "/slide"
)

// Well-known part names.
const (
	contentTypesPart        = "[Content_Types].xml"
	packageRelsPart         = "_rels/.rels"
	defaultPresentationPart = "ppt/presentation.xml"
)

func isPresentationML(space string) bool {
	return space == nsPresentationML || space == nsPresentationMLStrict
}

func isDrawingML(space string) bool {
	return space == nsDrawingML || space == nsDrawingMLStrict
}

func isRelationshipsNS(space string) bool {
	return space == nsRelationships || space == nsRelationshipsStrict
}

// presentationXML represents the presentation part.
type presentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIdList *slideIdListXML `xml:"sldIdLst"`
}

type slideIdListXML struct {
	SlideId []slideIdXML `xml:"sldId"`
}

// slideIdXML keeps raw attributes: the unqualified id and the r:id share a
// local name, so struct tags cannot tell them apart reliably.
type slideIdXML struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// ID returns the slide id attribute.
func (s slideIdXML) ID() string {
	for _, a := range s.Attrs {
		if a.Name.Local == "id" && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

// RelID returns the r:id attribute linking the entry to its slide part.
func (s slideIdXML) RelID() string {
	for _, a := range s.Attrs {
		if a.Name.Local == "id" && isRelationshipsNS(a.Name.Space) {
			return a.Value
		}
	}
	return ""
}

// relationshipsXML represents .rels files.
type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

func (r relationshipXML) external() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

// byID returns the relationship with the given id.
func (r *relationshipsXML) byID(id string) (relationshipXML, bool) {
	if r == nil {
		return relationshipXML{}, false
	}
	for _, rel := range r.Relationship {
		if rel.ID == id {
			return rel, true
		}
	}
	return relationshipXML{}, false
}

// byType returns the first relationship whose type ends with suffix.
func (r *relationshipsXML) byType(suffix string) (relationshipXML, bool) {
	if r == nil {
		return relationshipXML{}, false
	}
	for _, rel := range r.Relationship {
		if strings.HasSuffix(rel.Type, suffix) {
			return rel, true
		}
	}
	return relationshipXML{}, false
}
