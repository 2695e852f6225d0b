// Package tags maps shape labels found in presentations to semantic tags.
package tags

import "fmt"

// Tag is a semantic category that shape content is classified into.
type Tag int

const (
	// Unknown is the zero Tag and never appears in a mapping.
	Unknown Tag = iota
	// City is the market a placement runs in.
	City
	// Medium is the advertising medium (billboard, poster, ...).
	Medium
	// SiteStatus is the availability status of a site.
	SiteStatus
	// DurationDays is the booking length in days.
	DurationDays
	// CostDuration is the cost over the booked duration.
	CostDuration
	// MoveID identifies a move.
	MoveID
	// ImpressionID identifies an impression estimate.
	ImpressionID
	// QTY is a quantity.
	QTY
	// Location is a street level location.
	Location
	// Size is the physical size of a site.
	Size
	// TrafficDirection is the direction of passing traffic.
	TrafficDirection
)

var tagNames = [...]string{
	Unknown:          "Unknown",
	City:             "City",
	Medium:           "Medium",
	SiteStatus:       "SiteStatus",
	DurationDays:     "DurationDays",
	CostDuration:     "CostDuration",
	MoveID:           "MoveID",
	ImpressionID:     "ImpressionID",
	QTY:              "QTY",
	Location:         "Location",
	Size:             "Size",
	TrafficDirection: "TrafficDirection",
}

// String returns the canonical tag name.
func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "Unknown"
	}
	return tagNames[t]
}

// Valid reports whether t is one of the defined categories.
func (t Tag) Valid() bool {
	return t > Unknown && int(t) < len(tagNames)
}

// ParseTag returns the Tag with the given canonical name. Matching is exact.
func ParseTag(name string) (Tag, error) {
	for i := City; int(i) < len(tagNames); i++ {
		if tagNames[i] == name {
			return i, nil
		}
	}
	return Unknown, fmt.Errorf("unknown tag %q", name)
}

// All returns every defined tag in declaration order.
func All() []Tag {
	all := make([]Tag, 0, len(tagNames)-1)
	for i := City; int(i) < len(tagNames); i++ {
		all = append(all, i)
	}
	return all
}
