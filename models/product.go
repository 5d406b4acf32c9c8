// Package models defines data structures for the scraper.
package models

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for every persisted timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ProductRecord is the normalized extraction output for one product page.
// Every text field except SourceURL is optional; an empty string means absent.
type ProductRecord struct {
	Title        string    `json:"title,omitempty"`
	Price        string    `json:"price,omitempty"`
	Rating       string    `json:"rating,omitempty"`
	ReviewCount  string    `json:"reviewCount,omitempty"`
	BulletPoints []string  `json:"bulletPoints"`
	Description  string    `json:"description,omitempty"`
	Images       []string  `json:"images"`
	ASIN         string    `json:"asin,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	ExtractedAt  time.Time `json:"extractedAt"`
	SourceURL    string    `json:"sourceUrl"`
}

// IsEmpty reports whether extraction ran but found nothing.
func (p *ProductRecord) IsEmpty() bool {
	return p.Title == "" && p.Price == "" && p.Rating == "" && p.ReviewCount == "" &&
		len(p.BulletPoints) == 0 && p.Description == "" && len(p.Images) == 0 &&
		p.ASIN == "" && p.Brand == ""
}

// MarshalJSON keeps slices as arrays and renders the timestamp in millisecond precision.
func (p ProductRecord) MarshalJSON() ([]byte, error) {
	type alias ProductRecord
	out := struct {
		alias
		ExtractedAt string `json:"extractedAt"`
	}{
		alias:       alias(p),
		ExtractedAt: p.ExtractedAt.UTC().Format(TimestampLayout),
	}
	if out.BulletPoints == nil {
		out.BulletPoints = []string{}
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	return json.Marshal(out)
}

// ExtractionFailure replaces a ProductRecord when a target could not be fetched or parsed.
type ExtractionFailure struct {
	Error       string    `json:"error"`
	Kind        string    `json:"kind,omitempty"`
	URL         string    `json:"url"`
	ProductName string    `json:"productName,omitempty"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// MarshalJSON renders the timestamp like ProductRecord does.
func (f ExtractionFailure) MarshalJSON() ([]byte, error) {
	type alias ExtractionFailure
	out := struct {
		alias
		ExtractedAt string `json:"extractedAt"`
	}{
		alias:       alias(f),
		ExtractedAt: f.ExtractedAt.UTC().Format(TimestampLayout),
	}
	return json.Marshal(out)
}
