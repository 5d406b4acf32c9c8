package parser

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-products/models"
)

// DescriptionLimit bounds descriptions scraped from the fallback region.
const DescriptionLimit = 1000

const bulletSelector = "#feature-bullets ul li, .a-list-item"

// Fallback chains per field, most specific first. Price covers both the
// current and the legacy page templates.
var (
	TitleChain = Chain{
		Text("#productTitle"),
		Text("#title"),
		Text("h1"),
	}
	PriceChain = Chain{
		Text(".a-price .a-offscreen"),
		Text("#priceblock_ourprice"),
		Text("#priceblock_saleprice"),
		Text(".a-color-price"),
		Text("#corePrice_feature_div .a-offscreen"),
	}
	RatingChain = Chain{
		Text(".a-icon-star .a-size-medium"),
		Text(".a-star-medium"),
		Text(`[data-cy="reviews-summary"] .a-label`),
	}
	ReviewCountChain = Chain{
		Text("#acrCustomerReviewText"),
		Text(".a-size-base .a-link-normal"),
		Text(`[data-cy="reviews-summary"] .a-size-base`),
	}
	DescriptionChain = Chain{
		Text("#productDescription"),
		Region("#aplus, #feature-bullets", DescriptionLimit),
	}
	BrandChain = Chain{
		Text("#bylineInfo"),
		Text("#brand"),
	}
)

// Assembler builds product records from parsed documents.
type Assembler struct {
	// Now stamps ExtractedAt. Defaults to time.Now.
	Now func() time.Time
}

// NewAssembler returns an Assembler using the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{Now: time.Now}
}

// Assemble extracts every field from doc. Missing data leaves fields empty.
func (a *Assembler) Assemble(doc *goquery.Document, sourceURL string) *models.ProductRecord {
	now := time.Now
	if a != nil && a.Now != nil {
		now = a.Now
	}

	return &models.ProductRecord{
		Title:        ExtractField(doc, TitleChain),
		Price:        ExtractField(doc, PriceChain),
		Rating:       NormalizeRating(ExtractField(doc, RatingChain)),
		ReviewCount:  NormalizeReviewCount(ExtractField(doc, ReviewCountChain)),
		BulletPoints: ExtractBulletPoints(doc),
		Description:  ExtractField(doc, DescriptionChain),
		Images:       CollectImages(doc),
		ASIN:         ASIN(sourceURL),
		Brand:        ExtractField(doc, BrandChain),
		ExtractedAt:  now().UTC(),
		SourceURL:    sourceURL,
	}
}

// ExtractBulletPoints returns the non-empty feature bullets in document order.
func ExtractBulletPoints(doc *goquery.Document) []string {
	points := []string{}
	if doc == nil {
		return points
	}
	doc.Find(bulletSelector).Each(func(_ int, s *goquery.Selection) {
		if point := strings.TrimSpace(s.Text()); point != "" {
			points = append(points, point)
		}
	})
	return points
}
