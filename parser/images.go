package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxImages caps the number of unique images kept per record.
	MaxImages = 10

	imageSelector    = "#imgTagWrapperId img, #altImages img, .a-dynamic-image"
	placeholderMark  = "transparent-pixel"
	lowResMarker     = "._AC_"
	highResToken     = "._AC_SL1500_"
	dynamicImageAttr = "data-a-dynamic-image"
)

var (
	imageSourceAttrs = []string{"src", "data-old-hires", dynamicImageAttr}
	sizeTokenPattern = regexp.MustCompile(`\._AC_[^.]*`)
)

// CollectImages returns up to MaxImages unique high-resolution image URLs in
// document order.
func CollectImages(doc *goquery.Document) []string {
	if doc == nil {
		return []string{}
	}

	var candidates []string
	doc.Find(imageSelector).Each(func(_ int, s *goquery.Selection) {
		src := resolveImageSource(s)
		if src == "" || strings.Contains(src, placeholderMark) {
			return
		}
		candidates = append(candidates, UpgradeImageURL(src))
	})

	images := dedupe(candidates)
	if len(images) > MaxImages {
		images = images[:MaxImages]
	}
	return images
}

// UpgradeImageURL rewrites the first low-resolution size token to the
// high-resolution one. URLs without the token are returned unchanged.
func UpgradeImageURL(src string) string {
	if !strings.Contains(src, lowResMarker) {
		return src
	}
	loc := sizeTokenPattern.FindStringIndex(src)
	if loc == nil {
		return src
	}
	return src[:loc[0]] + highResToken + src[loc[1]:]
}

func resolveImageSource(s *goquery.Selection) string {
	for _, attr := range imageSourceAttrs {
		value, ok := s.Attr(attr)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		if attr == dynamicImageAttr {
			value = largestDynamicImage(value)
			if value == "" {
				continue
			}
		}
		return value
	}
	return ""
}

// largestDynamicImage decodes {"url": [width, height], ...} and picks the
// URL with the largest area. Ties go to the lexicographically smaller URL.
func largestDynamicImage(raw string) string {
	var sizes map[string][]int
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
		return ""
	}
	best, bestArea := "", -1
	for url, dims := range sizes {
		area := 0
		if len(dims) >= 2 {
			area = dims[0] * dims[1]
		}
		if area > bestArea || (area == bestArea && url < best) {
			best, bestArea = url, area
		}
	}
	return strings.TrimSpace(best)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
