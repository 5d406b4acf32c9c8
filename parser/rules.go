// Package parser turns product page documents into normalized records.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule is one lookup in a field's fallback chain.
type Rule interface {
	extract(root *goquery.Selection) string
}

// Chain is an ordered list of rules; the first non-empty result wins.
type Chain []Rule

type textRule struct {
	selector string
}

// Text uses the trimmed text of the first element matching selector.
func Text(selector string) Rule {
	return textRule{selector: selector}
}

func (r textRule) extract(root *goquery.Selection) string {
	return strings.TrimSpace(root.Find(r.selector).First().Text())
}

type attrRule struct {
	selector  string
	attribute string
}

// Attr uses the trimmed attribute value of the first element matching selector.
func Attr(selector, attribute string) Rule {
	return attrRule{selector: selector, attribute: attribute}
}

func (r attrRule) extract(root *goquery.Selection) string {
	value, _ := root.Find(r.selector).First().Attr(r.attribute)
	return strings.TrimSpace(value)
}

type regionRule struct {
	selector string
	limit    int
}

// Region concatenates the text of every element matching selector and keeps
// the first limit characters. A limit of zero or less keeps everything.
func Region(selector string, limit int) Rule {
	return regionRule{selector: selector, limit: limit}
}

func (r regionRule) extract(root *goquery.Selection) string {
	return Truncate(strings.TrimSpace(root.Find(r.selector).Text()), r.limit)
}

// ExtractField evaluates chain against doc and returns the first non-empty
// result. It returns "" when no rule produces text.
func ExtractField(doc *goquery.Document, chain Chain) string {
	if doc == nil {
		return ""
	}
	for _, rule := range chain {
		if value := apply(rule, doc.Selection); value != "" {
			return value
		}
	}
	return ""
}

// apply treats a failing rule as one that found nothing.
func apply(rule Rule, root *goquery.Selection) (value string) {
	if rule == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			value = ""
		}
	}()
	return rule.extract(root)
}
