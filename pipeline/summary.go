package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/aluiziolira/go-scrape-products/models"
)

var summaryHeader = []string{
	"name", "status", "title", "price", "rating", "review_count",
	"asin", "brand", "image_count", "error", "source_url",
}

// EncodeSummaryCSV renders one row per target in result order.
func EncodeSummaryCSV(result *models.BatchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(summaryHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	var rowErr error
	result.Each(func(name string, outcome models.Outcome) {
		if rowErr != nil {
			return
		}
		if err := writer.Write(summaryRow(name, outcome)); err != nil {
			rowErr = fmt.Errorf("write csv record %q: %w", name, err)
		}
	})
	if rowErr != nil {
		return nil, rowErr
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv records: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryRow(name string, outcome models.Outcome) []string {
	if outcome.Failure != nil {
		f := outcome.Failure
		return []string{name, "failed", "", "", "", "", "", "", "0", f.Error, f.URL}
	}
	r := outcome.Record
	if r == nil {
		return []string{name, "failed", "", "", "", "", "", "", "0", "missing outcome", ""}
	}
	status := "ok"
	if r.IsEmpty() {
		status = "empty"
	}
	return []string{
		name,
		status,
		r.Title,
		r.Price,
		r.Rating,
		r.ReviewCount,
		r.ASIN,
		r.Brand,
		strconv.Itoa(len(r.Images)),
		"",
		r.SourceURL,
	}
}
