package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
)

// DocumentFetcher returns the raw HTML for a URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Scraper fetches a single product page and assembles its record.
type Scraper struct {
	fetcher   DocumentFetcher
	assembler *parser.Assembler
	logger    *zap.Logger
	Metrics   *Metrics
}

// NewScraper builds a scraper backed by a colly Fetcher configured from cfg.
func NewScraper(cfg *config.Config, logger *zap.Logger) (*Scraper, error) {
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	s := New(fetcher, logger)
	s.Metrics = metrics
	return s, nil
}

// New wraps an arbitrary fetcher. logger may be nil.
func New(fetcher DocumentFetcher, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		fetcher:   fetcher,
		assembler: parser.NewAssembler(),
		logger:    logger,
	}
}

// SetClock overrides the clock used to stamp records.
func (s *Scraper) SetClock(now func() time.Time) {
	s.assembler.Now = now
}

// Fetcher exposes the underlying colly fetcher, or nil for custom fetchers.
func (s *Scraper) Fetcher() *Fetcher {
	f, _ := s.fetcher.(*Fetcher)
	return f
}

// Extract fetches url and returns its product record. Missing fields are not
// errors; only fetch and parse failures are returned.
func (s *Scraper) Extract(ctx context.Context, url string) (*models.ProductRecord, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.Metrics.IncError(errorLabel(err))
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		perr := ErrParse{Err: err}
		s.Metrics.IncError(errorLabel(perr))
		return nil, fmt.Errorf("parse %s: %w", url, perr)
	}

	record := s.assembler.Assemble(doc, url)
	s.logger.Debug("assembled product record",
		zap.String("url", url),
		zap.String("title", record.Title),
		zap.Int("images", len(record.Images)),
		zap.Int("bullets", len(record.BulletPoints)),
	)
	return record, nil
}
