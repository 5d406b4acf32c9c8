package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
	"github.com/aluiziolira/go-scrape-products/pipeline"
	"github.com/aluiziolira/go-scrape-products/scraper"
	"github.com/aluiziolira/go-scrape-products/slug"
)

const maxSlugName = 80

func newExtractCmd(a *app) *cobra.Command {
	var (
		save bool
		name string
	)
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract one product page and print its record as JSON",
		Long: `Fetch a single product page and print the extracted record to stdout.

With --save the record (or the failure) is also written as {name}-result.json.
The name defaults to the slug of the product title, then the ASIN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && !config.ValidName(name) {
				return fmt.Errorf("name %q must be filesystem-safe", name)
			}
			return a.runExtract(cmd.Context(), args[0], save, name)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "also write {name}-result.json")
	cmd.Flags().StringVar(&name, "name", "", "result name used with --save")
	return cmd
}

func (a *app) runExtract(ctx context.Context, url string, save bool, name string) error {
	s, err := a.newScraper()
	if err != nil {
		return err
	}
	stopMetrics := a.serveMetrics(s.Metrics.Registry)
	defer stopMetrics()

	record, extractErr := s.Extract(ctx, url)
	if extractErr != nil {
		a.logger.Error("extraction failed", zap.String("url", url), zap.Error(extractErr))
		if save {
			failure := &models.ExtractionFailure{
				Error:       extractErr.Error(),
				Kind:        scraper.ErrorKind(extractErr),
				URL:         url,
				ProductName: name,
				ExtractedAt: time.Now().UTC(),
			}
			key := pipeline.ItemKey(resultName(name, "", parser.ASIN(url)))
			if err := a.save(ctx, key, failure); err != nil {
				return fmt.Errorf("%w; saving failure: %v", extractErr, err)
			}
		}
		return extractErr
	}

	payload, err := pipeline.EncodeJSON(record)
	if err != nil {
		return err
	}
	if _, err := a.stdout.Write(payload); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}

	if save {
		key := pipeline.ItemKey(resultName(name, record.Title, record.ASIN))
		if err := a.save(ctx, key, record); err != nil {
			return err
		}
		a.logger.Info("record saved", zap.String("key", key))
	}
	return nil
}

func (a *app) save(ctx context.Context, key string, v any) error {
	writer, closeWriter, err := a.newWriter(ctx)
	if err != nil {
		return err
	}
	defer closeWriter()

	payload, err := pipeline.EncodeJSON(v)
	if err != nil {
		return err
	}
	if err := writer.Write(context.WithoutCancel(ctx), key, payload); err != nil {
		return pipeline.ErrPersistence{Key: key, Err: err}
	}
	return nil
}

// resultName picks the first usable name from an explicit name, the title
// slug and the ASIN.
func resultName(name, title, asin string) string {
	titleSlug := slug.Make(title)
	if len(titleSlug) > maxSlugName {
		titleSlug = strings.TrimRight(titleSlug[:maxSlugName], "-")
	}
	for _, candidate := range []string{name, titleSlug, asin} {
		if candidate != "" && config.ValidName(candidate) {
			return candidate
		}
	}
	return "product"
}
