package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/pipeline"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract every target of a batch sequentially",
		Long: `Run the batch orchestrator over a target list, pausing between targets.

Each outcome is written to {name}-result.json and the whole batch to
{batch_name}-results.json. Without --targets the built-in health & wellness
list is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBatch(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.String("targets", "", "YAML or JSON file with the target list")
	flags.Duration("pace", 0, "delay between consecutive targets")
	flags.String("batch-name", "", "name of the consolidated result")
	flags.Duration("batch-timeout", 0, "deadline for the whole batch (0 disables)")
	flags.Bool("csv-summary", false, "also write {batch_name}-results.csv")
	flags.String("gcs-bucket", "", "also upload results to this Cloud Storage bucket")
	flags.String("gcs-prefix", "", "object prefix inside the bucket")
	return cmd
}

func (a *app) runBatch(ctx context.Context) error {
	targets, err := a.targets()
	if err != nil {
		return err
	}

	s, err := a.newScraper()
	if err != nil {
		return err
	}
	stopMetrics := a.serveMetrics(s.Metrics.Registry)
	defer stopMetrics()

	writer, closeWriter, err := a.newWriter(ctx)
	if err != nil {
		return err
	}
	defer closeWriter()

	batch, err := pipeline.NewBatch(a.cfg, s, writer, a.logger)
	if err != nil {
		return err
	}
	batch.WithMetrics(s.Metrics)

	result, err := batch.Run(ctx, targets)
	if err != nil {
		return err
	}
	summary := batch.Summary()
	fmt.Fprintf(a.stdout, "batch %s: %d targets, %d succeeded, %d failed, %d empty -> %s\n",
		summary.RunID, result.Len(), summary.Succeeded, summary.Failed, summary.EmptyRecords, a.cfg.BatchKey())
	return nil
}

func (a *app) targets() ([]models.BatchTarget, error) {
	if a.cfg.TargetsFile == "" {
		return config.DefaultTargets(), nil
	}
	targets, err := config.LoadTargets(a.cfg.TargetsFile)
	if err != nil {
		return nil, err
	}
	a.logger.Info("targets loaded", zap.String("file", a.cfg.TargetsFile), zap.Int("count", len(targets)))
	return targets, nil
}

// newWriter combines the local and Cloud Storage destinations that are configured.
func (a *app) newWriter(ctx context.Context) (pipeline.BlobWriter, func(), error) {
	var writers []pipeline.BlobWriter
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if a.cfg.OutputDir != "" {
		fsWriter, err := pipeline.NewFSWriter(a.cfg.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fsWriter)
	}
	if a.cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("close storage client", zap.Error(err))
			}
		})
		gcsWriter, err := pipeline.NewGCSWriter(client, a.cfg.GCSBucket, a.cfg.GCSPrefix)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		writers = append(writers, gcsWriter)
	}

	if len(writers) == 1 {
		return writers[0], closeAll, nil
	}
	return pipeline.NewMultiWriter(writers...), closeAll, nil
}
