package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aluiziolira/go-scrape-products/config"
	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/scraper"
)

// Extractor turns one URL into a product record.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ProductRecord, error)
}

// ItemKey is the blob key of the per-target result.
func ItemKey(name string) string {
	return name + "-result.json"
}

// Batch runs extractions sequentially over an ordered target list.
type Batch struct {
	extractor Extractor
	writer    BlobWriter
	pacer     Pacer
	logger    *zap.Logger
	metrics   *scraper.Metrics
	now       func() time.Time
	newRunID  func() (string, error)

	batchKey   string
	summaryKey string
	timeout    time.Duration

	summary models.BatchSummary
}

// NewBatch builds a batch from cfg. The pacer defaults to a SleepPacer of
// cfg.PaceInterval; logger may be nil.
func NewBatch(cfg *config.Config, extractor Extractor, writer BlobWriter, logger *zap.Logger) (*Batch, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("blob writer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Batch{
		extractor: extractor,
		writer:    writer,
		pacer:     SleepPacer{Interval: cfg.PaceInterval},
		logger:    logger,
		now:       time.Now,
		newRunID:  newRunID,
		batchKey:  cfg.BatchKey(),
		timeout:   cfg.BatchTimeout,
	}
	if cfg.CSVSummary {
		b.summaryKey = cfg.SummaryKey()
	}
	return b, nil
}

// WithPacer replaces the pacer.
func (b *Batch) WithPacer(p Pacer) *Batch {
	b.pacer = p
	return b
}

// WithMetrics records batch counters on m.
func (b *Batch) WithMetrics(m *scraper.Metrics) *Batch {
	b.metrics = m
	return b
}

// SetClock overrides the clock used for failure timestamps and the summary.
func (b *Batch) SetClock(now func() time.Time) {
	b.now = now
}

// Summary returns the counters of the last Run.
func (b *Batch) Summary() models.BatchSummary {
	return b.summary
}

// Run extracts every target in order, pausing between consecutive targets.
// Per-target failures never abort the run; each outcome is written to its own
// blob and the full result once to the consolidated blob. Only a failed
// consolidated write is returned as an error, alongside the result.
func (b *Batch) Run(ctx context.Context, targets []models.BatchTarget) (*models.BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.ValidateTargets(targets); err != nil {
		return nil, fmt.Errorf("invalid targets: %w", err)
	}

	runID, err := b.newRunID()
	if err != nil {
		return nil, err
	}
	logger := b.logger.With(zap.String("run_id", runID))

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	// Writes must land even after the run context ends.
	persistCtx := context.WithoutCancel(ctx)

	b.summary = models.BatchSummary{
		RunID:        runID,
		StartTime:    b.now().UTC(),
		Targets:      len(targets),
		ErrorsByKind: make(map[string]int),
	}
	result := models.NewBatchResult(len(targets))

	logger.Info("batch started",
		zap.Int("targets", len(targets)),
		zap.String("batch_key", b.batchKey),
	)

	for i, target := range targets {
		if i > 0 && ctx.Err() == nil {
			b.pause(ctx, logger)
		}

		var outcome models.Outcome
		if err := ctx.Err(); err != nil {
			outcome = b.canceled(target, err)
		} else {
			outcome = b.extract(ctx, logger, target)
		}

		result.Set(target.Name, outcome)
		b.writeItem(persistCtx, logger, target.Name, outcome)
	}

	b.summary.Succeeded = result.Succeeded()
	b.summary.Failed = result.Failed()

	if err := b.writeBatch(persistCtx, logger, result); err != nil {
		b.finish(logger)
		return result, err
	}
	b.writeSummary(persistCtx, logger, result)
	b.finish(logger)
	return result, nil
}

func (b *Batch) pause(ctx context.Context, logger *zap.Logger) {
	start := time.Now()
	err := b.pacer.Pause(ctx)
	b.metrics.AddPacing(time.Since(start))
	if err != nil {
		logger.Warn("pacing interrupted", zap.Error(err))
	}
}

func (b *Batch) extract(ctx context.Context, logger *zap.Logger, target models.BatchTarget) models.Outcome {
	logger.Info("extracting target",
		zap.String("target", target.Name),
		zap.String("url", target.URL),
	)

	var (
		record *models.ProductRecord
		err    error
	)
	if err = config.ValidateURL(target.URL); err == nil {
		record, err = b.extractor.Extract(ctx, target.URL)
	}
	if err == nil && record == nil {
		err = errors.New("extractor returned no record")
	}
	if err != nil {
		kind := scraper.ErrorKind(err)
		b.summary.ErrorsByKind[kind]++
		b.metrics.IncRecord("failed")
		logger.Warn("target failed",
			zap.String("target", target.Name),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return models.Outcome{Failure: b.failure(target, err.Error(), kind)}
	}

	if record.IsEmpty() {
		b.summary.EmptyRecords++
		b.metrics.IncRecord("empty")
		logger.Warn("no fields extracted", zap.String("target", target.Name))
	} else {
		b.metrics.IncRecord("ok")
		logger.Info("target extracted",
			zap.String("target", target.Name),
			zap.String("title", record.Title),
			zap.Int("images", len(record.Images)),
		)
	}
	return models.Outcome{Record: record}
}

func (b *Batch) canceled(target models.BatchTarget, cause error) models.Outcome {
	b.summary.ErrorsByKind[scraper.KindCanceled]++
	b.metrics.IncRecord("failed")
	msg := fmt.Sprintf("batch stopped before extraction: %v", cause)
	return models.Outcome{Failure: b.failure(target, msg, scraper.KindCanceled)}
}

func (b *Batch) failure(target models.BatchTarget, msg, kind string) *models.ExtractionFailure {
	return &models.ExtractionFailure{
		Error:       msg,
		Kind:        kind,
		URL:         target.URL,
		ProductName: target.Name,
		ExtractedAt: b.now().UTC(),
	}
}

func (b *Batch) writeItem(ctx context.Context, logger *zap.Logger, name string, outcome models.Outcome) {
	key := ItemKey(name)
	if err := b.put(ctx, key, outcome); err != nil {
		b.summary.WriteErrors++
		b.metrics.IncWrite("item", "error")
		logger.Error("per-item write failed", zap.String("key", key), zap.Error(err))
		return
	}
	b.metrics.IncWrite("item", "ok")
}

func (b *Batch) writeBatch(ctx context.Context, logger *zap.Logger, result *models.BatchResult) error {
	if err := b.put(ctx, b.batchKey, result); err != nil {
		b.metrics.IncWrite("batch", "error")
		logger.Error("consolidated write failed", zap.String("key", b.batchKey), zap.Error(err))
		return ErrPersistence{Key: b.batchKey, Err: err}
	}
	b.metrics.IncWrite("batch", "ok")
	logger.Info("consolidated result written", zap.String("key", b.batchKey))
	return nil
}

func (b *Batch) writeSummary(ctx context.Context, logger *zap.Logger, result *models.BatchResult) {
	if b.summaryKey == "" {
		return
	}
	payload, err := EncodeSummaryCSV(result)
	if err == nil {
		err = b.writer.Write(ctx, b.summaryKey, payload)
	}
	if err != nil {
		b.summary.WriteErrors++
		b.metrics.IncWrite("summary", "error")
		logger.Error("summary write failed", zap.String("key", b.summaryKey), zap.Error(err))
		return
	}
	b.metrics.IncWrite("summary", "ok")
}

func (b *Batch) put(ctx context.Context, key string, v any) error {
	payload, err := EncodeJSON(v)
	if err != nil {
		return err
	}
	return b.writer.Write(ctx, key, payload)
}

func (b *Batch) finish(logger *zap.Logger) {
	b.summary.EndTime = b.now().UTC()
	logger.Info("batch complete",
		zap.Int("targets", b.summary.Targets),
		zap.Int("succeeded", b.summary.Succeeded),
		zap.Int("failed", b.summary.Failed),
		zap.Int("empty_records", b.summary.EmptyRecords),
		zap.Int("write_errors", b.summary.WriteErrors),
		zap.Any("errors_by_kind", b.summary.ErrorsByKind),
		zap.Duration("duration", b.summary.EndTime.Sub(b.summary.StartTime)),
	)
}

func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}
