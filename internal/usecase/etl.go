package usecase

import (
	"context"
	"errors"
	"log/slog"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

const defaultBatchSize = 10

// Summary aggregates the counters of one ETL run.
type Summary struct {
	Processed  int
	Saved      int
	Duplicates int
	Dropped    int
}

// SuccessRate is saved over processed; 1 for an empty run.
func (s Summary) SuccessRate() float64 {
	if s.Processed == 0 {
		return 1
	}
	return float64(s.Saved+s.Duplicates) / float64(s.Processed)
}

// ETL pulls from the crawler, transforms each record, and commits fixed-size
// batches through the article repository.
type ETL struct {
	crawler   ports.ArticleCrawler
	articles  ports.ArticleRepository
	batchSize int
	logger    *slog.Logger
}

// NewETL wires the pipeline; batchSize <= 0 selects the default of 10.
func NewETL(crawler ports.ArticleCrawler, articles ports.ArticleRepository, batchSize int, logger *slog.Logger) *ETL {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ETL{
		crawler:   crawler,
		articles:  articles,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run crawls every category in order and loads the results. A crawl abort in
// one category is logged and the run continues with the next; the summary
// covers all categories.
func (e *ETL) Run(ctx context.Context, categoryKeys []string) Summary {
	var total Summary
	for _, key := range categoryKeys {
		summary := e.runCategory(ctx, key)
		total.Processed += summary.Processed
		total.Saved += summary.Saved
		total.Duplicates += summary.Duplicates
		total.Dropped += summary.Dropped
	}

	e.logger.Info("etl run finished",
		"processed", total.Processed,
		"saved", total.Saved,
		"duplicates", total.Duplicates,
		"dropped", total.Dropped,
		"success_rate", total.SuccessRate())
	return total
}

func (e *ETL) runCategory(ctx context.Context, categoryKey string) Summary {
	var summary Summary
	batch := make([]domain.Article, 0, e.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		saved, duplicates, err := e.loadBatch(ctx, batch)
		if err != nil {
			e.logger.Error("batch load failed", "category", categoryKey, "size", len(batch), "error", err)
		}
		summary.Saved += saved
		summary.Duplicates += duplicates
		batch = batch[:0]
	}

	for raw, err := range e.crawler.Crawl(ctx, categoryKey) {
		if err != nil {
			e.logger.Error("crawl aborted", "category", categoryKey, "error", err)
			break
		}

		summary.Processed++
		article, err := Transform(raw)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				e.logger.Warn("dropping invalid record", "category", categoryKey, "error", err)
			} else {
				e.logger.Error("transform failed", "category", categoryKey, "error", err)
			}
			summary.Dropped++
			continue
		}

		batch = append(batch, article)
		if len(batch) == e.batchSize {
			flush()
		}
	}
	flush()

	return summary
}

// loadBatch commits one transactional batch. Duplicates are skipped and
// counted; any other insert error rolls the whole batch back.
func (e *ETL) loadBatch(ctx context.Context, articles []domain.Article) (saved, duplicates int, err error) {
	batch, err := e.articles.BeginBatch(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, article := range articles {
		outcome, err := batch.Insert(ctx, article)
		if err != nil {
			_ = batch.Rollback()
			return 0, 0, err
		}
		switch outcome {
		case ports.OutcomeDuplicate:
			e.logger.Debug("duplicate article skipped", "title", article.Title, "url", article.URL)
			duplicates++
		default:
			saved++
		}
	}

	if err := batch.Commit(); err != nil {
		return 0, 0, err
	}
	return saved, duplicates, nil
}
