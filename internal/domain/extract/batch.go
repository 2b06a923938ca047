package extract

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// Batcher runs the extractor concurrently over many URLs. Concurrency is
// bounded by a fixed worker pool and outbound fetches are throttled so a
// large batch cannot overwhelm the PDF host or the local process.
type Batcher struct {
	extractor *Extractor
	workers   int
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewBatcher creates a batch coordinator. workers caps concurrent
// extractions; fetchesPerSecond throttles downloads (0 disables throttling).
func NewBatcher(extractor *Extractor, workers int, fetchesPerSecond float64, logger *slog.Logger) *Batcher {
	if workers < 1 {
		workers = 1
	}

	limit := rate.Inf
	if fetchesPerSecond > 0 {
		limit = rate.Limit(fetchesPerSecond)
	}

	return &Batcher{
		extractor: extractor,
		workers:   workers,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

type batchJob struct {
	index int
	url   string
}

// BatchExtract extracts every URL and returns one Result per input, in input
// order regardless of completion order. A single source's failure never
// discards other results: every slot is populated, with failures folded into
// their Result.
func (b *Batcher) BatchExtract(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return results
	}

	jobs := make(chan batchJob)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := b.limiter.Wait(ctx); err != nil {
					results[job.index] = Result{Error: err.Error()}
					continue
				}
				results[job.index] = b.extractor.ExtractURL(ctx, job.url)
			}
		}()
	}

	for i, url := range urls {
		select {
		case jobs <- batchJob{index: i, url: url}:
		case <-ctx.Done():
			// Mark everything not yet dispatched as canceled.
			for j := i; j < len(urls); j++ {
				if results[j] == (Result{}) {
					results[j] = Result{Error: ctx.Err().Error()}
				}
			}
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	b.logger.Info("batch extraction complete",
		slog.Int("total", len(urls)),
		slog.Int("succeeded", succeeded),
	)

	return results
}
