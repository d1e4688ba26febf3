package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/wutianlong220/keywords-tools/internal/batch"
	"github.com/wutianlong220/keywords-tools/internal/stop"
	"github.com/wutianlong220/keywords-tools/internal/translation"
)

var (
	// ErrStopped is returned when the run was stopped before every batch
	// was dispatched. It is an outcome, not a failure.
	ErrStopped = errors.New("run stopped")
	// ErrStreamIndex is returned when a batch points outside the stream
	ErrStreamIndex = errors.New("batch index outside stream")
)

// BatchTranslator translates one batch and never fails
type BatchTranslator interface {
	Translate(ctx context.Context, stop *stop.Token, b batch.Batch) translation.Result
}

// WaveReport describes progress after a wave has been resolved
type WaveReport struct {
	Wave          int
	Waves         int
	BatchesDone   int
	BatchesTotal  int
	KeywordsDone  int
	KeywordsTotal int
}

// Stats is a snapshot of the run counters
type Stats struct {
	Dispatched    int
	Succeeded     int
	Degraded      int
	Attempts      int
	DegradedBatch []int
}

// Scheduler runs batches through a translator with bounded concurrency
type Scheduler struct {
	translator  BatchTranslator
	concurrency int
	logger      *log.Logger

	// OnWave, when set, is called after every resolved wave
	OnWave func(WaveReport)

	dispatched atomic.Int64
	succeeded  atomic.Int64
	degraded   atomic.Int64
	attempts   atomic.Int64

	mu            sync.Mutex
	degradedBatch []int
}

// New creates a scheduler. concurrency is validated by the configuration
// layer; values below 1 are treated as 1.
func New(translator BatchTranslator, concurrency int, logger *log.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		translator:  translator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RunAll translates every batch and returns one translation per stream
// position. Positions of batches that were never dispatched are left
// empty. When the stop token is raised, dispatching ends, the batches
// already in flight are awaited and their results kept, and ErrStopped is
// returned with the partial results. This holds for a stop raised during
// the final wave too.
func (s *Scheduler) RunAll(ctx context.Context, stop *stop.Token, batches []batch.Batch, streamLen int) ([]string, error) {
	results := make([]string, streamLen)

	for _, b := range batches {
		for _, idx := range b.StreamIndices {
			if idx < 0 || idx >= streamLen {
				return nil, fmt.Errorf("%w: batch %d position %d, stream length %d", ErrStreamIndex, b.BatchIndex, idx, streamLen)
			}
		}
	}

	keywordsTotal := 0
	for _, b := range batches {
		keywordsTotal += b.Len()
	}

	waves := (len(batches) + s.concurrency - 1) / s.concurrency
	batchesDone, keywordsDone := 0, 0

	for wave := 0; wave < waves; wave++ {
		start := wave * s.concurrency
		end := min(start+s.concurrency, len(batches))
		logger := s.logger.With("wave", wave+1)
		logger.Debug("dispatching wave", "batches", end-start)

		var g errgroup.Group
		// Never more than concurrency batches in flight
		g.SetLimit(s.concurrency)

		stopped := false
		for _, b := range batches[start:end] {
			if stop.Stopped() || ctx.Err() != nil {
				stopped = true
				break
			}

			s.dispatched.Add(1)
			batchesDone++
			keywordsDone += b.Len()

			g.Go(func() error {
				res := s.translator.Translate(ctx, stop, b)
				s.record(res)

				// Batches own disjoint stream ranges, so no lock is needed
				for i, idx := range b.StreamIndices {
					if i < len(res.Translations) {
						results[idx] = res.Translations[i]
					} else {
						results[idx] = b.Keywords[i]
					}
				}
				return nil
			})
		}
		_ = g.Wait()

		if s.OnWave != nil {
			s.OnWave(WaveReport{
				Wave:          wave + 1,
				Waves:         waves,
				BatchesDone:   batchesDone,
				BatchesTotal:  len(batches),
				KeywordsDone:  keywordsDone,
				KeywordsTotal: keywordsTotal,
			})
		}

		// A stop raised while the wave ran also ends the run, even after
		// the last wave, since in-flight batches give up their retries
		if stopped || stop.Stopped() || ctx.Err() != nil {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			logger.Info("run stopped", "dispatched", batchesDone, "batches", len(batches))
			return results, ErrStopped
		}
	}

	return results, nil
}

func (s *Scheduler) record(res translation.Result) {
	s.attempts.Add(int64(res.Attempts))
	if !res.Degraded {
		s.succeeded.Add(1)
		return
	}
	s.degraded.Add(1)
	s.mu.Lock()
	s.degradedBatch = append(s.degradedBatch, res.BatchIndex)
	s.mu.Unlock()
}

// Stats returns the counters accumulated so far
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	degraded := slices.Clone(s.degradedBatch)
	s.mu.Unlock()
	slices.Sort(degraded)

	return Stats{
		Dispatched:    int(s.dispatched.Load()),
		Succeeded:     int(s.succeeded.Load()),
		Degraded:      int(s.degraded.Load()),
		Attempts:      int(s.attempts.Load()),
		DegradedBatch: degraded,
	}
}
