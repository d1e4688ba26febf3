package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/wutianlong220/keywords-tools/internal/batch"
	"github.com/wutianlong220/keywords-tools/internal/stop"
)

// DefaultTimeout bounds a single translation request
const DefaultTimeout = 30 * time.Second

// temperature keeps the replies close to literal translations
const temperature = 0.1

// errStopped ends a backoff wait when the run is stopped
var errStopped = errors.New("stopped")

// Config holds translator settings
type Config struct {
	Model          string
	TargetLanguage string
	Timeout        time.Duration
	Retry          RetryPolicy

	// RateLimit is the request rate in requests per second; 0 disables it
	RateLimit float64
	// BreakerThreshold is the number of consecutive failures that opens
	// the circuit; 0 disables the breaker
	BreakerThreshold int
	// BreakerCooldown is how long the circuit stays open
	BreakerCooldown time.Duration
}

// Result is the outcome of one batch. Translations always has one entry
// per keyword of the batch.
type Result struct {
	BatchIndex   int
	Translations []string
	Attempts     int
	// Degraded is set when every attempt failed and the keywords were
	// returned untranslated
	Degraded bool
	// Err is the last attempt error of a degraded batch
	Err error
}

// Translator translates batches with timeout, retry and backoff
type Translator struct {
	provider Provider
	config   Config
	logger   *log.Logger
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker

	// sleep waits between attempts; replaced in tests
	sleep func(ctx context.Context, stop *stop.Token, d time.Duration) error
}

// NewTranslator creates a translator on top of a provider
func NewTranslator(provider Provider, config Config, logger *log.Logger) *Translator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Model == "" {
		config.Model = DefaultModel(provider.Name())
	}
	if config.TargetLanguage == "" {
		config.TargetLanguage = DefaultTargetLanguage
	}
	if logger == nil {
		logger = log.Default()
	}

	t := &Translator{
		provider: provider,
		config:   config,
		logger:   logger,
		sleep:    sleepCtx,
	}

	if config.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	if config.BreakerThreshold > 0 {
		cooldown := config.BreakerCooldown
		if cooldown <= 0 {
			cooldown = DefaultTimeout
		}
		threshold := uint32(config.BreakerThreshold)
		t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    provider.Name(),
			Timeout: cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return t
}

// Config returns the effective configuration
func (t *Translator) Config() Config {
	return t.config
}

// Translate translates one batch. It never fails: when all attempts are
// exhausted, or the run is stopped between attempts, the original keywords
// are returned and the result is marked degraded.
func (t *Translator) Translate(ctx context.Context, stop *stop.Token, b batch.Batch) Result {
	res := Result{BatchIndex: b.BatchIndex}
	if b.Len() == 0 {
		res.Translations = []string{}
		return res
	}

	req := CompletionRequest{
		Model:       t.config.Model,
		Prompt:      BuildPrompt(b.Keywords, t.config.TargetLanguage),
		MaxTokens:   MaxTokensFor(b.Len()),
		Temperature: temperature,
	}
	logger := t.logger.With("batch", b.BatchIndex)

	var lastErr error
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt

		start := time.Now()
		content, err := t.attempt(ctx, req)
		if err == nil {
			logger.Debug("batch translated", "attempt", attempt, "keywords", b.Len(), "elapsed", time.Since(start))
			res.Translations = ParseTranslations(content, b.Keywords)
			return res
		}
		lastErr = err
		logger.Warn("translation attempt failed", "attempt", attempt, "err", err)

		retry, delay := t.config.Retry.Next(attempt)
		if !retry || stop.Stopped() || ctx.Err() != nil {
			break
		}
		if err := t.sleep(ctx, stop, delay); err != nil {
			break
		}
	}

	logger.Error("batch failed, keeping original keywords", "attempts", res.Attempts, "err", lastErr)
	res.Translations = append([]string(nil), b.Keywords...)
	res.Degraded = true
	res.Err = lastErr
	return res
}

// attempt performs one deadline-bounded call. The deadline is released
// when attempt returns, so it can never cancel a later call.
func (t *Translator) attempt(ctx context.Context, req CompletionRequest) (string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	if t.breaker == nil {
		return t.provider.Complete(ctx, req)
	}

	out, err := t.breaker.Execute(func() (interface{}, error) {
		return t.provider.Complete(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// sleepCtx waits for d unless the context ends or the run is stopped first
func sleepCtx(ctx context.Context, stop *stop.Token, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop.Done():
		return errStopped
	case <-timer.C:
		return nil
	}
}
