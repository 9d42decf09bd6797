package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"marketscreener/internal/descriptor"
	"marketscreener/internal/ratelimit"
)

const (
	defaultConcurrency = 5
	defaultMaxRetries  = 3
	defaultBackoffBase = 1 * time.Second
	defaultBackoffMax  = 10 * time.Second
)

// Options tunes one fetch pass.
type Options struct {
	// Concurrency caps in-flight requests for the whole pass. Values below
	// one select the default.
	Concurrency int

	// MaxRetries is how many times a retryable failure is re-attempted per
	// symbol, on top of the initial attempt. Negative selects the default.
	MaxRetries int

	// Limiter, when set, paces dispatches by market code.
	Limiter *ratelimit.Limiter

	// BackoffBase and BackoffMax shape the exponential retry delay. Zero
	// values select the defaults.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = defaultConcurrency
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = defaultBackoffBase
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = defaultBackoffMax
	}
	return o
}

type symbolResult struct {
	symbol  descriptor.Symbol
	row     Row
	candles []Candle
	err     *FetchError
}

// FetchAll runs one fetch pass: every symbol goes through request building,
// transport and decoding under a bounded worker pool, and the outcome
// accounts for each requested symbol exactly once.
//
// Per-symbol failures never abort the pass. Cancelling ctx stops new
// dispatches immediately; symbols never dispatched are recorded as
// NotAttempted, and in-flight requests that complete are still folded in.
// The only error return is the zero-symbols caller bug.
func FetchAll(ctx context.Context, transport Transport, d *descriptor.Descriptor, symbols []descriptor.Symbol, kind Kind, opts Options) (*FetchOutcome, error) {
	if transport == nil {
		return nil, fmt.Errorf("no transport configured")
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested for market %q", d.Code)
	}

	opts = opts.withDefaults()
	if opts.Concurrency > len(symbols) {
		opts.Concurrency = len(symbols)
	}

	jobs := make(chan descriptor.Symbol)
	results := make(chan symbolResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				results <- fetchOne(ctx, transport, d, sym, kind, opts)
			}
		}()
	}

	// Dispatch until the symbol list is exhausted or the caller cancels;
	// anything not handed to a worker is accounted for as NotAttempted.
	go func() {
		defer close(jobs)
		for i, sym := range symbols {
			select {
			case <-ctx.Done():
				for _, rest := range symbols[i:] {
					results <- symbolResult{symbol: rest, err: NewNotAttempted(ctx.Err())}
				}
				return
			case jobs <- sym:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcome := &FetchOutcome{Requested: len(symbols)}
	if kind == History {
		outcome.Series = make(map[string][]Candle, len(symbols))
	}

	for res := range results {
		switch {
		case res.err != nil:
			outcome.Failures = append(outcome.Failures, Failure{
				Symbol: res.symbol.Code,
				Kind:   res.err.Kind,
				Err:    res.err,
			})
		case kind == History:
			outcome.Series[res.symbol.Code] = res.candles
		default:
			outcome.Rows = append(outcome.Rows, res.row)
		}
	}

	return outcome, nil
}

// fetchOne drives a single symbol through request, transport and decode,
// retrying retryable failures with capped exponential backoff.
func fetchOne(ctx context.Context, transport Transport, d *descriptor.Descriptor, sym descriptor.Symbol, kind Kind, opts Options) symbolResult {
	req := BuildRequest(d, sym.Code, kind)

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return symbolResult{symbol: sym, err: NewNotAttempted(ctx.Err())}
		}

		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx, d.Code); err != nil {
				return symbolResult{symbol: sym, err: NewNotAttempted(err)}
			}
		}

		res, ferr := attemptOne(ctx, transport, d, sym, kind, req)
		if ferr == nil {
			res.symbol = sym
			return res
		}
		if ferr.Kind == KindNotAttempted || !ferr.Retryable || attempt >= opts.MaxRetries {
			return symbolResult{symbol: sym, err: ferr}
		}

		slog.Debug("retrying symbol",
			"market", d.Code,
			"symbol", sym.Code,
			"attempt", attempt+1,
			"kind", ferr.Kind)

		if err := sleepBackoff(ctx, opts, attempt); err != nil {
			return symbolResult{symbol: sym, err: NewNotAttempted(err)}
		}
	}
}

func attemptOne(ctx context.Context, transport Transport, d *descriptor.Descriptor, sym descriptor.Symbol, kind Kind, req Request) (symbolResult, *FetchError) {
	resp, err := transport.Do(ctx, req)
	if err != nil {
		return symbolResult{}, asFetchError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return symbolResult{}, ClassifyStatus(resp.StatusCode)
	}

	if kind == History {
		candles, err := DecodeHistory(d, sym, resp.Body)
		if err != nil {
			return symbolResult{}, asFetchError(err)
		}
		return symbolResult{candles: candles}, nil
	}

	row, err := DecodeSnapshot(d, sym, resp.Body, time.Now())
	if err != nil {
		return symbolResult{}, asFetchError(err)
	}
	return symbolResult{row: row}, nil
}

func asFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return classifyTransportError(err)
}

// sleepBackoff waits base<<attempt, capped at max, or returns early when ctx
// is cancelled.
func sleepBackoff(ctx context.Context, opts Options, attempt int) error {
	delay := opts.BackoffBase << attempt
	if delay > opts.BackoffMax || delay <= 0 {
		delay = opts.BackoffMax
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
