// Package dispatch submits rendered prompts to the model engine and
// drives the quality-gated retry policy. One prompt in flight at a
// time; retries within a prompt are sequential because the quality gate
// needs the prior attempt's outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fiscalia-labs/casetriage/internal/execution"
	"github.com/fiscalia-labs/casetriage/internal/models"
	"github.com/fiscalia-labs/casetriage/internal/parse"
	"github.com/fiscalia-labs/casetriage/internal/quality"
)

const (
	// DefaultMaxAttempts bounds the retry loop per prompt.
	DefaultMaxAttempts = 3
	// DefaultBackoff is the pause between retry attempts.
	DefaultBackoff = 2 * time.Second
	// DefaultTimeout bounds a single model exchange.
	DefaultTimeout = 120 * time.Second
)

// State is the terminal state of a retry-bounded dispatch.
type State int

const (
	// StateAccepted means the quality gate accepted an attempt.
	StateAccepted State = iota
	// StateExhausted means every attempt was retry-worthy; the last
	// result is returned as the best available answer.
	StateExhausted
)

func (s State) String() string {
	if s == StateAccepted {
		return "accepted"
	}
	return "exhausted"
}

// Dispatcher performs model round trips for one configured model.
type Dispatcher struct {
	engine      execution.Engine
	model       string
	jsonFormat  bool
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithJSONFormat asks the endpoint for strict JSON-formatted output.
func WithJSONFormat(on bool) Option {
	return func(d *Dispatcher) { d.jsonFormat = on }
}

// WithTimeout bounds each single-shot exchange.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithMaxAttempts sets the retry bound per prompt.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the pause between retry attempts.
func WithBackoff(b time.Duration) Option {
	return func(d *Dispatcher) {
		if b >= 0 {
			d.backoff = b
		}
	}
}

// New creates a dispatcher for the given engine and model.
func New(engine execution.Engine, model string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:      engine,
		model:       model,
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// MaxAttempts returns the configured retry bound.
func (d *Dispatcher) MaxAttempts() int { return d.maxAttempts }

// Send performs exactly one request/response exchange. It never returns
// an error: transport and parse failures come back as failure-shaped
// results so the retry layer can treat every outcome uniformly. No file
// I/O happens at this layer.
func (d *Dispatcher) Send(ctx context.Context, promptText string) *models.Result {
	res := &models.Result{
		Model:          d.model,
		Timestamp:      models.Now(),
		UsedJSONFormat: d.jsonFormat,
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	reply, err := d.engine.Chat(reqCtx, &execution.ChatRequest{
		Model:      d.model,
		Prompt:     promptText,
		JSONFormat: d.jsonFormat,
	})
	if err != nil {
		msg := err.Error()
		res.Error = &msg
		return res
	}

	answer, err := parse.Response(reply.Content)
	if err != nil {
		msg := fmt.Sprintf("failed to parse model response: %v", err)
		res.Error = &msg
		return res
	}

	duration := time.Since(start).Seconds()
	res.Success = true
	res.Response = answer
	res.DurationSeconds = &duration
	res.RawContent = &reply.Content
	return res
}

// SendWithRetry runs the retry state machine for one prompt: attempt,
// evaluate, then either accept, pause and re-attempt, or exhaust. The
// returned result's RetryAttempts always equals the number of engine
// invocations performed. On exhaustion the last result is returned
// as-is, failing quality checks and all; a prompt is never silently
// dropped.
func (d *Dispatcher) SendWithRetry(ctx context.Context, promptText string) (*models.Result, State) {
	var last *models.Result
	for attempt := 1; ; attempt++ {
		last = d.Send(ctx, promptText)
		last.RetryAttempts = attempt

		decision, reason := quality.Evaluate(last)
		if decision == quality.Accept {
			return last, StateAccepted
		}
		if attempt >= d.maxAttempts {
			slog.Debug("retries exhausted", "attempts", attempt, "reason", reason)
			return last, StateExhausted
		}

		slog.Debug("retrying prompt", "attempt", attempt, "max_attempts", d.maxAttempts, "reason", reason)
		if err := sleepCtx(ctx, d.backoff); err != nil {
			// Cancelled mid-backoff: surface what we have.
			return last, StateExhausted
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
