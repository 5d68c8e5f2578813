package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/observability"
	"github.com/ieltsgenai/prep-api/pkg/ai"
)

// ErrScoringUnavailable is returned once every tier of the fallback chain has failed.
var ErrScoringUnavailable = errors.New("scoring unavailable")

// State is a position in the model fallback chain. Transitions only move forward.
type State int

const (
	StatePrimary State = iota
	StateFallback1
	StateFallback2
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePrimary:
		return "primary"
	case StateFallback1:
		return "fallback1"
	case StateFallback2:
		return "fallback2"
	default:
		return "failed"
	}
}

func (s State) next() State {
	if s >= StateFailed {
		return StateFailed
	}
	return s + 1
}

// Attempt records one tier invocation.
type Attempt struct {
	State    State
	Model    string
	Kind     ai.ErrorKind
	Err      error
	Duration time.Duration
}

// Outcome is the result of running the chain.
type Outcome struct {
	Response ai.Response
	State    State
	Model    string
	Attempts []Attempt
}

// UnavailableError lists the failed attempts once the chain is exhausted.
type UnavailableError struct {
	Attempts []Attempt
}

func (e *UnavailableError) Error() string {
	if len(e.Attempts) == 0 {
		return "scoring unavailable: no models configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s(%s)=%s", attempt.State, attempt.Model, attempt.Kind))
	}
	return "scoring unavailable: " + strings.Join(parts, ", ")
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrScoringUnavailable
}

// Unwrap exposes the last provider error.
func (e *UnavailableError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Chain is the ordered set of models tried for one request. A nil tier is skipped.
type Chain struct {
	Primary   ai.Invoker
	Fallback1 ai.Invoker
	Fallback2 ai.Invoker
	// Timeout bounds each tier; zero leaves the caller's deadline in charge.
	Timeout time.Duration
}

func (c Chain) tier(state State) ai.Invoker {
	switch state {
	case StatePrimary:
		return c.Primary
	case StateFallback1:
		return c.Fallback1
	case StateFallback2:
		return c.Fallback2
	default:
		return nil
	}
}

// Models lists the configured model ids in tier order.
func (c Chain) Models() []string {
	var ids []string
	for state := StatePrimary; state != StateFailed; state = state.next() {
		if invoker := c.tier(state); invoker != nil {
			ids = append(ids, invoker.ModelID())
		}
	}
	return ids
}

// Run invokes each configured tier at most once, strictly in order, until one
// returns a non-empty completion. Cancellation of ctx ends the chain early.
func (c Chain) Run(ctx context.Context, req ai.Request, logger zerolog.Logger) (Outcome, error) {
	var attempts []Attempt

	for state := StatePrimary; state != StateFailed; state = state.next() {
		invoker := c.tier(state)
		if invoker == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{State: state, Model: invoker.ModelID(), Kind: ai.KindOf(err), Err: err})
			break
		}

		attempt, resp := c.invoke(ctx, state, invoker, req)
		attempts = append(attempts, attempt)
		if attempt.Err == nil {
			return Outcome{Response: resp, State: state, Model: attempt.Model, Attempts: attempts}, nil
		}

		to := state.next()
		observability.FallbackTransitions().WithLabelValues(state.String(), to.String(), string(attempt.Kind)).Inc()
		logger.Warn().
			Err(attempt.Err).
			Str("state", state.String()).
			Str("next_state", to.String()).
			Str("model", attempt.Model).
			Str("kind", string(attempt.Kind)).
			Dur("duration", attempt.Duration).
			Msg("model tier failed")
	}

	return Outcome{State: StateFailed, Attempts: attempts}, &UnavailableError{Attempts: attempts}
}

func (c Chain) invoke(ctx context.Context, state State, invoker ai.Invoker, req ai.Request) (Attempt, ai.Response) {
	callCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	model := invoker.ModelID()
	start := time.Now()
	resp, err := invoker.Invoke(callCtx, req)
	attempt := Attempt{State: state, Model: model, Duration: time.Since(start)}

	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = &ai.InvocationError{Provider: "chain", Model: model, Kind: ai.KindInvalidResponse, Err: errors.New("empty completion")}
	}
	if err != nil {
		attempt.Err = err
		attempt.Kind = ai.KindOf(err)
		return attempt, ai.Response{}
	}
	return attempt, resp
}
