package ocr

import (
	"context"
	"errors"
	"log/slog"

	"idverify/pkg/platform/circuit"
)

// FallbackEngine sends recognition to a primary engine and switches to a
// secondary one while the primary is failing.
type FallbackEngine struct {
	primary  Engine
	fallback Engine
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewFallbackEngine wraps primary. A nil breaker gets the circuit defaults.
func NewFallbackEngine(primary, fallback Engine, breaker *circuit.Breaker, logger *slog.Logger) *FallbackEngine {
	if breaker == nil {
		breaker = circuit.New(primary.Name())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackEngine{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

// Name reports the primary engine; the result names the engine that ran.
func (e *FallbackEngine) Name() string {
	return e.primary.Name()
}

func (e *FallbackEngine) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if !e.breaker.AllowPrimary() {
		return e.fallback.Recognize(ctx, image)
	}

	res, err := e.primary.Recognize(ctx, image)
	if err == nil {
		if _, change := e.breaker.RecordSuccess(); change.Closed {
			e.logger.InfoContext(ctx, "ocr primary engine recovered", "engine", e.primary.Name())
		}
		return res, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	_, change := e.breaker.RecordFailure()
	if change.Opened {
		e.logger.WarnContext(ctx, "ocr primary engine circuit opened",
			"engine", e.primary.Name(),
			"fallback", e.fallback.Name(),
		)
	}
	e.logger.WarnContext(ctx, "ocr primary engine failed, using fallback",
		"engine", e.primary.Name(),
		"fallback", e.fallback.Name(),
		"error", err,
	)
	fres, ferr := e.fallback.Recognize(ctx, image)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return fres, nil
}
