package adapter

import (
	"context"
	"log/slog"
)

// Diagnoser extracts driver-reported attributes from a single error.
type Diagnoser interface {
	Diagnose(err error) []slog.Attr
}

// Chain flattens an error tree into the order errors.Is would visit it.
func Chain(err error) []error {
	var out []error
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		out = append(out, e)
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// LogError writes one record per error in the chain, each carrying the
// driver diagnostics the adapter can extract from it.
func LogError(ctx context.Context, logger *slog.Logger, d Diagnoser, msg string, err error) {
	if logger == nil || err == nil {
		return
	}
	for i, e := range Chain(err) {
		attrs := []slog.Attr{
			slog.Int("cause", i),
			slog.String("error", e.Error()),
		}
		if d != nil {
			attrs = append(attrs, d.Diagnose(e)...)
		}
		logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
}
