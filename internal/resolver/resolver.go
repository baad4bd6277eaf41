package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/pkg/logger"
)

// KeyListingDate is the attribute key for an instrument's first trading date
const KeyListingDate = "listing_date"

// Attempt outcomes reported to metrics
const (
	OutcomeFound   = "found"
	OutcomeAbsent  = "absent"
	OutcomeError   = "error"
	OutcomeUnknown = "unknown_provider"
	OutcomeSkipped = "skipped"
)

// Provider answers one attribute for one identifier.
// found=false with a nil error means the provider has no value (absent).
type Provider[T any] interface {
	FetchAttribute(ctx context.Context, identifier, key string) (value T, found bool, err error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc[T any] func(ctx context.Context, identifier, key string) (T, bool, error)

// FetchAttribute implements Provider
func (f ProviderFunc[T]) FetchAttribute(ctx context.Context, identifier, key string) (T, bool, error) {
	return f(ctx, identifier, key)
}

// Resolver runs resolution plans against a set of named providers
// ⭐ SSOT: 다중 소스 속성 조회(상장일 등)는 여기서만
type Resolver[T any] struct {
	providers map[string]Provider[T]
	logger    *logger.Logger
	metrics   *metrics.Recorder
}

// New creates a resolver with no providers
func New[T any](log *logger.Logger, rec *metrics.Recorder) *Resolver[T] {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver[T]{
		providers: make(map[string]Provider[T]),
		logger:    log,
		metrics:   rec,
	}
}

// Register adds (or replaces) a provider under id
func (r *Resolver[T]) Register(id string, p Provider[T]) *Resolver[T] {
	r.providers[id] = p
	return r
}

// Resolve tries each attempt of plan in order and returns the first value found
// together with the attempt that produced it.
// A non-applicable variant is skipped without calling its provider; provider
// errors, absent values and unknown provider ids move on to the next attempt.
// Exhausting the plan returns contracts.ErrNotFound, never a provider error.
func (r *Resolver[T]) Resolve(ctx context.Context, base, key string, plan Plan) (T, Attempt, error) {
	var zero T
	base = strings.TrimSpace(base)

	for i, attempt := range plan {
		if err := ctx.Err(); err != nil {
			return zero, Attempt{}, err
		}

		log := r.logger.WithFields(map[string]interface{}{
			"key":      key,
			"base":     base,
			"attempt":  i + 1,
			"provider": attempt.Provider,
			"variant":  attempt.Variant.String(),
		})

		identifier, ok := attempt.Variant.Apply(base)
		if !ok {
			r.metrics.ResolverAttempt(attempt.Provider, OutcomeSkipped)
			continue
		}

		provider, ok := r.providers[attempt.Provider]
		if !ok {
			log.Warn("Unknown provider in resolution plan")
			r.metrics.ResolverAttempt(attempt.Provider, OutcomeUnknown)
			continue
		}

		value, found, err := provider.FetchAttribute(ctx, identifier, key)
		switch {
		case err != nil:
			log.WithError(err).Debug("Resolution attempt failed")
			r.metrics.ResolverAttempt(attempt.Provider, OutcomeError)
		case !found:
			log.Debug("Resolution attempt found nothing")
			r.metrics.ResolverAttempt(attempt.Provider, OutcomeAbsent)
		default:
			r.metrics.ResolverAttempt(attempt.Provider, OutcomeFound)
			log.WithField("identifier", identifier).Info("Attribute resolved")
			return value, attempt, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, Attempt{}, err
	}
	return zero, Attempt{}, fmt.Errorf("resolve %s for %s: %w", key, base, contracts.ErrNotFound)
}

// Resolve is the one-shot form of Resolver.Resolve
func Resolve[T any](ctx context.Context, base, key string, plan Plan, providers map[string]Provider[T]) (T, Attempt, error) {
	r := New[T](nil, nil)
	for id, p := range providers {
		r.Register(id, p)
	}
	return r.Resolve(ctx, base, key, plan)
}
