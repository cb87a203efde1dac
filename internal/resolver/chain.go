// Package resolver implements the per-step data resolvers. Each resolver walks
// an ordered list of tiers (structured API, page scraping, synthesis) and
// returns the first usable result.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/metrics"
)

// Tier names used in logs and metrics.
const (
	tierPrimary   = "primary"
	tierScrape    = "scrape"
	tierFallback  = "fallback"
	tierSynthesis = "synthesis"
)

var (
	// ErrNoMatch marks a tier that ran but produced nothing usable.
	ErrNoMatch = errors.New("no usable match")
	// ErrNoResult is returned when every tier of a resolver failed.
	ErrNoResult = errors.New("all tiers failed")

	errUnavailable = errors.New("source not configured")
)

type tier[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

// runChain tries tiers in order, never concurrently and never twice. Scrape
// tiers are skipped when scraping is disabled. A canceled ctx stops the chain.
func runChain[T any](ctx context.Context, s *Set, resolver string, tiers ...tier[T]) (T, error) {
	var (
		zero T
		errs []error
	)
	for _, t := range tiers {
		if t.name == tierScrape && !s.cfg.UseScraping {
			continue
		}
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s resolver: %w", resolver, err)
		}
		value, err := t.run(ctx)
		if err == nil {
			metrics.ObserveResolverTier(resolver, t.name, "hit")
			return value, nil
		}
		metrics.ObserveResolverTier(resolver, t.name, "miss")
		s.logger.Debug("resolver tier missed",
			zap.String("resolver", resolver),
			zap.String("tier", t.name),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
	}
	return zero, fmt.Errorf("%s resolver: %w", resolver, errors.Join(append([]error{ErrNoResult}, errs...)...))
}
