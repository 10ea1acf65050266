// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.kinship.cache")
	meter  = otel.Meter("aleutian.kinship.cache")
)

var (
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheEvictions metric.Int64Counter
	cacheLoads     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"kinship_cache_hits_total",
			metric.WithDescription("Account graph lookups served from memory"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"kinship_cache_misses_total",
			metric.WithDescription("Account graph lookups that required a load"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheEvictions, err = meter.Int64Counter(
			"kinship_cache_evictions_total",
			metric.WithDescription("Account graphs dropped from memory"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheLoads, err = meter.Int64Counter(
			"kinship_cache_loads_total",
			metric.WithDescription("Account graph loads by result"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordHit(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheHits.Add(ctx, 1)
}

func recordMiss(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheMisses.Add(ctx, 1)
}

func recordEviction(ctx context.Context, reason string) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheEvictions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func recordLoad(ctx context.Context, ok bool) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheLoads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
}

func startCacheSpan(ctx context.Context, operation, account string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "AccountCache."+operation,
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
			attribute.String("kinship.account", account),
		),
	)
}
