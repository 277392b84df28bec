package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/voyagen/livecatalog/internal/cache"
	"github.com/voyagen/livecatalog/internal/catalog"
	"github.com/voyagen/livecatalog/internal/service"
)

// runRefreshWorker dequeues refresh jobs from Redis until ctx is cancelled.
func runRefreshWorker(ctx context.Context, rds *cache.Redis, cat *catalog.Catalog, live *service.Live) {
	log.Println("refresh worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("refresh worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.Printf("refresh worker: dequeue error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.Printf("refresh worker: processing job source=%q requested_at=%s",
			job.SourceKey, job.RequestedAt.Format(time.RFC3339))
		if job.SourceKey == "" {
			refreshAll(ctx, cat, live)
			continue
		}
		if _, err := live.Refresh(ctx, job.SourceKey); err != nil {
			log.Printf("refresh worker: %s: %v", job.SourceKey, err)
		}
	}
}

// runScheduledRefresh refreshes every source each interval. With Redis, a
// lock keeps replicas from refreshing at the same time.
func runScheduledRefresh(ctx context.Context, interval time.Duration, rds *cache.Redis, cat *catalog.Catalog, live *service.Live) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if rds == nil {
			refreshAll(ctx, cat, live)
			continue
		}
		unlock, err := cache.TryLock(ctx, rds, cache.RefreshAllLock, interval)
		if errors.Is(err, cache.ErrLocked) {
			log.Println("scheduled refresh: another replica holds the lock")
			continue
		}
		if err != nil {
			log.Printf("scheduled refresh: %v", err)
			continue
		}
		refreshAll(ctx, cat, live)
		unlock()
	}
}

func refreshAll(ctx context.Context, cat *catalog.Catalog, live *service.Live) {
	// Seed an empty catalog first.
	if _, err := cat.List(ctx); err != nil {
		log.Printf("refresh: %v", err)
		return
	}
	start := time.Now()
	results, err := live.RefreshAll(ctx)
	if err != nil {
		log.Printf("refresh: %v", err)
		return
	}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	log.Printf("refresh: %d sources, %d failed, took %s", len(results), failed, time.Since(start).Round(time.Millisecond))
}
