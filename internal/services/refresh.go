package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"last-mile-service/internal/domain"
	"last-mile-service/internal/platform/obs"
	"last-mile-service/internal/ports"
)

// Freshness tag on data handed to the caller.
const (
	SourceLive  = "live"
	SourceCache = "cache"
	SourceDemo  = "demo"
)

// Snapshot of an order list, as persisted in the offline cache.
type OrdersSnapshot struct {
	Date      string         `json:"date"`
	Orders    []domain.Order `json:"orders"`
	DemoMode  bool           `json:"demo_mode"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// Snapshot of an optimized route, as persisted in the offline cache.
type RouteSnapshot struct {
	Route   domain.OptimizedRoute `json:"route"`
	SavedAt time.Time             `json:"saved_at"`
}

// Refresher implements the render-first read contract: cached data is
// served whenever the live store cannot be reached, and the cache is
// only overwritten after a successful fetch.
type Refresher struct {
	Store ports.OrderStore
	Cache ports.SnapshotCache
}

// FetchOrders returns the order list for date together with its source
// tag. A live fetch that succeeds overwrites the cache; a failed fetch
// with a cache entry returns the stale snapshot and SourceCache (not an
// error); a failed fetch with no cache is a hard failure.
func (r *Refresher) FetchOrders(ctx context.Context, date string) (_ OrdersSnapshot, _ string, err error) {
	defer obs.Time(ctx, "refresher.FetchOrders")(&err)

	if r.Store == nil {
		snap := OrdersSnapshot{
			Date:      date,
			Orders:    DemoOrders(date),
			DemoMode:  true,
			FetchedAt: time.Now(),
		}
		return snap, SourceDemo, nil
	}

	orders, fetchErr := r.Store.ListOrdersByDate(ctx, date)
	if fetchErr == nil {
		snap := OrdersSnapshot{Date: date, Orders: orders, FetchedAt: time.Now()}
		if r.Cache != nil {
			if err := putJSON(ctx, r.Cache, ports.OrdersKey(date), snap); err != nil {
				logrus.WithError(err).Warn("orders snapshot write failed")
			}
		}
		return snap, SourceLive, nil
	}

	logrus.WithError(fetchErr).WithField("date", date).Warn("live fetch failed, trying cache")

	if r.Cache != nil {
		var snap OrdersSnapshot
		found, cacheErr := getJSON(ctx, r.Cache, ports.OrdersKey(date), &snap)
		if cacheErr != nil {
			logrus.WithError(cacheErr).Warn("orders snapshot read failed")
		} else if found {
			return snap, SourceCache, nil
		}
	}

	return OrdersSnapshot{}, "", fmt.Errorf(
		"fetch orders for %q: %w: %v", date, domain.ErrTransientNetwork, fetchErr,
	)
}

// CachedOrders returns the cached snapshot for date, if any,
// independent of connectivity.
func (r *Refresher) CachedOrders(ctx context.Context, date string) (OrdersSnapshot, bool, error) {
	if r.Cache == nil {
		return OrdersSnapshot{}, false, nil
	}

	var snap OrdersSnapshot
	found, err := getJSON(ctx, r.Cache, ports.OrdersKey(date), &snap)
	if err != nil {
		return OrdersSnapshot{}, false, fmt.Errorf("cached orders for %q: %w", date, err)
	}
	return snap, found, nil
}

// CachedRoute returns the last successfully optimized route for date.
func (r *Refresher) CachedRoute(ctx context.Context, date string) (*domain.OptimizedRoute, bool, error) {
	if r.Cache == nil {
		return nil, false, nil
	}

	var snap RouteSnapshot
	found, err := getJSON(ctx, r.Cache, ports.RouteKey(date), &snap)
	if err != nil {
		return nil, false, fmt.Errorf("cached route for %q: %w", date, err)
	}
	if !found {
		return nil, false, nil
	}
	return &snap.Route, true, nil
}

// SaveOrders overwrites the orders snapshot for its date. Used by the
// session controller to mirror local-first status transitions.
func (r *Refresher) SaveOrders(ctx context.Context, snap OrdersSnapshot) error {
	if r.Cache == nil {
		return nil
	}
	return putJSON(ctx, r.Cache, ports.OrdersKey(snap.Date), snap)
}

func saveRouteSnapshot(ctx context.Context, cache ports.SnapshotCache, route *domain.OptimizedRoute) error {
	return putJSON(ctx, cache, ports.RouteKey(route.Date), RouteSnapshot{
		Route:   *route,
		SavedAt: time.Now(),
	})
}

func putJSON(ctx context.Context, cache ports.SnapshotCache, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot %q: %w", key, err)
	}
	if err := cache.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("put snapshot %q: %w", key, err)
	}
	return nil
}

func getJSON(ctx context.Context, cache ports.SnapshotCache, key string, v any) (bool, error) {
	raw, found, err := cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get snapshot %q: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return true, nil
}
