package services

import (
	"context"
	"errors"
	"testing"

	"last-mile-service/internal/adapters/store"
	"last-mile-service/internal/domain"
)

func refreshOrders() []domain.Order {
	return []domain.Order{
		{
			ID: "ORD-1", RouteDate: "2026-09-01", ClientName: "Cremería La Esperanza",
			Product: "Queso Oaxaca", RequestedKg: 5, Status: domain.StatusConfirmed,
			Coordinates: &domain.Coordinates{Lat: 20.38, Lng: -99.66},
		},
	}
}

func TestFetchOrdersLiveOverwritesCache(t *testing.T) {
	mock := store.NewMockOrderStore(refreshOrders()...)
	cache := newMemCache()
	r := &Refresher{Store: mock, Cache: cache}

	snap, source, err := r.FetchOrders(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceLive {
		t.Fatalf("source = %q, want live", source)
	}
	if len(snap.Orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(snap.Orders))
	}

	cached, found, err := r.CachedOrders(context.Background(), "2026-09-01")
	if err != nil || !found {
		t.Fatalf("cached orders: found=%v err=%v", found, err)
	}
	if len(cached.Orders) != 1 || cached.Orders[0].ID != "ORD-1" {
		t.Fatalf("cached = %+v", cached.Orders)
	}
}

func TestFetchOrdersFallsBackToCache(t *testing.T) {
	mock := store.NewMockOrderStore(refreshOrders()...)
	cache := newMemCache()
	r := &Refresher{Store: mock, Cache: cache}

	if _, _, err := r.FetchOrders(context.Background(), "2026-09-01"); err != nil {
		t.Fatalf("priming fetch failed: %v", err)
	}

	mock.FailReads = true
	snap, source, err := r.FetchOrders(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceCache {
		t.Fatalf("source = %q, want cache", source)
	}
	if len(snap.Orders) != 1 || snap.Orders[0].ID != "ORD-1" {
		t.Fatalf("stale snapshot = %+v", snap.Orders)
	}
}

func TestFetchOrdersFailsWithoutCache(t *testing.T) {
	mock := store.NewMockOrderStore(refreshOrders()...)
	mock.FailReads = true
	r := &Refresher{Store: mock, Cache: newMemCache()}

	_, _, err := r.FetchOrders(context.Background(), "2026-09-01")
	if !errors.Is(err, domain.ErrTransientNetwork) {
		t.Fatalf("error = %v, want ErrTransientNetwork", err)
	}
}

func TestFetchOrdersDemoWithoutStore(t *testing.T) {
	r := &Refresher{}

	snap, source, err := r.FetchOrders(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != SourceDemo || !snap.DemoMode {
		t.Fatalf("source = %q demo = %v, want demo snapshot", source, snap.DemoMode)
	}
	if len(snap.Orders) != 5 {
		t.Fatalf("demo orders = %d, want 5", len(snap.Orders))
	}
}

func TestCachedRouteMissing(t *testing.T) {
	r := &Refresher{Cache: newMemCache()}

	_, found, err := r.CachedRoute(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected no cached route")
	}
}
