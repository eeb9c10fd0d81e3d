package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mudanzingo/backoffice/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingLoader struct {
	calls atomic.Int32
	list  []types.Category
	err   error
}

func (l *countingLoader) load(context.Context) ([]types.Category, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return append([]types.Category(nil), l.list...), nil
}

func categories() []types.Category {
	return []types.Category{{ID: "a", Name: "Cocina"}, {ID: "b", Name: "Sala"}}
}

func TestQueryGet(t *testing.T) {
	ctx := context.Background()

	t.Run("loads once then serves from cache", func(t *testing.T) {
		var delays []time.Duration
		s := NewSession(WithSleep(func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))
		loader := &countingLoader{list: categories()}
		q := For(s, types.KindCategories, loader.load)

		for i := 0; i < 3; i++ {
			got, err := q.Get(ctx)
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if diff := cmp.Diff(categories(), got); diff != "" {
				t.Errorf("list mismatch (-want +got):\n%s", diff)
			}
		}
		if loader.calls.Load() != 1 {
			t.Errorf("expected one load, got %d", loader.calls.Load())
		}
		if diff := cmp.Diff([]time.Duration{150 * time.Millisecond}, delays); diff != "" {
			t.Errorf("delays mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returned lists are copies", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		q := For(s, types.KindCategories, (&countingLoader{list: categories()}).load)
		got, _ := q.Get(ctx)
		got[0].Name = "cambiado"
		again, _ := q.Get(ctx)
		if again[0].Name != "Cocina" {
			t.Error("caller mutation leaked into the cache")
		}
	})

	t.Run("nested slices are copied", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		stored := []types.Provider{{
			ID:     "p",
			Name:   "Fletes",
			Trucks: []types.Truck{{Brand: "Isuzu", Model: "ELF"}},
		}}
		q := For(s, types.KindProviders, func(context.Context) ([]types.Provider, error) {
			return stored, nil
		})
		got, err := q.Get(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got[0].Trucks[0].Brand = "cambiado"
		got[0].Trucks = append(got[0].Trucks, types.Truck{Brand: "Hino"})

		again, _ := q.Get(ctx)
		want := []types.Truck{{Brand: "Isuzu", Model: "ELF"}}
		if diff := cmp.Diff(want, again[0].Trucks); diff != "" {
			t.Errorf("cached trucks changed (-want +got):\n%s", diff)
		}
		if stored[0].Trucks[0].Brand != "Isuzu" {
			t.Error("caller mutation reached the loaded list")
		}
		peeked, _ := q.Peek()
		peeked[0].Trucks[0].Model = "cambiado"
		if again, _ := q.Get(ctx); again[0].Trucks[0].Model != "ELF" {
			t.Error("mutation through Peek leaked into the cache")
		}
	})

	t.Run("load errors are not cached", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		loader := &countingLoader{err: errors.New("offline")}
		q := For(s, types.KindCategories, loader.load)
		if _, err := q.Get(ctx); err == nil {
			t.Fatal("expected load error")
		}
		if _, ok := q.Peek(); ok {
			t.Error("failed load was cached")
		}
		loader.err = nil
		loader.list = categories()
		if got, err := q.Get(ctx); err != nil || len(got) != 2 {
			t.Errorf("expected reload to succeed, got %v, %v", got, err)
		}
	})

	t.Run("cancelled context skips the load", func(t *testing.T) {
		s := NewSession()
		loader := &countingLoader{list: categories()}
		q := For(s, types.KindInventory, loader.load)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := q.Get(cctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if loader.calls.Load() != 0 {
			t.Error("loader ran after cancellation")
		}
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		release := make(chan struct{})
		s := NewSession(WithSleep(func(ctx context.Context, _ time.Duration) error {
			<-release
			return nil
		}))
		loader := &countingLoader{list: categories()}
		q := For(s, types.KindCategories, loader.load)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got, err := q.Get(ctx); err != nil || len(got) != 2 {
					t.Errorf("unexpected result %v, %v", got, err)
				}
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		if loader.calls.Load() != 1 {
			t.Errorf("expected one load, got %d", loader.calls.Load())
		}
	})

	t.Run("a cancelled caller does not fail the shared load", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		s := NewSession(WithSleep(func(ctx context.Context, _ time.Duration) error {
			once.Do(func() { close(started) })
			<-release
			return ctx.Err()
		}))
		loader := &countingLoader{list: categories()}
		q := For(s, types.KindCategories, loader.load)

		first, cancel := context.WithCancel(ctx)
		firstErr := make(chan error, 1)
		go func() {
			_, err := q.Get(first)
			firstErr <- err
		}()
		<-started

		type result struct {
			list []types.Category
			err  error
		}
		second := make(chan result, 1)
		go func() {
			list, err := q.Get(ctx)
			second <- result{list, err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancel()
		if err := <-firstErr; !errors.Is(err, context.Canceled) {
			t.Errorf("expected the cancelled caller to see context.Canceled, got %v", err)
		}
		close(release)

		res := <-second
		if res.err != nil {
			t.Fatalf("live caller failed: %v", res.err)
		}
		if diff := cmp.Diff(categories(), res.list); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
		if _, ok := q.Peek(); !ok {
			t.Error("shared load was not cached")
		}
		if loader.calls.Load() != 1 {
			t.Errorf("expected one load, got %d", loader.calls.Load())
		}
	})
}

func TestQueryMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("applies create update and delete", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		loader := &countingLoader{list: categories()}
		q := For(s, types.KindCategories, loader.load)
		if _, err := q.Get(ctx); err != nil {
			t.Fatal(err)
		}

		q.Merge(types.OpCreate, types.Category{ID: "c", Name: "Baño"})
		q.Merge(types.OpUpdate, types.Category{ID: "a", Name: "Cocina grande"})
		q.Merge(types.OpDelete, types.Category{ID: "b"})
		q.MergeDelete("zzz")

		got, ok := q.Peek()
		if !ok {
			t.Fatal("expected cached list")
		}
		want := []types.Category{{ID: "a", Name: "Cocina grande"}, {ID: "c", Name: "Baño"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
		if loader.calls.Load() != 1 {
			t.Errorf("merge triggered a reload")
		}
	})

	t.Run("merged records are copied", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		q := For(s, types.KindQuotes, func(context.Context) ([]types.Quote, error) {
			return []types.Quote{}, nil
		})
		if _, err := q.Get(ctx); err != nil {
			t.Fatal(err)
		}
		rec := types.Quote{ID: "q", Inventory: []types.InventoryLine{{ItemID: "i", Quantity: 1}}}
		q.Merge(types.OpCreate, rec)
		rec.Inventory[0].Quantity = 9

		got, _ := q.Peek()
		if got[0].Inventory[0].Quantity != 1 {
			t.Errorf("merged record shares lines with the caller: %+v", got[0].Inventory)
		}
	})

	t.Run("no-op while nothing is cached", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		q := For(s, types.KindCategories, (&countingLoader{list: categories()}).load)
		q.Merge(types.OpCreate, types.Category{ID: "c", Name: "Baño"})
		if _, ok := q.Peek(); ok {
			t.Fatal("merge populated an unloaded cache")
		}
		got, _ := q.Get(ctx)
		if len(got) != 2 {
			t.Errorf("expected the stored list, got %v", got)
		}
	})

	t.Run("a load racing with a merge is not cached", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		var q *Query[types.Category]
		q = For(s, types.KindCategories, func(context.Context) ([]types.Category, error) {
			q.Merge(types.OpCreate, types.Category{ID: "c", Name: "Baño"})
			return categories(), nil
		})
		got, err := q.Get(ctx)
		if err != nil || len(got) != 2 {
			t.Fatalf("unexpected result %v, %v", got, err)
		}
		if _, ok := q.Peek(); ok {
			t.Error("stale load was cached")
		}
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		s := NewSession(WithSleep(NoSleep))
		loader := &countingLoader{list: categories()}
		q := For(s, types.KindCategories, loader.load)
		_, _ = q.Get(ctx)
		q.Invalidate()
		if _, ok := q.Peek(); ok {
			t.Error("invalidated list still cached")
		}
		_, _ = q.Get(ctx)
		if loader.calls.Load() != 2 {
			t.Errorf("expected two loads, got %d", loader.calls.Load())
		}
	})
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(WithSleep(NoSleep))
	loader := &countingLoader{list: categories()}

	q1 := For(s, types.KindCategories, loader.load)
	q2 := For(s, types.KindCategories, loader.load)
	if q1 != q2 {
		t.Error("expected one query per kind")
	}
	_, _ = q1.Get(context.Background())

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := q1.Peek(); ok {
		t.Error("closed session kept cached data")
	}
	if q3 := For(s, types.KindCategories, loader.load); q3 == q1 {
		t.Error("expected a fresh query after close")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched record type")
		}
	}()
	For(s, types.KindCategories, func(context.Context) ([]types.Seller, error) { return nil, nil })
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := NewSession(WithSleep(NoSleep), WithMetrics(m))
	q := For(s, types.KindSellers, func(context.Context) ([]types.Seller, error) { return nil, nil })

	_, _ = q.Get(context.Background())
	_, _ = q.Get(context.Background())
	_, _ = q.Get(context.Background())
	q.Merge(types.OpCreate, types.Seller{ID: "s"})
	m.ObserveMutation(types.KindSellers, types.OpCreate, nil)
	m.ObserveMutation(types.KindSellers, types.OpUpdate, errors.New("x"))

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"misses", testutil.ToFloat64(m.misses.WithLabelValues("sellers")), 1},
		{"hits", testutil.ToFloat64(m.hits.WithLabelValues("sellers")), 2},
		{"merges", testutil.ToFloat64(m.merges.WithLabelValues("sellers", "create")), 1},
		{"ok mutations", testutil.ToFloat64(m.mutations.WithLabelValues("sellers", "create", "ok")), 1},
		{"failed mutations", testutil.ToFloat64(m.mutations.WithLabelValues("sellers", "update", "error")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveMutation(types.KindSellers, types.OpCreate, nil)
}
