// Package cache keeps one in-memory copy of each entity kind's record list
// for the lifetime of a session. Reads go through the cache; successful
// mutations are merged into it without re-reading the store.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mudanzingo/backoffice/types"
	"golang.org/x/sync/singleflight"
)

// Loader reads the full record list of a kind.
type Loader[E any] func(ctx context.Context) ([]E, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep skips artificial latency.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Session owns the queries of one application session. Queries are created
// on first access and discarded by Close.
type Session struct {
	mu      sync.Mutex
	queries map[types.Kind]any
	sleep   SleepFunc
	metrics *Metrics
	logger  *slog.Logger
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		queries: make(map[types.Kind]any),
		sleep:   Sleep,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sleep waits using the session's sleep function.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return s.sleep(ctx, d)
}

// Metrics returns the session metrics, which may be nil.
func (s *Session) Metrics() *Metrics { return s.metrics }

// For returns the query of kind, creating it with load on first access.
// Asking for an existing kind with a different record type panics.
func For[E types.Record[E]](s *Session, kind types.Kind, load Loader[E]) *Query[E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.queries[kind]; ok {
		q, ok := existing.(*Query[E])
		if !ok {
			panic(fmt.Sprintf("cache: query %s holds %T", kind, existing))
		}
		return q
	}
	q := &Query[E]{
		kind:    kind,
		load:    load,
		sleep:   s.sleep,
		metrics: s.metrics,
		logger:  s.logger.With("kind", kind.String()),
	}
	s.queries[kind] = q
	return q
}

// Close drops every query of the session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, q := range s.queries {
		if inv, ok := q.(interface{ Invalidate() }); ok {
			inv.Invalidate()
		}
		delete(s.queries, kind)
	}
	return nil
}

// Query caches the record list of one kind.
type Query[E types.Record[E]] struct {
	kind    types.Kind
	load    Loader[E]
	sleep   SleepFunc
	metrics *Metrics
	logger  *slog.Logger
	group   singleflight.Group

	mu     sync.Mutex
	data   []E
	loaded bool
	// gen changes on every merge or invalidation so that a load started
	// before it is not cached.
	gen uint64
}

// Kind returns the kind of the query.
func (q *Query[E]) Kind() types.Kind { return q.kind }

// Get returns a copy of the cached list, loading it after the kind's read
// delay when nothing is cached. Concurrent misses share one load, which
// keeps running when the caller that started it goes away.
func (q *Query[E]) Get(ctx context.Context) ([]E, error) {
	q.mu.Lock()
	if q.loaded {
		out := cloneAll(q.data)
		q.mu.Unlock()
		q.metrics.hit(q.kind)
		return out, nil
	}
	gen := q.gen
	q.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.metrics.miss(q.kind)

	loadCtx := context.WithoutCancel(ctx)
	ch := q.group.DoChan("load", func() (any, error) {
		if err := q.sleep(loadCtx, q.kind.ReadDelay()); err != nil {
			return nil, err
		}
		list, err := q.load(loadCtx)
		if err != nil {
			return nil, err
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.gen == gen {
			q.data = cloneAll(list)
			q.loaded = true
		} else {
			q.logger.Debug("load raced with a mutation, not caching")
		}
		return list, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			q.logger.Debug("shared in-flight load")
		}
		return cloneAll(res.Val.([]E)), nil
	}
}

// Peek returns the cached list without loading. The second result is false
// while nothing is cached.
func (q *Query[E]) Peek() ([]E, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.loaded {
		return nil, false
	}
	return cloneAll(q.data), true
}

// Merge applies a successful mutation of rec to the cached list: append on
// create, replace by id on update, filter by id on delete. It does nothing
// while the list is not loaded.
func (q *Query[E]) Merge(op types.Operation, rec E) {
	if op == types.OpDelete {
		q.MergeDelete(rec.RecordID())
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	if !q.loaded {
		return
	}
	switch op {
	case types.OpCreate:
		q.data = append(q.data, rec.Clone())
	case types.OpUpdate:
		for i := range q.data {
			if q.data[i].RecordID() == rec.RecordID() {
				q.data[i] = rec.Clone()
			}
		}
	}
	q.metrics.merge(q.kind, op)
}

// MergeDelete removes the record with id from the cached list.
func (q *Query[E]) MergeDelete(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	if !q.loaded {
		return
	}
	q.data = slices.DeleteFunc(q.data, func(rec E) bool { return rec.RecordID() == id })
	q.metrics.merge(q.kind, types.OpDelete)
}

// Invalidate drops the cached list; the next Get reloads it.
func (q *Query[E]) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.data = nil
	q.loaded = false
}

func cloneAll[E types.Record[E]](list []E) []E {
	if list == nil {
		return nil
	}
	out := make([]E, len(list))
	for i, rec := range list {
		out[i] = rec.Clone()
	}
	return out
}
