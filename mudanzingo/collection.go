package mudanzingo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo/cache"
	"github.com/mudanzingo/backoffice/mudanzingo/records"
	"github.com/mudanzingo/backoffice/types"
)

// Repository is where a collection's records live: a record store for the
// local kinds, the products client for products.
type Repository[E types.Record[E]] interface {
	ReadAll(ctx context.Context) ([]E, error)
	Get(ctx context.Context, id string) (E, error)
	Create(ctx context.Context, in validation.Input) (E, error)
	Update(ctx context.Context, in validation.Input) (E, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Collection is one entity kind as the application sees it: reads come from
// the session cache and successful mutations are merged back into it.
type Collection[E types.Record[E]] struct {
	kind    types.Kind
	repo    Repository[E]
	query   *cache.Query[E]
	session *cache.Session
	logger  *slog.Logger
}

func newCollection[E types.Record[E]](session *cache.Session, kind types.Kind, repo Repository[E], logger *slog.Logger) *Collection[E] {
	return &Collection[E]{
		kind:    kind,
		repo:    repo,
		query:   cache.For(session, kind, repo.ReadAll),
		session: session,
		logger:  logger.With("kind", kind.String()),
	}
}

// Kind returns the entity kind.
func (c *Collection[E]) Kind() types.Kind { return c.kind }

// Query exposes the cache query, for peeking and invalidation.
func (c *Collection[E]) Query() *cache.Query[E] { return c.query }

// List returns every record of the kind.
func (c *Collection[E]) List(ctx context.Context) ([]E, error) {
	return c.query.Get(ctx)
}

// Get returns the record with the given id.
func (c *Collection[E]) Get(ctx context.Context, id string) (E, error) {
	var zero E
	list, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, rec := range list {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return zero, fmt.Errorf("%s %q: %w", c.kind, id, records.ErrNotFound)
}

// Create validates in and stores a new record.
func (c *Collection[E]) Create(ctx context.Context, in validation.Input) (E, error) {
	return c.mutate(ctx, types.OpCreate, func() (E, error) { return c.repo.Create(ctx, in) })
}

// Update validates in and replaces the record with the same id.
func (c *Collection[E]) Update(ctx context.Context, in validation.Input) (E, error) {
	return c.mutate(ctx, types.OpUpdate, func() (E, error) { return c.repo.Update(ctx, in) })
}

// Delete removes the record with the given id, reporting whether one existed.
func (c *Collection[E]) Delete(ctx context.Context, id string) (bool, error) {
	if err := c.session.Sleep(ctx, c.kind.MutationDelay(types.OpDelete)); err != nil {
		return false, err
	}
	deleted, err := c.repo.Delete(ctx, id)
	c.session.Metrics().ObserveMutation(c.kind, types.OpDelete, err)
	if err != nil {
		c.logger.Warn("delete failed", "id", id, "error", err)
		return false, err
	}
	c.query.MergeDelete(id)
	return deleted, nil
}

// Insert stores a typed record as a new record. Its id is ignored.
func (c *Collection[E]) Insert(ctx context.Context, rec E) (E, error) {
	in, err := validation.InputOf(rec)
	if err != nil {
		var zero E
		return zero, err
	}
	return c.Create(ctx, in)
}

// Replace stores a typed record over the record with the same id.
func (c *Collection[E]) Replace(ctx context.Context, rec E) (E, error) {
	in, err := validation.InputOf(rec)
	if err != nil {
		var zero E
		return zero, err
	}
	return c.Update(ctx, in)
}

func (c *Collection[E]) mutate(ctx context.Context, op types.Operation, fn func() (E, error)) (E, error) {
	var zero E
	if err := c.session.Sleep(ctx, c.kind.MutationDelay(op)); err != nil {
		return zero, err
	}
	rec, err := fn()
	c.session.Metrics().ObserveMutation(c.kind, op, err)
	if err != nil {
		c.logger.Warn("mutation failed", "op", string(op), "error", err)
		return zero, err
	}
	c.query.Merge(op, rec)
	return rec, nil
}

// AnyCollection is the kind-agnostic view of a Collection used by callers
// that pick the kind at run time.
type AnyCollection interface {
	Kind() types.Kind
	ListRecords(ctx context.Context) ([]any, error)
	GetRecord(ctx context.Context, id string) (any, error)
	CreateRecord(ctx context.Context, in validation.Input) (any, error)
	UpdateRecord(ctx context.Context, in validation.Input) (any, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ListRecords implements AnyCollection.
func (c *Collection[E]) ListRecords(ctx context.Context) ([]any, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(list))
	for i, rec := range list {
		out[i] = rec
	}
	return out, nil
}

// GetRecord implements AnyCollection.
func (c *Collection[E]) GetRecord(ctx context.Context, id string) (any, error) {
	return c.Get(ctx, id)
}

// CreateRecord implements AnyCollection.
func (c *Collection[E]) CreateRecord(ctx context.Context, in validation.Input) (any, error) {
	return c.Create(ctx, in)
}

// UpdateRecord implements AnyCollection.
func (c *Collection[E]) UpdateRecord(ctx context.Context, in validation.Input) (any, error) {
	return c.Update(ctx, in)
}
