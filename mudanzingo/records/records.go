// Package records implements the per-kind record store: one ordered list of
// records per entity kind, persisted as a JSON array in a single slot.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
	"github.com/mudanzingo/backoffice/types"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrStorage wraps failures of the underlying slot backend.
	ErrStorage = errors.New("storage failure")
)

const maxIDAttempts = 8

// Store persists the records of one kind. All mutations of a store run one
// at a time, each as a single read-modify-write of the slot.
type Store[E types.Record[E]] struct {
	kind   types.Kind
	key    string
	slots  slots.Slots
	schema validation.Schema[E]
	writer *slots.LockManager
	logger *slog.Logger
	newID  func() string
}

// New creates the store of kind over the given slots.
func New[E types.Record[E]](kind types.Kind, s slots.Slots, schema validation.Schema[E], opts ...Option) *Store[E] {
	cfg := options{logger: slog.Default(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[E]{
		kind:   kind,
		key:    kind.StorageKey(),
		slots:  s,
		schema: schema,
		writer: slots.NewLockManager(),
		logger: cfg.logger.With("kind", kind.String()),
		newID:  cfg.newID,
	}
}

// Kind returns the entity kind of the store.
func (s *Store[E]) Kind() types.Kind { return s.kind }

// Key returns the slot the store persists to.
func (s *Store[E]) Key() string { return s.key }

// ReadAll returns every record of the slot in stored order. An absent slot,
// a payload that is not a JSON array, and elements that do not decode all
// read as nothing; only backend failures are errors.
func (s *Store[E]) ReadAll(ctx context.Context) ([]E, error) {
	data, err := s.slots.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	elems := s.elements(data)
	out := make([]E, 0, len(elems))
	for i, raw := range elems {
		var rec E
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn("skipping undecodable record", "slot", s.key, "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteAll replaces the whole slot with list.
func (s *Store[E]) WriteAll(ctx context.Context, list []E) error {
	return s.mutate(ctx, func([]json.RawMessage) ([]json.RawMessage, error) {
		out := make([]json.RawMessage, 0, len(list))
		for _, rec := range list {
			raw, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("failed to encode record %s: %w", rec.RecordID(), err)
			}
			out = append(out, raw)
		}
		return out, nil
	})
}

// Get returns the record with id.
func (s *Store[E]) Get(ctx context.Context, id string) (E, error) {
	var zero E
	list, err := s.ReadAll(ctx)
	if err != nil {
		return zero, err
	}
	for _, rec := range list {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return zero, fmt.Errorf("%s %q: %w", s.kind, id, ErrNotFound)
}

// Create validates in, assigns a fresh id and appends the record. Any id in
// the input is ignored.
func (s *Store[E]) Create(ctx context.Context, in validation.Input) (E, error) {
	var zero E
	in = in.Clone()
	delete(in, "id")
	rec, err := s.schema.Parse(in)
	if err != nil {
		return zero, err
	}

	var created E
	err = s.mutate(ctx, func(elems []json.RawMessage) ([]json.RawMessage, error) {
		taken := make(map[string]bool, len(elems))
		for _, raw := range elems {
			taken[rawID(raw)] = true
		}
		id, err := s.freshID(taken)
		if err != nil {
			return nil, err
		}
		created = rec.WithID(id)
		raw, err := json.Marshal(created)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}
		return append(elems, raw), nil
	})
	if err != nil {
		return zero, err
	}
	s.logger.Debug("record created", "id", created.RecordID())
	return created, nil
}

// Update validates in and replaces the stored record carrying the same id.
// Updating an id that is not stored returns ErrNotFound and changes nothing.
func (s *Store[E]) Update(ctx context.Context, in validation.Input) (E, error) {
	var zero E
	rec, err := s.schema.Parse(in)
	if err != nil {
		return zero, err
	}
	id := rec.RecordID()
	if id == "" {
		return zero, fmt.Errorf("%s update without id: %w", s.kind, ErrNotFound)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("failed to encode record: %w", err)
	}

	err = s.mutate(ctx, func(elems []json.RawMessage) ([]json.RawMessage, error) {
		found := false
		for i := range elems {
			if rawID(elems[i]) == id {
				elems[i] = raw
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%s %q: %w", s.kind, id, ErrNotFound)
		}
		return elems, nil
	})
	if err != nil {
		return zero, err
	}
	s.logger.Debug("record updated", "id", id)
	return rec, nil
}

// Delete removes the record with id and reports whether one was removed.
// Deleting an id that is not stored is a no-op.
func (s *Store[E]) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	deleted := false
	err := s.mutate(ctx, func(elems []json.RawMessage) ([]json.RawMessage, error) {
		kept := elems[:0:0]
		for _, raw := range elems {
			if rawID(raw) == id {
				continue
			}
			kept = append(kept, raw)
		}
		deleted = len(kept) != len(elems)
		if !deleted {
			return nil, nil
		}
		return kept, nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Debug("record deleted", "id", id)
	}
	return deleted, nil
}

type editFunc func(elems []json.RawMessage) ([]json.RawMessage, error)

// mutate applies edit to the stored elements in one slot modification. A nil
// result from edit skips the write.
func (s *Store[E]) mutate(ctx context.Context, edit editFunc) error {
	return s.writer.Execute(s.key, slots.WriteOperation, func() error {
		var editErr error
		err := s.slots.Modify(ctx, s.key, func(current []byte) ([]byte, error) {
			next, err := edit(s.elements(current))
			editErr = err
			if err != nil || next == nil {
				return nil, err
			}
			return json.Marshal(next)
		})
		if editErr != nil {
			return editErr
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return nil
	})
}

// elements splits a slot payload into its array elements. Anything that is
// not a JSON array counts as an empty list.
func (s *Store[E]) elements(data []byte) []json.RawMessage {
	if len(data) == 0 {
		return []json.RawMessage{}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		s.logger.Warn("slot is not a JSON array, reading as empty", "slot", s.key, "error", err)
		return []json.RawMessage{}
	}
	if elems == nil {
		// "null"
		return []json.RawMessage{}
	}
	return elems
}

func (s *Store[E]) freshID(taken map[string]bool) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		if id := s.newID(); id != "" && !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique %s id", s.kind)
}

// rawID extracts the string id of a stored element, or "" when it has none.
func rawID(raw json.RawMessage) string {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(head.ID, &id); err != nil {
		return ""
	}
	return id
}
