package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
	"github.com/mudanzingo/backoffice/types"
)

type checkFunc func(in validation.Input) error

func check[E any](schema validation.Schema[E]) checkFunc {
	return func(in validation.Input) error {
		_, err := schema.Parse(in)
		return err
	}
}

func checks(now func() time.Time) map[types.Kind]checkFunc {
	return map[types.Kind]checkFunc{
		types.KindCategories: check(validation.Categories()),
		types.KindInventory:  check(validation.Inventory()),
		types.KindProviders:  check(validation.Providers(now)),
		types.KindSellers:    check(validation.Sellers()),
		types.KindServices:   check(validation.Services()),
		types.KindQuotes:     check(validation.Quotes()),
	}
}

// LocalKinds returns the kinds persisted in a storage slot.
func LocalKinds() []types.Kind {
	var out []types.Kind
	for _, k := range types.Kinds() {
		if !k.Remote() {
			out = append(out, k)
		}
	}
	return out
}

// Validate reads every local kind's slot and checks each stored record
// against its schema. Nothing is written.
func Validate(ctx context.Context, s slots.Slots, now func() time.Time) *Result {
	if now == nil {
		now = time.Now
	}
	result := newResult()
	start := time.Now()
	byKind := checks(now)

	for _, kind := range LocalKinds() {
		key := kind.StorageKey()
		data, err := s.Load(ctx, key)
		if err != nil {
			result.fail(CodeExecutionError, fmt.Sprintf("%s: failed to read slot", kind), map[string]any{"slot": key, "error": err.Error()})
			continue
		}
		if len(data) == 0 {
			result.add(LevelDebug, fmt.Sprintf("%s: slot is empty", kind), map[string]any{"slot": key})
			continue
		}

		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			result.fail(CodeValidationError, fmt.Sprintf("%s: slot is not a JSON array; it reads as an empty list", kind), map[string]any{"slot": key, "error": err.Error()})
			continue
		}

		invalid := 0
		seen := make(map[string]int, len(elems))
		for i, raw := range elems {
			result.Stats.TotalRecords++
			var in validation.Input
			if err := json.Unmarshal(raw, &in); err != nil || in == nil {
				invalid++
				result.fail(CodeValidationError, fmt.Sprintf("%s[%d]: not an object", kind, i), nil)
				continue
			}
			id, _ := in["id"].(string)
			if id == "" {
				result.add(LevelWarning, fmt.Sprintf("%s[%d]: record has no id and cannot be updated or deleted", kind, i), nil)
			} else if first, dup := seen[id]; dup {
				result.fail(CodeValidationError, fmt.Sprintf("%s[%d]: id %s already used by element %d", kind, i, id, first), nil)
			} else {
				seen[id] = i
			}
			if err := byKind[kind](in); err != nil {
				invalid++
				details := map[string]any{"id": id}
				if fe, ok := validation.AsFieldErrors(err); ok {
					for _, f := range fe.Fields() {
						details[f] = fe[f]
					}
				}
				result.fail(CodeValidationError, fmt.Sprintf("%s[%d]: %v", kind, i, err), details)
			}
		}
		result.Stats.InvalidRecords += invalid
		result.add(LevelInfo, fmt.Sprintf("%s: %d records, %d invalid", kind, len(elems), invalid), map[string]any{"slot": key})
	}

	result.Stats.Duration = time.Since(start)
	return result
}
