package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mudanzingo/backoffice/mudanzingo/slots"
)

// Copy copies the slot of every local kind from one backend to another.
// Slots already holding records at the target are skipped unless
// opts.Overwrite is set.
func Copy(ctx context.Context, from, to slots.Slots, opts Options) *Result {
	result := newResult()
	start := time.Now()

	for _, kind := range LocalKinds() {
		key := kind.StorageKey()
		data, err := from.Load(ctx, key)
		if err != nil {
			result.fail(CodeExecutionError, fmt.Sprintf("%s: failed to read source slot", kind), map[string]any{"slot": key, "error": err.Error()})
			continue
		}
		if len(data) == 0 {
			result.Stats.SkippedSlots++
			result.add(LevelDebug, fmt.Sprintf("%s: nothing to copy", kind), map[string]any{"slot": key})
			continue
		}
		count := countRecords(data)
		result.Stats.TotalRecords += count

		if opts.DryRun {
			existing, err := to.Load(ctx, key)
			if err != nil {
				result.fail(CodeExecutionError, fmt.Sprintf("%s: failed to read target slot", kind), map[string]any{"slot": key, "error": err.Error()})
				continue
			}
			if countRecords(existing) > 0 && !opts.Overwrite {
				result.Stats.SkippedSlots++
				result.add(LevelWarning, fmt.Sprintf("%s: target already has records, would skip", kind), map[string]any{"slot": key})
				continue
			}
			result.add(LevelInfo, fmt.Sprintf("%s: would copy %d records", kind, count), map[string]any{"slot": key})
			continue
		}

		skipped := false
		err = to.Modify(ctx, key, func(current []byte) ([]byte, error) {
			if countRecords(current) > 0 && !opts.Overwrite {
				skipped = true
				return nil, nil
			}
			return data, nil
		})
		if err != nil {
			result.fail(CodePartialFailure, fmt.Sprintf("%s: failed to write target slot", kind), map[string]any{"slot": key, "error": err.Error()})
			continue
		}
		if skipped {
			result.Stats.SkippedSlots++
			result.add(LevelWarning, fmt.Sprintf("%s: target already has records, skipped (use overwrite to replace)", kind), map[string]any{"slot": key})
			continue
		}
		result.Modified = append(result.Modified, key)
		result.Stats.ModifiedSlots++
		result.add(LevelInfo, fmt.Sprintf("%s: copied %d records", kind, count), map[string]any{"slot": key})
	}

	result.Stats.Duration = time.Since(start)
	return result
}

// countRecords returns the number of elements of a stored list; anything
// that is not a JSON array counts as empty.
func countRecords(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return 0
	}
	return len(elems)
}
