//go:build js && wasm

package slots

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hack-pad/hackpadfs/indexeddb"
)

// openIndexedDB stores slots in the browser's IndexedDB, the closest match to
// the local storage the back office was first written against.
func openIndexedDB(ctx context.Context, name string, logger *slog.Logger) (Slots, error) {
	if name == "" {
		name = "mudanzingo"
	}
	idb, err := indexeddb.NewFS(ctx, name, indexeddb.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open indexeddb %s: %w", name, err)
	}
	return NewFileSlots(".",
		WithFileSystem(HackpadFileSystem{FS: idb}),
		WithFileLockFactory(NewLocalLockFactory()),
		WithLogger(logger),
	)
}
