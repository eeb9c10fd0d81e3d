//go:build !(js && wasm)

package slots

import (
	"context"
	"errors"
	"log/slog"
)

func openIndexedDB(context.Context, string, *slog.Logger) (Slots, error) {
	return nil, errors.New("the indexeddb driver is only available in js/wasm builds")
}
