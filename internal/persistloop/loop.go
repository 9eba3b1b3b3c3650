// Package persistloop periodically flushes the live register store back
// to the on-disk persistence document.
package persistloop

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kjrn/modregd/internal/logging"
	"github.com/kjrn/modregd/internal/persist"
	"github.com/kjrn/modregd/internal/regstore"
)

// Run ticks every interval, snapshotting store and writing it to path,
// until ctx is cancelled. A write failure is logged and the loop
// continues — one bad flush never aborts the server.
func Run(ctx context.Context, store *regstore.Store, path string, interval time.Duration, log *logging.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			doc, _ := store.Snapshot()
			if err := persist.Write(doc, path); err != nil {
				log.Error("persistence flush failed", zap.String("path", path), zap.Error(err))
				continue
			}
			log.Debug("persistence flush complete", zap.String("path", path))
		}
	}
}
