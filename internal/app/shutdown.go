package app

import (
	"context"
	"time"

	"github.com/karnyvex/dominator/internal/storage"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for all goroutines
	a.wg.Wait()

	a.Close()

	a.logger.Info("application-shutdown-complete")
	return nil
}

// Close releases the store, the cache and the result sink. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()

		// In database mode the sink is the store itself.
		if a.results != nil && !a.resultsIsStore() {
			err := a.results.Close()
			if err != nil {
				a.logger.Error("result-sink-close-error", zap.Error(err))
			}
		}

		err := a.nameCache.Close()
		if err != nil {
			a.logger.Error("name-cache-close-error", zap.Error(err))
		}

		err = a.store.Close()
		if err != nil {
			a.logger.Error("storage-close-error", zap.Error(err))
		}
	})
}

func (a *App) resultsIsStore() bool {
	sink, ok := a.results.(*storage.SQLStore)
	return ok && sink == a.store
}
