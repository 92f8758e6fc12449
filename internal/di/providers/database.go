package providers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/logger"
	"github.com/shadownovel/catalog/internal/store"
	"github.com/shadownovel/catalog/internal/store/badgerstore"
	"github.com/shadownovel/catalog/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend under the data path.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, path, err := OpenStore(cfg, log.Component("store").Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Store.Driver, "path", path)

	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the backend named by cfg.Store.Driver and returns it with the path it
// was opened at. The command-line tools share it with the server.
func OpenStore(cfg *config.Config, log *slog.Logger) (store.Store, string, error) {
	if err := os.MkdirAll(cfg.Store.DataPath, 0o755); err != nil {
		return nil, "", fmt.Errorf("create data directory: %w", err)
	}

	switch cfg.Store.Driver {
	case config.DriverBadger:
		path := filepath.Join(cfg.Store.DataPath, "badger")
		st, err := badgerstore.Open(path, log)
		if err != nil {
			return nil, "", fmt.Errorf("open badger store: %w", err)
		}
		return st, path, nil
	case config.DriverSQLite, "":
		path := filepath.Join(cfg.Store.DataPath, "catalog.db")
		st, err := sqlite.Open(path, log)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite store: %w", err)
		}
		return st, path, nil
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
