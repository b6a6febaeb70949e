package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/adapters/fs"
	"github.com/aretw0/arbor/pkg/adapters/sqlite"
	"github.com/aretw0/arbor/pkg/core"
)

// AdapterFor returns the adapter implied by a file extension.
func AdapterFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return AdapterSQLite
	default:
		return AdapterFS
	}
}

// openStore builds and initializes the configured storage adapter.
func openStore(ctx context.Context, path string, o *options) (core.Store, error) {
	if o.store != nil {
		return o.store, nil
	}

	adapter := o.adapter
	if adapter == AdapterAuto {
		adapter = AdapterFor(path)
	}

	switch adapter {
	case AdapterFS:
		return initFS(ctx, path, o)
	case AdapterSQLite:
		if o.versioning || o.watch {
			o.logger.Warn("versioning and watch are only supported by the fs adapter", "adapter", adapter)
		}
		return sqlite.NewStore(sqlite.Config{Path: path, Logger: o.logger})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", adapter)
	}
}

// initFS handles the initialization logic for the file adapter.
func initFS(ctx context.Context, path string, o *options) (core.Store, error) {
	store, err := fs.NewStore(fs.Config{
		Path:         path,
		Logger:       o.logger,
		Versioning:   o.versioning,
		AutoInit:     o.autoInit,
		ErrorHandler: o.watcherErrorHandler,
	})
	if err != nil {
		return nil, err
	}
	if o.autoInit || o.versioning {
		if err := store.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}
