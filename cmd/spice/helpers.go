package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

type interruptKey struct{}

func withInterruptHandler(ctx context.Context, h *cli.InterruptHandler) context.Context {
	return context.WithValue(ctx, interruptKey{}, h)
}

// interruptHandler returns the handler installed by main, or a detached one.
func interruptHandler(ctx context.Context) *cli.InterruptHandler {
	if h, ok := ctx.Value(interruptKey{}).(*cli.InterruptHandler); ok {
		return h
	}
	return cli.NewInterruptHandler(os.Stderr)
}

// initStorage opens the ledger database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.DatabasePath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// collectDocuments turns command arguments into documents. Directories
// contribute their regular files in name order.
func collectDocuments(args []string) ([]model.Document, error) {
	var docs []model.Document
	for _, arg := range args {
		path := config.ExpandPath(arg)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}

		if !info.IsDir() {
			docs = append(docs, model.NewDocument(path))
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("cannot list %s: %w", arg, err)
		}
		var names []string
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			docs = append(docs, model.NewDocument(filepath.Join(path, name)))
		}
	}
	return docs, nil
}
