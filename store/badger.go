/*
   Copyright 2026 The Tapp Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"tapp.so/tapp/apis"
)

// badgerKey is the key of the configuration record.
var badgerKey = []byte("tapp/config")

// BadgerConfig configures a Badger store.
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps the database in RAM (tests).
	InMemory bool
	// SyncWrites fsyncs every write. Recommended for the durable record.
	SyncWrites bool
	// Logger receives Badger's internal logs. Nil silences them.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns a durable configuration for path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// ErrBadgerPath is returned when a persistent Badger store has no path.
var ErrBadgerPath = errors.New("tapp(store): badger path is required for persistent database")

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger persists the record in an embedded Badger database.
type Badger struct {
	db *badger.DB
}

// Ensure Badger implements apis.Store.
var _ apis.Store = (*Badger)(nil)

// OpenBadger opens (creating if needed) a Badger store.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrBadgerPath
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("tapp(store): create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tapp(store): open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

// Get reads the record.
func (b *Badger) Get(_ context.Context) (apis.Configuration, bool, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apis.Configuration{}, false, nil
	}
	if err != nil {
		return apis.Configuration{}, false, fmt.Errorf("tapp(store): badger get: %w", err)
	}
	cfg, err := decode(raw)
	if err != nil {
		return apis.Configuration{}, false, err
	}
	return cfg, true, nil
}

// Save writes the record.
func (b *Badger) Save(_ context.Context, cfg apis.Configuration) error {
	raw, err := encode(cfg)
	if err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey, raw)
	}); err != nil {
		return fmt.Errorf("tapp(store): badger save: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
