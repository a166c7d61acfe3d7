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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"tapp.so/tapp"
	"tapp.so/tapp/apis"
	"tapp.so/tapp/config"
	"tapp.so/tapp/metrics"
	"tapp.so/tapp/store"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	storeKind  string
	storePath  string
	redisAddr  string
	logLevel   string

	file   config.File
	logger *slog.Logger
	out    *printer

	closers []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tappctl",
		Short:         "Resolve Tapp deferred deep links from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "YAML configuration file")
	f.StringVar(&a.storeKind, "store", "", "configuration store: memory, badger or redis")
	f.StringVar(&a.storePath, "store-path", "", "badger database directory")
	f.StringVar(&a.redisAddr, "redis-addr", "", "redis address (host:port)")
	f.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newStartCmd(a),
		newOpenCmd(a),
		newLinkDataCmd(a),
		newURLCmd(a),
		newEventCmd(a),
		newConfigCmd(a),
		newMockServerCmd(a),
	)
	return root
}

// setup loads the configuration file, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.file, err = config.LoadFile(a.configPath)
	} else {
		a.file, err = config.Parse(nil)
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		a.file.Store.Kind = a.storeKind
	}
	if flags.Changed("store-path") {
		a.file.Store.Path = a.storePath
	}
	if flags.Changed("redis-addr") {
		a.file.Store.RedisAddr = a.redisAddr
	}
	if err := config.Validate(a.file.Store); err != nil {
		return err
	}

	level, err := parseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level)
	a.out = &printer{w: cmd.OutOrStdout()}
	return nil
}

// run wraps a command body so that everything it opened is closed, also on
// error.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() { err = errors.Join(err, a.close()) }()
		return fn(cmd, args)
	}
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openStore opens the configured store and registers its closer.
func (a *app) openStore(ctx context.Context) (apis.Store, error) {
	sc := a.file.Store
	switch sc.Kind {
	case config.StoreMemory, "":
		return store.NewMemory(), nil
	case config.StoreBadger:
		cfg := store.DefaultBadgerConfig(sc.Path)
		cfg.Logger = a.logger
		db, err := store.OpenBadger(cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return db, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: sc.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", sc.RedisAddr, err)
		}
		a.closers = append(a.closers, client.Close)
		return store.NewRedis(client, sc.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown store %q", sc.Kind)
	}
}

// engine builds an engine over the configured store. When the start options
// are complete it also calls Start, so one-shot commands work on a fresh
// in-memory store.
func (a *app) engine(ctx context.Context) (*tapp.Engine, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	eng, err := tapp.New(st, a.out,
		tapp.WithOptions(a.file.Options),
		tapp.WithLogger(a.logger),
		tapp.WithMetrics(metrics.New(nil)),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		eng.Wait()
		return nil
	})
	if config.Validate(a.file.Start) == nil {
		if err := eng.Start(ctx, a.file.Start); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// newLogger writes text to terminals and JSON everywhere else.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
