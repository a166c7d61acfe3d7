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

package tapp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/builder"
	"tapp.so/tapp/config"
	"tapp.so/tapp/fingerprint"
	"tapp.so/tapp/metrics"
	"tapp.so/tapp/registry"
	"tapp.so/tapp/resolver"
	"tapp.so/tapp/transport"
)

var (
	// ErrNilStore is returned by New without a configuration store.
	ErrNilStore = errors.New("tapp: nil configuration store")
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("tapp: builder returned nil registry")
	// ErrNoStoredLink means FetchOriginalLinkData found no attributed URL.
	ErrNoStoredLink = errors.New("tapp: no stored deep link url")
)

// state is the snapshot read by every operation.
type state struct {
	opts      apis.Options
	reg       apis.Registry
	client    apis.Client
	exec      apis.Executor
	collector *fingerprint.Collector
	// pexec is set when the executor was supplied by the caller and must
	// survive SetOptions.
	pexec bool
}

// Engine resolves deferred deep links for one install.
type Engine struct {
	st      atomic.Pointer[state]
	buildMu sync.Mutex
	bld     apis.Builder

	store      apis.Store
	delegate   apis.Delegate
	dispatcher apis.Dispatcher
	flags      *registry.Flags
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// fixedClient replaces the resolver client, for tests and embedders.
	fixedClient apis.Client
	// fixedCollector carries the caller's fingerprint sources.
	fixedCollector *fingerprint.Collector

	cfgMu  sync.Mutex // read-modify-write of the stored Configuration
	flowMu sync.Mutex // one resolution flow at a time
	boot   singleflight.Group

	nativeMu      sync.Mutex
	nativeStarted bool
	nativeOutcome NativeOutcome

	// running counts goroutines started by the engine; Wait blocks on it.
	goMu    sync.Mutex
	goDone  *sync.Cond
	running int
}

// Option configures an Engine.
type Option func(*settings)

type settings struct {
	opts       *apis.Options
	reg        apis.Registry
	exec       apis.Executor
	client     apis.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	collector  *fingerprint.Collector
	dispatcher apis.Dispatcher
	builder    apis.Builder
}

// WithOptions sets the runtime options. They are normalized.
func WithOptions(o apis.Options) Option {
	return func(s *settings) {
		n := config.Normalize(o)
		s.opts = &n
	}
}

// WithRegistry supplies the provider registry. Built-in providers are added
// for affiliates reg does not already cover.
func WithRegistry(reg apis.Registry) Option {
	return func(s *settings) { s.reg = reg }
}

// WithExecutor replaces the HTTP transport.
func WithExecutor(exec apis.Executor) Option {
	return func(s *settings) { s.exec = exec }
}

// WithClient replaces the remote resolution client entirely.
func WithClient(c apis.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records engine and backend metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithCollector sets the fingerprint collector used by ResolveNative. Its
// timeouts are replaced by those of the current options.
func WithCollector(c *fingerprint.Collector) Option {
	return func(s *settings) { s.collector = c }
}

// WithDispatcher sets where delegate callbacks run. The default runs them
// inline on the goroutine that produced the outcome.
func WithDispatcher(d apis.Dispatcher) Option {
	return func(s *settings) { s.dispatcher = d }
}

// WithBuilder replaces the registry builder.
func WithBuilder(b apis.Builder) Option {
	return func(s *settings) { s.builder = b }
}

// New constructs an Engine over store. delegate may be nil.
func New(store apis.Store, delegate apis.Delegate, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	var s settings
	for _, o := range opts {
		o(&s)
	}

	e := &Engine{
		store:       store,
		delegate:    delegate,
		dispatcher:  s.dispatcher,
		flags:       &registry.Flags{},
		logger:      s.logger,
		metrics:     s.metrics,
		fixedClient: s.client,
		bld:         s.builder,

		fixedCollector: s.collector,
	}
	e.goDone = sync.NewCond(&e.goMu)
	if e.delegate == nil {
		e.delegate = nopDelegate{}
	}
	if e.dispatcher == nil {
		e.dispatcher = apis.DispatcherFunc(func(fn func()) { fn() })
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.bld == nil {
		e.bld = builder.New()
	}

	o := config.DefaultOptions()
	if s.opts != nil {
		o = *s.opts
	}
	reg := e.bld.BuildRegistry(s.reg)
	if reg == nil {
		return nil, ErrNilRegistry
	}
	e.st.Store(e.build(o, reg, s.exec, s.exec != nil))
	return e, nil
}

// build assembles a snapshot. A nil exec means the default HTTP transport.
func (e *Engine) build(o apis.Options, reg apis.Registry, exec apis.Executor, pinned bool) *state {
	if exec == nil {
		exec = transport.FromOptions(o, e.logger)
	}
	client := e.fixedClient
	if client == nil {
		client = resolver.New(exec, o,
			resolver.WithLogger(e.logger),
			resolver.WithMetrics(e.metrics),
		)
	}
	var col *fingerprint.Collector
	if e.fixedCollector != nil {
		col = e.fixedCollector.Retimed(o)
	} else {
		col = fingerprint.NewCollector(o, fingerprint.WithLogger(e.logger))
	}
	return &state{opts: o, reg: reg, client: client, exec: exec, collector: col, pexec: pinned}
}

// Options returns the current runtime options.
func (e *Engine) Options() apis.Options {
	return e.st.Load().opts
}

// SetOptions replaces the runtime options and rebuilds the client and the
// fingerprint collector. A caller supplied executor is kept; the
// default transport is rebuilt.
func (e *Engine) SetOptions(o apis.Options) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	old := e.st.Load()
	o = config.Normalize(o)
	exec := old.exec
	if !old.pexec {
		exec = nil
	}
	e.st.Store(e.build(o, old.reg, exec, old.pexec))
}

// Registry returns the current provider registry.
func (e *Engine) Registry() apis.Registry {
	return e.st.Load().reg
}

// SetRegistry replaces the provider registry. Built-ins are added for
// affiliates reg does not cover. A nil reg is ignored.
func (e *Engine) SetRegistry(reg apis.Registry) error {
	if reg == nil {
		return nil
	}
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	nreg := e.bld.BuildRegistry(reg)
	if nreg == nil {
		return ErrNilRegistry
	}
	old := e.st.Load()
	next := *old
	next.reg = nreg
	e.st.Store(&next)
	return nil
}

// Wait blocks until every goroutine started by the engine has returned.
// It may run concurrently with calls that start new goroutines, including
// ones started by goroutines it is waiting for.
func (e *Engine) Wait() {
	e.goMu.Lock()
	defer e.goMu.Unlock()
	for e.running > 0 {
		e.goDone.Wait()
	}
}

// spawn runs fn on a new goroutine tracked by Wait.
func (e *Engine) spawn(fn func()) {
	e.goMu.Lock()
	e.running++
	e.goMu.Unlock()

	go func() {
		defer func() {
			e.goMu.Lock()
			e.running--
			if e.running == 0 {
				e.goDone.Broadcast()
			}
			e.goMu.Unlock()
		}()
		fn()
	}()
}

// provider builds the provider of a from the current registry.
func (e *Engine) provider(a apis.Affiliate) (apis.Provider, error) {
	st := e.st.Load()
	p, ok := st.reg.Resolve(a, apis.ProviderDeps{
		Store:  e.store,
		Client: st.client,
		Flags:  e.flags,
		Native: e,
		Logger: e.logger,
	})
	if !ok {
		return nil, apis.MissingAffiliateService(a)
	}
	return p, nil
}

func (e *Engine) client() apis.Client {
	return e.st.Load().client
}

// load returns the stored configuration or apis.ErrMissingConfiguration.
func (e *Engine) load(ctx context.Context) (apis.Configuration, error) {
	cfg, ok, err := e.store.Get(ctx)
	if err != nil {
		return apis.Configuration{}, err
	}
	if !ok {
		return apis.Configuration{}, apis.ErrMissingConfiguration
	}
	return cfg, nil
}

// update merges patch over the latest stored configuration and saves it.
// With create set, a missing record is started from the zero value.
func (e *Engine) update(ctx context.Context, patch apis.ConfigPatch, create bool) (apis.Configuration, error) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	old, ok, err := e.store.Get(ctx)
	if err != nil {
		return apis.Configuration{}, err
	}
	if !ok && !create {
		return apis.Configuration{}, apis.ErrMissingConfiguration
	}
	next := config.Merge(old, patch)
	if err := e.store.Save(ctx, next); err != nil {
		return apis.Configuration{}, err
	}
	return next, nil
}

func (e *Engine) dispatch(fn func()) {
	e.dispatcher.Dispatch(fn)
}

type nopDelegate struct{}

func (nopDelegate) OnDeferredLinkReceived(apis.LinkDataResponse) {}
func (nopDelegate) OnResolutionFailed(apis.ResolutionFailure)    {}
func (nopDelegate) OnTestEvent(string)                           {}
