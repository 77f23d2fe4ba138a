// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/Aytsuu/Skwela/internal/auth"
	"github.com/Aytsuu/Skwela/internal/observability"
	"github.com/Aytsuu/Skwela/pkg/errutil"
)

// Dispatcher defaults.
const (
	DefaultWorkers     = 4
	DefaultQueueSize   = 256
	DefaultSendTimeout = 30 * time.Second
)

// Recorder counts delivery outcomes. *observability.Metrics implements it.
type Recorder interface {
	RecordOTPDispatch(result string)
}

type job struct {
	email string
	code  string
}

// Dispatcher hands verification codes to a sink on a fixed pool of workers.
// SendOTP only enqueues, so a slow mail server never holds up a request.
type Dispatcher struct {
	sink     auth.Notifier
	jobs     chan job
	workers  int
	timeout  time.Duration
	logger   *slog.Logger
	recorder Recorder

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets the number of delivery goroutines.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets how many codes may wait for a worker.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan job, n)
		}
	}
}

// WithSendTimeout bounds each delivery.
func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDispatchLogger sets the logger. Defaults to slog.Default().
func WithDispatchLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder counts each delivery outcome.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// NewDispatcher starts the worker pool in front of sink.
func NewDispatcher(sink auth.Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		jobs:    make(chan job, DefaultQueueSize),
		workers: DefaultWorkers,
		timeout: DefaultSendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(d.workers)
	for range d.workers {
		go d.run()
	}
	return d
}

// SendOTP queues the code for delivery and returns immediately.
// The request context is not carried into delivery.
func (d *Dispatcher) SendOTP(_ context.Context, email, code string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return oops.Code("NOTIFY_CLOSED").Errorf("dispatcher is closed")
	}
	select {
	case d.jobs <- job{email: email, code: code}:
		return nil
	default:
		d.record(observability.ResultDropped)
		return oops.Code("NOTIFY_QUEUE_FULL").
			With("capacity", cap(d.jobs)).
			Errorf("notification queue is full")
	}
}

// Close stops accepting codes and waits for queued ones to be delivered.
// If ctx ends first, the workers keep draining in the background.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return oops.Code("NOTIFY_DRAIN_TIMEOUT").
			With("pending", len(d.jobs)).
			Wrap(ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.SendOTP(ctx, j.email, j.code); err != nil {
		d.record(observability.ResultFailure)
		errutil.LogErrorContext(ctx, d.logger, "verification code delivery failed", err)
		return
	}
	d.record(observability.ResultSuccess)
	d.logger.DebugContext(ctx, "verification code delivered")
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.RecordOTPDispatch(result)
	}
}

// Compile-time interface check.
var _ auth.Notifier = (*Dispatcher)(nil)
