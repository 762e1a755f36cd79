// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package manager implements the asynchronous evaluation pipeline's
// concurrency core: a bounded worker pool that accepts evaluation requests
// without blocking the caller, drives each through its lifecycle, and
// exposes synchronous query methods over the result store.
//
// Submit persists a PENDING record and enqueues the job; a fixed pool of
// workers claims jobs off a channel (the channel receive is the atomic
// dequeue-and-claim that enforces the single-writer invariant), runs
// context reconstruction and the metric engine, and writes the terminal
// COMPLETED or FAILED record. Close drains the queue and awaits in-flight
// work.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loanwise/agenteval/evaluation"
	"github.com/loanwise/agenteval/evaluation/scorer"
	"github.com/loanwise/agenteval/replay"
)

var tracer = otel.Tracer("github.com/loanwise/agenteval/evaluation/manager")

var (
	// ErrClosed indicates the manager is shutting down and no longer
	// accepts submissions.
	ErrClosed = errors.New("manager: closed")

	// ErrQueueFull indicates the job queue is at capacity. The caller may
	// retry; the manager never blocks a submission on in-flight work.
	ErrQueueFull = errors.New("manager: queue full")
)

// Config bounds the worker pool.
type Config struct {
	// Workers is the size of the worker pool. Zero defaults to 3.
	Workers int

	// QueueSize is the job queue capacity. Zero defaults to 64.
	QueueSize int

	// JobTimeout caps one evaluation end to end, guarding against a hung
	// worker. Zero defaults to 2 minutes.
	JobTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 3
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 2 * time.Minute
	}
}

// Manager owns the evaluation lifecycle. It is the sole writer of every
// record it creates; query methods return read-only snapshots.
type Manager struct {
	cfg     Config
	store   evaluation.Storage
	engine  *scorer.Engine
	recon   *replay.Reconstructor
	baseCtx context.Context

	queue chan *evaluation.Record
	wg    sync.WaitGroup

	mu     sync.Mutex
	seq    map[string]int    // sessionID -> last sequence number
	dedupe map[string]string // correlation key -> evaluation id
	closed bool
}

// New creates a manager and starts its worker pool. ctx is the base context
// for all background jobs: its logger is inherited and its cancellation
// aborts in-flight evaluations. recon may be nil when pre-supplied context
// is always expected.
func New(ctx context.Context, cfg Config, store evaluation.Storage, engine *scorer.Engine, recon *replay.Reconstructor) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		recon:   recon,
		baseCtx: ctx,
		queue:   make(chan *evaluation.Record, cfg.QueueSize),
		seq:     make(map[string]int),
		dedupe:  make(map[string]string),
	}
	for range cfg.Workers {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Submit accepts an evaluation request, persists a PENDING record, and
// enqueues the job. It returns the evaluation id immediately; it never
// waits on metric computation.
//
// Submissions that repeat an earlier (SessionID, InvocationID) pair are
// duplicates: the existing id is returned and no new record is created.
// Requests without an InvocationID are never deduplicated, since one
// session legitimately produces many turns.
func (m *Manager) Submit(ctx context.Context, req evaluation.Request) (string, error) {
	if req.AgentOutput == "" {
		return "", fmt.Errorf("%w: agent output must not be empty", evaluation.ErrInvalidInput)
	}
	if req.SessionID == "" {
		req.SessionID = "anon_" + uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}

	var key string
	if req.InvocationID != "" {
		key = req.SessionID + "\x00" + req.InvocationID
		if id, ok := m.dedupe[key]; ok {
			return id, nil
		}
	}

	// Capacity is checked before the insert so a full queue never leaves
	// an orphaned PENDING record behind. Workers only drain the queue, so
	// the send below cannot block.
	if len(m.queue) == cap(m.queue) {
		return "", ErrQueueFull
	}

	rec, err := m.createRecord(ctx, req)
	if err != nil {
		return "", err
	}

	if key != "" {
		m.dedupe[key] = rec.ID
	}
	m.queue <- rec
	return rec.ID, nil
}

// createRecord assigns the next id for the session and persists the
// PENDING record. Called with m.mu held.
func (m *Manager) createRecord(ctx context.Context, req evaluation.Request) (*evaluation.Record, error) {
	for {
		m.seq[req.SessionID]++
		rec := &evaluation.Record{
			ID:           fmt.Sprintf("eval_%s_%04d", req.SessionID, m.seq[req.SessionID]),
			SessionID:    req.SessionID,
			UserID:       req.UserID,
			InvocationID: req.InvocationID,
			UserInput:    req.UserInput,
			AgentOutput:  req.AgentOutput,
			ToolCalls:    req.ToolCalls,
			Context:      req.Context,
			Metadata:     req.Metadata,
			Status:       evaluation.StatusPending,
			CreatedAt:    time.Now(),
		}
		err := m.store.Insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		// A restarted manager resumes sequence numbering from whatever
		// the store already holds.
		if errors.Is(err, evaluation.ErrAlreadyExists) {
			continue
		}
		return nil, fmt.Errorf("manager: persisting pending record: %w", err)
	}
}

// worker claims jobs until the queue closes. The channel receive is the
// atomic dequeue-and-claim: each record is delivered to exactly one worker.
func (m *Manager) worker() {
	defer m.wg.Done()
	for rec := range m.queue {
		m.runJob(rec)
	}
}

func (m *Manager) runJob(rec *evaluation.Record) {
	ctx, cancel := context.WithTimeout(m.baseCtx, m.cfg.JobTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "evaluation.job", trace.WithAttributes(
		attribute.String("evaluation.id", rec.ID),
		attribute.String("evaluation.session_id", rec.SessionID),
	))
	defer span.End()

	log := clog.FromContext(ctx).With("evaluation_id", rec.ID)
	ctx = clog.WithLogger(ctx, log)

	started := time.Now()
	rec.Status = evaluation.StatusInProgress
	rec.StartedAt = &started
	if err := m.store.Update(ctx, rec); err != nil {
		m.failJob(rec, fmt.Errorf("persisting IN_PROGRESS: %w", err))
		return
	}

	// Reconstruction is skipped when the request pre-supplied its context
	// or the turn made no tool calls; absence of context is a normal
	// condition, not an error.
	if len(rec.Context) == 0 && len(rec.ToolCalls) > 0 && m.recon != nil {
		rec.Context = m.recon.Reconstruct(ctx, rec.ToolCalls)
	}

	results, err := m.engine.Run(ctx, scorer.Input{
		Question:  rec.UserInput,
		Answer:    rec.AgentOutput,
		Context:   rec.Context,
		ToolCalls: rec.ToolCalls,
		Metadata:  rec.Metadata,
	})
	if err != nil {
		m.failJob(rec, fmt.Errorf("job aborted: %w", err))
		return
	}

	rec.Scores = results
	rec.OverallPassed, rec.CriticalIssues = m.engine.Verdict(results)
	completed := time.Now()
	rec.CompletedAt = &completed
	rec.Status = evaluation.StatusCompleted

	if err := m.store.Update(ctx, rec); err != nil {
		m.failJob(rec, fmt.Errorf("persisting COMPLETED: %w", err))
		return
	}

	log.With("overall_passed", rec.OverallPassed,
		"critical_issues", len(rec.CriticalIssues),
		"duration", completed.Sub(started)).
		Info("evaluation completed")
}

// failJob transitions the record to FAILED. The write uses a fresh context
// because the job's own context may already be expired.
func (m *Manager) failJob(rec *evaluation.Record, cause error) {
	completed := time.Now()
	rec.Status = evaluation.StatusFailed
	rec.Error = cause.Error()
	rec.CompletedAt = &completed

	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.baseCtx), 10*time.Second)
	defer cancel()

	log := clog.FromContext(m.baseCtx).With("evaluation_id", rec.ID)
	if err := m.store.Update(ctx, rec); err != nil {
		log.Errorf("recording FAILED state: %v (original failure: %v)", err, cause)
		return
	}
	log.Errorf("evaluation failed: %v", cause)
}

// Close stops accepting submissions, drains the queue, and awaits in-flight
// jobs. It returns ctx.Err() if the drain does not finish in time.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetResult returns the record for an evaluation id. A non-terminal status
// means the evaluation is still in flight; that is not an error.
func (m *Manager) GetResult(ctx context.Context, id string) (*evaluation.Record, error) {
	return m.store.FindByID(ctx, id)
}

// ListBySession returns the session's records, newest first.
func (m *Manager) ListBySession(ctx context.Context, sessionID string, limit int) ([]evaluation.Record, error) {
	return m.store.FindBySession(ctx, sessionID, limit)
}
