// Package pool is a bounded worker pool over an enumerable batch of
// units of work.
//
// Each unit yields a value or an error; failures are collected, not
// propagated, so one failing unit never cancels its siblings. Wait is
// the single barrier for "all dispatched units observed".
package pool

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped marks units dispatched after Stop. They are recorded in the
// results but never run.
var ErrStopped = errors.New("pool is stopped; unit not dispatched")

// Result is the outcome of one unit of work.
type Result[T any] struct {
	// Name identifies the unit, like a modality or tag name.
	Name string

	Value T

	Err error
}

type Pool[T any] struct {
	sem chan struct{}
	wg  sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	results []Result[T]
}

// New creates a pool running at most width units concurrently.
func New[T any](width int) *Pool[T] {
	if width < 1 {
		width = 1
	}
	return &Pool[T]{sem: make(chan struct{}, width)}
}

// Go dispatches one unit of work. It does not block; the unit starts
// when a worker slot frees up. After Stop, the unit is recorded as
// failed with ErrStopped instead of running.
func (p *Pool[T]) Go(ctx context.Context, name string, unit func(context.Context) (T, error)) {
	p.mu.Lock()
	if p.stopped {
		p.results = append(p.results, Result[T]{Name: name, Err: ErrStopped})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			p.record(Result[T]{Name: name, Err: ctx.Err()})
			return
		}

		value, err := unit(ctx)
		p.record(Result[T]{Name: name, Value: value, Err: err})
	}()
}

// Stop prevents further dispatching. Units already dispatched run to
// completion.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

// Wait blocks until every dispatched unit has been observed and returns
// all results, failed units included.
func (p *Pool[T]) Wait() []Result[T] {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]Result[T], len(p.results))
	copy(results, p.results)
	return results
}

func (p *Pool[T]) record(r Result[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
}

// Failed picks the failed subset of results.
func Failed[T any](results []Result[T]) []Result[T] {
	failed := []Result[T]{}
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
