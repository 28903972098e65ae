package server

import (
	"fmt"

	"github.com/chazu/kata/compiler"
)

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(units map[string]*compiler.Unit) any
	done chan workResult
}

// workResult holds the return value from a worker operation.
type workResult struct {
	value any
	err   error
}

// Worker serializes all access to the compiled units through a single
// goroutine. A unit's Scope is not safe for concurrent use, and LSP
// notifications and requests arrive on separate goroutines.
type Worker struct {
	units    map[string]*compiler.Unit
	requests chan workRequest
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		units:    make(map[string]*compiler.Unit),
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn against the unit table, recovering from panics.
func (w *Worker) execute(fn func(map[string]*compiler.Unit) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.units)
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(units map[string]*compiler.Unit) any) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, fmt.Errorf("worker stopped")
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, fmt.Errorf("worker stopped")
	}
}

// Unit runs fn with the unit compiled for uri, or returns nil when the
// document is not open.
func (w *Worker) Unit(uri string, fn func(*compiler.Unit) any) (any, error) {
	return w.Do(func(units map[string]*compiler.Unit) any {
		unit, ok := units[uri]
		if !ok {
			return nil
		}
		return fn(unit)
	})
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}
