// Package nn defines the opaque neural-network evaluator the classification stage
// consumes, a reference feed-forward implementation, and the per-worker handle cache.
package nn

import (
	"fmt"
	"sync"
)

// Evaluator scores one feature vector. Implementations must be synchronous and free
// of side effects per call; a handle may be reused by one worker for many pixels.
type Evaluator interface {
	Evaluate(features []float64) ([]float64, error)
}

// Func adapts a plain function to Evaluator.
type Func func(features []float64) ([]float64, error)

// Evaluate implements Evaluator.
func (f Func) Evaluate(features []float64) ([]float64, error) { return f(features) }

// Factory constructs an evaluator handle. It may be expensive.
type Factory func() (Evaluator, error)

// Cache hands out one lazily built evaluator per worker. A handle is built once
// per worker id and never replaced.
type Cache struct {
	factory Factory

	mu      sync.Mutex
	handles map[int]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	eval Evaluator
	err  error
}

// NewCache returns a cache around factory.
func NewCache(factory Factory) *Cache {
	return &Cache{factory: factory, handles: make(map[int]*cacheEntry)}
}

// Get returns the handle for worker, building it on first use.
func (c *Cache) Get(worker int) (Evaluator, error) {
	c.mu.Lock()
	e, ok := c.handles[worker]
	if !ok {
		e = &cacheEntry{}
		c.handles[worker] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.eval, e.err = c.factory()
		if e.err != nil {
			e.err = fmt.Errorf("building evaluator for worker %d: %w", worker, e.err)
		}
	})
	return e.eval, e.err
}

// Len returns how many worker handles were requested so far.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}
