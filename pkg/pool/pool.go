package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// job is handed to a worker: either evaluate f once at index i, or keep evaluating
// f until the shared counter of missing results drops to zero.
type job struct {
	search  bool
	i       int
	f       func(int) any
	results []any
	// missing counts the results that still need to be produced.
	missing *int64
	done    *sync.WaitGroup
}

func (j job) run() {
	if !j.search {
		j.results[j.i] = j.f(j.i)
		j.done.Done()
		return
	}
	for atomic.LoadInt64(j.missing) > 0 {
		res := j.f(0)
		if res == nil {
			continue
		}
		slot := atomic.AddInt64(j.missing, -1)
		if slot < 0 {
			break
		}
		j.results[slot] = res
		j.done.Done()
	}
}

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	jobs        chan job
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		jobs:        make(chan job),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go func() {
			for j := range p.jobs {
				j.run()
			}
		}()
	}
	return p
}

// TearDown stops the workers. The pool must not be used afterwards.
func (p *Pool) TearDown() {
	if p == nil {
		return
	}
	close(p.jobs)
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful.
//
// The result will be a slice containing the first count successes.
func (p *Pool) Search(count int, f func() any) []any {
	results := make([]any, count)
	if p == nil {
		for i := range results {
			for results[i] == nil {
				results[i] = f()
			}
		}
		return results
	}

	var done sync.WaitGroup
	done.Add(count)
	missing := int64(count)
	j := job{
		search:  true,
		f:       func(int) any { return f() },
		results: results,
		missing: &missing,
		done:    &done,
	}
	for i := 0; i < p.workerCount; i++ {
		p.jobs <- j
	}
	done.Wait()
	return results
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
func (p *Pool) Parallelize(count int, f func(int) any) []any {
	results := make([]any, count)
	if p == nil {
		for i := range results {
			results[i] = f(i)
		}
		return results
	}

	var done sync.WaitGroup
	done.Add(count)
	for i := 0; i < count; i++ {
		p.jobs <- job{i: i, f: f, results: results, done: &done}
	}
	done.Wait()
	return results
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader.
//
// When called concurrently, which caller gets which bytes is raced, but no two
// callers ever observe the same bytes.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
