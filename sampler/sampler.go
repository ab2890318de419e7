// Package sampler evaluates turbulence fields over many positions using a
// persistent worker pool.
package sampler

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/turbulence/turbulence"
)

// parallelThreshold is the minimum position count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// job is one Sample call shared by every chunk.
type job struct {
	field     turbulence.Field
	positions []r3.Vec
	t         float64
	out       []float64
}

// workChunk represents a range of positions for a worker to process.
type workChunk struct {
	start, end int
	job        *job
}

// Sampler evaluates a field at many positions for one time at a time.
// Sample is not safe for concurrent use; Close stops the workers.
type Sampler struct {
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan error     // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// New returns a sampler with the given worker count; workers <= 0 uses
// GOMAXPROCS. Workers start on the first parallel Sample.
func New(workers int) *Sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{numWorkers: workers}
}

// Workers returns the worker count.
func (s *Sampler) Workers() int { return s.numWorkers }

// Sample returns field values at positions for time t, in input order.
//
// Every turbulence point is extended to cover t before the parallel phase,
// so workers only take read locks.
func (s *Sampler) Sample(field turbulence.Field, positions []r3.Vec, t float64) ([]float64, error) {
	if err := field.Extend(t); err != nil {
		return nil, err
	}

	n := len(positions)
	j := &job{field: field, positions: positions, t: t, out: make([]float64, n)}
	if n == 0 {
		return j.out, nil
	}

	if n < parallelThreshold || s.numWorkers == 1 {
		if err := computeChunk(j, 0, n); err != nil {
			return nil, err
		}
		return j.out, nil
	}
	if err := s.computeParallel(j, n); err != nil {
		return nil, err
	}
	return j.out, nil
}

// computeParallel dispatches work to the worker pool.
func (s *Sampler) computeParallel(j *job, n int) error {
	if !s.running {
		s.startWorkers()
	}

	chunkSize := (n + s.numWorkers - 1) / s.numWorkers

	chunksDispatched := 0
	for w := 0; w < s.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		s.workChan <- workChunk{start: start, end: end, job: j}
		chunksDispatched++
	}

	// Wait for every chunk even after a failure so no worker still writes
	// into j.out once we return.
	var first error
	for i := 0; i < chunksDispatched; i++ {
		if err := <-s.doneChan; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// startWorkers launches persistent worker goroutines.
func (s *Sampler) startWorkers() {
	s.workChan = make(chan workChunk, s.numWorkers)
	s.doneChan = make(chan error, s.numWorkers)
	s.stopChan = make(chan struct{})
	s.running = true

	for i := 0; i < s.numWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// Close signals all workers to exit and waits for them.
func (s *Sampler) Close() {
	if !s.running {
		return
	}

	close(s.stopChan)
	s.wg.Wait()
	close(s.workChan)
	close(s.doneChan)
	s.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (s *Sampler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case chunk, ok := <-s.workChan:
			if !ok {
				return
			}
			s.doneChan <- computeChunk(chunk.job, chunk.start, chunk.end)
		}
	}
}

func computeChunk(j *job, i0, i1 int) error {
	for i := i0; i < i1; i++ {
		v, err := j.field.GetVal(j.positions[i], j.t)
		if err != nil {
			return err
		}
		j.out[i] = v
	}
	return nil
}
