package location

import (
	"context"
	"sync"
)

// SimulatedSource is a scripted Source for tests and brokerless runs. Samples
// pushed with Emit reach the active watch and any blocked Current call; a
// scripted error makes the next Current fail instead.
type SimulatedSource struct {
	mu         sync.Mutex
	nextErr    error
	current    *Sample
	watchers   map[uint64]*simWatch
	waiters    map[uint64]chan Sample
	nextID       uint64
	watchCalls   int
	currentCalls int
}

type simWatch struct {
	id       uint64
	source   *SimulatedSource
	onSample func(Sample)
	onErr    func(error)
	once     sync.Once
}

func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{
		watchers: make(map[uint64]*simWatch),
		waiters:  make(map[uint64]chan Sample),
	}
}

// FailNext makes the next Current call return err.
func (s *SimulatedSource) FailNext(err error) {
	s.mu.Lock()
	s.nextErr = err
	s.mu.Unlock()
}

// SetCurrent arms the fix returned by subsequent Current calls.
func (s *SimulatedSource) SetCurrent(sample Sample) {
	s.mu.Lock()
	s.current = &sample
	s.mu.Unlock()
}

// Emit delivers a sample to all watchers and pending one-shot reads.
func (s *SimulatedSource) Emit(sample Sample) {
	s.mu.Lock()
	watchers := make([]*simWatch, 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	waiters := make([]chan Sample, 0, len(s.waiters))
	for _, ch := range s.waiters {
		waiters = append(waiters, ch)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w.onSample(sample)
	}
	for _, ch := range waiters {
		select {
		case ch <- sample:
		default:
		}
	}
}

// EmitError delivers an error to all watchers.
func (s *SimulatedSource) EmitError(err error) {
	s.mu.Lock()
	watchers := make([]*simWatch, 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		if w.onErr != nil {
			w.onErr(err)
		}
	}
}

// ActiveWatches reports how many watches are currently running.
func (s *SimulatedSource) ActiveWatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// WatchCalls reports how many times Watch was invoked in total.
func (s *SimulatedSource) WatchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchCalls
}

// CurrentCalls reports how many times Current was invoked in total.
func (s *SimulatedSource) CurrentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCalls
}

func (s *SimulatedSource) Current(ctx context.Context, opts Options) (Sample, error) {
	ch := make(chan Sample, 1)

	s.mu.Lock()
	s.currentCalls++
	if err := s.nextErr; err != nil {
		s.nextErr = nil
		s.mu.Unlock()
		return Sample{}, err
	}
	if s.current != nil {
		sample := *s.current
		s.mu.Unlock()
		return sample, nil
	}
	s.nextID++
	id := s.nextID
	s.waiters[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.waiters, id)
		s.mu.Unlock()
	}()

	select {
	case sample := <-ch:
		return sample, nil
	case <-ctx.Done():
		return Sample{}, ErrTimeout
	}
}

func (s *SimulatedSource) Watch(onSample func(Sample), onErr func(error), opts Options) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchCalls++
	s.nextID++
	w := &simWatch{
		id:       s.nextID,
		source:   s,
		onSample: onSample,
		onErr:    onErr,
	}
	s.watchers[w.id] = w
	return w, nil
}

func (w *simWatch) Stop() {
	w.once.Do(func() {
		w.source.mu.Lock()
		delete(w.source.watchers, w.id)
		w.source.mu.Unlock()
	})
}
