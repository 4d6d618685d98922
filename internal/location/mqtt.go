package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"beacon-tracker/internal/logger"
	pkgmqtt "beacon-tracker/pkg/mqtt"
)

// MQTTSource reads position samples published by beacon hardware on an MQTT
// topic. The broker subscription is held only while at least one watch or
// one-shot read is outstanding, so an idle source costs the broker nothing.
type MQTTSource struct {
	client *pkgmqtt.Client
	topic  string
	qos    byte

	mu         sync.Mutex
	subscribed bool
	nextID     uint64
	watchers   map[uint64]*mqttWatch
	waiters    map[uint64]chan Sample
}

type mqttWatch struct {
	id       uint64
	source   *MQTTSource
	onSample func(Sample)
	onErr    func(error)
	opts     Options
	once     sync.Once
}

func NewMQTTSource(client *pkgmqtt.Client, topic string, qos byte) *MQTTSource {
	return &MQTTSource{
		client:   client,
		topic:    topic,
		qos:      qos,
		watchers: make(map[uint64]*mqttWatch),
		waiters:  make(map[uint64]chan Sample),
	}
}

// Current blocks until the beacon publishes a sufficiently fresh sample, the
// per-call timeout elapses, or ctx is cancelled.
func (s *MQTTSource) Current(ctx context.Context, opts Options) (Sample, error) {
	ch := make(chan Sample, 1)

	s.mu.Lock()
	if err := s.ensureSubscribedLocked(); err != nil {
		s.mu.Unlock()
		return Sample{}, err
	}
	s.nextID++
	id := s.nextID
	s.waiters[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.waiters, id)
		s.releaseIfIdleLocked()
		s.mu.Unlock()
	}()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case sample := <-ch:
			if opts.MaxSampleAge > 0 && time.Since(sample.RecordedAt) > opts.MaxSampleAge {
				continue
			}
			return sample, nil
		case <-timer.C:
			return Sample{}, ErrTimeout
		case <-ctx.Done():
			return Sample{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, ctx.Err())
		}
	}
}

// Watch delivers every fresh sample to onSample until the handle is stopped.
func (s *MQTTSource) Watch(onSample func(Sample), onErr func(error), opts Options) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSubscribedLocked(); err != nil {
		return nil, err
	}

	s.nextID++
	w := &mqttWatch{
		id:       s.nextID,
		source:   s,
		onSample: onSample,
		onErr:    onErr,
		opts:     opts,
	}
	s.watchers[w.id] = w
	return w, nil
}

func (w *mqttWatch) Stop() {
	w.once.Do(func() {
		w.source.mu.Lock()
		delete(w.source.watchers, w.id)
		w.source.releaseIfIdleLocked()
		w.source.mu.Unlock()
	})
}

func (s *MQTTSource) ensureSubscribedLocked() error {
	if s.subscribed {
		return nil
	}
	if err := s.client.Subscribe(s.topic, s.qos, s.handleMessage); err != nil {
		return fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	s.subscribed = true
	return nil
}

// releaseIfIdleLocked drops the broker subscription once nothing consumes it.
func (s *MQTTSource) releaseIfIdleLocked() {
	if !s.subscribed || len(s.watchers) > 0 || len(s.waiters) > 0 {
		return
	}
	if err := s.client.Unsubscribe(s.topic); err != nil {
		logger.Warn("failed to unsubscribe location topic",
			zap.String("topic", s.topic), zap.Error(err))
	}
	s.subscribed = false
}

func (s *MQTTSource) handleMessage(topic string, payload []byte) {
	sample, err := ParseSample(payload)

	s.mu.Lock()
	watchers := make([]*mqttWatch, 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	waiters := make([]chan Sample, 0, len(s.waiters))
	if err == nil {
		for _, ch := range s.waiters {
			waiters = append(waiters, ch)
		}
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warn("dropping invalid location payload",
			zap.String("topic", topic), zap.Error(err))
		for _, w := range watchers {
			if w.onErr != nil {
				w.onErr(err)
			}
		}
		return
	}

	for _, w := range watchers {
		if w.opts.MaxSampleAge > 0 && time.Since(sample.RecordedAt) > w.opts.MaxSampleAge {
			continue
		}
		w.onSample(sample)
	}
	for _, ch := range waiters {
		select {
		case ch <- sample:
		default:
		}
	}
}
