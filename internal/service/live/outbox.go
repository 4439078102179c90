package live

import (
	"fmt"
	"sync"

	"nirmana-assistant/internal/observability/metrics"
)

// QueuePolicy decides what Push does when the outbound queue is full.
type QueuePolicy string

const (
	// PolicyDropOldest discards the oldest queued frame to admit the new one.
	PolicyDropOldest QueuePolicy = "drop-oldest"
	// PolicyBlock makes Push wait for room.
	PolicyBlock QueuePolicy = "block"
)

// ParseQueuePolicy validates a policy name. Empty selects PolicyDropOldest.
func ParseQueuePolicy(s string) (QueuePolicy, error) {
	switch QueuePolicy(s) {
	case "", PolicyDropOldest:
		return PolicyDropOldest, nil
	case PolicyBlock:
		return PolicyBlock, nil
	default:
		return "", fmt.Errorf("unknown queue policy %q", s)
	}
}

// QueueConfig bounds the outbound frame queue.
type QueueConfig struct {
	Size   int
	Policy QueuePolicy
}

// DefaultQueueConfig holds about four seconds of 16 kHz capture.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{Size: 16, Policy: PolicyDropOldest}
}

// Outbox is a bounded FIFO of capture frames drained by a single writer
// goroutine, so frames reach the wire in the order they were pushed.
type Outbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	frames  [][]int16
	size    int
	policy  QueuePolicy
	closed  bool
	dropped int

	send    func([]int16) error
	onError func(error)
	done    chan struct{}
	metrics *metrics.Metrics
}

// NewOutbox starts the writer goroutine. send is called for every frame in
// order; the first send error closes the outbox and is passed to onError.
func NewOutbox(cfg QueueConfig, send func([]int16) error, onError func(error)) *Outbox {
	if cfg.Size <= 0 {
		cfg.Size = DefaultQueueConfig().Size
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyDropOldest
	}
	o := &Outbox{
		size:    cfg.Size,
		policy:  cfg.Policy,
		send:    send,
		onError: onError,
		done:    make(chan struct{}),
		metrics: metrics.DefaultMetrics,
	}
	o.cond = sync.NewCond(&o.mu)
	go o.run()
	return o
}

// Push enqueues a frame. It returns ErrSessionClosed once the outbox is closed.
func (o *Outbox) Push(frame []int16) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrSessionClosed
	}
	for len(o.frames) >= o.size {
		if o.policy == PolicyDropOldest {
			o.frames = o.frames[1:]
			o.dropped++
			o.metrics.RecordFramesDropped(1)
			break
		}
		o.cond.Wait()
		if o.closed {
			return ErrSessionClosed
		}
	}
	o.frames = append(o.frames, frame)
	o.cond.Broadcast()
	return nil
}

// Dropped returns how many frames were discarded by PolicyDropOldest.
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Close discards queued frames and stops the writer. It does not wait for an
// in-flight send.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.frames = nil
	o.cond.Broadcast()
	o.mu.Unlock()
}

// Done is closed when the writer goroutine exits.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

func (o *Outbox) run() {
	defer close(o.done)
	for {
		o.mu.Lock()
		for len(o.frames) == 0 && !o.closed {
			o.cond.Wait()
		}
		if o.closed {
			o.mu.Unlock()
			return
		}
		frame := o.frames[0]
		o.frames = o.frames[1:]
		o.cond.Broadcast()
		o.mu.Unlock()

		if err := o.send(frame); err != nil {
			o.Close()
			if o.onError != nil {
				o.onError(err)
			}
			return
		}
		o.metrics.RecordFrameSent(len(frame) * 2)
	}
}
