package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultQueueSize is the Recorder buffer used when none is configured.
const DefaultQueueSize = 256

// sinkTimeout bounds a single sink write.
const sinkTimeout = 5 * time.Second

// Recorder queues events and writes them to its sinks from one goroutine.
//
// Record never blocks: when the queue is full the event is dropped with a
// warning. Stop drains whatever is still queued.
//
// Thread Safety:
//   - Record is safe for concurrent use.
//   - Start and Stop must be called once each.
type Recorder struct {
	sinks  []Sink
	queue  chan *Event
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.RWMutex
	stopped bool
}

// RecorderOptions configures a Recorder. Zero values select defaults.
type RecorderOptions struct {
	QueueSize int
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewRecorder returns a Recorder writing to sinks. Nil sinks are skipped.
func NewRecorder(opts RecorderOptions, sinks ...Sink) *Recorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Recorder{
		queue:  make(chan *Event, opts.QueueSize),
		logger: opts.Logger,
		now:    opts.Now,
		done:   make(chan struct{}),
	}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// AddSink registers another sink. Call before Start.
func (r *Recorder) AddSink(s Sink) {
	if s != nil {
		r.sinks = append(r.sinks, s)
	}
}

// Start launches the writer goroutine. The writer keeps running until
// Stop, even after ctx is cancelled, so events recorded while the HTTP
// server drains are still written.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go r.drain(ctx)
}

// Stop stops accepting events, writes everything still queued, and waits
// for the writer to finish.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Record enqueues ev for asynchronous writing (best-effort).
func (r *Recorder) Record(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return
	}

	fillDefaults(&ev, r.now)

	select {
	case r.queue <- &ev:
	default:
		r.logger.Warn("audit queue full, dropping event",
			"action", ev.Action,
			"outcome", ev.Outcome,
		)
	}
}

func (r *Recorder) drain(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case ev := <-r.queue:
			r.write(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-r.queue:
					r.write(ev)
				default:
					return
				}
			}
		}
	}
}

// write fans ev out to every sink. A failing sink does not stop the others.
func (r *Recorder) write(ev *Event) {
	for _, s := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := s.Write(ctx, ev); err != nil {
			r.logger.Error("audit sink write failed",
				"action", ev.Action,
				"error", err,
			)
		}
		cancel()
	}
}
