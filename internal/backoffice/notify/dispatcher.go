package notify

import (
	"context"
	"sync"

	"backoffice/internal/backoffice/metrics"
	"backoffice/internal/common/notifyprotocol"
	"backoffice/pkg/logging"
	"backoffice/pkg/threadsafe"

	"go.uber.org/zap"
)

type Sink interface {
	Send(ctx context.Context, event notifyprotocol.Event) error
}

type DispatcherConfig struct {
	WorkersCount       int
	EventsBufferLength int
}

// Dispatcher fans events out to the sink from a worker pool. Publishing is
// non-blocking: when the buffer is full or an identical event is already in
// flight, the event is dropped and logged, never pushed back into the
// request path.
type Dispatcher struct {
	sink     Sink
	logger   *logging.ZapLogger
	events   chan notifyprotocol.Event
	inflight *threadsafe.HashSet[string]
	done     chan struct{}
	config   DispatcherConfig
}

func NewDispatcher(config DispatcherConfig, sink Sink, logger *logging.ZapLogger) *Dispatcher {
	if config.WorkersCount <= 0 {
		config.WorkersCount = 2
	}
	if config.EventsBufferLength <= 0 {
		config.EventsBufferLength = 64
	}
	return &Dispatcher{
		sink:     sink,
		logger:   logger,
		config:   config,
		events:   make(chan notifyprotocol.Event, config.EventsBufferLength),
		inflight: threadsafe.NewHashSet[string](),
		done:     make(chan struct{}),
	}
}

func (d *Dispatcher) Publish(event notifyprotocol.Event) {
	if !d.inflight.Add(event.Key()) {
		return
	}
	select {
	case d.events <- event:
	default:
		d.inflight.Remove(event.Key())
		metrics.RecordNotification("dropped")
		d.logger.WarnCtx(context.Background(), "notification buffer full, event dropped",
			zap.String("event", event.Key()),
		)
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	wg := sync.WaitGroup{}
	for i := 0; i < d.config.WorkersCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()
	close(d.done)
}

// Done closes after Run has drained its workers.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			if err := d.sink.Send(ctx, event); err != nil {
				metrics.RecordNotification("failed")
				d.logger.ErrorCtx(ctx, "failed to deliver notification",
					zap.String("event", event.Key()),
					zap.Error(err),
				)
			} else {
				metrics.RecordNotification("delivered")
			}
			d.inflight.Remove(event.Key())
		}
	}
}
