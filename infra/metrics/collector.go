package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/posched/core/metrics"
	"github.com/kilianp07/posched/infra/logger"
	"github.com/kilianp07/posched/internal/eventbus"
)

// StartProgressCollector subscribes to the progress bus and forwards events to
// sinks implementing ProgressRecorder. It stops when the context is canceled
// or the bus is closed. The returned channel closes once the collector exits.
func StartProgressCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.ProgressEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.ProgressRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := rec.RecordProgress(ev); err != nil {
					log.Warnf("record progress: %v", err)
				}
			}
		}
	}()
	return done
}
