package wssingestor

import (
	"context"
	"errors"
	"time"

	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.IngestorService/client"
	validation "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Validation"
)

func (i *Ingestor) startBatchWriter(ctx context.Context) {
	i.writers.Add(1)
	go func() {
		defer i.writers.Done()
		i.runBatches(ctx)
	}()
}

// runBatches forwards a batch once it is full or its window, counted from
// its first reading, has elapsed. When the bridge stops or ctx ends, the
// queue is drained and everything pending is forwarded under a fresh
// deadline.
func (i *Ingestor) runBatches(ctx context.Context) {
	var (
		pending  = make([]queuedReading, 0, i.cfg.Batch.Size)
		window   *time.Timer
		deadline <-chan time.Time
	)

	forward := func(deliverCtx context.Context) {
		if window != nil {
			window.Stop()
			window, deadline = nil, nil
		}
		if len(pending) > 0 {
			i.deliver(deliverCtx, pending)
			pending = pending[:0]
		}
	}

	for {
		select {
		case <-ctx.Done():
		case <-i.done:
		case <-deadline:
			forward(ctx)
			continue
		case item := <-i.queue:
			pending = append(pending, item)
			if len(pending) == 1 {
				window = time.NewTimer(i.cfg.Batch.Window)
				deadline = window.C
			}
			if len(pending) >= i.cfg.Batch.Size {
				forward(ctx)
			}
			continue
		}

		drained := i.drainQueue()
		if len(drained) > 0 {
			i.log.Info().Int("drained", len(drained)).Msg("Forwarding readings still queued at shutdown")
			pending = append(pending, drained...)
		}

		flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
		forward(flushCtx)
		cancel()
		return
	}
}

// drainQueue empties the queue without blocking.
func (i *Ingestor) drainQueue() []queuedReading {
	var drained []queuedReading
	for {
		select {
		case item := <-i.queue:
			drained = append(drained, item)
		default:
			return drained
		}
	}
}

func (i *Ingestor) deliver(ctx context.Context, batch []queuedReading) {
	i.log.Info().Int("batch_size", len(batch)).Msg("Forwarding batch to API service")

	failed := 0
	for _, item := range batch {
		id, err := i.sink.CreateReading(ctx, item.reading)
		if err != nil {
			failed++
			i.reportDeliveryError(item, err)
			continue
		}
		i.log.Debug().Str("id", id).Str("wall_id", item.reading.WallID).Msg("Reading delivered")
	}

	i.log.Info().Int("delivered", len(batch)-failed).Int("failed", failed).Msg("Batch forwarded")
}

// reportDeliveryError tells the gateway whether the API refused the reading
// or could not be reached.
func (i *Ingestor) reportDeliveryError(item queuedReading, err error) {
	event := i.log.Error()
	var rejected *client.RejectedError
	if errors.As(err, &rejected) {
		event = i.log.Warn()
	}
	event.Err(err).Str("gateway_id", item.gatewayID).Str("wall_id", item.reading.WallID).Msg("Reading not stored")

	if rejected == nil {
		i.sendFeedback(item.gatewayID, "delivery_failed", "Failed to save sensor data", nil)
		return
	}

	details := make(validation.Violations, 0, len(rejected.Details))
	for _, d := range rejected.Details {
		details = append(details, validation.Violation{Path: d.Path, Message: d.Message})
	}
	i.sendFeedback(item.gatewayID, "rejected_reading", rejected.Message, details)
}
