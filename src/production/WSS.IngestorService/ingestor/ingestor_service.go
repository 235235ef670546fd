package wssingestor

import (
	"context"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	validation "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Validation"
)

const (
	unknownGateway = "unknown"
	queueCapacity  = 4096
	// finalFlushTimeout bounds delivery of what is left when the bridge stops.
	finalFlushTimeout = 10 * time.Second
)

// ReadingSink delivers validated readings to the API service
type ReadingSink interface {
	CreateReading(ctx context.Context, reading wssmodels.SensorReading) (string, error)
}

type queuedReading struct {
	gatewayID string
	reading   wssmodels.SensorReading
}

// Ingestor subscribes to gateway topics, validates every payload and
// forwards accepted readings to the API service in batches. Gateways get
// feedback on their error topic when a payload is refused.
type Ingestor struct {
	cfg    *config.IngestorConfig
	sink   ReadingSink
	broker mqtt.Client
	queue  chan queuedReading
	done   chan struct{}
	log    zerolog.Logger
	now    func() time.Time

	writers  sync.WaitGroup
	stopOnce sync.Once
}

func New(cfg *config.IngestorConfig, sink ReadingSink, log *logger.Logger) *Ingestor {
	return &Ingestor{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan queuedReading, queueCapacity),
		done:  make(chan struct{}),
		log:   *log.WithComponent("ingestor").Logger,
		now:   time.Now,
	}
}

// Start connects to the broker and starts forwarding. Subscriptions are
// renewed on every reconnect.
func (i *Ingestor) Start(ctx context.Context) error {
	if err := i.connect(); err != nil {
		return err
	}
	i.startBatchWriter(ctx)
	return nil
}

// Stop disconnects from the broker and forwards whatever is still queued.
// Messages arriving afterwards are dropped.
func (i *Ingestor) Stop() {
	i.stopOnce.Do(func() {
		if i.broker != nil {
			i.broker.Disconnect(500)
		}
		close(i.done)
		i.writers.Wait()
	})
}

func (i *Ingestor) IsConnected() bool {
	return i.broker != nil && i.broker.IsConnected()
}

func (i *Ingestor) handleMessage(topic string, payload []byte) {
	gatewayID := GatewayFromTopic(i.cfg.MQTT.Topic, topic)
	i.log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("Received MQTT message")

	reading, err := PrepareReading(gatewayID, payload, i.now())
	if gatewayID == "" {
		gatewayID = unknownGateway
	}
	if err != nil {
		violations, _ := validation.AsViolations(err)
		i.log.Warn().
			Str("topic", topic).
			Str("gateway_id", gatewayID).
			Int("violations", len(violations)).
			Msg("Discarding invalid reading")
		i.sendFeedback(gatewayID, "invalid_reading", "Validation failed", violations)
		return
	}

	i.enqueue(queuedReading{gatewayID: gatewayID, reading: reading})
}

func (i *Ingestor) enqueue(item queuedReading) {
	select {
	case <-i.done:
		i.log.Warn().Str("gateway_id", item.gatewayID).Msg("Bridge stopped, dropping reading")
		return
	default:
	}

	select {
	case i.queue <- item:
	case <-i.done:
		i.log.Warn().Str("gateway_id", item.gatewayID).Msg("Bridge stopped, dropping reading")
	}
}

// GatewayFromTopic returns the topic level matched by the first single-level
// wildcard of pattern, or "" when topic does not match pattern.
func GatewayFromTopic(pattern, topic string) string {
	want := strings.Split(pattern, "/")
	got := strings.Split(topic, "/")

	gatewayID := ""
	for idx, level := range want {
		if level == "#" {
			return gatewayID
		}
		if idx >= len(got) {
			return ""
		}
		if level == "+" {
			if gatewayID == "" {
				gatewayID = got[idx]
			}
			continue
		}
		if level != got[idx] {
			return ""
		}
	}
	if len(got) != len(want) {
		return ""
	}
	return gatewayID
}

// PrepareReading decodes and validates an MQTT payload. gateway_id falls back
// to the id taken from the topic and received_at to the bridge receipt time.
func PrepareReading(gatewayID string, payload []byte, receivedAt time.Time) (wssmodels.SensorReading, error) {
	raw, err := validation.DecodeObject(payload)
	if err != nil {
		return wssmodels.SensorReading{}, err
	}

	if _, ok := raw["gateway_id"]; !ok && gatewayID != "" {
		raw["gateway_id"] = gatewayID
	}
	if _, ok := raw["received_at"]; !ok {
		raw["received_at"] = receivedAt.UnixMilli()
	}

	return validation.ParseReading(raw)
}
