package wssingestor

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	validation "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Validation"
)

// Feedback is published to a gateway when one of its readings is refused.
type Feedback struct {
	ErrorType string                `json:"error_type"`
	Message   string                `json:"message"`
	GatewayID string                `json:"gateway_id"`
	Timestamp time.Time             `json:"timestamp"`
	Details   validation.Violations `json:"details,omitempty"`
}

// ErrorTopic is where feedback for a gateway is published
func ErrorTopic(gatewayID string) string {
	return "gateways/" + gatewayID + "/errors"
}

func subscriptionTopic(topic, sharedGroup string) string {
	if sharedGroup == "" {
		return topic
	}
	return "$share/" + sharedGroup + "/" + topic
}

func (i *Ingestor) connect() error {
	mc := i.cfg.MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.GetMQTTBrokerURL()).
		SetClientID(mc.ClientID).
		SetKeepAlive(mc.KeepAlive).
		SetPingTimeout(mc.PingTimeout).
		SetCleanSession(false).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			i.log.Error().Err(err).Msg("Lost connection to MQTT broker")
		}).
		SetOnConnectHandler(i.subscribe)

	if mc.BrokerUser != "" {
		opts.SetUsername(mc.BrokerUser).SetPassword(mc.BrokerPass)
	}
	if mc.UseTLS {
		tlsCfg, err := loadTLSConfig(mc.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	i.broker = mqtt.NewClient(opts)
	token := i.broker.Connect()
	token.Wait()
	return errors.Wrap(token.Error(), "failed to connect to MQTT broker")
}

func (i *Ingestor) subscribe(c mqtt.Client) {
	topic := subscriptionTopic(i.cfg.MQTT.Topic, i.cfg.MQTT.SharedGroup)
	token := c.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
		i.handleMessage(m.Topic(), m.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		i.log.Error().Err(err).Str("topic", topic).Msg("Subscription failed")
		return
	}
	i.log.Info().Str("topic", topic).Msg("Subscribed to gateway readings")
}

func loadTLSConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read broker CA file")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.Errorf("no certificates found in %s", caFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// sendFeedback publishes f to the gateway's error topic. It is a no-op while
// the broker is unreachable.
func (i *Ingestor) sendFeedback(gatewayID, errorType, message string, details validation.Violations) {
	if !i.IsConnected() {
		return
	}

	body, err := json.Marshal(Feedback{
		ErrorType: errorType,
		Message:   message,
		GatewayID: gatewayID,
		Timestamp: i.now().UTC(),
		Details:   details,
	})
	if err != nil {
		i.log.Error().Err(err).Msg("Failed to encode feedback")
		return
	}

	topic := ErrorTopic(gatewayID)
	token := i.broker.Publish(topic, 1, false, body)
	token.Wait()
	if err := token.Error(); err != nil {
		i.log.Error().Err(err).Str("topic", topic).Msg("Failed to publish feedback")
		return
	}
	i.log.Info().Str("topic", topic).Str("error_type", errorType).Msg("Published feedback")
}
