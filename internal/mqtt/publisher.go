package mqtt

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/model"
)

// SchedulePublisher pushes refreshed prayer schedules to device-specific
// topics so a powered-on screen repaints without polling.
type SchedulePublisher struct {
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewSchedulePublisher connects to the broker. The returned publisher is
// safe for concurrent use; paho serializes publishes internally.
func NewSchedulePublisher(brokerURL, clientID string) (*SchedulePublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect to broker: %w", token.Error())
	}
	return &SchedulePublisher{client: client}, nil
}

// PublishSchedule sends the schedule JSON to screens/{device_id}/athan.
func (p *SchedulePublisher) PublishSchedule(deviceID string, sched model.Schedule) error {
	payload, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("mqtt: marshal schedule: %w", err)
	}

	topic := fmt.Sprintf("screens/%s/athan", deviceID)
	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", topic, token.Error())
	}

	log.Debug().Str("topic", topic).Msg("published schedule update")
	return nil
}

// Close disconnects from the broker.
func (p *SchedulePublisher) Close() {
	p.client.Disconnect(250)
}
