// internal/notify/mqtt.go
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// MQTTNotifier publishes engine events so front ends can reflect playback
// changes in real time without polling. It implements engine.Notifier; a
// broker outage only costs the notification, never the tick.
type MQTTNotifier struct {
	client mqtt.Client
}

// playbackEvent is the wire shape published per trigger/stop.
type playbackEvent struct {
	Event       string    `json:"event"` // "started" | "stopped"
	ScheduleID  int       `json:"schedule_id"`
	Owner       string    `json:"owner"`
	PlaylistURI string    `json:"playlist_uri"`
	DeviceID    string    `json:"device_id"`
	At          time.Time `json:"at"`
}

// NewMQTTNotifier connects to the broker. brokerURL is e.g.
// "tcp://localhost:1883".
func NewMQTTNotifier(brokerURL, clientID string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	return &MQTTNotifier{client: client}, nil
}

func (n *MQTTNotifier) ScheduleStarted(s model.Schedule, at time.Time) {
	n.publish("started", s, at)
}

func (n *MQTTNotifier) ScheduleStopped(s model.Schedule, at time.Time) {
	n.publish("stopped", s, at)
}

func (n *MQTTNotifier) publish(event string, s model.Schedule, at time.Time) {
	payload, err := json.Marshal(playbackEvent{
		Event:       event,
		ScheduleID:  s.ID,
		Owner:       s.Owner,
		PlaylistURI: s.PlaylistURI,
		DeviceID:    s.DeviceID,
		At:          at.UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("could not encode playback event")
		return
	}

	topic := fmt.Sprintf("soundcue/users/%s/events", s.Owner)
	token := n.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", topic).Msg("could not publish playback event")
	}
}

// Close disconnects from the broker, allowing a short drain window.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
