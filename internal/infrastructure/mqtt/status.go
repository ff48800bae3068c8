package mqtt

import (
	"encoding/json"

	"github.com/lumacue/lumacue-core/internal/player"
)

// StatusPublisher forwards playback status changes to the broker. It
// satisfies player.Broadcaster, publishing each change retained on the
// playback status topic.
type StatusPublisher struct {
	client *Client
	logger Logger
}

// NewStatusPublisher creates a publisher over an established client.
// logger may be nil.
func NewStatusPublisher(client *Client, logger Logger) *StatusPublisher {
	return &StatusPublisher{client: client, logger: logger}
}

// BroadcastPlayback publishes the status retained. Publish failures are
// logged and dropped; playback never blocks on the broker.
func (p *StatusPublisher) BroadcastPlayback(status player.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("marshalling playback status", "error", err)
		}
		return
	}
	if err := p.client.PublishRetained(Topics{}.Playback(), payload); err != nil {
		if p.logger != nil {
			p.logger.Warn("publishing playback status", "error", err)
		}
	}
}

// advancePayload is the body of a playlist advance notification.
type advancePayload struct {
	SequenceID string `json:"sequence_id"`
}

// NotifyAdvance publishes a playlist advance event, not retained: it is
// a moment in time, not state. Satisfies trigger.Notifier.
func (p *StatusPublisher) NotifyAdvance(sequenceID string) {
	payload, err := json.Marshal(advancePayload{SequenceID: sequenceID})
	if err != nil {
		if p.logger != nil {
			p.logger.Error("marshalling advance notification", "error", err)
		}
		return
	}
	if err := p.client.Publish(Topics{}.Trigger(), payload, byte(p.client.cfg.QoS), false); err != nil {
		if p.logger != nil {
			p.logger.Warn("publishing advance notification", "error", err)
		}
	}
}
