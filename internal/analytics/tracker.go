// Package analytics publishes flow actions on an in-process pub/sub topic.
// Tracking is fire-and-forget: a publish failure is logged, never surfaced
// to the flow.
package analytics

import (
	"time"

	"cancelflow-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	jsoniter "github.com/json-iterator/go"
)

const TopicFlowEvents = "flow_events"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type FlowEvent struct {
	Action     string                 `json:"action"`
	Details    map[string]interface{} `json:"details,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type Tracker struct {
	publisher message.Publisher
	log       logger.ILogger
}

func NewTracker(publisher message.Publisher, log logger.ILogger) *Tracker {
	return &Tracker{publisher: publisher, log: log}
}

func (t *Tracker) Track(action string, details map[string]interface{}) {
	event := FlowEvent{
		Action:     action,
		Details:    details,
		OccurredAt: time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.log.Error("analytics", "failed to marshal flow event", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.publisher.Publish(TopicFlowEvents, msg); err != nil {
		t.log.Error("analytics", "failed to publish flow event", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
	}
}
