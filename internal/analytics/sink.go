package analytics

import (
	"context"

	"cancelflow-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RunSink consumes the flow_events topic and writes each action to the
// structured log. Runs until the context is cancelled or the subscriber
// closes.
func RunSink(ctx context.Context, subscriber message.Subscriber, log logger.ILogger) error {
	messages, err := subscriber.Subscribe(ctx, TopicFlowEvents)
	if err != nil {
		return err
	}
	for msg := range messages {
		var event FlowEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			log.Warn("analytics", "dropping malformed flow event", map[string]interface{}{
				"error": err.Error(),
			})
			msg.Ack()
			continue
		}
		log.Info("analytics", "flow event: "+event.Action, event.Details)
		msg.Ack()
	}
	return nil
}
