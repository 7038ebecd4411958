// Package handlerwrapper adapts typed message handlers to watermill.
// A handler receives a decoded payload and returns zero or more result
// messages to publish; the wrapper owns JSON codec, correlation IDs,
// and error logging.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pickem-club/standings-engine/app/shared/attr"
)

// Result is one outbound message produced by a handler.
type Result struct {
	Topic   string
	Payload any
}

// HandlerFunc is a typed message handler.
type HandlerFunc[T any] func(ctx context.Context, payload *T) ([]Result, error)

const correlationIDHeader = "correlation_id"

// Wrap converts a typed handler into a watermill HandlerFunc.
func Wrap[T any](name string, logger *slog.Logger, handle HandlerFunc[T]) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()
		if cid := msg.Metadata.Get(correlationIDHeader); cid != "" {
			ctx = attr.WithCorrelationID(ctx, cid)
		}

		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			logger.ErrorContext(ctx, "Failed to decode message payload",
				attr.String("handler", name),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			// Malformed payloads are not retryable; ack and drop.
			return nil, nil
		}

		outputs, err := handle(ctx, &payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler returned error",
				attr.String("handler", name),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			return nil, err
		}

		messages := make([]*message.Message, 0, len(outputs))
		for _, out := range outputs {
			data, err := json.Marshal(out.Payload)
			if err != nil {
				return nil, fmt.Errorf("handlerwrapper.Wrap: marshal result for topic %s: %w", out.Topic, err)
			}
			outMsg := message.NewMessage(watermill.NewUUID(), data)
			outMsg.Metadata.Set("topic", out.Topic)
			if cid := msg.Metadata.Get(correlationIDHeader); cid != "" {
				outMsg.Metadata.Set(correlationIDHeader, cid)
			}
			messages = append(messages, outMsg)
		}
		return messages, nil
	}
}

// TopicFromMetadata is the publisher-side topic resolver paired with
// Wrap: result messages carry their destination in metadata.
func TopicFromMetadata(msg *message.Message) string {
	return msg.Metadata.Get("topic")
}
