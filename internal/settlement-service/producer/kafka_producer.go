package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	shkafka "github.com/radieske/bolao-settlement-platform/internal/shared/kafka"
	"github.com/radieske/bolao-settlement-platform/pkg/contracts/events"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) PublishGameSettled(ctx context.Context, e events.GameSettled) error {
	b, _ := json.Marshal(e)
	return shkafka.WriteJSON(ctx, p.Writer, e.GameID, b)
}
