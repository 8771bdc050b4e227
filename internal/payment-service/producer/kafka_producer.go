package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	shkafka "github.com/radieske/bolao-settlement-platform/internal/shared/kafka"
	"github.com/radieske/bolao-settlement-platform/pkg/contracts/events"
)

// KafkaPublisher publica confirmações de pagamento e manda falhas de
// materialização pra DLQ.
type KafkaPublisher struct {
	Confirmed *kafka.Writer
	DLQ       *kafka.Writer
}

func NewKafkaPublisher(confirmed, dlq *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Confirmed: confirmed, DLQ: dlq}
}

func (p *KafkaPublisher) PublishPaymentConfirmed(ctx context.Context, e events.PaymentConfirmed) error {
	b, _ := json.Marshal(e)
	return shkafka.WriteJSON(ctx, p.Confirmed, e.IntentID, b)
}

func (p *KafkaPublisher) DeadLetter(ctx context.Context, key string, payload []byte) error {
	if p.DLQ == nil {
		return nil
	}
	return shkafka.WriteJSON(ctx, p.DLQ, key, payload)
}
