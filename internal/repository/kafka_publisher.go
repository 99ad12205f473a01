package repository

import (
	"context"
	"fmt"

	"VolCast/internal/domain/models"
	pkgkafka "VolCast/pkg/kafka"
	applogger "VolCast/pkg/logger"
)

// KafkaEventPublisher implements EventPublisher on top of the Kafka
// producer. Events are keyed by token so one token's events stay ordered
// within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaEventPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev *models.AnalysisEvent) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.Token), ev); err != nil {
		if p.l != nil {
			p.l.Error("analysis event publish error",
				applogger.String("topic", p.topic),
				applogger.String("token", ev.Token),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish analysis event: %w", err)
	}
	if p.l != nil {
		p.l.Debug("analysis event published",
			applogger.String("topic", p.topic),
			applogger.String("token", ev.Token),
			applogger.String("command", ev.Command),
		)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
