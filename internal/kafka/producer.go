package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticket-backend/internal/logger"
	"ticket-backend/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishSaleRecorded streams a recorded sale keyed by its payment reference.
func (p *Producer) PublishSaleRecorded(ctx context.Context, sale models.SaleRecord) error {
	event := models.NewSaleRecordedEvent(sale)
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode sale event: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(sale.PaymentReference),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("sale.recorded")},
		},
	})
	if err != nil {
		return fmt.Errorf("publish sale %s: %w", sale.SaleID, err)
	}

	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("sale %s (%s)", sale.SaleID, sale.PaymentReference))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
