// Package kafka publishes order events to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// Producer sends order events through a circuit breaker so a broker outage
// fails fast instead of stalling checkout.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	breaker  *gobreaker.CircuitBreaker[struct{}]
	logger   *log.Entry
}

// NewProducer dials brokers with an idempotent synchronous producer.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewWithProducer(producer, topic), nil
}

// NewWithProducer wraps an existing sarama producer.
func NewWithProducer(producer sarama.SyncProducer, topic string) *Producer {
	logger := log.WithField("component", "kafka-producer")
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-orders",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	})
	return &Producer{producer: producer, topic: topic, breaker: breaker, logger: logger}
}

// PublishOrderEvent sends ev keyed by order id so events of one order stay ordered.
func (p *Producer) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = p.breaker.Execute(func() (struct{}, error) {
		msg := &sarama.ProducerMessage{
			Topic:     p.topic,
			Key:       sarama.StringEncoder(ev.OrderID),
			Value:     sarama.ByteEncoder(data),
			Timestamp: ev.OccurredAt,
		}
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return struct{}{}, err
		}
		p.logger.WithFields(log.Fields{
			"topic":     p.topic,
			"order_id":  ev.OrderID,
			"type":      ev.Type,
			"partition": partition,
			"offset":    offset,
		}).Debug("order event sent")
		return struct{}{}, nil
	})
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{"topic": p.topic, "order_id": ev.OrderID}).Error("failed to send order event")
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
