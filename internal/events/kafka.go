package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events to "<prefix><stream>" topics, keyed by event ID.
type KafkaPublisher struct {
	writer      *kafka.Writer
	topicPrefix string
	logger      *zap.Logger
}

func NewKafkaPublisher(brokers []string, topicPrefix string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		Logger:                 kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:            kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}
	return &KafkaPublisher{writer: writer, topicPrefix: topicPrefix, logger: logger}
}

func (p *KafkaPublisher) Topic(stream string) string {
	return p.topicPrefix + stream
}

func (p *KafkaPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event, err := NewEvent(eventType, data)
	if err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	produceCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: p.Topic(stream),
		Key:   []byte(event.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(produceCtx, msg); err != nil {
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}
	p.logger.Debug("Event produced to Kafka",
		zap.String("topic", msg.Topic),
		zap.String("event_type", eventType),
		zap.String("event_id", event.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// KafkaSubscriber consumes one topic in a consumer group and commits an offset
// only after the handler succeeds.
type KafkaSubscriber struct {
	reader  *kafka.Reader
	handler Handler
	logger  *zap.Logger
	topic   string
}

func NewKafkaSubscriber(brokers []string, topic, groupID string, handler Handler, logger *zap.Logger) *KafkaSubscriber {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          10e6,
		ReadBatchTimeout:  time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxAttempts:       3,
		Logger:            kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	})
	return &KafkaSubscriber{reader: reader, handler: handler, logger: logger, topic: topic}
}

func (s *KafkaSubscriber) Start(ctx context.Context) error {
	s.logger.Info("Kafka subscriber started", zap.String("topic", s.topic))
	defer s.reader.Close()

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, kafka.ErrGroupClosed) {
				s.logger.Info("Kafka subscriber stopping", zap.String("topic", s.topic))
				return ctx.Err()
			}
			s.logger.Error("Failed to fetch message from Kafka", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := dispatch(ctx, msg.Value, s.handler); err != nil {
			s.logger.Error("Error handling Kafka message, will not commit offset",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			s.logger.Warn("Failed to commit Kafka offset",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}
