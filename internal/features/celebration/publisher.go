// Package celebration — publisher.go публикует празднования в Kafka,
// чтобы внешние клиенты (дисплей, аналитика) получали их без опроса БД.
package celebration

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher отправляет сохранённое празднование во внешнюю шину.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// MessageWriter — часть kafka.Writer, которая нужна публикатору.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher пишет празднования в топик, ключ сообщения — user_id,
// так что события одного пользователя попадают в одну партицию по порядку.
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher создаёт публикатор поверх kafka.Writer.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

// NewPublisherWithWriter создаёт публикатор поверх произвольного writer.
func NewPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish сериализует празднование в JSON и отправляет его.
func (p *KafkaPublisher) Publish(ctx context.Context, e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("ошибка сериализации празднования: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.UserID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("ошибка публикации празднования %d: %w", e.ID, err)
	}
	return nil
}

// Close закрывает writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher ничего не публикует. Используется, когда KAFKA_BROKERS пуст.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
