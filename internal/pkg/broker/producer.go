package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publica eventos de mudança do catálogo em um tópico Kafka.
// É um relay opcional: o hub de notificações em memória continua sendo a
// fonte dos eventos; o Producer apenas os encaminha após o commit.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer cria um Producer para os brokers e tópico informados.
func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: w}
}

// PublishEvent serializa o evento como JSON e o escreve no tópico.
func (p *Producer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("broker: json.Marshal falhou: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("broker: escrita no tópico falhou: %w", err)
	}
	return nil
}

// Close libera as conexões do writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
