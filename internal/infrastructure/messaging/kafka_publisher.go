// Package messaging entrega los eventos de stock a consumidores externos (Kafka o log).
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/event"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

var _ inventory.EventPublisher = (*KafkaPublisher)(nil)

const headerEventName = "event-name"

// MessageWriter lo cumple *kafka.Writer; permite sustituirlo en tests.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica cada evento como un mensaje JSON.
// La clave es el ID del registro: los eventos de un mismo stock caen en la misma partición y conservan el orden.
type KafkaPublisher struct {
	writer MessageWriter
	log    *logger.Logger
}

// NewKafkaWriter construye el writer de kafka-go para el topic configurado.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// NewKafkaPublisher construye el publicador sobre un writer.
func NewKafkaPublisher(writer MessageWriter, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaPublisher{writer: writer, log: log.Component("kafka_publisher")}
}

// Publish escribe los eventos en un solo lote. El contexto de traza viaja en los headers.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("serializar evento %s: %w", ev.Name, err)
		}
		headers := []kafka.Header{
			{Key: headerEventName, Value: []byte(ev.Name)},
			{Key: "tenant-id", Value: []byte(ev.TenantID)},
		}
		for k, v := range carrier {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(ev.StockID),
			Value:   payload,
			Headers: headers,
			Time:    ev.OccurredAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publicar %d eventos: %w", len(msgs), err)
	}
	p.log.Debug().Int("events", len(msgs)).Str("first", string(events[0].Name)).Msg("eventos publicados")
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
