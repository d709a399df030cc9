// Package kafka publishes the final monthly aggregates to a Kafka topic for
// downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"weather-station-etl/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.AggregateLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadAggregates serializes and publishes the station-month rows to the sink
// topic in a single WriteMessages call for efficiency.
func (w *Writer) LoadAggregates(ctx context.Context, aggregates []domain.MonthlyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(aggregates))
	for i := range aggregates {
		msg, err := serializeToMessage(aggregates[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish aggregates: %w", err)
	}
	w.logger.Info("aggregates published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MonthlyAggregate into a Kafka message. The
// key combines station and month so compacted topics keep the latest row per
// station-month.
func serializeToMessage(agg domain.MonthlyAggregate) (kafkago.Message, error) {
	data, err := json.Marshal(agg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize aggregate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(agg.StationID + "|" + agg.Month.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(agg.StationID)},
			{Key: "date_month", Value: []byte(agg.Month.String())},
		},
	}, nil
}
