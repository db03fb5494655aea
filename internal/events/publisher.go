package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"docucheck/internal/config"
	"docucheck/internal/constants"
	"docucheck/internal/logger"
	"docucheck/internal/validation"
	"docucheck/pkg/metrics"
	"docucheck/pkg/tracing"
)

const serviceName = "validation-service"

// SessionEvent is the completion notice published after each validation run.
// It carries the verdict summary, not the full outcomes; consumers fetch the
// session from history when they need detail.
type SessionEvent struct {
	SessionID     string            `json:"session_id"`
	DocumentID    string            `json:"document_id"`
	OverallStatus validation.Status `json:"overall_status"`
	RulesApplied  int               `json:"rules_applied"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Publisher writes session completion events to Kafka. Publishing is best
// effort from the caller's point of view: a broker outage must not fail the
// validation that triggered the event.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	timeout time.Duration
	logger  logger.Logger
}

func NewPublisher(cfg config.KafkaConfig, log logger.Logger) *Publisher {
	topic := cfg.SessionTopic
	if topic == "" {
		topic = constants.DefaultSessionTopic
	}

	timeout := time.Duration(cfg.PublishTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = constants.KafkaWriteTimeout
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		Async:        false,
	}

	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: timeout,
		logger:  log,
	}
}

func (p *Publisher) PublishSessionCompleted(ctx context.Context, session *validation.Session) error {
	event := SessionEvent{
		SessionID:     session.SessionID,
		DocumentID:    session.DocumentID,
		OverallStatus: session.OverallStatus,
		RulesApplied:  session.RulesApplied,
		CreatedAt:     session.CreatedAt,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	headers := []kafka.Header{}
	headers = tracing.InjectTraceContext(ctx, headers)

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err = p.writer.WriteMessages(writeCtx,
		kafka.Message{
			Topic:   p.topic,
			Key:     []byte(session.DocumentID),
			Value:   body,
			Headers: headers,
			Time:    time.Now(),
		},
	)
	metrics.ObserveKafkaWriteDuration(serviceName, p.topic, time.Since(start))

	if err != nil {
		return fmt.Errorf("failed to write session event: %w", err)
	}

	metrics.IncKafkaMessagesWritten(serviceName, p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
