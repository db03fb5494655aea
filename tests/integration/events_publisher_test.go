package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"

	"docucheck/internal/config"
	"docucheck/internal/events"
	"docucheck/internal/logger"
	"docucheck/internal/validation"
)

func TestSessionEventPublishing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkamodule.WithClusterID("test-cluster"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	topic := "validation.completed.test"

	publisher := events.NewPublisher(config.KafkaConfig{
		Brokers:               brokers,
		SessionTopic:          topic,
		PublishTimeoutSeconds: 15,
	}, logger.NopLogger())
	t.Cleanup(func() {
		publisher.Close()
	})

	session := &validation.Session{
		SessionID:     "5d1a3f0e-7c2b-4e8f-9a6d-1b2c3d4e5f60",
		DocumentID:    "doc-lc-001",
		OverallStatus: validation.StatusWarning,
		Outcomes: []validation.Outcome{
			{RuleID: "UCP600-6d", Status: validation.StatusPass},
			{RuleID: "ISBP-A21", Status: validation.StatusWarning},
		},
		RulesApplied: 2,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	// The first write may race topic auto-creation on a fresh broker.
	publishCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	for {
		err = publisher.PublishSessionCompleted(publishCtx, session)
		if err == nil || publishCtx.Err() != nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	t.Cleanup(func() {
		reader.Close()
	})

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	assert.Equal(t, session.DocumentID, string(msg.Key))

	var event events.SessionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))

	assert.Equal(t, session.SessionID, event.SessionID)
	assert.Equal(t, session.DocumentID, event.DocumentID)
	assert.Equal(t, validation.StatusWarning, event.OverallStatus)
	assert.Equal(t, 2, event.RulesApplied)
	assert.True(t, event.CreatedAt.Equal(session.CreatedAt))
}
