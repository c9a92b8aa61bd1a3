//go:build integration

package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKafkaAlertPublisher_PublishesFraudOnly(t *testing.T) {
	// Arrange
	ctx := context.Background()
	brokers := testutil.StartKafka(t)
	topic := "fraud-alerts-it"
	pub, err := NewKafkaAlertPublisher(ctx, zap.NewNop(), AlertPublisherConfig{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        1,
		Retention:         time.Hour,
		ClassifierVersion: "c1",
		AESKey:            testAESKey,
	})
	require.NoError(t, err)

	// Act
	require.NoError(t, pub.Record(ctx, Outcome{TraceID: "legit", Transaction: cashOut(), Result: &ScoringResult{IsFraud: false, FraudProbability: 0.1}}))
	require.NoError(t, pub.Record(ctx, Outcome{TraceID: "fraud", Transaction: cashOut(), Result: &ScoringResult{IsFraud: true, FraudProbability: 0.97}, At: time.Now().UTC()}))
	pub.Close()

	// Assert
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"group.id":          "fraud-alerts-it",
		"auto.offset.reset": "earliest",
	})
	require.NoError(t, err)
	defer func() { _ = consumer.Close() }()
	require.NoError(t, consumer.SubscribeTopics([]string{topic}, nil))

	msg, err := consumer.ReadMessage(30 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "fraud", string(msg.Key))
	var alert FraudAlert
	require.NoError(t, json.Unmarshal(msg.Value, &alert))
	assert.Equal(t, "fraud", alert.TraceID)
	assert.Equal(t, 0.97, alert.FraudProbability)
	assert.Equal(t, "c1", alert.ClassifierVersion)

	// nothing else was published
	_, err = consumer.ReadMessage(3 * time.Second)
	var kerr kafka.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, kafka.ErrTimedOut, kerr.Code())
}
