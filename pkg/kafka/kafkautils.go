package kafkautils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const topicInitMaxElapsed = 2 * time.Minute

type KafkaConfig struct {
	BootstrapServers string
	Topics           []TopicConfig
}

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
	Config            map[string]string
}

// InitKafkaTopics creates the specified Kafka topics, treating "already exists" as success.
// Transient failures are retried with exponential backoff for up to two minutes.
// Misconfigured topics fail immediately instead of retrying.
func InitKafkaTopics(ctx context.Context, logger *zap.Logger, cnf KafkaConfig) error {
	for _, topic := range cnf.Topics {
		if topic.Topic == "" {
			return errors.New("kafka topic name is empty")
		}
		if topic.NumPartitions <= 0 {
			return fmt.Errorf("kafka topic %s: partitions must be positive, got %d", topic.Topic, topic.NumPartitions)
		}
	}

	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": cnf.BootstrapServers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	specs := make([]kafka.TopicSpecification, 0, len(cnf.Topics))
	for _, topic := range cnf.Topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topic.Topic,
			NumPartitions:     topic.NumPartitions,
			ReplicationFactor: topic.ReplicationFactor,
			Config:            topic.Config,
		})
	}

	operation := func() error {
		results, err := admin.CreateTopics(ctx, specs, kafka.SetAdminOperationTimeout(30*time.Second))
		if err != nil {
			return fmt.Errorf("failed to create topics: %w", err)
		}
		for _, result := range results {
			switch result.Error.Code() {
			case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
			case kafka.ErrInvalidPartitions, kafka.ErrInvalidReplicationFactor, kafka.ErrInvalidConfig,
				kafka.ErrTopicException, kafka.ErrTopicAuthorizationFailed:
				return backoff.Permanent(fmt.Errorf("kafka topic %s rejected: %v", result.Topic, result.Error))
			default:
				return fmt.Errorf("kafka topic %s creation failed: %v", result.Topic, result.Error)
			}
			logger.Info("kafka_topic_ready", zap.String("topic", result.Topic))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = topicInitMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
