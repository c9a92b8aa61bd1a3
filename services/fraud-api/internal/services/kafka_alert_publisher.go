package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	kafkautils "github.com/nimeshabuddhika/fraud-scoring-service/pkg/kafka"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"go.uber.org/zap"
)

// FraudAlert is the event emitted for every transaction classified as fraud.
// NameOrig and NameDest carry AES-GCM ciphertext, the same encoding as prediction_audit.
type FraudAlert struct {
	AlertID           uuid.UUID `json:"alertId"`
	TraceID           string    `json:"traceId"`
	Step              int64     `json:"step"`
	Type              string    `json:"type"`
	Amount            float64   `json:"amount"`
	NameOrig          string    `json:"nameOrig"`
	NameDest          string    `json:"nameDest"`
	FraudProbability  float64   `json:"fraudProbability"`
	ClassifierVersion string    `json:"classifierVersion"`
	DetectedAt        time.Time `json:"detectedAt"`
}

// Producer is the part of *kafka.Producer the publisher uses.
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type AlertPublisherConfig struct {
	Brokers           string
	Topic             string
	Partitions        int
	Retention         time.Duration
	ClassifierVersion string
	AESKey            []byte
}

type KafkaAlertPublisher struct {
	logger            *zap.Logger
	producer          Producer
	topic             string
	classifierVersion string
	aesKey            []byte
}

// NewKafkaAlertPublisher makes sure the alert topic exists and opens an idempotent producer.
func NewKafkaAlertPublisher(ctx context.Context, logger *zap.Logger, cnf AlertPublisherConfig) (*KafkaAlertPublisher, error) {
	err := kafkautils.InitKafkaTopics(ctx, logger, kafkautils.KafkaConfig{
		BootstrapServers: cnf.Brokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.Topic,
				NumPartitions:     cnf.Partitions,
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cnf.Retention.Milliseconds()),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init alert topic: %w", err)
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.Brokers,
		"acks":               "all",
		"enable.idempotence": "true",
		"retries":            "3",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logger.Info("kafka_producer_created", zap.String("brokers", cnf.Brokers), zap.String("topic", cnf.Topic))
	go handleDeliveryReports(logger, p)

	return newKafkaAlertPublisher(logger, p, cnf.Topic, cnf.ClassifierVersion, cnf.AESKey), nil
}

func newKafkaAlertPublisher(logger *zap.Logger, producer Producer, topic, classifierVersion string, aesKey []byte) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{
		logger:            logger,
		producer:          producer,
		topic:             topic,
		classifierVersion: classifierVersion,
		aesKey:            aesKey,
	}
}

func (k *KafkaAlertPublisher) Name() string { return "kafka_alert" }

// Record publishes an alert for fraud outcomes and ignores everything else.
func (k *KafkaAlertPublisher) Record(_ context.Context, o Outcome) error {
	if o.Err != nil || o.Result == nil || !o.Result.IsFraud {
		return nil
	}
	nameOrig, err := utils.EncryptAES([]byte(o.Transaction.NameOrig), k.aesKey)
	if err != nil {
		return fmt.Errorf("encrypt nameOrig: %w", err)
	}
	nameDest, err := utils.EncryptAES([]byte(o.Transaction.NameDest), k.aesKey)
	if err != nil {
		return fmt.Errorf("encrypt nameDest: %w", err)
	}
	alert := FraudAlert{
		AlertID:           uuid.New(),
		TraceID:           o.TraceID,
		Step:              o.Transaction.Step,
		Type:              o.Transaction.Type,
		Amount:            o.Transaction.Amount,
		NameOrig:          nameOrig,
		NameDest:          nameDest,
		FraudProbability:  o.Result.FraudProbability,
		ClassifierVersion: k.classifierVersion,
		DetectedAt:        o.At,
	}
	msg, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	// keyed by trace id so redelivered alerts for one request share a partition
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(o.TraceID),
		Value:          msg,
	}, nil)
}

// Close waits up to five seconds for in-flight alerts, then closes the producer.
func (k *KafkaAlertPublisher) Close() {
	if pending := k.producer.Flush(5000); pending > 0 {
		k.logger.Warn("fraud_alerts_unflushed", zap.Int("pending", pending))
	}
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			logger.Error("fraud_alert_delivery_failed", zap.Error(ev.TopicPartition.Error))
		}
	}
}
