package mq

import (
	"compressed-indexer-sol/internal/config"
	"compressed-indexer-sol/internal/utils"
	"compressed-indexer-sol/pkg/logger"
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
	metadataTimeout  = 10 * time.Second
)

// NewKafkaProducer 确保观测 topic 存在后创建生产者。
// 每条消息的 ack 走独立的 delivery channel，Events() 上只剩客户端级错误，由后台协程记录。
func NewKafkaProducer(cfg config.KafkaProducerConfig) (*kafka.Producer, error) {
	if err := ensureTopic(cfg); err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(producerConfig(cfg, utils.GetLocalIP()))
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	go logClientEvents(producer.Events())
	return producer, nil
}

func ensureTopic(cfg config.KafkaProducerConfig) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": cfg.Brokers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	meta, err := admin.GetMetadata(&cfg.Topic, false, int(metadataTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	if t, ok := meta.Topics[cfg.Topic]; ok && t.Error.Code() == kafka.ErrNoError {
		logger.Infof("[Kafka] topic %s exists, partitions=%d", cfg.Topic, len(t.Partitions))
		return nil
	}

	replication := replicationFactor(len(meta.Brokers))
	ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             cfg.Topic,
		NumPartitions:     cfg.Partitions,
		ReplicationFactor: replication,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", cfg.Topic, err)
	}
	for _, r := range results {
		if code := r.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", r.Topic, r.Error)
		}
	}
	logger.Infof("[Kafka] topic %s created, partitions=%d, replication=%d", cfg.Topic, cfg.Partitions, replication)
	return nil
}

// replicationFactor 单 broker 只能 1 副本，多 broker 用 2
func replicationFactor(brokers int) int {
	if brokers > 1 {
		return 2
	}
	return 1
}

func producerConfig(cfg config.KafkaProducerConfig, host string) *kafka.ConfigMap {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}

	return &kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("compressed-indexer-%s", host),

		// 可靠性
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		// 记录是 JSON，压缩收益明显
		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "lz4",

		"message.max.bytes": 2 * 1024 * 1024,
	}
}

func logClientEvents(events chan kafka.Event) {
	for e := range events {
		switch ev := e.(type) {
		case kafka.Error:
			logger.Warnf("[Kafka] client error: code=%v fatal=%v %v", ev.Code(), ev.IsFatal(), ev)
		case *kafka.Message:
			// 未指定 delivery channel 的消息，正常不会出现
			if ev.TopicPartition.Error != nil {
				logger.Warnf("[Kafka] delivery failed: %v", ev.TopicPartition.Error)
			}
		}
	}
}
