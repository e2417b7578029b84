package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Producer 发送所需的最小能力，*kafka.Producer 满足该接口
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// KafkaJob 表示一条需要发送的 Kafka 消息
type KafkaJob struct {
	Topic     string
	Partition int32
	Key       []byte
	Value     []byte
}

// JobError 单条消息的失败原因
type JobError struct {
	Job *KafkaJob
	Err error
}

// BatchResult 一批消息的投递结果
type BatchResult struct {
	Delivered int
	Failed    []JobError
}

// Err 汇总失败原因，全部成功时返回 nil
func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d/%d messages failed: %w", len(r.Failed), r.Delivered+len(r.Failed), r.Failed[0].Err)
}

// SendBatch 把一批消息全部 Produce 到同一个 delivery channel，再在 timeout 内收齐 ack。
// delivery channel 按批大小缓冲，超时后迟到的 ack 直接留在缓冲里，不会阻塞 librdkafka 回调。
func SendBatch(ctx context.Context, producer Producer, jobs []*KafkaJob, timeout time.Duration) BatchResult {
	var res BatchResult
	if len(jobs) == 0 {
		return res
	}

	deliveryChan := make(chan kafka.Event, len(jobs))
	pending := make(map[*KafkaJob]struct{}, len(jobs))
	for _, job := range jobs {
		err := producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{
				Topic:     &job.Topic,
				Partition: job.Partition,
			},
			Key:    job.Key,
			Value:  job.Value,
			Opaque: job,
		}, deliveryChan)
		if err != nil {
			res.Failed = append(res.Failed, JobError{Job: job, Err: fmt.Errorf("produce: %w", err)})
			continue
		}
		pending[job] = struct{}{}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for len(pending) > 0 {
		select {
		case e := <-deliveryChan:
			msg, ok := e.(*kafka.Message)
			if !ok {
				continue
			}
			job, ok := msg.Opaque.(*KafkaJob)
			if !ok {
				continue
			}
			if _, waiting := pending[job]; !waiting {
				continue
			}
			delete(pending, job)
			if msg.TopicPartition.Error != nil {
				res.Failed = append(res.Failed, JobError{Job: job, Err: msg.TopicPartition.Error})
			} else {
				res.Delivered++
			}
		case <-timer.C:
			return failPending(res, jobs, pending, fmt.Errorf("delivery timeout (>%v)", timeout))
		case <-ctx.Done():
			return failPending(res, jobs, pending, fmt.Errorf("ctx cancelled: %w", ctx.Err()))
		}
	}
	return res
}

// failPending 按原始顺序把未收到 ack 的消息记为失败
func failPending(res BatchResult, jobs []*KafkaJob, pending map[*KafkaJob]struct{}, err error) BatchResult {
	for _, job := range jobs {
		if _, ok := pending[job]; ok {
			res.Failed = append(res.Failed, JobError{Job: job, Err: err})
		}
	}
	return res
}
