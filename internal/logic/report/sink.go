package report

import (
	"compressed-indexer-sol/internal/mq"
	"compressed-indexer-sol/internal/utils"
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink 接收单笔交易的全部观测记录
type Sink interface {
	Emit(ctx context.Context, records []Observation) error
}

// LogSink 以结构化日志输出每条记录
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(_ context.Context, records []Observation) error {
	for i := range records {
		rec := &records[i]
		fields := []zap.Field{
			zap.Uint64("slot", rec.Slot),
			zap.String("signature", rec.Signature),
			zap.Int("batch", rec.Batch),
		}

		switch rec.Kind {
		case KindBatchSummary:
			s.log.Info("Parsed batch", append(fields,
				zap.Int("inputs", rec.Summary.Inputs),
				zap.Int("outputs", rec.Summary.Outputs))...)
		case KindGeneric:
			s.log.Info("Output", append(fields, zap.String("owner", rec.Owner))...)
		case KindUnrecognizedCToken:
			s.log.Info("cToken output", append(fields,
				zap.String("owner", rec.Owner),
				zap.Ints("discriminator", rec.Discriminator))...)
		case KindMint:
			fields = append(fields,
				zap.String("address", rec.Address),
				zap.String("mint", rec.Mint.Mint),
				zap.Uint64("supply", rec.Mint.Supply),
				zap.Uint8("decimals", rec.Mint.Decimals),
				zap.Objects("token_metadata", rec.Mint.TokenMetadata))
			s.log.Info("Compressed mint", fields...)
		case KindMintDecodeError:
			s.log.Warn("Mint deserialize error", append(fields,
				zap.String("owner", rec.Owner),
				zap.String("address", rec.Address),
				zap.String("error", rec.Error))...)
		case KindNewAddresses:
			s.log.Info("New addresses", append(fields, zap.Int("count", rec.NewAddresses))...)
		case KindParseError:
			s.log.Error("Parse error", append(fields,
				zap.String("kind", rec.ErrorKind),
				zap.String("error", rec.Error))...)
		default:
			s.log.Warn("unknown observation kind", append(fields, zap.String("kind", string(rec.Kind)))...)
		}
	}
	return nil
}

// MarshalLogObject 一个 mint 可带多个 TokenMetadata 扩展，日志中按数组逐项展开
func (md TokenMetadataRecord) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("name", md.Name)
	enc.AddString("symbol", md.Symbol)
	enc.AddString("uri", md.URI)
	return nil
}

// KafkaSink 将记录编码为 JSON 发送到 Kafka，同一签名的记录落在同一分区，以签名为 key
type KafkaSink struct {
	producer   mq.Producer
	topic      string
	partitions uint32
	timeout    time.Duration
}

func NewKafkaSink(producer mq.Producer, topic string, partitions int, timeout time.Duration) *KafkaSink {
	if partitions <= 0 {
		partitions = 1
	}
	return &KafkaSink{
		producer:   producer,
		topic:      topic,
		partitions: uint32(partitions),
		timeout:    timeout,
	}
}

func (s *KafkaSink) Emit(ctx context.Context, records []Observation) error {
	if len(records) == 0 {
		return nil
	}

	jobs := make([]*mq.KafkaJob, 0, len(records))
	for i := range records {
		value, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("encode observation %s: %w", records[i].Kind, err)
		}
		key := []byte(records[i].Signature)
		jobs = append(jobs, &mq.KafkaJob{
			Topic:     s.topic,
			Partition: utils.PartitionForKey(key, s.partitions),
			Key:       key,
			Value:     value,
		})
	}

	if err := mq.SendBatch(ctx, s.producer, jobs, s.timeout).Err(); err != nil {
		return fmt.Errorf("kafka %s: %w", s.topic, err)
	}
	return nil
}

// MultiSink 依次写入所有 sink，单个失败不影响其余 sink
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, records []Observation) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
