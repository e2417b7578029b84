package svc

import (
	"compressed-indexer-sol/internal/config"
	"compressed-indexer-sol/internal/consts"
	"compressed-indexer-sol/internal/logic/ctoken"
	"compressed-indexer-sol/internal/logic/lightevent"
	"compressed-indexer-sol/internal/logic/progress"
	"compressed-indexer-sol/internal/logic/report"
	"compressed-indexer-sol/internal/mq"
	"compressed-indexer-sol/pkg/logger"
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"
)

// GrpcServiceContext 包含 GRPC 服务资源
type GrpcServiceContext struct {
	Config          config.GrpcConfig
	Programs        consts.Programs
	Parser          lightevent.Parser
	Builder         *report.Builder
	Sink            report.Sink
	Producer        *kafka.Producer           // 未配置 Kafka 时为空
	Redis           *redis.Client             // 未配置 Redis 时为空
	ProgressManager *progress.ProgressManager // 未配置 Redis 时为空
}

// NewGrpcServiceContext 创建一个新的 GRPC 服务上下文
func NewGrpcServiceContext(c config.GrpcConfig) (*GrpcServiceContext, error) {
	// 1. 程序地址（支持配置覆盖）
	programs, err := c.LightConf.ToPrograms()
	if err != nil {
		return nil, err
	}

	ctx := &GrpcServiceContext{
		Config:   c,
		Programs: programs,
		Parser:   lightevent.NewNoopParser(programs),
		Builder:  report.NewBuilder(ctoken.NewInspector(programs)),
	}

	// 2. 输出：日志始终开启，Kafka 可选
	sinks := report.MultiSink{report.NewLogSink(logger.L())}
	if c.KafkaProducerConf.Enabled() {
		producer, err := mq.NewKafkaProducer(c.KafkaProducerConf)
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			return nil, err
		}
		ctx.Producer = producer
		sinks = append(sinks, report.NewKafkaSink(
			producer,
			c.KafkaProducerConf.Topic,
			c.KafkaProducerConf.Partitions,
			time.Duration(c.KafkaProducerConf.SendTimeMs)*time.Millisecond,
		))
	}
	ctx.Sink = sinks

	// 3. 进度记录（Redis 可选）
	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			ctx.Close()
			return nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		ctx.Redis = rdb
		ctx.ProgressManager = progress.NewProgressManager(
			progress.NewRedisProgressStore(rdb, c.Grpc.Endpoint),
			time.Second,
		)
	}

	logger.Infof("GRPC 服务上下文初始化完成, kafka=%v, progress=%v", ctx.Producer != nil, ctx.ProgressManager != nil)
	return ctx, nil
}

// ResumeFrom 仅在启用 resume_from_slot 且配置了 Redis 时返回续订起点
func (ctx *GrpcServiceContext) ResumeFrom(c context.Context) (*uint64, error) {
	if ctx.ProgressManager == nil || !ctx.Config.ProgressConf.ResumeFromSlot {
		return nil, nil
	}
	return ctx.ProgressManager.ResumeFrom(c)
}

// Close 关闭服务上下文中的资源
func (ctx *GrpcServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
