package config

import (
	"compressed-indexer-sol/internal/consts"
	"compressed-indexer-sol/internal/types"
	"compressed-indexer-sol/pkg/logger"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置，Brokers 为空时不启用 Kafka 输出
type KafkaProducerConfig struct {
	Brokers    string `yaml:"brokers"`      // Kafka broker 地址，多个用英文逗号分隔
	BatchSize  int    `yaml:"batch_size"`   // 批处理大小（单位字节）
	LingerMs   int    `yaml:"linger_ms"`    // 批处理最大延迟（毫秒）
	Topic      string `yaml:"topic"`        // 观测记录的 Kafka topic
	Partitions int    `yaml:"partitions"`   // topic 的分区数
	SendTimeMs int    `yaml:"send_time_ms"` // 单笔交易所有记录发送并等待 ack 的超时时间
}

func (c *KafkaProducerConfig) Enabled() bool {
	return strings.TrimSpace(c.Brokers) != ""
}

// LightConfig 覆盖默认的程序地址，用于切换到其他网络部署。留空则使用 consts 中的默认值。
type LightConfig struct {
	LightSystemProgram          string `yaml:"light_system_program"`
	CTokenProgram               string `yaml:"ctoken_program"`
	NoopProgram                 string `yaml:"noop_program"`
	CompressedMintDiscriminator []int  `yaml:"compressed_mint_discriminator"` // 8 字节，如 [0,0,0,0,0,0,0,1]
}

// ToPrograms 解析为只读的 consts.Programs，地址非法时返回错误
func (c *LightConfig) ToPrograms() (consts.Programs, error) {
	p := consts.DefaultPrograms()

	override := func(dst *types.Pubkey, s, name string) error {
		if s == "" {
			return nil
		}
		pk, err := types.TryPubkeyFromBase58(s)
		if err != nil {
			return fmt.Errorf("light.%s: %w", name, err)
		}
		*dst = pk
		return nil
	}
	if err := override(&p.LightSystem, c.LightSystemProgram, "light_system_program"); err != nil {
		return p, err
	}
	if err := override(&p.CToken, c.CTokenProgram, "ctoken_program"); err != nil {
		return p, err
	}
	if err := override(&p.Noop, c.NoopProgram, "noop_program"); err != nil {
		return p, err
	}
	if len(c.CompressedMintDiscriminator) > 0 {
		if len(c.CompressedMintDiscriminator) != len(p.CompressedMintDiscriminator) {
			return p, fmt.Errorf("light.compressed_mint_discriminator: got %d bytes, want 8", len(c.CompressedMintDiscriminator))
		}
		for i, b := range c.CompressedMintDiscriminator {
			if b < 0 || b > 0xFF {
				return p, fmt.Errorf("light.compressed_mint_discriminator[%d]: %d out of byte range", i, b)
			}
			p.CompressedMintDiscriminator[i] = byte(b)
		}
	}
	return p, nil
}

// GrpcConfig 是主配置结构体，用于驱动索引器服务
type GrpcConfig struct {
	LogConf           LogConfig           `yaml:"logger"`         // 日志配置
	LightConf         LightConfig         `yaml:"light"`          // Light Protocol 程序地址
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"` // Kafka 生产者配置（可选）

	RedisAddr    string `yaml:"redis_addr"` // Redis 地址，为空时不记录进度
	ProgressConf struct {
		ResumeFromSlot bool `yaml:"resume_from_slot"` // 重连时是否带 from_slot 从上次处理的位置续订
	} `yaml:"progress"` // 表示索引器中的进度管理配置

	MetricsAddr string `yaml:"metrics_addr"` // Prometheus 监听地址，如 ":9100"，为空则不启动

	Grpc GrpcConnConfig `yaml:"grpc"` // gRPC 客户端连接相关配置
}

// GrpcConnConfig Yellowstone gRPC 连接参数
type GrpcConnConfig struct {
	Endpoint string `yaml:"endpoint"` // gRPC 服务端地址
	XToken   string `yaml:"x_token"`  // x-token 认证，为空时读取环境变量 GRPC_X_TOKEN
	Insecure bool   `yaml:"insecure"` // 明文连接（本地测试节点）

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
	KeepalivePingTimeoutSec  int `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）

	// gRPC 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
	InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

	// 消息体大小限制
	MaxCallSendMsgSize int `yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
	MaxCallRecvMsgSize int `yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

	// 超时与重连策略
	ReconnectIntervalSec    int `yaml:"reconnect_interval_sec"`     // 重连初始间隔（秒）
	MaxReconnectIntervalSec int `yaml:"max_reconnect_interval_sec"` // 重连最大间隔（秒）
	ConnectTimeoutSec       int `yaml:"connect_timeout_sec"`        // 连接建立超时（秒）
	SendTimeoutSec          int `yaml:"send_timeout_sec"`           // 发送超时（秒）
}

// ApplyDefaults 为未配置的字段填充默认值
func (c *GrpcConfig) ApplyDefaults() {
	if c.LogConf.Level == "" {
		c.LogConf.Level = "info"
	}
	if c.LogConf.Format == "" {
		c.LogConf.Format = "console"
	}
	if c.Grpc.XToken == "" {
		c.Grpc.XToken = os.Getenv("GRPC_X_TOKEN")
	}

	g := &c.Grpc
	setDefault(&g.StreamPingIntervalSec, 10)
	setDefault(&g.KeepalivePingIntervalSec, 30)
	setDefault(&g.KeepalivePingTimeoutSec, 10)
	setDefault(&g.InitialWindowSize, 1<<30)
	setDefault(&g.InitialConnWindowSize, 1<<30)
	setDefault(&g.MaxCallSendMsgSize, 64*1024*1024)
	setDefault(&g.MaxCallRecvMsgSize, 64*1024*1024)
	setDefault(&g.ReconnectIntervalSec, 1)
	setDefault(&g.MaxReconnectIntervalSec, 30)
	setDefault(&g.ConnectTimeoutSec, 10)
	setDefault(&g.SendTimeoutSec, 5)

	k := &c.KafkaProducerConf
	setDefault(&k.Partitions, 1)
	setDefault(&k.SendTimeMs, 3000)
	if k.Topic == "" {
		k.Topic = "light-observations"
	}
}

func setDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// Parse 读取 YAML 配置文件并填充默认值，不做必填项校验（离线回放使用）
func Parse(path string) (GrpcConfig, error) {
	var c GrpcConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.ApplyDefaults()
	return c, nil
}

// Load 在 Parse 的基础上校验 gRPC 订阅所需的字段
func Load(path string) (GrpcConfig, error) {
	c, err := Parse(path)
	if err != nil {
		return c, err
	}
	if c.Grpc.Endpoint == "" {
		return c, fmt.Errorf("config %s: grpc.endpoint is required", path)
	}
	return c, nil
}

// MustLoad 与 go-zero conf.MustLoad 行为一致：失败直接退出进程
func MustLoad(path string) GrpcConfig {
	c, err := Load(path)
	if err != nil {
		logger.Errorf("load config failed: %v", err)
		os.Exit(1)
	}
	return c
}
