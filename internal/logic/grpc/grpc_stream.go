package grpc

import (
	"compressed-indexer-sol/internal/config"
	"compressed-indexer-sol/internal/metrics"
	"compressed-indexer-sol/pkg/logger"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

const transactionFilterName = "light"

// TxHandler 由接收协程同步调用，返回前不会拉取下一条更新
type TxHandler func(ctx context.Context, update *pb.SubscribeUpdateTransaction)

// ResumeFunc 返回订阅起点 slot，nil 表示从最新位置开始
type ResumeFunc func(ctx context.Context) (*uint64, error)

type GrpcStreamManager struct {
	mu             sync.Mutex
	conn           *grpc.ClientConn   // gRPC 连接对象
	client         pb.GeyserClient    // gRPC 客户端
	ctx            context.Context    // 整个 manager 的生命周期
	cancel         context.CancelFunc // Stop 时取消，结束重连与接收
	xToken         string             // 认证用的 x-token
	accountInclude []string           // 交易订阅的 account_include
	handler        TxHandler          // 交易处理回调
	resume         ResumeFunc         // 可为空
	done           chan struct{}      // Start 返回时关闭

	streamPingInterval   time.Duration // Stream 心跳包发送间隔
	sendTimeout          time.Duration // gRPC 发送超时时间
	reconnectInterval    time.Duration // 重连初始间隔
	maxReconnectInterval time.Duration // 重连最大间隔
}

func NewGrpcStreamManager(
	grpcConf config.GrpcConnConfig,
	accountInclude []string,
	handler TxHandler,
	resume ResumeFunc,
) (*GrpcStreamManager, error) {
	creds := credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})
	if grpcConf.Insecure {
		creds = insecure.NewCredentials()
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(grpcConf.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		grpcConf.Endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithInitialWindowSize(int32(grpcConf.InitialWindowSize)),
		grpc.WithInitialConnWindowSize(int32(grpcConf.InitialConnWindowSize)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(grpcConf.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", grpcConf.Endpoint, err)
	}

	ctx, stop := context.WithCancel(context.Background())
	return &GrpcStreamManager{
		conn:                 conn,
		client:               pb.NewGeyserClient(conn),
		ctx:                  ctx,
		cancel:               stop,
		xToken:               grpcConf.XToken,
		accountInclude:       accountInclude,
		handler:              handler,
		resume:               resume,
		done:                 make(chan struct{}),
		streamPingInterval:   time.Duration(grpcConf.StreamPingIntervalSec) * time.Second,
		sendTimeout:          time.Duration(grpcConf.SendTimeoutSec) * time.Second,
		reconnectInterval:    time.Duration(grpcConf.ReconnectIntervalSec) * time.Second,
		maxReconnectInterval: time.Duration(grpcConf.MaxReconnectIntervalSec) * time.Second,
	}, nil
}

// Start 阻塞运行：订阅 -> 接收直到流断开 -> 退避重连，直到 Stop
func (m *GrpcStreamManager) Start() {
	defer close(m.done)
	for {
		sess, err := m.mustConnect()
		if err != nil {
			logger.Infof("[GrpcStream] stopped: %v", err)
			return
		}
		m.recvLoop(sess.ctx, sess.stream)
		sess.cancel()
		if m.ctx.Err() != nil {
			return
		}
		metrics.StreamReconnects.Inc()
		logger.Warnf("[GrpcStream] stream ended, reconnecting")
	}
}

func (m *GrpcStreamManager) Stop() {
	m.cancel()
	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		logger.Warnf("[GrpcStream] receive loop did not exit in time")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

// session 一次成功的订阅，cancel 结束该连接上的 ping 协程与流
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	stream pb.Geyser_SubscribeClient
}

// mustConnect 按指数退避重试订阅，直到成功或 manager 被停止
func (m *GrpcStreamManager) mustConnect() (*session, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.reconnectInterval
	policy.MaxInterval = m.maxReconnectInterval

	attempt := 0
	return backoff.Retry(m.ctx, func() (*session, error) {
		attempt++
		logger.Infof("[GrpcStream] connecting... attempt %d", attempt)
		return m.connect()
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warnf("[GrpcStream] connect failed: %v, retry in %v", err, next)
		}),
	)
}

func buildSubscribeRequest(accountInclude []string, fromSlot *uint64) *pb.SubscribeRequest {
	commitment := pb.CommitmentLevel_CONFIRMED
	return &pb.SubscribeRequest{
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{
			transactionFilterName: {
				Vote:           boolPtr(false),
				Failed:         boolPtr(false),
				AccountInclude: accountInclude,
			},
		},
		Commitment: &commitment,
		FromSlot:   fromSlot,
	}
}

// connect 只尝试一次订阅
func (m *GrpcStreamManager) connect() (*session, error) {
	if m.ctx.Err() != nil {
		return nil, backoff.Permanent(m.ctx.Err())
	}

	var fromSlot *uint64
	if m.resume != nil {
		slot, err := m.resume(m.ctx)
		if err != nil {
			// 进度读取失败不阻塞订阅，从最新位置开始
			logger.Warnf("[GrpcStream] load resume slot failed: %v", err)
		}
		fromSlot = slot
	}

	connCtx, connCancel := context.WithCancel(m.ctx)
	metaCtx := metadata.NewOutgoingContext(connCtx, metadata.New(map[string]string{"x-token": m.xToken}))
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		connCancel()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	req := buildSubscribeRequest(m.accountInclude, fromSlot)
	if err := sendWithTimeout(connCtx, stream.Send, req, m.sendTimeout); err != nil {
		connCancel()
		return nil, fmt.Errorf("send subscribe request: %w", err)
	}

	if fromSlot != nil {
		logger.Infof("[GrpcStream] connection established, from_slot=%d", *fromSlot)
	} else {
		logger.Infof("[GrpcStream] connection established")
	}

	go m.pingLoop(connCtx, stream)
	return &session{ctx: connCtx, cancel: connCancel, stream: stream}, nil
}

// recvLoop 同步处理每条交易更新；流出错或 ctx 结束时返回
func (m *GrpcStreamManager) recvLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	for {
		update, err := stream.Recv()
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, io.EOF):
				logger.Warnf("[GrpcStream] stream closed by server (EOF)")
			default:
				logger.Errorf("[GrpcStream] stream error: %v", err)
			}
			return
		}

		if tx := update.GetTransaction(); tx != nil {
			m.handler(ctx, tx)
		}
	}
}

// sendWithTimeout 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

// pingLoop 应用层心跳，避免负载均衡器关闭空闲流
func (m *GrpcStreamManager) pingLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	if m.streamPingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.streamPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingReq := &pb.SubscribeRequest{Ping: &pb.SubscribeRequestPing{Id: 1}}
			if err := sendWithTimeout(ctx, stream.Send, pingReq, m.sendTimeout); err != nil {
				// 这里只记录日志，不触发重连
				logger.Warnf("[GrpcStream] ping failed: %v", err)
			}
		}
	}
}

func boolPtr(b bool) *bool {
	return &b
}
