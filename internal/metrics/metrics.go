package metrics

import (
	"compressed-indexer-sol/pkg/logger"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "compressed_indexer"

var (
	// TxReceived 收到的交易更新数（过滤前）
	TxReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_received_total",
		Help:      "Transaction updates received from the geyser stream.",
	})

	// TxProcessed 按结果统计：events / no_events / parse_error / adapt_error / panic / skipped
	TxProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_processed_total",
		Help:      "Transactions processed, by outcome.",
	}, []string{"outcome"})

	// Observations 按 kind 统计输出的观测记录
	Observations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_total",
		Help:      "Observation records emitted, by kind.",
	}, []string{"kind"})

	// DroppedReferences 账户表 / 指令展平时丢弃的非法引用
	DroppedReferences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_references_total",
		Help:      "Malformed keys and out-of-range indices dropped during flattening.",
	}, []string{"type"})

	// SkippedNoopPayloads Light 上下文内无法解析为事件的 noop 数据（changelog 等）
	SkippedNoopPayloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_noop_payloads_total",
		Help:      "Noop payloads inside a Light context that are not PublicTransactionEvents.",
	})

	SinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_errors_total",
		Help:      "Failed sink emits.",
	})

	StreamReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_reconnects_total",
		Help:      "gRPC stream reconnect attempts.",
	})

	LastSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_processed_slot",
		Help:      "Slot of the most recently processed transaction.",
	})

	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tx_process_seconds",
		Help:      "Time spent processing one transaction update.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)

// Server 暴露 /metrics，实现 go-zero service.Service 以便加入 ServiceGroup
type Server struct {
	srv *http.Server
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func (s *Server) Start() {
	logger.Infof("[Metrics] listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("[Metrics] server stopped: %v", err)
	}
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
