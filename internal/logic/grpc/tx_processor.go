package grpc

import (
	"compressed-indexer-sol/internal/logic/core"
	"compressed-indexer-sol/internal/logic/lightevent"
	"compressed-indexer-sol/internal/logic/report"
	"compressed-indexer-sol/internal/logic/txadapter"
	"compressed-indexer-sol/internal/metrics"
	"compressed-indexer-sol/pkg/logger"
	"context"
	"runtime/debug"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

const (
	outcomeEvents     = "events"
	outcomeNoEvents   = "no_events"
	outcomeParseError = "parse_error"
	outcomeAdaptError = "adapt_error"
	outcomeSkipped    = "skipped"
	outcomePanic      = "panic"
)

// SlotMarker 记录处理进度，progress.ProgressManager 满足该接口
type SlotMarker interface {
	MarkProcessed(slot uint64)
}

// TxProcessor 单笔交易的处理流程：展平 -> 事件解析 -> 输出账户检查 -> 观测记录。
// 由接收协程同步调用，不并发，不保留跨交易状态。
type TxProcessor struct {
	parser   lightevent.Parser
	builder  *report.Builder
	sink     report.Sink
	progress SlotMarker // 可为空
}

func NewTxProcessor(parser lightevent.Parser, builder *report.Builder, sink report.Sink, progress SlotMarker) *TxProcessor {
	return &TxProcessor{
		parser:   parser,
		builder:  builder,
		sink:     sink,
		progress: progress,
	}
}

// IsValidTxUpdate 过滤掉空交易、投票交易与执行失败的交易（服务端已过滤，这里兜底）
func IsValidTxUpdate(update *pb.SubscribeUpdateTransaction) bool {
	info := update.GetTransaction()
	if info == nil || info.IsVote {
		return false
	}
	if info.GetTransaction().GetMessage() == nil {
		return false
	}
	return info.GetMeta().GetErr() == nil
}

// Handle 满足 TxHandler，丢弃返回的记录
func (p *TxProcessor) Handle(ctx context.Context, update *pb.SubscribeUpdateTransaction) {
	p.Process(ctx, update)
}

// Process 处理一笔交易并返回已输出的观测记录。任何失败都只影响当前交易。
func (p *TxProcessor) Process(ctx context.Context, update *pb.SubscribeUpdateTransaction) (records []report.Observation) {
	metrics.TxReceived.Inc()
	start := time.Now()
	defer func() {
		metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	}()

	if !IsValidTxUpdate(update) {
		metrics.TxProcessed.WithLabelValues(outcomeSkipped).Inc()
		return nil
	}

	txCtx := txadapter.TxContextFromUpdate(update)
	sig := txCtx.SignatureString()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[TxProcessor] panic: %v, slot=%d, tx=%s\nstack: %s", r, txCtx.Slot, sig, debug.Stack())
			metrics.TxProcessed.WithLabelValues(outcomePanic).Inc()
			records = nil
		}
	}()

	logger.Infof("Transaction: %d %s", txCtx.Slot, sig)

	adapted, err := txadapter.AdaptGrpcTx(txCtx, update)
	if err != nil {
		logger.Warnf("[TxProcessor] adapt failed: %v, slot=%d, tx=%s", err, txCtx.Slot, sig)
		metrics.TxProcessed.WithLabelValues(outcomeAdaptError).Inc()
		return nil
	}
	p.logDropped(adapted, sig)

	batches, found, err := lightevent.Decode(p.parser, adapted.Flattened())
	switch {
	case err != nil:
		logger.Errorf("[TxProcessor] parse error: %v, slot=%d, tx=%s", err, txCtx.Slot, sig)
		records = []report.Observation{p.builder.ParseError(txCtx, err)}
		metrics.TxProcessed.WithLabelValues(outcomeParseError).Inc()
	case !found:
		logger.Infof("[TxProcessor] no compressed account events, slot=%d, tx=%s", txCtx.Slot, sig)
		metrics.TxProcessed.WithLabelValues(outcomeNoEvents).Inc()
	default:
		records = p.builder.Build(txCtx, batches)
		metrics.TxProcessed.WithLabelValues(outcomeEvents).Inc()
	}

	p.emit(ctx, txCtx, records)
	if p.progress != nil {
		p.progress.MarkProcessed(txCtx.Slot)
	}
	metrics.LastSlot.Set(float64(txCtx.Slot))
	return records
}

func (p *TxProcessor) emit(ctx context.Context, txCtx *core.TxContext, records []report.Observation) {
	if len(records) == 0 {
		return
	}
	for i := range records {
		metrics.Observations.WithLabelValues(string(records[i].Kind)).Inc()
	}
	if err := p.sink.Emit(ctx, records); err != nil {
		logger.Errorf("[TxProcessor] emit %d records failed: %v, slot=%d, tx=%s",
			len(records), err, txCtx.Slot, txCtx.SignatureString())
		metrics.SinkErrors.Inc()
	}
}

func (p *TxProcessor) logDropped(tx *core.AdaptedTx, sig string) {
	if tx.SkippedAccountKeys > 0 {
		logger.Warnf("[TxProcessor] skipped %d malformed account keys, slot=%d, tx=%s",
			tx.SkippedAccountKeys, tx.TxCtx.Slot, sig)
		metrics.DroppedReferences.WithLabelValues("account_key").Add(float64(tx.SkippedAccountKeys))
	}
	if tx.DroppedInstructions > 0 || tx.DroppedAccounts > 0 {
		logger.Debugf("[TxProcessor] dropped %d instructions, %d account refs, tx=%s",
			tx.DroppedInstructions, tx.DroppedAccounts, sig)
		metrics.DroppedReferences.WithLabelValues("instruction").Add(float64(tx.DroppedInstructions))
		metrics.DroppedReferences.WithLabelValues("account_index").Add(float64(tx.DroppedAccounts))
	}
}
