package txadapter

import (
	"compressed-indexer-sol/internal/logic/core"
	"errors"
	"fmt"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

var ErrMissingMessage = errors.New("transaction update missing message")

// TxContextFromUpdate 提取 slot / 序号 / 签名，签名优先取 geyser 外层字段
func TxContextFromUpdate(update *pb.SubscribeUpdateTransaction) *core.TxContext {
	info := update.GetTransaction()
	sig := info.GetSignature()
	if len(sig) == 0 {
		if sigs := info.GetTransaction().GetSignatures(); len(sigs) > 0 {
			sig = sigs[0]
		}
	}
	return &core.TxContext{
		Slot:      update.GetSlot(),
		TxIndex:   info.GetIndex(),
		Signature: sig,
	}
}

// AdaptGrpcTx 将 gRPC 推送的交易数据解析为内部 AdaptedTx 结构。
// 完整流程：
//  1. 构建统一账户表（含 Address Lookup）；
//  2. 展平指令（主 + inner）；
//  3. 返回 AdaptedTx；如 panic 会被 recover。
//
// meta 缺失时按无 ALT、无 inner 指令处理。
func AdaptGrpcTx(txCtx *core.TxContext, update *pb.SubscribeUpdateTransaction) (_ *core.AdaptedTx, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("AdaptGrpcTx panic: %v", r)
		}
	}()

	msg := update.GetTransaction().GetTransaction().GetMessage()
	if msg == nil {
		return nil, ErrMissingMessage
	}
	meta := update.GetTransaction().GetMeta()

	// 构造完整的账户 pubkey 列表（主账户 + Address Lookup 表中的 writable 和 readonly）
	table, skipped := BuildAccountKeyTable(
		msg.GetAccountKeys(),
		meta.GetLoadedWritableAddresses(),
		meta.GetLoadedReadonlyAddresses(),
	)

	// 解析主指令和 inner 指令
	instructions, stats := flattenInstructions(table, msg.GetInstructions(), meta.GetInnerInstructions())

	return &core.AdaptedTx{
		TxCtx:               txCtx,
		AccountKeyCount:     table.Len(),
		SkippedAccountKeys:  skipped,
		Instructions:        instructions,
		DroppedInstructions: stats.droppedInstructions,
		DroppedAccounts:     stats.droppedAccounts,
	}, nil
}
