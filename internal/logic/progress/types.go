package progress

import "context"

// Store 持久化最近一次处理完成的 slot，用于重连 / 重启后续订
type Store interface {
	// LastSlot 返回已记录的 slot；没有记录时 ok == false
	LastSlot(ctx context.Context) (slot uint64, ok bool, err error)
	// SaveSlot 只允许前进，小于等于已记录值时忽略
	SaveSlot(ctx context.Context, slot uint64) error
}

// ResumeSlot 由已记录的 slot 推导订阅起点；没有记录时返回 nil。
// 同一 slot 可能有多笔交易，记录只说明该 slot 已开始处理，所以从该 slot 本身重新订阅，
// 已处理过的交易会被重复投递，下游按签名去重。
func ResumeSlot(last uint64, ok bool) *uint64 {
	if !ok {
		return nil
	}
	from := last
	return &from
}
