package lightevent

import (
	"compressed-indexer-sol/internal/consts"
	"compressed-indexer-sol/internal/metrics"
	"compressed-indexer-sol/internal/types"
	"compressed-indexer-sol/pkg/logger"
	"fmt"
)

// NoopParser 从 light system program 写入 noop 程序的 CPI 数据中恢复 PublicTransactionEvent。
//
// 扫描规则（依赖展平顺序：主指令在前，inner 指令在后）：
//   - 遇到 light system program 指令即进入 Light 上下文，found = true；
//   - 进入上下文后，能解出 PublicTransactionEvent 的 noop data 对应一个 EventBatch；
//   - account-compression 程序在同一上下文里也会写 noop（changelog 等），解不出的 payload 跳过；
//   - 上下文之前的 noop 指令属于其他程序，忽略。
//
// 只有上下文内存在 noop payload 且一个都解不出时才返回 ParseErrorKindDeserialize。
//
// 该路径不携带新地址信息，NewAddresses 始终为空。NoopParser 无状态，可被多笔交易复用。
type NoopParser struct {
	lightSystem types.Pubkey
	noop        types.Pubkey
}

func NewNoopParser(programs consts.Programs) *NoopParser {
	return &NoopParser{
		lightSystem: programs.LightSystem,
		noop:        programs.Noop,
	}
}

func (p *NoopParser) Parse(programs []types.Pubkey, data [][]byte, accounts [][]types.Pubkey) ([]*EventBatch, bool, error) {
	if len(programs) != len(data) || len(programs) != len(accounts) {
		return nil, false, &ParseError{
			Kind:  ParseErrorKindLengthMismatch,
			Index: -1,
			Err:   fmt.Errorf("programs=%d data=%d accounts=%d", len(programs), len(data), len(accounts)),
		}
	}

	found := false
	batches := make([]*EventBatch, 0)
	var firstErr *ParseError
	for i, program := range programs {
		switch program {
		case p.lightSystem:
			found = true
		case p.noop:
			if !found {
				continue
			}
			event, err := DecodePublicTransactionEvent(data[i])
			if err != nil {
				logger.Debugf("[NoopParser] skip non-event noop payload at %d (%d bytes): %v", i, len(data[i]), err)
				metrics.SkippedNoopPayloads.Inc()
				if firstErr == nil {
					firstErr = &ParseError{Kind: ParseErrorKindDeserialize, Index: i, Err: err}
				}
				continue
			}
			batches = append(batches, &EventBatch{Event: *event})
		}
	}

	if !found {
		return nil, false, nil
	}
	if len(batches) == 0 && firstErr != nil {
		return nil, false, firstErr
	}
	return batches, true, nil
}
