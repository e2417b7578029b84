package lightevent

import (
	"compressed-indexer-sol/internal/logic/core"
	"compressed-indexer-sol/internal/types"
	"compressed-indexer-sol/pkg/logger"
	"fmt"
	"runtime/debug"
)

// Parser 事件解析能力：输入为按执行顺序展平的三列指令序列。
//
// 返回值约定：
//   - found == false && err == nil：交易中没有 Light 事件；
//   - found == true：batches 可能为空切片（有 Light 调用但未产生事件）；
//   - err != nil：本笔交易解析失败，batches / found 无意义。
//
// 解析器对输入顺序敏感，调用方不得重排。
type Parser interface {
	Parse(programs []types.Pubkey, data [][]byte, accounts [][]types.Pubkey) (batches []*EventBatch, found bool, err error)
}

// ParserFunc 允许用普通函数实现 Parser（测试中用作固定输出）
type ParserFunc func(programs []types.Pubkey, data [][]byte, accounts [][]types.Pubkey) ([]*EventBatch, bool, error)

func (f ParserFunc) Parse(programs []types.Pubkey, data [][]byte, accounts [][]types.Pubkey) ([]*EventBatch, bool, error) {
	return f(programs, data, accounts)
}

// Decode 以展平后的指令调用解析器，原样透传其结果；解析器 panic 时转为 ParseErrorKindPanic
func Decode(p Parser, flat core.FlattenedInstructions) (batches []*EventBatch, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[lightevent::Decode] parser panic: %v\nstack: %s", r, debug.Stack())
			batches, found = nil, false
			err = &ParseError{Kind: ParseErrorKindPanic, Index: -1, Err: fmt.Errorf("%v", r)}
		}
	}()
	return p.Parse(flat.Programs, flat.Data, flat.Accounts)
}
