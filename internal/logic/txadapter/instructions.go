package txadapter

import (
	"compressed-indexer-sol/internal/logic/core"
	"compressed-indexer-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// flattenStats 记录展平过程中因索引越界被丢弃的数量，仅用于日志
type flattenStats struct {
	droppedInstructions int
	droppedAccounts     int
}

// FlattenInstructions 扁平化主指令与 inner 指令，输出统一结构。
//
// 顺序规则（事件解析器依赖该顺序累积状态，不可调整）：
//  1. 先按原始顺序输出全部主指令；
//  2. 再按 meta.innerInstructions 给出的顺序追加每组 inner 指令，组内保持原顺序。
//
// 索引越界处理：
//   - program 索引越界：整条指令丢弃，不占位；
//   - account 索引越界：仅剔除该账户，指令本身保留。
func FlattenInstructions(
	table *AccountKeyTable,
	rawInstructions []*pb.CompiledInstruction,
	rawInners []*pb.InnerInstructions,
) []*core.FlatInstruction {
	instrs, _ := flattenInstructions(table, rawInstructions, rawInners)
	return instrs
}

func flattenInstructions(
	table *AccountKeyTable,
	rawInstructions []*pb.CompiledInstruction,
	rawInners []*pb.InnerInstructions,
) ([]*core.FlatInstruction, flattenStats) {
	var stats flattenStats

	innerCount := 0
	for _, group := range rawInners {
		innerCount += len(group.GetInstructions())
	}
	instructions := make([]*core.FlatInstruction, 0, len(rawInstructions)+innerCount)

	// 主指令，InnerIndex = 0
	for i, inst := range rawInstructions {
		ix, dropped := resolveInstruction(table, inst.GetProgramIdIndex(), inst.GetAccounts(), inst.GetData())
		stats.droppedAccounts += dropped
		if ix == nil {
			stats.droppedInstructions++
			continue
		}
		ix.IxIndex = uint16(i)
		instructions = append(instructions, ix)
	}

	// inner 指令（CPI），按 meta 给出的顺序追加，InnerIndex 从 1 开始
	for _, group := range rawInners {
		for j, inner := range group.GetInstructions() {
			ix, dropped := resolveInstruction(table, inner.GetProgramIdIndex(), inner.GetAccounts(), inner.GetData())
			stats.droppedAccounts += dropped
			if ix == nil {
				stats.droppedInstructions++
				continue
			}
			ix.IxIndex = uint16(group.GetIndex())
			ix.InnerIndex = uint16(j + 1)
			instructions = append(instructions, ix)
		}
	}

	return instructions, stats
}

// resolveInstruction 将 program 索引与账户索引列表解析为 Pubkey。
// program 无法解析时返回 nil；droppedAccounts 为被剔除的账户引用数量。
func resolveInstruction(table *AccountKeyTable, programIdx uint32, accounts []byte, data []byte) (_ *core.FlatInstruction, droppedAccounts int) {
	programID, ok := table.Get(programIdx)
	if !ok {
		return nil, 0
	}

	accs := make([]types.Pubkey, 0, len(accounts))
	for _, idx := range accounts {
		pk, ok := table.Get(uint32(idx))
		if !ok {
			droppedAccounts++
			continue
		}
		accs = append(accs, pk)
	}

	return &core.FlatInstruction{
		ProgramID: programID,
		Accounts:  accs,
		Data:      data,
	}, droppedAccounts
}
