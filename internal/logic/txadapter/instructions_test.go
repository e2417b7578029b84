package txadapter

import (
	"testing"

	"compressed-indexer-sol/internal/logic/core"
	"compressed-indexer-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTable 构造 n 个账户的账户表，第 i 个账户首字节为 i+1
func newTable(n int) *AccountKeyTable {
	keys := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, raw(byte(i+1)))
	}
	table, _ := BuildAccountKeyTable(keys, nil, nil)
	return table
}

func compiled(program uint32, data string, accounts ...byte) *pb.CompiledInstruction {
	return &pb.CompiledInstruction{ProgramIdIndex: program, Accounts: accounts, Data: []byte(data)}
}

func inner(program uint32, data string, accounts ...byte) *pb.InnerInstruction {
	return &pb.InnerInstruction{ProgramIdIndex: program, Accounts: accounts, Data: []byte(data)}
}

func dataOf(instrs []*core.FlatInstruction) []string {
	out := make([]string, 0, len(instrs))
	for _, ix := range instrs {
		out = append(out, string(ix.Data))
	}
	return out
}

func TestFlattenInstructions_TopLevelOnly(t *testing.T) {
	table := newTable(4)
	instrs := FlattenInstructions(table, []*pb.CompiledInstruction{
		compiled(3, "a", 0, 1),
		compiled(2, "b", 1),
	}, nil)

	require.Len(t, instrs, 2)
	assert.Equal(t, key(4), instrs[0].ProgramID)
	assert.Equal(t, []types.Pubkey{key(1), key(2)}, instrs[0].Accounts)
	assert.Equal(t, key(3), instrs[1].ProgramID)
	assert.Equal(t, uint16(1), instrs[1].IxIndex)
	assert.Equal(t, uint16(0), instrs[1].InnerIndex)
}

func TestFlattenInstructions_OutOfRangeProgramExcluded(t *testing.T) {
	table := newTable(3)
	instrs, stats := flattenInstructions(table, []*pb.CompiledInstruction{
		compiled(0, "keep-1"),
		compiled(3, "drop"), // 越界
		compiled(1, "keep-2"),
	}, []*pb.InnerInstructions{
		{Index: 0, Instructions: []*pb.InnerInstruction{inner(99, "drop-inner"), inner(2, "keep-inner")}},
	})

	assert.Equal(t, []string{"keep-1", "keep-2", "keep-inner"}, dataOf(instrs))
	assert.Equal(t, 2, stats.droppedInstructions)

	flat := core.NewFlattenedInstructions(instrs)
	assert.Equal(t, 3, flat.Len())
	assert.Len(t, flat.Data, 3)
	assert.Len(t, flat.Accounts, 3)
}

func TestFlattenInstructions_OutOfRangeAccountDropped(t *testing.T) {
	table := newTable(3)
	instrs, stats := flattenInstructions(table, []*pb.CompiledInstruction{
		compiled(0, "x", 1, 200, 2, 3),
	}, nil)

	require.Len(t, instrs, 1)
	assert.Equal(t, []types.Pubkey{key(2), key(3)}, instrs[0].Accounts)
	assert.Equal(t, 2, stats.droppedAccounts)
}

func TestFlattenInstructions_InnerAfterTopLevel(t *testing.T) {
	table := newTable(5)
	instrs := FlattenInstructions(table, []*pb.CompiledInstruction{
		compiled(0, "top-0"),
		compiled(1, "top-1"),
		compiled(2, "top-2"),
	}, []*pb.InnerInstructions{
		{Index: 0, Instructions: []*pb.InnerInstruction{inner(3, "inner-0-1"), inner(4, "inner-0-2")}},
		{Index: 2, Instructions: []*pb.InnerInstruction{inner(3, "inner-2-1")}},
	})

	assert.Equal(t, []string{"top-0", "top-1", "top-2", "inner-0-1", "inner-0-2", "inner-2-1"}, dataOf(instrs))

	last := instrs[len(instrs)-1]
	assert.Equal(t, uint16(2), last.IxIndex)
	assert.Equal(t, uint16(1), last.InnerIndex)
	assert.Equal(t, uint16(2), instrs[4].InnerIndex)
}

func TestFlattenInstructions_PreservesSuppliedGroupOrder(t *testing.T) {
	// meta 给出的组顺序即执行顺序，不做重排
	table := newTable(2)
	instrs := FlattenInstructions(table, []*pb.CompiledInstruction{
		compiled(0, "top-0"),
		compiled(0, "top-1"),
	}, []*pb.InnerInstructions{
		{Index: 1, Instructions: []*pb.InnerInstruction{inner(1, "inner-1")}},
		{Index: 0, Instructions: []*pb.InnerInstruction{inner(1, "inner-0")}},
	})

	assert.Equal(t, []string{"top-0", "top-1", "inner-1", "inner-0"}, dataOf(instrs))
}

func TestFlattenInstructions_Empty(t *testing.T) {
	table := newTable(0)
	instrs := FlattenInstructions(table, nil, nil)
	assert.Empty(t, instrs)

	flat := core.NewFlattenedInstructions(instrs)
	assert.Equal(t, 0, flat.Len())
}
