package core

import (
	"compressed-indexer-sol/internal/types"

	"github.com/gagliardetto/solana-go"
)

// TxContext 表示单笔交易的定位信息，用于日志与观测记录的关联。
type TxContext struct {
	Slot      uint64 // 交易所在 Slot（Solana 高度单位）
	TxIndex   uint64 // 交易在区块中的序号（geyser TransactionIndex）
	Signature []byte // 交易签名（64 字节原始数据）
}

// SignatureString 返回 base58 编码的签名，签名长度非法时返回空串
func (c *TxContext) SignatureString() string {
	if len(c.Signature) != solana.SignatureLength {
		return ""
	}
	return solana.SignatureFromBytes(c.Signature).String()
}

// FlatInstruction 表示一条主指令或 inner 指令，来源于 message.instructions 或 meta.innerInstructions。
// 账户索引已全部解析为 Pubkey，无法解析的索引已被丢弃。
type FlatInstruction struct {
	IxIndex    uint16         // 所属主指令索引（从 0 开始）
	InnerIndex uint16         // Inner 指令在所属组中的序号，主指令本身为 0，CPI 调用从 1 开始
	ProgramID  types.Pubkey   // 指令对应的程序 ID
	Accounts   []types.Pubkey // 指令涉及的账户列表，保持原始顺序
	Data       []byte         // 指令原始数据
}

// FlattenedInstructions 是事件解析器要求的三列输入：第 i 项共同描述执行日志中的第 i 条指令。
// 三个切片长度始终相等。
type FlattenedInstructions struct {
	Programs []types.Pubkey
	Data     [][]byte
	Accounts [][]types.Pubkey
}

func (f FlattenedInstructions) Len() int {
	return len(f.Programs)
}

// NewFlattenedInstructions 按顺序把 []*FlatInstruction 拆成三列
func NewFlattenedInstructions(instrs []*FlatInstruction) FlattenedInstructions {
	f := FlattenedInstructions{
		Programs: make([]types.Pubkey, 0, len(instrs)),
		Data:     make([][]byte, 0, len(instrs)),
		Accounts: make([][]types.Pubkey, 0, len(instrs)),
	}
	for _, ix := range instrs {
		f.Programs = append(f.Programs, ix.ProgramID)
		f.Data = append(f.Data, ix.Data)
		f.Accounts = append(f.Accounts, ix.Accounts)
	}
	return f
}

// AdaptedTx 表示已展平的链上交易结构，是事件解析流程的核心输入结构体。
// 生命周期限定在单次 Process 调用内，不跨交易复用。
type AdaptedTx struct {
	TxCtx *TxContext

	// AccountKeyCount 为统一账户表长度（静态账户 + ALT writable + ALT readonly）
	AccountKeyCount int

	// SkippedAccountKeys 为构建账户表时因长度非法被跳过的条目数
	SkippedAccountKeys int

	// Instructions 表示交易中的所有指令（主指令在前，inner 指令按 meta 顺序追加在后）。
	Instructions []*FlatInstruction

	// DroppedInstructions 为 program 索引越界而被整体排除的指令数
	DroppedInstructions int

	// DroppedAccounts 为账户索引越界而被单独剔除的账户引用数
	DroppedAccounts int
}

// Flattened 返回供事件解析器使用的三列视图
func (tx *AdaptedTx) Flattened() FlattenedInstructions {
	return NewFlattenedInstructions(tx.Instructions)
}
