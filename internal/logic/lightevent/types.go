package lightevent

import "compressed-indexer-sol/internal/types"

// CompressedAccountData 压缩账户携带的业务数据：8 字节判别前缀 + 原始 payload
type CompressedAccountData struct {
	Discriminator types.Discriminator
	Data          []byte
	DataHash      types.Hash
}

// CompressedAccount 压缩账户本体，Address / Data 均为可选
type CompressedAccount struct {
	Owner    types.Pubkey
	Lamports uint64
	Address  *types.Hash
	Data     *CompressedAccountData
}

// OutputCompressedAccount 交易产生的输出账户
type OutputCompressedAccount struct {
	CompressedAccount CompressedAccount
	MerkleTreeIndex   uint8 // 指向 PubkeyArray 中的树地址
}

type MerkleTreeSequenceNumber struct {
	Pubkey types.Pubkey
	Seq    uint64
}

// PublicTransactionEvent light system program 每次执行后记录的状态转移事件
type PublicTransactionEvent struct {
	InputCompressedAccountHashes  []types.Hash
	OutputCompressedAccountHashes []types.Hash
	OutputCompressedAccounts      []OutputCompressedAccount
	OutputLeafIndices             []uint32
	SequenceNumbers               []MerkleTreeSequenceNumber
	RelayFee                      *uint64
	IsCompress                    bool
	CompressOrDecompressLamports  *uint64
	PubkeyArray                   []types.Pubkey
	Message                       []byte // Option<Vec<u8>>，None 时为 nil
}

// NewAddress 本次交易新分配的压缩地址
type NewAddress struct {
	Address    types.Hash
	MtPubkey   types.Pubkey
	QueueIndex uint64
}

// EventBatch 事件解析器的输出单元，单笔交易可能包含多个
type EventBatch struct {
	Event        PublicTransactionEvent
	NewAddresses []NewAddress
}
