package report

// Kind 观测记录类别（封闭集合）
type Kind string

const (
	KindBatchSummary       Kind = "batch_summary"       // 每个 batch 的输入 / 输出数量
	KindGeneric            Kind = "generic"             // 非 cToken 输出，或 cToken 输出不带数据
	KindUnrecognizedCToken Kind = "unrecognized_ctoken" // cToken 输出，判别前缀未知
	KindMint               Kind = "mint"                // 解析成功的 CompressedMint
	KindMintDecodeError    Kind = "mint_decode_error"   // CompressedMint 反序列化失败
	KindNewAddresses       Kind = "new_addresses"       // batch 新分配的压缩地址数量
	KindParseError         Kind = "parse_error"         // 事件解析失败，整笔交易无事件
)

// Observation 单条观测记录，同一笔交易的记录共享 Slot / Signature。
// 按 Kind 读取对应字段，其余字段为零值，JSON 编码时省略。
type Observation struct {
	Kind      Kind   `json:"kind"`
	Slot      uint64 `json:"slot"`
	Signature string `json:"signature"`
	Batch     int    `json:"batch"` // batch 在本笔交易中的序号，ParseError 为 -1

	Summary       *BatchSummary `json:"summary,omitempty"`
	Owner         string        `json:"owner,omitempty"`
	Address       string        `json:"address,omitempty"`       // 压缩地址 base58，缺失时为 "none"
	Discriminator []int         `json:"discriminator,omitempty"` // UnrecognizedCToken
	Mint          *MintRecord   `json:"mint,omitempty"`
	NewAddresses  int           `json:"new_addresses,omitempty"`
	ErrorKind     string        `json:"error_kind,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type BatchSummary struct {
	Inputs  int `json:"inputs"`
	Outputs int `json:"outputs"`
}

type MintRecord struct {
	Mint          string                `json:"mint"`
	Supply        uint64                `json:"supply"`
	Decimals      uint8                 `json:"decimals"`
	TokenMetadata []TokenMetadataRecord `json:"token_metadata,omitempty"`
}

type TokenMetadataRecord struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}
