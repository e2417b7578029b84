package ctoken

import (
	"compressed-indexer-sol/internal/types"
	"errors"
	"fmt"

	"github.com/near/borsh-go"
)

// TokenMetadataTag ExtensionStruct 中 TokenMetadata 变体的 borsh 枚举序号
const TokenMetadataTag = 19

var (
	ErrEmptyPayload  = errors.New("empty compressed mint payload")
	ErrTrailingBytes = errors.New("trailing bytes after compressed mint")
)

// BaseMint 与 SPL Mint 对齐的基础字段
type BaseMint struct {
	MintAuthority   *types.Pubkey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *types.Pubkey
}

type CompressedMintMetadata struct {
	Version            uint8
	SplMintInitialized bool
	Mint               types.Pubkey
}

// CompressedMint cToken 程序下压缩 mint 账户的 borsh 布局
type CompressedMint struct {
	Base       BaseMint
	Metadata   CompressedMintMetadata
	Extensions *[]ExtensionStruct
}

type AdditionalMetadata struct {
	Key   []byte
	Value []byte
}

// TokenMetadata 扩展的原始字段，name / symbol / uri 为未校验的字节串
type TokenMetadata struct {
	UpdateAuthority    types.Pubkey
	Mint               types.Pubkey
	Name               []byte
	Symbol             []byte
	URI                []byte
	AdditionalMetadata []AdditionalMetadata
}

// ExtensionStruct borsh 复合枚举：0..18 为无负载的占位变体，19 为 TokenMetadata
type ExtensionStruct struct {
	Enum          borsh.Enum `borsh_enum:"true"`
	Placeholder0  struct{}
	Placeholder1  struct{}
	Placeholder2  struct{}
	Placeholder3  struct{}
	Placeholder4  struct{}
	Placeholder5  struct{}
	Placeholder6  struct{}
	Placeholder7  struct{}
	Placeholder8  struct{}
	Placeholder9  struct{}
	Placeholder10 struct{}
	Placeholder11 struct{}
	Placeholder12 struct{}
	Placeholder13 struct{}
	Placeholder14 struct{}
	Placeholder15 struct{}
	Placeholder16 struct{}
	Placeholder17 struct{}
	Placeholder18 struct{}
	TokenMetadata TokenMetadata
}

// DecodeCompressedMint 反序列化 CompressedMint（payload 不含 8 字节判别前缀），要求数据恰好被完整消费。
// 未知的扩展序号会让 borsh-go 越界 panic，这里统一转为 error。
func DecodeCompressedMint(payload []byte) (mint *CompressedMint, err error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	defer func() {
		if r := recover(); r != nil {
			mint, err = nil, fmt.Errorf("decode compressed mint: %v", r)
		}
	}()

	var m CompressedMint
	if err := borsh.Deserialize(&m, payload); err != nil {
		return nil, fmt.Errorf("decode compressed mint: %w", err)
	}
	if m.Extensions != nil {
		for i, ext := range *m.Extensions {
			if ext.Enum > TokenMetadataTag {
				return nil, fmt.Errorf("decode compressed mint: extension[%d] unknown tag %d", i, ext.Enum)
			}
		}
	}

	// borsh-go 不返回已消费长度，按规范编码重新序列化后比较
	canonical, err := borsh.Serialize(m)
	if err != nil {
		return nil, fmt.Errorf("re-encode compressed mint: %w", err)
	}
	if rest := len(payload) - len(canonical); rest > 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, rest)
	}
	return &m, nil
}
