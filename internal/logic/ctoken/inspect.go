package ctoken

import (
	"compressed-indexer-sol/internal/consts"
	"compressed-indexer-sol/internal/logic/lightevent"
	"compressed-indexer-sol/internal/types"
)

// InspectionKind 单个输出账户的分类结果
type InspectionKind uint8

const (
	InspectionGeneric         InspectionKind = iota + 1 // owner 非 cToken，或 cToken 账户不带数据
	InspectionUnrecognized                              // cToken 账户，判别前缀不是 CompressedMint
	InspectionMint                                      // 成功解析的 CompressedMint
	InspectionMintDecodeError                           // 判别前缀匹配但反序列化失败
)

func (k InspectionKind) String() string {
	switch k {
	case InspectionGeneric:
		return "generic"
	case InspectionUnrecognized:
		return "unrecognized_ctoken"
	case InspectionMint:
		return "mint"
	case InspectionMintDecodeError:
		return "mint_decode_error"
	default:
		return "unknown"
	}
}

// MintInfo 用于输出的 mint 摘要
type MintInfo struct {
	Mint          types.Pubkey
	Supply        uint64
	Decimals      uint8
	TokenMetadata []TokenMetadataExtension
	Extensions    []Extension
}

// Inspection 对一个输出账户的检查结果，按 Kind 读取对应字段
type Inspection struct {
	Kind          InspectionKind
	Owner         types.Pubkey
	Address       *types.Hash         // 压缩地址，可能为空
	Discriminator types.Discriminator // Unrecognized 时有效
	Mint          *MintInfo           // Mint 时有效
	Err           error               // MintDecodeError 时有效
}

// Inspector 按 owner + 判别前缀分发输出账户，无状态
type Inspector struct {
	ctoken      types.Pubkey
	mintDiscrim types.Discriminator
}

func NewInspector(programs consts.Programs) *Inspector {
	return &Inspector{
		ctoken:      programs.CToken,
		mintDiscrim: programs.CompressedMintDiscriminator,
	}
}

func (i *Inspector) Inspect(out *lightevent.OutputCompressedAccount) Inspection {
	acc := &out.CompressedAccount
	res := Inspection{Owner: acc.Owner, Address: acc.Address}

	if acc.Owner != i.ctoken || acc.Data == nil {
		res.Kind = InspectionGeneric
		return res
	}

	if acc.Data.Discriminator != i.mintDiscrim {
		res.Kind = InspectionUnrecognized
		res.Discriminator = acc.Data.Discriminator
		return res
	}

	mint, err := DecodeCompressedMint(acc.Data.Data)
	if err != nil {
		res.Kind = InspectionMintDecodeError
		res.Err = err
		return res
	}

	exts := mint.DomainExtensions()
	res.Kind = InspectionMint
	res.Mint = &MintInfo{
		Mint:          mint.Metadata.Mint,
		Supply:        mint.Base.Supply,
		Decimals:      mint.Base.Decimals,
		TokenMetadata: TokenMetadatas(exts),
		Extensions:    exts,
	}
	return res
}

// AddressString 返回压缩地址的 base58，为空时返回 "none"
func (r *Inspection) AddressString() string {
	if r.Address == nil {
		return "none"
	}
	return r.Address.String()
}
