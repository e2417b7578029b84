package ctoken

import (
	"compressed-indexer-sol/internal/types"
	"strings"
)

// Extension 压缩 mint 扩展的领域表示（封闭集合，只有本包内的实现）
type Extension interface {
	extensionTag() uint8
}

// TokenMetadataExtension 已转为文本的 TokenMetadata，非法 UTF-8 序列替换为 U+FFFD
type TokenMetadataExtension struct {
	UpdateAuthority    types.Pubkey
	Mint               types.Pubkey
	Name               string
	Symbol             string
	URI                string
	AdditionalMetadata []MetadataPair
}

type MetadataPair struct {
	Key   string
	Value string
}

// OtherExtension 不关心的扩展变体，仅保留序号
type OtherExtension struct {
	Tag uint8
}

func (TokenMetadataExtension) extensionTag() uint8 { return TokenMetadataTag }
func (e OtherExtension) extensionTag() uint8       { return e.Tag }

// DomainExtensions 把 wire 层的枚举转为领域扩展列表，保持原顺序；Option 为 None 时返回 nil
func (m *CompressedMint) DomainExtensions() []Extension {
	if m.Extensions == nil {
		return nil
	}
	out := make([]Extension, 0, len(*m.Extensions))
	for _, ext := range *m.Extensions {
		if uint8(ext.Enum) == TokenMetadataTag {
			out = append(out, newTokenMetadataExtension(&ext.TokenMetadata))
			continue
		}
		out = append(out, OtherExtension{Tag: uint8(ext.Enum)})
	}
	return out
}

// TokenMetadatas 只挑出 TokenMetadata 扩展，其余变体忽略
func TokenMetadatas(exts []Extension) []TokenMetadataExtension {
	var out []TokenMetadataExtension
	for _, ext := range exts {
		switch e := ext.(type) {
		case TokenMetadataExtension:
			out = append(out, e)
		case OtherExtension:
		}
	}
	return out
}

func newTokenMetadataExtension(md *TokenMetadata) TokenMetadataExtension {
	ext := TokenMetadataExtension{
		UpdateAuthority: md.UpdateAuthority,
		Mint:            md.Mint,
		Name:            lossyString(md.Name),
		Symbol:          lossyString(md.Symbol),
		URI:             lossyString(md.URI),
	}
	if len(md.AdditionalMetadata) > 0 {
		ext.AdditionalMetadata = make([]MetadataPair, 0, len(md.AdditionalMetadata))
		for _, kv := range md.AdditionalMetadata {
			ext.AdditionalMetadata = append(ext.AdditionalMetadata, MetadataPair{
				Key:   lossyString(kv.Key),
				Value: lossyString(kv.Value),
			})
		}
	}
	return ext
}

func lossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
