package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

const PubkeySize = 32

type Pubkey [PubkeySize]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// PubkeyFromBytes 从原始字节构造 Pubkey，长度不为 32 时返回 false（不 panic，供 gRPC 原始数据使用）
func PubkeyFromBytes(b []byte) (Pubkey, bool) {
	var p Pubkey
	if len(b) != PubkeySize {
		return p, false
	}
	copy(p[:], b)
	return p, true
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径，如配置文件）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != PubkeySize {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 仅用于编译期常量，失败直接 panic
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}
