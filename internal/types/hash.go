package types

import (
	"github.com/mr-tron/base58"
)

// Hash 压缩账户哈希 / 压缩地址（32 字节，非 ed25519 公钥）
type Hash [32]byte

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// Discriminator 压缩账户数据的 8 字节类型前缀
type Discriminator [8]byte

// Bytes 以 []int 形式返回，日志中与链上工具输出的 [0, 0, ...] 格式保持一致
func (d Discriminator) Bytes() []int {
	out := make([]int, len(d))
	for i, b := range d {
		out[i] = int(b)
	}
	return out
}
