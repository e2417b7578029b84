package lightevent

import (
	"bytes"
	"encoding/binary"

	"compressed-indexer-sol/internal/types"
)

// borshWriter 测试用的最小 borsh 编码器，按字段顺序手工拼装事件字节
type borshWriter struct {
	buf bytes.Buffer
}

func (w *borshWriter) u8(v uint8) *borshWriter {
	w.buf.WriteByte(v)
	return w
}

func (w *borshWriter) u32(v uint32) *borshWriter {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *borshWriter) u64(v uint64) *borshWriter {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *borshWriter) raw(b []byte) *borshWriter {
	w.buf.Write(b)
	return w
}

func (w *borshWriter) vec(b []byte) *borshWriter {
	return w.u32(uint32(len(b))).raw(b)
}

func (w *borshWriter) bytes() []byte {
	return w.buf.Bytes()
}

func fill32(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func pk(b byte) types.Pubkey {
	return types.Pubkey(fill32(b))
}

func hashOf(b byte) types.Hash {
	return types.Hash(fill32(b))
}

// rep32 返回 32 个 b 组成的切片，用于直接写入 hash / pubkey 字段
func rep32(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

// minimalEvent 全部 Vec 为空、Option 为 None 的事件
func minimalEvent() []byte {
	w := &borshWriter{}
	w.u32(0) // input hashes
	w.u32(0) // output hashes
	w.u32(0) // output accounts
	w.u32(0) // leaf indices
	w.u32(0) // sequence numbers
	w.u8(0)  // relay_fee
	w.u8(0)  // is_compress
	w.u8(0)  // compress_or_decompress_lamports
	w.u32(0) // pubkey_array
	w.u8(0)  // message
	return w.bytes()
}

// outputAccountEvent 含一个带数据的输出账户
func outputAccountEvent(owner types.Pubkey, disc types.Discriminator, payload []byte) []byte {
	w := &borshWriter{}
	w.u32(1).raw(rep32(0xA1))
	w.u32(1).raw(rep32(0xB1))

	w.u32(1)
	w.raw(owner[:]).u64(1_000)
	w.u8(1).raw(rep32(0xC1)) // address
	w.u8(1).raw(disc[:]).vec(payload).raw(rep32(0xD1))
	w.u8(0) // merkle_tree_index

	w.u32(1).u32(7)
	tree := pk(0xEE)
	w.u32(1).raw(tree[:]).u64(42)
	w.u8(1).u64(5000) // relay_fee
	w.u8(1)           // is_compress
	w.u8(0)
	w.u32(1).raw(tree[:])
	w.u8(1).vec([]byte("hi"))
	return w.bytes()
}
