package lightevent

import (
	"compressed-indexer-sol/internal/types"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

var (
	ErrTrailingBytes  = errors.New("trailing bytes after event")
	ErrInvalidOption  = errors.New("invalid option flag")
	ErrLengthTooLarge = errors.New("vec length exceeds remaining bytes")
)

// DecodePublicTransactionEvent 按 borsh 布局手动解码 PublicTransactionEvent。
// 要求数据恰好被完整消费，多余字节视为错误。
func DecodePublicTransactionEvent(data []byte) (*PublicTransactionEvent, error) {
	dec := bin.NewBorshDecoder(data)
	r := eventReader{dec: dec}

	event := &PublicTransactionEvent{}
	event.InputCompressedAccountHashes = r.hashes("input_compressed_account_hashes")
	event.OutputCompressedAccountHashes = r.hashes("output_compressed_account_hashes")

	if n := r.vecLen("output_compressed_accounts"); n > 0 {
		event.OutputCompressedAccounts = make([]OutputCompressedAccount, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			event.OutputCompressedAccounts = append(event.OutputCompressedAccounts, r.outputAccount())
		}
	}

	if n := r.vecLen("output_leaf_indices"); n > 0 {
		event.OutputLeafIndices = make([]uint32, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			event.OutputLeafIndices = append(event.OutputLeafIndices, r.u32("output_leaf_index"))
		}
	}

	if n := r.vecLen("sequence_numbers"); n > 0 {
		event.SequenceNumbers = make([]MerkleTreeSequenceNumber, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			event.SequenceNumbers = append(event.SequenceNumbers, MerkleTreeSequenceNumber{
				Pubkey: r.pubkey("sequence_number.pubkey"),
				Seq:    r.u64("sequence_number.seq"),
			})
		}
	}

	if r.option("relay_fee") {
		v := r.u64("relay_fee")
		event.RelayFee = &v
	}
	event.IsCompress = r.flag("is_compress")
	if r.option("compress_or_decompress_lamports") {
		v := r.u64("compress_or_decompress_lamports")
		event.CompressOrDecompressLamports = &v
	}

	if n := r.vecLen("pubkey_array"); n > 0 {
		event.PubkeyArray = make([]types.Pubkey, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			event.PubkeyArray = append(event.PubkeyArray, r.pubkey("pubkey_array"))
		}
	}

	if r.option("message") {
		event.Message = r.byteVec("message")
	}

	if r.err != nil {
		return nil, r.err
	}
	if rest := dec.Remaining(); rest > 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, rest)
	}
	return event, nil
}

// eventReader 包装 Decoder，遇到首个错误后后续读取全部短路，最终统一检查 err
type eventReader struct {
	dec *bin.Decoder
	err error
}

func (r *eventReader) fail(field string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("decode %s: %w", field, err)
	}
}

func (r *eventReader) u8(field string) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *eventReader) flag(field string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.ReadBool()
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *eventReader) u32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *eventReader) u64(field string) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	if err != nil {
		r.fail(field, err)
	}
	return v
}

func (r *eventReader) fixed(field string, dst []byte) {
	if r.err != nil {
		return
	}
	b, err := r.dec.ReadNBytes(len(dst))
	if err != nil {
		r.fail(field, err)
		return
	}
	copy(dst, b)
}

func (r *eventReader) pubkey(field string) (p types.Pubkey) {
	r.fixed(field, p[:])
	return p
}

func (r *eventReader) hash(field string) (h types.Hash) {
	r.fixed(field, h[:])
	return h
}

// option 读取 borsh Option 标志位：0 = None，1 = Some
func (r *eventReader) option(field string) bool {
	tag := r.u8(field)
	if r.err != nil {
		return false
	}
	switch tag {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail(field, fmt.Errorf("%w: %d", ErrInvalidOption, tag))
		return false
	}
}

// vecLen 读取 borsh Vec 长度前缀；每个元素至少占 1 字节，长度超过剩余字节数直接判错，避免超大分配
func (r *eventReader) vecLen(field string) int {
	n := r.u32(field)
	if r.err != nil {
		return 0
	}
	if uint64(n) > uint64(r.dec.Remaining()) {
		r.fail(field, fmt.Errorf("%w: len=%d remaining=%d", ErrLengthTooLarge, n, r.dec.Remaining()))
		return 0
	}
	return int(n)
}

func (r *eventReader) byteVec(field string) []byte {
	n := r.vecLen(field)
	if r.err != nil {
		return nil
	}
	out := make([]byte, n)
	r.fixed(field, out)
	return out
}

func (r *eventReader) hashes(field string) []types.Hash {
	n := r.vecLen(field)
	if n == 0 {
		return nil
	}
	out := make([]types.Hash, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.hash(field))
	}
	return out
}

func (r *eventReader) outputAccount() OutputCompressedAccount {
	var out OutputCompressedAccount
	acc := &out.CompressedAccount
	acc.Owner = r.pubkey("compressed_account.owner")
	acc.Lamports = r.u64("compressed_account.lamports")
	if r.option("compressed_account.address") {
		addr := r.hash("compressed_account.address")
		acc.Address = &addr
	}
	if r.option("compressed_account.data") {
		data := &CompressedAccountData{}
		r.fixed("compressed_account.data.discriminator", data.Discriminator[:])
		data.Data = r.byteVec("compressed_account.data.data")
		data.DataHash = r.hash("compressed_account.data.data_hash")
		acc.Data = data
	}
	out.MerkleTreeIndex = r.u8("merkle_tree_index")
	return out
}
