package ctoken

import (
	"bytes"
	"encoding/binary"
	"testing"

	"compressed-indexer-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mintBytes 按 CompressedMint 布局手工拼装 payload
type mintBytes struct {
	buf bytes.Buffer
}

func (w *mintBytes) u8(v uint8) *mintBytes {
	w.buf.WriteByte(v)
	return w
}

func (w *mintBytes) u32(v uint32) *mintBytes {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *mintBytes) u64(v uint64) *mintBytes {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *mintBytes) key(b byte) *mintBytes {
	w.buf.Write(bytes.Repeat([]byte{b}, 32))
	return w
}

func (w *mintBytes) vec(b []byte) *mintBytes {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
	return w
}

func fillKey(b byte) types.Pubkey {
	var p types.Pubkey
	for i := range p {
		p[i] = b
	}
	return p
}

// baseAndMetadata supply=1000000, decimals=6, mint=0x07...
func baseAndMetadata() *mintBytes {
	w := &mintBytes{}
	w.u8(0)          // mint_authority: None
	w.u64(1_000_000) // supply
	w.u8(6)          // decimals
	w.u8(1)          // is_initialized
	w.u8(0)          // freeze_authority: None
	w.u8(1)          // version
	w.u8(0)          // spl_mint_initialized
	w.key(0x07)      // mint
	return w
}

func mintWithoutExtensions() []byte {
	w := baseAndMetadata()
	w.u8(0)
	return w.buf.Bytes()
}

func mintWithMetadata(name, symbol, uri []byte) []byte {
	w := baseAndMetadata()
	w.u8(1).u32(2)
	w.u8(3) // 占位变体，无负载
	w.u8(TokenMetadataTag)
	w.key(0x08).key(0x07)
	w.vec(name).vec(symbol).vec(uri)
	w.u32(1).vec([]byte("k")).vec([]byte("v"))
	return w.buf.Bytes()
}

func TestDecodeCompressedMint_NoExtensions(t *testing.T) {
	m, err := DecodeCompressedMint(mintWithoutExtensions())
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000), m.Base.Supply)
	assert.Equal(t, uint8(6), m.Base.Decimals)
	assert.True(t, m.Base.IsInitialized)
	assert.Nil(t, m.Base.MintAuthority)
	assert.Equal(t, fillKey(0x07), m.Metadata.Mint)
	assert.Nil(t, m.Extensions)
	assert.Nil(t, m.DomainExtensions())
}

func TestDecodeCompressedMint_TokenMetadata(t *testing.T) {
	m, err := DecodeCompressedMint(mintWithMetadata([]byte("Light"), []byte("LGT"), []byte("https://x")))
	require.NoError(t, err)

	exts := m.DomainExtensions()
	require.Len(t, exts, 2)
	assert.Equal(t, OtherExtension{Tag: 3}, exts[0])

	mds := TokenMetadatas(exts)
	require.Len(t, mds, 1)
	assert.Equal(t, "Light", mds[0].Name)
	assert.Equal(t, "LGT", mds[0].Symbol)
	assert.Equal(t, "https://x", mds[0].URI)
	assert.Equal(t, fillKey(0x08), mds[0].UpdateAuthority)
	assert.Equal(t, []MetadataPair{{Key: "k", Value: "v"}}, mds[0].AdditionalMetadata)
}

func TestDecodeCompressedMint_InvalidUTF8IsLossy(t *testing.T) {
	m, err := DecodeCompressedMint(mintWithMetadata([]byte("ab\xffc"), nil, nil))
	require.NoError(t, err)

	mds := TokenMetadatas(m.DomainExtensions())
	require.Len(t, mds, 1)
	assert.Equal(t, "ab\uFFFDc", mds[0].Name)
	assert.Equal(t, "", mds[0].Symbol)
}

func TestDecodeCompressedMint_Errors(t *testing.T) {
	_, err := DecodeCompressedMint(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	full := mintWithoutExtensions()
	_, err = DecodeCompressedMint(full[:10])
	assert.Error(t, err)

	_, err = DecodeCompressedMint(append(mintWithoutExtensions(), 0x00))
	assert.ErrorIs(t, err, ErrTrailingBytes)

	w := baseAndMetadata()
	w.u8(1).u32(1).u8(40)
	_, err = DecodeCompressedMint(w.buf.Bytes())
	assert.Error(t, err)
}
