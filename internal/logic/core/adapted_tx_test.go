package core

import (
	"testing"

	"compressed-indexer-sol/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestAdaptedTx_Flattened(t *testing.T) {
	p1, p2 := types.Pubkey{1}, types.Pubkey{2}
	tx := &AdaptedTx{Instructions: []*FlatInstruction{
		{ProgramID: p1, Data: []byte{0xA}},
		{IxIndex: 0, InnerIndex: 1, ProgramID: p2, Accounts: []types.Pubkey{p1}},
	}}

	// 直接在返回值上调用 Len
	assert.Equal(t, 2, tx.Flattened().Len())
	assert.Equal(t, 0, (&AdaptedTx{}).Flattened().Len())

	flat := tx.Flattened()
	assert.Equal(t, []types.Pubkey{p1, p2}, flat.Programs)
	assert.Equal(t, [][]byte{{0xA}, nil}, flat.Data)
	assert.Equal(t, [][]types.Pubkey{nil, {p1}}, flat.Accounts)
}

func TestTxContext_SignatureString(t *testing.T) {
	assert.Empty(t, (&TxContext{Signature: []byte{1, 2}}).SignatureString())
	sig := (&TxContext{Signature: make([]byte, 64)}).SignatureString()
	assert.Equal(t, "1111111111111111111111111111111111111111111111111111111111111111", sig)
}
