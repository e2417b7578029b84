package replay

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterThenReadUpdates(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, slot := range []uint64{5, 6} {
		require.NoError(t, w.Write(&pb.SubscribeUpdateTransaction{
			Slot: slot,
			Transaction: &pb.SubscribeUpdateTransactionInfo{
				Signature: []byte{1, 2, 3},
				Transaction: &pb.Transaction{Message: &pb.Message{
					AccountKeys: [][]byte{bytes.Repeat([]byte{7}, 32)},
				}},
			},
		}))
	}
	require.NoError(t, w.Flush())

	var got []*pb.SubscribeUpdateTransaction
	n, err := ReadUpdates(&buf, func(u *pb.SubscribeUpdateTransaction) error {
		got = append(got, u)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(5), got[0].GetSlot())
	assert.Equal(t, []byte{1, 2, 3}, got[1].GetTransaction().GetSignature())
	assert.Len(t, got[1].GetTransaction().GetTransaction().GetMessage().GetAccountKeys(), 1)
}

func TestReadUpdates_BareTransactionAndSkips(t *testing.T) {
	input := strings.Join([]string{
		`{"slot":"9"}`,
		``,
		`{"pong":{"id":1}}`,
	}, "\n")

	var slots []uint64
	n, err := ReadUpdates(strings.NewReader(input), func(u *pb.SubscribeUpdateTransaction) error {
		slots = append(slots, u.GetSlot())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint64{9}, slots)
}

func TestReadUpdates_Errors(t *testing.T) {
	_, err := ReadUpdates(strings.NewReader("{\"slot\":\"1\"}\nnot-json\n"), func(*pb.SubscribeUpdateTransaction) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	stop := errors.New("stop")
	n, err := ReadUpdates(strings.NewReader(`{"slot":"1"}`), func(*pb.SubscribeUpdateTransaction) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 0, n)
}
