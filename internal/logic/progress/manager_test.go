package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	slot  uint64
	ok    bool
	saves int
	err   error
}

func (s *memStore) LastSlot(context.Context) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot, s.ok, s.err
}

func (s *memStore) SaveSlot(_ context.Context, slot uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves++
	if slot > s.slot {
		s.slot, s.ok = slot, true
	}
	return nil
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "progress:light:default:last_slot", slotKey(""))
	assert.Equal(t, "progress:light:devnet:last_slot", slotKey("devnet"))
}

func TestResumeSlot(t *testing.T) {
	assert.Nil(t, ResumeSlot(0, false))
	from := ResumeSlot(100, true)
	require.NotNil(t, from)
	assert.Equal(t, uint64(100), *from)
}

func TestProgressManager_MarkAndFlush(t *testing.T) {
	store := &memStore{}
	pm := NewProgressManager(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, pm.Flush(ctx))
	assert.Equal(t, 0, store.saves)

	pm.MarkProcessed(10)
	pm.MarkProcessed(8)
	require.NoError(t, pm.Flush(ctx))
	assert.Equal(t, uint64(10), store.slot)

	// 无变化时不重复写入
	require.NoError(t, pm.Flush(ctx))
	assert.Equal(t, 1, store.saves)
}

func TestProgressManager_ResumeFrom(t *testing.T) {
	ctx := context.Background()

	pm := NewProgressManager(&memStore{}, time.Hour)
	from, err := pm.ResumeFrom(ctx)
	require.NoError(t, err)
	assert.Nil(t, from)

	pm = NewProgressManager(&memStore{slot: 50, ok: true}, time.Hour)
	from, err = pm.ResumeFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), *from)

	// 尚未 flush 的内存进度优先
	pm.MarkProcessed(70)
	from, err = pm.ResumeFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), *from)

	pm = NewProgressManager(&memStore{err: errors.New("down")}, time.Hour)
	_, err = pm.ResumeFrom(ctx)
	assert.Error(t, err)
}

func TestProgressManager_ResumeWithinPartialSlot(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	pm := NewProgressManager(store, time.Hour)

	// slot 100 的第一笔交易处理完后断流，同 slot 的后续交易还未收到
	pm.MarkProcessed(99)
	pm.MarkProcessed(100)

	from, err := pm.ResumeFrom(ctx)
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, uint64(100), *from)

	// 重启后只剩 Store 中的记录，同样从 slot 100 重新订阅
	require.NoError(t, pm.Flush(ctx))
	restarted := NewProgressManager(store, time.Hour)
	from, err = restarted.ResumeFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), *from)
}

func TestProgressManager_FinalFlushOnStop(t *testing.T) {
	store := &memStore{}
	pm := NewProgressManager(store, time.Hour)
	pm.MarkProcessed(5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pm.StartFlushLoop(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flush loop did not stop")
	}
	slot, ok, _ := store.LastSlot(context.Background())
	assert.True(t, ok)
	assert.Equal(t, uint64(5), slot)
}

func TestProgressManager_StartStop(t *testing.T) {
	store := &memStore{}
	pm := NewProgressManager(store, 10*time.Millisecond)
	go pm.Start()

	pm.MarkProcessed(9)
	require.Eventually(t, func() bool {
		slot, _, _ := store.LastSlot(context.Background())
		return slot == 9
	}, time.Second, 5*time.Millisecond)

	pm.MarkProcessed(12)
	pm.Stop()
	slot, _, _ := store.LastSlot(context.Background())
	assert.Equal(t, uint64(12), slot)
}
