package ledgerview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/ledger"
	mockledger "github.com/attestnet/attest/ledger/mock"
	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/utils/unittest"
)

func TestAdvance_Monotonic(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 0, 3)
	view := New(unittest.Logger(), set)
	stream := quorum.BridgeStream(1)

	assert.True(t, view.Advance(stream, 5))
	assert.False(t, view.Advance(stream, 5))
	assert.False(t, view.Advance(stream, 3))
	assert.Equal(t, uint64(5), view.Load().LastFinalized(stream))
	assert.Equal(t, uint64(0), view.Load().LastFinalized(quorum.SnapshotStream))
}

// TestLoad_Immutable checks that published views are never modified by later updates.
func TestLoad_Immutable(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 0, 3)
	view := New(unittest.Logger(), set)

	before := view.Load()
	view.Advance(quorum.SnapshotStream, 7)
	view.SetSnapshot(unittest.SnapshotFixture(unittest.WithStateChangeID(9)))

	assert.Equal(t, uint64(0), before.LastFinalized(quorum.SnapshotStream))
	assert.Nil(t, before.Snapshot)
	assert.Equal(t, uint64(9), view.Load().LastFinalized(quorum.SnapshotStream))
}

func TestSetSnapshot_IgnoresOlder(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 0, 3)
	view := New(unittest.Logger(), set)

	latest := unittest.SnapshotFixture(unittest.WithStateChangeID(10))
	view.SetSnapshot(latest)
	view.SetSnapshot(unittest.SnapshotFixture(unittest.WithStateChangeID(4)))

	assert.Equal(t, latest, view.Load().Snapshot)
	assert.Equal(t, latest.WorkerNonce, view.Load().WorkerNonce())
}

func TestRotate(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 1, 3)
	view := New(unittest.Logger(), set)

	next, _ := unittest.AuthoritySetFixture(t, 2, 4)
	require.NoError(t, view.Rotate(next))
	assert.Equal(t, uint64(2), view.Load().Epoch())

	stale, _ := unittest.AuthoritySetFixture(t, 2, 4)
	require.Error(t, view.Rotate(stale))
}

func TestRefresh(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 0, 3)
	view := New(unittest.Logger(), set)
	view.Advance(quorum.SnapshotStream, 20)

	next, _ := unittest.AuthoritySetFixture(t, 1, 4)
	snapshot := unittest.SnapshotFixture(unittest.WithStateChangeID(12))
	bridge := quorum.BridgeStream(2)

	reader := mockledger.NewLedger(t)
	reader.On("CurrentAuthoritySet", mock.Anything).Return(next, nil)
	// the ledger lags behind the local view for the snapshot stream
	reader.On("LastFinalizedSequence", mock.Anything, quorum.SnapshotStream).Return(uint64(12), nil)
	reader.On("LastFinalizedSequence", mock.Anything, bridge).Return(uint64(3), nil)
	reader.On("LatestSnapshot", mock.Anything).Return(snapshot, nil)

	require.NoError(t, view.Refresh(context.Background(), reader, bridge))

	current := view.Load()
	assert.Equal(t, uint64(1), current.Epoch())
	assert.Equal(t, uint64(20), current.LastFinalized(quorum.SnapshotStream))
	assert.Equal(t, uint64(3), current.LastFinalized(bridge))
}

func TestRefresh_NoSnapshot(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 0, 3)
	view := New(unittest.Logger(), set)

	reader := mockledger.NewLedger(t)
	reader.On("CurrentAuthoritySet", mock.Anything).Return(set, nil)
	reader.On("LastFinalizedSequence", mock.Anything, quorum.SnapshotStream).Return(uint64(0), nil)
	reader.On("LatestSnapshot", mock.Anything).Return(nil, ledger.ErrNotFound)

	require.NoError(t, view.Refresh(context.Background(), reader))
	assert.Nil(t, view.Load().Snapshot)
}

// TestConcurrentReaders checks that readers always observe a consistent view while a
// single writer publishes updates.
func TestConcurrentReaders(t *testing.T) {
	set, _ := unittest.AuthoritySetFixture(t, 0, 3)
	view := New(unittest.Logger(), set)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for seq := uint64(1); seq <= 1000; seq++ {
			view.SetSnapshot(unittest.SnapshotFixture(unittest.WithStateChangeID(seq)))
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := uint64(0)
			for j := 0; j < 1000; j++ {
				v := view.Load()
				seq := v.LastFinalized(quorum.SnapshotStream)
				// a view is consistent: its finalized sequence matches its snapshot
				if v.Snapshot != nil {
					assert.Equal(t, v.Snapshot.StateChangeID, seq)
				}
				assert.GreaterOrEqual(t, seq, last)
				last = seq
			}
		}()
	}

	unittest.RequireReturnsBefore(t, wg.Wait, 5*time.Second)
}
