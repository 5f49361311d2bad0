package validator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/module/ledgerview"
	"github.com/attestnet/attest/network/cache"
	"github.com/attestnet/attest/network/codec/cbor"
	"github.com/attestnet/attest/utils/unittest"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Unix(1_700_000_000, 0)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type pending struct {
	seq uint64
	ok  bool
}

func (p *pending) Pending() (uint64, bool) {
	return p.seq, p.ok
}

// fixture is shared by the validator tests: epoch 1 with four authorities, snapshot
// sequence 10 finalized with worker nonce 100, bridge nonce 20 finalized on network 1.
type fixture struct {
	codec *cbor.Codec
	clock *clock
	view  *ledgerview.LedgerView
	cache *cache.MessageCache
}

func newFixture(t *testing.T) *fixture {
	clk := newClock()
	set, _ := unittest.AuthoritySetFixture(t, 1, 4)
	view := ledgerview.New(unittest.Logger(), set)
	view.SetSnapshot(unittest.SnapshotFixture(unittest.WithStateChangeID(10), unittest.WithWorkerNonce(100)))
	view.Advance(quorum.BridgeStream(1), 20)

	c, err := cache.NewMessageCache(unittest.Logger(), 1024, cache.WithClock(clk.Now))
	require.NoError(t, err)

	return &fixture{
		codec: cbor.NewCodec(),
		clock: clk,
		view:  view,
		cache: c,
	}
}

func (f *fixture) encode(t *testing.T, msg interface{}) []byte {
	data, err := f.codec.Encode(msg)
	require.NoError(t, err)
	return data
}
