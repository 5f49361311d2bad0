package chunks

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/attestnet/attest/model/messages"
	"github.com/attestnet/attest/model/quorum"
)

// Assembler is the requester side of the chunk exchange for one artifact. Chunks are
// kept apart per holder, so a payload is always reassembled from a single holder and
// holders serving different payloads never mix. It has no timers: requests are
// repeated whenever the Want for the artifact is rebroadcast.
type Assembler struct {
	mu       sync.Mutex
	id       uint64
	holders  map[quorum.PeerID]*transfer
	excluded map[quorum.PeerID]struct{}
}

// transfer is the state of the retrieval from one holder.
type transfer struct {
	total    int
	held     *bitset.BitSet
	received *bitset.BitSet
	chunks   [][]byte
}

func newTransfer(total int) (*transfer, error) {
	if total <= 0 || total > MaxChunks {
		return nil, fmt.Errorf("invalid chunk count %d", total)
	}
	return &transfer{
		total:    total,
		held:     bitset.New(uint(total)),
		received: bitset.New(uint(total)),
		chunks:   make([][]byte, total),
	}, nil
}

func (t *transfer) complete() bool {
	return int(t.received.Count()) == t.total
}

func NewAssembler(id uint64) *Assembler {
	return &Assembler{
		id:       id,
		holders:  make(map[quorum.PeerID]*transfer),
		excluded: make(map[quorum.PeerID]struct{}),
	}
}

// ID returns the artifact id.
func (a *Assembler) ID() uint64 {
	return a.id
}

// Want returns the request for the artifact carrying the chunks received from the
// most advanced holder.
func (a *Assembler) Want() *messages.Want {
	a.mu.Lock()
	defer a.mu.Unlock()

	want := &messages.Want{ArtifactID: a.id}
	if best, ok := a.best(); ok && best.received.Count() > 0 {
		want.Bitmap = best.received.Bytes()
	}
	return want
}

// OnHave records an announcement and returns the request for the chunks the holder
// can serve and has not delivered yet, or false if there are none. Announcements of
// excluded holders are ignored.
func (a *Assembler) OnHave(holder quorum.PeerID, have *messages.Have) (*messages.RequestChunk, bool, error) {
	if have.ArtifactID != a.id {
		return nil, false, fmt.Errorf("announcement for artifact %d sent to assembler of %d", have.ArtifactID, a.id)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.excluded[holder]; ok {
		return nil, false, nil
	}

	t, ok := a.holders[holder]
	if !ok || t.total != int(have.Total) {
		// a holder changing its chunk count starts over
		var err error
		t, err = newTransfer(int(have.Total))
		if err != nil {
			return nil, false, fmt.Errorf("artifact %d from %s: %w", a.id, holder, err)
		}
		a.holders[holder] = t
	}

	t.held.ClearAll()
	for _, index := range indexes(have.Bitmap, t.total) {
		t.held.Set(uint(index))
	}

	wanted := t.held.Difference(t.received)
	if wanted.Count() == 0 {
		return nil, false, nil
	}
	return &messages.RequestChunk{ArtifactID: a.id, Bitmap: wanted.Bytes()}, true, nil
}

// OnChunk stores a chunk received from the holder. Returns true if it was new.
// Chunks of excluded holders are dropped.
func (a *Assembler) OnChunk(holder quorum.PeerID, chunk *messages.Chunk) (bool, error) {
	if chunk.ArtifactID != a.id {
		return false, fmt.Errorf("chunk of artifact %d sent to assembler of %d", chunk.ArtifactID, a.id)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.excluded[holder]; ok {
		return false, nil
	}
	t, ok := a.holders[holder]
	if !ok {
		return false, fmt.Errorf("chunk %d of artifact %d from %s arrived before any announcement", chunk.Index, a.id, holder)
	}
	index := int(chunk.Index)
	if index >= t.total {
		return false, fmt.Errorf("chunk index %d out of range, %s announced %d chunks of artifact %d", index, holder, t.total, a.id)
	}
	if t.received.Test(uint(index)) {
		return false, nil
	}

	t.chunks[index] = append([]byte(nil), chunk.Data...)
	t.received.Set(uint(index))
	return true, nil
}

// Exclude drops everything received from the holder and ignores it from now on.
func (a *Assembler) Exclude(holder quorum.PeerID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.holders, holder)
	a.excluded[holder] = struct{}{}
}

// Missing returns the indexes the most advanced holder has not delivered yet, in
// ascending order. Before any announcement the count is unknown and nothing is reported.
func (a *Assembler) Missing() []uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()

	best, ok := a.best()
	if !ok {
		return nil
	}
	var missing []uint16
	for i := 0; i < best.total; i++ {
		if !best.received.Test(uint(i)) {
			missing = append(missing, uint16(i))
		}
	}
	return missing
}

// Holders returns the peers that announced the chunk and are not excluded.
func (a *Assembler) Holders(index uint16) []quorum.PeerID {
	a.mu.Lock()
	defer a.mu.Unlock()

	var holders []quorum.PeerID
	for peer, t := range a.holders {
		if t.held.Test(uint(index)) {
			holders = append(holders, peer)
		}
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })
	return holders
}

// Complete returns the payload reassembled from the holder once it delivered every
// chunk it announced.
func (a *Assembler) Complete(holder quorum.PeerID) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.holders[holder]
	if !ok || !t.complete() {
		return nil, false
	}
	return bytes.Join(t.chunks, nil), true
}

// best returns the transfer with the most received chunks, ties broken by peer id.
func (a *Assembler) best() (*transfer, bool) {
	var (
		best *transfer
		peer quorum.PeerID
	)
	for p, t := range a.holders {
		if best == nil || t.received.Count() > best.received.Count() ||
			(t.received.Count() == best.received.Count() && p < peer) {
			best, peer = t, p
		}
	}
	return best, best != nil
}
