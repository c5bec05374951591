package engine

import (
	"context"
	"runtime"
	"sync/atomic"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"golang.org/x/sync/errgroup"
)

// Bound describes how a stored score relates to the true value.
type Bound uint8

const (
	NoBound Bound = iota
	UpperBound
	LowerBound
	ExactBound
)

const (
	DefaultHashMB = 16
	MaxHashMB     = 4096

	ttSlotBytes = 16

	// Below this many slots Clear runs inline.
	parallelClearSlots = 1 << 20
)

// PackedMove is the 16-bit table form of a move: from, to and promotion type.
type PackedMove uint16

func PackMove(m gm.Move) PackedMove {
	if m == 0 {
		return 0
	}
	return PackedMove(uint16(m.From()) | uint16(m.To())<<6 | uint16(m.PromotionPieceType()&7)<<12)
}

func (p PackedMove) From() gm.Square { return gm.Square(p & 63) }
func (p PackedMove) To() gm.Square   { return gm.Square((p >> 6) & 63) }

// Matches reports whether m is the move stored in p.
func (p PackedMove) Matches(m gm.Move) bool {
	return p != 0 && p == PackMove(m)
}

// TTEntry is the decoded view of a slot.
type TTEntry struct {
	Move  PackedMove
	Score int32
	Eval  int32
	Depth int
	Bound Bound
}

type ttSlot struct {
	key  atomic.Uint64 // hash ^ data
	data atomic.Uint64
}

// TransTable is a lock-free always-replace hash table shared between workers.
// Racing writers can tear a slot, the xor check on read turns that into a miss.
type TransTable struct {
	slots []ttSlot
	mask  uint64
}

// NewTransTable allocates a table within the given megabyte budget.
func NewTransTable(megabytes int) *TransTable {
	tt := &TransTable{}
	tt.SetSize(megabytes)
	return tt
}

// SetSize reallocates the table, discarding all entries. The slot count is the
// largest power of two that fits the budget.
func (tt *TransTable) SetSize(megabytes int) {
	megabytes = Clamp(megabytes, 1, MaxHashMB)
	budget := uint64(megabytes) << 20
	count := uint64(1)
	for count*2*ttSlotBytes <= budget {
		count *= 2
	}
	tt.slots = make([]ttSlot, count)
	tt.mask = count - 1
}

func (tt *TransTable) Len() int { return len(tt.slots) }

// Clear zeroes every slot. Large tables are cleared by one goroutine per CPU.
func (tt *TransTable) Clear() {
	if len(tt.slots) < parallelClearSlots {
		clearSlots(tt.slots)
		return
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(tt.slots) + workers - 1) / workers
	g, _ := errgroup.WithContext(context.Background())
	for start := 0; start < len(tt.slots); start += chunk {
		part := tt.slots[start:min(start+chunk, len(tt.slots))]
		g.Go(func() error {
			clearSlots(part)
			return nil
		})
	}
	_ = g.Wait()
}

func clearSlots(slots []ttSlot) {
	for i := range slots {
		slots[i].key.Store(0)
		slots[i].data.Store(0)
	}
}

// Data layout: move 0-15, score 16-31, eval 32-47, depth 48-55, bound 56-57.
func packEntry(move PackedMove, score, eval int32, depth int, bound Bound) uint64 {
	return uint64(move) |
		uint64(uint16(int16(score)))<<16 |
		uint64(uint16(int16(eval)))<<32 |
		uint64(uint8(Clamp(depth, 0, 255)))<<48 |
		uint64(bound&3)<<56
}

func unpackEntry(data uint64) TTEntry {
	return TTEntry{
		Move:  PackedMove(data),
		Score: int32(int16(uint16(data >> 16))),
		Eval:  int32(int16(uint16(data >> 32))),
		Depth: int(uint8(data >> 48)),
		Bound: Bound((data >> 56) & 3),
	}
}

// Store writes an entry, always replacing. Mate scores are made relative to
// this node before they go in.
func (tt *TransTable) Store(hash uint64, depth, ply int, bound Bound, score int32, move gm.Move, rawEval int32) {
	slot := &tt.slots[hash&tt.mask]
	data := packEntry(PackMove(move), scoreToTT(score, ply), rawEval, depth, bound)
	slot.key.Store(hash ^ data)
	slot.data.Store(data)
}

// StorePacked is Store for callers that only hold the packed move.
func (tt *TransTable) StorePacked(hash uint64, depth, ply int, bound Bound, score int32, move PackedMove, rawEval int32) {
	slot := &tt.slots[hash&tt.mask]
	data := packEntry(move, scoreToTT(score, ply), rawEval, depth, bound)
	slot.key.Store(hash ^ data)
	slot.data.Store(data)
}

// Probe looks up hash; a key mismatch is a miss.
func (tt *TransTable) Probe(hash uint64, ply int) (TTEntry, bool) {
	slot := &tt.slots[hash&tt.mask]
	data := slot.data.Load()
	if slot.key.Load()^data != hash || data == 0 {
		return TTEntry{}, false
	}
	e := unpackEntry(data)
	e.Score = scoreFromTT(e.Score, ply)
	return e, true
}

// Hashfull estimates table usage in permille from the first thousand slots.
func (tt *TransTable) Hashfull() int {
	n := min(1000, len(tt.slots))
	used := 0
	for i := 0; i < n; i++ {
		if tt.slots[i].data.Load() != 0 {
			used++
		}
	}
	return used * 1000 / n
}

func scoreToTT(score int32, ply int) int32 {
	if score >= MateBound {
		return score + int32(ply)
	}
	if score <= -MateBound {
		return score - int32(ply)
	}
	return score
}

func scoreFromTT(score int32, ply int) int32 {
	if score >= MateBound {
		return score - int32(ply)
	}
	if score <= -MateBound {
		return score + int32(ply)
	}
	return score
}
