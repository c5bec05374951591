package engine

import (
	"testing"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func mustBoard(t *testing.T, fen string) *gm.Board {
	t.Helper()
	b, err := gm.ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse FEN %q: %v", fen, err)
	}
	return b
}

func mustMove(t *testing.T, b *gm.Board, s string) gm.Move {
	t.Helper()
	m, ok := findMove(b, s)
	if !ok {
		t.Fatalf("move %s not legal in %s", s, b.ToFEN())
	}
	return m
}

func TestTransTableRoundTrip(t *testing.T) {
	tt := NewTransTable(1)
	b := mustBoard(t, StartFEN)
	m := mustMove(t, b, "e2e4")
	hash := b.Hash()

	tt.Store(hash, 7, 0, ExactBound, 35, m, -12)
	e, ok := tt.Probe(hash, 0)
	if !ok {
		t.Fatalf("expected a hit after store")
	}
	if !e.Move.Matches(m) || e.Score != 35 || e.Eval != -12 || e.Depth != 7 || e.Bound != ExactBound {
		t.Fatalf("unexpected entry %+v", e)
	}

	if _, ok := tt.Probe(hash^1, 0); ok {
		t.Fatalf("expected a miss for a different key")
	}
}

func TestTransTableMateRebasing(t *testing.T) {
	tt := NewTransTable(1)
	const hash = 0xDEADBEEFCAFEF00D

	// Mate in 3 plies seen from a node at ply 5.
	score := MateValue - 8
	tt.Store(hash, 4, 5, LowerBound, score, 0, NoScore)

	e, ok := tt.Probe(hash, 2)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if want := MateValue - 5; e.Score != want {
		t.Fatalf("mate score at ply 2: got %d, want %d", e.Score, want)
	}
	if e.Eval != NoScore {
		t.Fatalf("eval should survive packing, got %d", e.Eval)
	}

	tt.Store(hash, 4, 5, UpperBound, -score, 0, 0)
	e, _ = tt.Probe(hash, 2)
	if want := -(MateValue - 5); e.Score != want {
		t.Fatalf("mated score at ply 2: got %d, want %d", e.Score, want)
	}
}

func TestTransTableSizing(t *testing.T) {
	tt := NewTransTable(1)
	if got := tt.Len(); got != 1<<16 {
		t.Fatalf("1MB table: got %d slots, want %d", got, 1<<16)
	}
	tt.SetSize(3)
	if got := tt.Len(); got != 1<<17 {
		t.Fatalf("3MB table: got %d slots, want %d", got, 1<<17)
	}
	if n := tt.Len(); n&(n-1) != 0 {
		t.Fatalf("slot count %d is not a power of two", n)
	}
}

func TestTransTableClearAndHashfull(t *testing.T) {
	tt := NewTransTable(1)
	if tt.Hashfull() != 0 {
		t.Fatalf("new table should be empty")
	}
	for i := uint64(0); i < 500; i++ {
		tt.Store(i, 1, 0, ExactBound, 1, 0, 0)
	}
	if got := tt.Hashfull(); got != 500 {
		t.Fatalf("hashfull: got %d, want 500", got)
	}
	tt.Clear()
	if got := tt.Hashfull(); got != 0 {
		t.Fatalf("hashfull after clear: got %d", got)
	}
	if _, ok := tt.Probe(3, 0); ok {
		t.Fatalf("expected a miss after clear")
	}
}

func TestPackedMoveFields(t *testing.T) {
	b := mustBoard(t, "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	m := mustMove(t, b, "b7b8n")
	p := PackMove(m)
	if p.From() != m.From() || p.To() != m.To() {
		t.Fatalf("packed squares %d-%d, want %d-%d", p.From(), p.To(), m.From(), m.To())
	}
	if p.Matches(mustMove(t, b, "b7b8q")) {
		t.Fatalf("promotion type must distinguish packed moves")
	}
	if PackedMove(0).Matches(0) {
		t.Fatalf("the empty packed move matches nothing")
	}
}

func TestTransTableConcurrentAccess(t *testing.T) {
	tt := NewTransTable(1)
	const (
		workers = 8
		rounds  = 20_000
		buckets = 64
	)
	// Every key lands in one of a few slots so writers keep tearing each other.
	key := func(w, i int) uint64 { return uint64(w*rounds+i+1)<<32 | uint64(i%buckets) }
	score := func(k uint64) int32 { return int32(k>>32%2000) - 1000 }
	depth := func(k uint64) int { return int(k>>32) % 40 }

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				k := key(w, i)
				tt.Store(k, depth(k), 0, LowerBound, score(k), 0, -score(k))
				if i > 0 {
					k = key((w+1)%workers, i-1)
				}
				e, ok := tt.Probe(k, 0)
				if ok && (e.Score != score(k) || e.Eval != -score(k) || e.Depth != depth(k) || e.Bound != LowerBound) {
					return errors.Errorf("key %x: torn entry %+v", k, e)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("%v", err)
	}
}
