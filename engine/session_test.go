package engine

import (
	"testing"
	"time"

	"github.com/dylhunn/dragontoothmg"
	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/rs/zerolog"

	"goose-nnue/engine/nnue"
)

var testNetwork = nnue.NewRandomNetwork(42)

func newTestEngine(t *testing.T, threads int) *Engine {
	t.Helper()
	return New(Config{HashMB: 4, Threads: threads, Logger: zerolog.Nop(), Network: testNetwork})
}

func setPosition(t *testing.T, e *Engine, fen string, moves ...string) {
	t.Helper()
	if err := e.SetPosition(fen, moves); err != nil {
		t.Fatalf("set position: %v", err)
	}
}

// legalByReference checks m against a second, independent move generator.
func legalByReference(fen string, m gm.Move) bool {
	ref := dragontoothmg.ParseFen(fen)
	for _, r := range ref.GenerateLegalMoves() {
		if r.String() == m.String() {
			return true
		}
	}
	return false
}

func TestSearchDepthOneFromStart(t *testing.T) {
	e := newTestEngine(t, 1)
	r := e.Search(Limits{Depth: 1})
	if r.Depth != 1 {
		t.Fatalf("got depth %d, want 1", r.Depth)
	}
	if len(e.Position().GenerateMoves()) != 20 {
		t.Fatalf("start position should have 20 moves")
	}
	if !legalByReference(StartFEN, r.BestMove) {
		t.Fatalf("bestmove %s is not one of the 20 legal moves", r.BestMove)
	}
	if len(r.PV) == 0 || r.PV[0] != r.BestMove {
		t.Fatalf("pv %v does not start with the best move", r.PV)
	}
}

func TestSearchOneNode(t *testing.T) {
	e := newTestEngine(t, 1)
	setPosition(t, e, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	r := e.Search(Limits{Nodes: 1})
	if r.BestMove == 0 || !legalByReference(e.Position().ToFEN(), r.BestMove) {
		t.Fatalf("nodes 1 returned illegal move %s", r.BestMove)
	}
}

func TestSearchSingleLegalMove(t *testing.T) {
	const fen = "7k/8/8/8/8/8/6q1/7K w - - 0 1"
	e := newTestEngine(t, 1)
	setPosition(t, e, fen)
	for _, depth := range []int{1, 4, 8} {
		r := e.Search(Limits{Depth: depth})
		if r.BestMove.String() != "h1g2" {
			t.Fatalf("depth %d: got %s, want h1g2", depth, r.BestMove)
		}
	}

	start := time.Now()
	r := e.Search(Limits{WTime: 60_000, BTime: 60_000})
	if r.BestMove.String() != "h1g2" || r.Depth != 1 {
		t.Fatalf("clock search with one legal move: got %s at depth %d", r.BestMove, r.Depth)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("a forced move should not use the clock")
	}
}

func TestSearchWithEmptyClockReturnsAMove(t *testing.T) {
	e := newTestEngine(t, 1)
	for _, l := range []Limits{
		{HasClock: true},
		{HasClock: true, WTime: -250, BTime: -250},
		{HasClock: true, WInc: 1000, BInc: 1000},
	} {
		start := time.Now()
		r := e.Search(l)
		if !e.time.Limited() {
			t.Fatalf("%+v: clock search ran without a time limit", l)
		}
		if !legalByReference(StartFEN, r.BestMove) {
			t.Fatalf("%+v: got illegal move %s", l, r.BestMove)
		}
		if time.Since(start) > 2*time.Second {
			t.Fatalf("%+v: an empty clock should return at once", l)
		}
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	e := newTestEngine(t, 1)
	setPosition(t, e, "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1")
	r := e.Search(Limits{Depth: 4})
	if r.BestMove.String() != "d1d8" {
		t.Fatalf("got %s, want d1d8", r.BestMove)
	}
	if r.Score != MateValue-1 {
		t.Fatalf("score %d, want mate in one (%d)", r.Score, MateValue-1)
	}
}

func TestSearchLeavesWorkerNeutral(t *testing.T) {
	e := newTestEngine(t, 1)
	setPosition(t, e, StartFEN, "e2e4", "c7c5", "g1f3")
	root := e.Position()
	hash, fen := root.Hash(), root.ToFEN()

	e.Search(Limits{Depth: 5})

	w := e.workers[0]
	if w.board.Hash() != hash || w.board.ToFEN() != fen {
		t.Fatalf("worker board %s differs from root %s after search", w.board.ToFEN(), fen)
	}
	if w.eval.Depth() != 0 {
		t.Fatalf("accumulator stack left at depth %d", w.eval.Depth())
	}
	if w.frame != 0 {
		t.Fatalf("move list frames left at %d", w.frame)
	}
	if len(w.states.states) != len(e.history) {
		t.Fatalf("state stack has %d entries, want %d", len(w.states.states), len(e.history))
	}
	if root.Hash() != hash {
		t.Fatalf("root position changed during search")
	}
}

func TestSearchPVIsPlayable(t *testing.T) {
	e := newTestEngine(t, 1)
	setPosition(t, e, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")
	e.Search(Limits{Depth: 6})

	b := mustBoard(t, e.Position().ToFEN())
	for i, m := range e.PV() {
		legal, ok := findMove(b, m.String())
		if !ok {
			t.Fatalf("pv move %d (%s) is illegal in %s", i, m, b.ToFEN())
		}
		b.MakeMove(legal)
	}
}

func TestBenchDeterministic(t *testing.T) {
	a, err := Bench(newTestEngine(t, 1), 3)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	b, err := Bench(newTestEngine(t, 1), 3)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	if a.Nodes == 0 || a.Nodes != b.Nodes {
		t.Fatalf("bench nodes differ between runs: %d vs %d", a.Nodes, b.Nodes)
	}
}

func TestSearchWithHelperThreads(t *testing.T) {
	e := newTestEngine(t, 3)
	setPosition(t, e, "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10")
	r := e.Search(Limits{Depth: 5})
	if !legalByReference(e.Position().ToFEN(), r.BestMove) {
		t.Fatalf("lazy SMP returned illegal move %s", r.BestMove)
	}
	if r.Nodes < e.workers[0].nodes.Load() {
		t.Fatalf("total nodes %d below the main worker's count", r.Nodes)
	}
}

func TestGoStop(t *testing.T) {
	e := newTestEngine(t, 2)
	var infos int
	e.OnInfo = func(Info) { infos++ }

	done := make(chan Result, 1)
	e.Go(Limits{Infinite: true}, func(r Result) { done <- r })
	time.Sleep(100 * time.Millisecond)
	e.Stop()
	e.Wait()

	r := <-done
	if !legalByReference(StartFEN, r.BestMove) {
		t.Fatalf("stopped search returned illegal move %s", r.BestMove)
	}
	if infos == 0 {
		t.Fatalf("expected at least one info report")
	}
	if e.BestMove() != r.BestMove {
		t.Fatalf("BestMove %s differs from the result %s", e.BestMove(), r.BestMove)
	}
}

func TestSetPositionRejectsIllegalMove(t *testing.T) {
	e := newTestEngine(t, 1)
	setPosition(t, e, StartFEN, "e2e4")
	before := e.Position().ToFEN()
	if err := e.SetPosition(StartFEN, []string{"e2e5"}); err == nil {
		t.Fatalf("expected an error for an illegal move")
	}
	if e.Position().ToFEN() != before {
		t.Fatalf("a failed SetPosition changed the position")
	}
	if err := e.SetPosition("not a fen", nil); err == nil {
		t.Fatalf("expected an error for a bad FEN")
	}
}

func TestSetOptionRefreshesReductions(t *testing.T) {
	e := newTestEngine(t, 1)
	before := e.lmr[20][20]
	if err := e.SetOption("lmrBase", 150); err != nil {
		t.Fatalf("set lmrBase: %v", err)
	}
	if e.lmr[20][20] <= before {
		t.Fatalf("raising lmrBase should raise reductions, %d -> %d", before, e.lmr[20][20])
	}
	if err := e.SetOption("lmrBase", 10_000); err == nil {
		t.Fatalf("expected a range error")
	}
}

func TestEvaluateKeepsLastResult(t *testing.T) {
	e := newTestEngine(t, 1)
	r := e.Search(Limits{Depth: 2})
	a, b := e.Evaluate(), e.Evaluate()
	if a != b {
		t.Fatalf("static eval is not stable: %d vs %d", a, b)
	}
	if Abs(a) >= MateBound {
		t.Fatalf("static eval %d reached the mate range", a)
	}
	if e.BestMove() != r.BestMove {
		t.Fatalf("Evaluate changed the reported best move")
	}
}
