package nnue

import (
	"math/bits"
	"strings"
	"testing"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"lukechampine.com/frand"
)

var testNet = NewRandomNetwork(42)

func mustBoard(t *testing.T, fen string) *gm.Board {
	t.Helper()
	b, err := gm.ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse FEN %q: %v", fen, err)
	}
	return b
}

func evaluate(e *Evaluator, b *gm.Board) int32 {
	return e.Evaluate(b.SideToMove(), bits.OnesCount64(b.AllOccupancy()))
}

// mirrorFEN flips the board vertically and swaps the colors.
func mirrorFEN(fen string) string {
	f := strings.Fields(fen)
	ranks := strings.Split(f[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	swap := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				return r - 'A' + 'a'
			}
			return r
		}, s)
	}
	f[0] = swap(strings.Join(ranks, "/"))
	if f[1] == "w" {
		f[1] = "b"
	} else {
		f[1] = "w"
	}
	if f[2] != "-" {
		f[2] = swap(f[2])
	}
	if f[3] != "-" {
		f[3] = string(f[3][0]) + string('1'+'8'-f[3][1])
	}
	return strings.Join(f, " ")
}

func TestEvaluationSymmetry(t *testing.T) {
	fens := []string{
		gm.FENStartPos,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	for _, fen := range fens {
		b := mustBoard(t, fen)
		m := mustBoard(t, mirrorFEN(fen))
		e1, e2 := NewEvaluator(testNet), NewEvaluator(testNet)
		e1.Reset(b)
		e2.Reset(m)
		if v1, v2 := evaluate(e1, b), evaluate(e2, m); v1 != v2 {
			t.Fatalf("%s: eval %d, mirrored %d", fen, v1, v2)
		}
	}
}

func TestIncrementalMatchesRefresh(t *testing.T) {
	var seed [32]byte
	seed[0] = 9
	rng := frand.NewCustom(seed[:], 1024, 12)

	fresh := NewEvaluator(testNet)
	for game := 0; game < 20; game++ {
		b := mustBoard(t, gm.FENStartPos)
		e := NewEvaluator(testNet)
		e.Reset(b)

		var played []gm.Move
		var states []gm.MoveState
		for ply := 0; ply < 120; ply++ {
			moves := b.GenerateMoves()
			if len(moves) == 0 {
				break
			}
			m := moves[rng.Intn(len(moves))]
			e.ApplyMove(b, m)
			_, st := b.MakeMove(m)
			played = append(played, m)
			states = append(states, st)

			fresh.Reset(b)
			if *e.Current() != *fresh.Current() {
				t.Fatalf("game %d ply %d: incremental accumulator diverged after %s in %s", game, ply, m, b.ToFEN())
			}
		}

		for i := len(played) - 1; i >= 0; i-- {
			b.UnmakeMove(played[i], states[i])
			e.Pop()
		}
		fresh.Reset(b)
		if e.Depth() != 0 || *e.Current() != *fresh.Current() {
			t.Fatalf("game %d: unwinding did not restore the root accumulator", game)
		}
	}
}

func TestBucket(t *testing.T) {
	cases := map[int]int{2: 0, 5: 0, 6: 1, 17: 3, 32: 7, 40: 7, 0: 0}
	for pieces, want := range cases {
		if got := Bucket(pieces); got != want {
			t.Errorf("Bucket(%d) = %d, want %d", pieces, got, want)
		}
	}
}

func TestPushPop(t *testing.T) {
	b := mustBoard(t, gm.FENStartPos)
	e := NewEvaluator(testNet)
	e.Reset(b)
	root := *e.Current()
	e.Push()
	e.Update(gm.PieceTypeQueen, gm.White, 27, true)
	if *e.Current() == root {
		t.Fatalf("update did not change the accumulator")
	}
	e.Pop()
	if *e.Current() != root {
		t.Fatalf("pop did not restore the previous accumulator")
	}
}
