package engine

import (
	"time"

	"github.com/pkg/errors"
)

const DefaultBenchDepth = 8

// BenchPositions is the fixed position set searched by the bench command.
var BenchPositions = []string{
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
	"2r3k1/pp3ppp/4p3/3pP3/3P4/P4N2/1P3PPP/2R3K1 b - - 0 25",
	"8/8/4k3/8/2pP4/8/1K6/8 b - d3 0 1",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	"r2q1rk1/ppp2ppp/2n1bn2/2bpp3/4P3/2PP1NN1/PP1B1PPP/R2QKB1R w KQ - 0 9",
	"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
}

// BenchResult sums one bench run.
type BenchResult struct {
	Nodes   uint64
	Elapsed time.Duration
}

func (r BenchResult) NPS() uint64 {
	ms := uint64(r.Elapsed.Milliseconds())
	if ms == 0 {
		return r.Nodes * 1000
	}
	return r.Nodes * 1000 / ms
}

// Bench searches every bench position to depth from a fresh game state. The
// engine's position is left on the last bench position.
func Bench(e *Engine, depth int) (BenchResult, error) {
	var res BenchResult
	start := time.Now()
	for _, fen := range BenchPositions {
		if err := e.SetPosition(fen, nil); err != nil {
			return res, errors.Wrap(err, "bench position")
		}
		e.NewGame()
		r := e.Search(Limits{Depth: depth})
		res.Nodes += r.Nodes
		e.log.Debug().Str("fen", fen).Uint64("nodes", r.Nodes).Str("bestmove", r.BestMove.String()).Msg("bench")
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
