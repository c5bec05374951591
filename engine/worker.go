package engine

import (
	"math/bits"
	"sync/atomic"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"

	"goose-nnue/engine/nnue"
)

// Stack slots below ply 0 so ply-1 and ply-2 are always addressable.
const stackOffset = 2

// searchStack is the per-ply node context.
type searchStack struct {
	staticEval int32
	inCheck    bool
	killer     gm.Move
	excluded   gm.Move

	// The move played from this ply; a null move leaves movedPiece empty.
	move       gm.Move
	movedPiece gm.Piece
	nullMove   bool

	pv       [MaxPly]gm.Move
	pvLength int
}

// Worker is one search thread. Everything in it is private to the goroutine
// running it except the node counter, which other goroutines read.
type Worker struct {
	id     int
	engine *Engine

	board  *gm.Board
	eval   *nnue.Evaluator
	hist   Histories
	states stateStack
	stack  [MaxPly + stackOffset + 1]searchStack

	lists []*moveList
	frame int

	params *Params
	lmr    *[MaxPly][maxMoves]int8
	tt     *TransTable

	nodes      atomic.Uint64
	selDepth   int
	stopped    bool
	ignoreStop bool

	rootBest  gm.Move
	rootCount int
	result    Result
	stats     CutStatistics
}

func newWorker(id int, e *Engine) *Worker {
	w := &Worker{
		id:     id,
		engine: e,
		board:  &gm.Board{},
		eval:   nnue.NewEvaluator(e.net),
	}
	return w
}

func (w *Worker) isMain() bool { return w.id == 0 }

func (w *Worker) ss(ply int) *searchStack { return &w.stack[ply+stackOffset] }

// acquireList hands out the move buffer for the current recursion frame.
func (w *Worker) acquireList() *moveList {
	if w.frame == len(w.lists) {
		w.lists = append(w.lists, newMoveList())
	}
	l := w.lists[w.frame]
	w.frame++
	return l
}

func (w *Worker) releaseList() { w.frame-- }

func (w *Worker) makeMove(m gm.Move, ply int) gm.MoveState {
	w.eval.ApplyMove(w.board, m)
	_, st := w.board.MakeMove(m)
	ss := w.ss(ply)
	ss.move = m
	ss.movedPiece = m.MovedPiece()
	ss.nullMove = false
	w.states.push(w.board)
	return st
}

func (w *Worker) unmakeMove(m gm.Move, st gm.MoveState) {
	w.states.pop()
	w.board.UnmakeMove(m, st)
	w.eval.Pop()
}

func (w *Worker) makeNullMove(ply int) gm.NullState {
	st := w.board.MakeNullMove()
	ss := w.ss(ply)
	ss.move = 0
	ss.movedPiece = gm.NoPiece
	ss.nullMove = true
	w.states.push(w.board)
	return st
}

func (w *Worker) unmakeNullMove(st gm.NullState) {
	w.states.pop()
	w.board.UnmakeNullMove(st)
}

// rawEvaluate is the network score scaled by remaining material, before any
// correction.
func (w *Worker) rawEvaluate() int32 {
	b := w.board
	pieces := bits.OnesCount64(b.AllOccupancy())
	v := w.eval.Evaluate(b.SideToMove(), pieces)
	return Clamp(w.materialScale(v), -MateBound+1, MateBound-1)
}

func (w *Worker) materialScale(v int32) int32 {
	p := w.params
	white := w.board.Bitboards(gm.White)
	black := w.board.Bitboards(gm.Black)
	phase := p[ScaleKnight]*int32(bits.OnesCount64(white.Knights|black.Knights)) +
		p[ScaleBishop]*int32(bits.OnesCount64(white.Bishops|black.Bishops)) +
		p[ScaleRook]*int32(bits.OnesCount64(white.Rooks|black.Rooks)) +
		p[ScaleQueen]*int32(bits.OnesCount64(white.Queens|black.Queens))
	return v * (p[ScaleAdder] + phase) / p[ScaleDivisor]
}

// correctEval applies the pawn-structure correction to a raw eval.
func (w *Worker) correctEval(raw int32, pawnHash uint64) int32 {
	corr := w.hist.correction(w.board.SideToMove(), pawnHash)
	return Clamp(raw+corr/w.params[CorrValueDiv], -MateBound+1, MateBound-1)
}

func hasNonPawnMaterial(b *gm.Board, side gm.Color) bool {
	bbs := b.Bitboards(side)
	return bbs.Knights|bbs.Bishops|bbs.Rooks|bbs.Queens != 0
}

// pollStop runs every stopCheckInterval nodes.
func (w *Worker) pollStop() {
	if w.ignoreStop {
		return
	}
	e := w.engine
	if e.stop.Load() {
		w.stopped = true
		return
	}
	if !w.isMain() {
		return
	}
	if e.time.HardExceeded() || (e.nodeLimit > 0 && w.nodes.Load() >= e.nodeLimit) {
		e.stop.Store(true)
		w.stopped = true
	}
}

// prepare loads the root position and resets the per-search state.
func (w *Worker) prepare(root *gm.Board, history []State) {
	e := w.engine
	*w.board = *root
	w.params = &e.params
	w.lmr = &e.lmr
	w.tt = e.tt
	w.eval.Reset(w.board)
	w.states.reset(history)

	for i := range w.stack {
		s := &w.stack[i]
		s.staticEval = NoScore
		s.inCheck = false
		s.killer = 0
		s.excluded = 0
		s.move = 0
		s.movedPiece = gm.NoPiece
		s.nullMove = false
		s.pvLength = 0
	}
	w.frame = 0
	w.nodes.Store(0)
	w.selDepth = 0
	w.stopped = false
	w.ignoreStop = false
	w.rootBest = 0
	w.result = Result{}
	w.stats = CutStatistics{}
}
