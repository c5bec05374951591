package engine

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"goose-nnue/engine/nnue"
)

const MaxThreads = 64

// StartFEN is the standard initial position.
const StartFEN = gm.FENStartPos

// Config is what New needs to build an engine. Zero values pick the defaults.
type Config struct {
	HashMB  int
	Threads int
	Logger  zerolog.Logger
	// Network defaults to a seeded random network when nil.
	Network *nnue.Network
}

// Limits bounds one search. Zero fields are unset; times are in milliseconds.
type Limits struct {
	Depth    int
	Nodes    uint64
	MoveTime int64
	WTime    int64
	BTime    int64
	WInc     int64
	BInc     int64
	// HasClock marks a clock search even when the remaining time is zero or
	// negative.
	HasClock bool
	Infinite bool
}

// Engine is one search session: a transposition table, a network, a parameter
// set and a pool of workers. Configuration methods must not be called while a
// search is running.
type Engine struct {
	log     zerolog.Logger
	tt      *TransTable
	net     *nnue.Network
	params  Params
	lmr     [MaxPly][maxMoves]int8
	workers []*Worker

	board   *gm.Board
	history []State

	stop      atomic.Bool
	time      TimeHandler
	nodeLimit uint64
	maxDepth  int
	infinite  bool
	wg        sync.WaitGroup

	mu     sync.Mutex
	result Result
	stats  CutStatistics

	// OnInfo receives one report per completed depth of the main worker.
	OnInfo func(Info)
}

func New(cfg Config) *Engine {
	if cfg.HashMB <= 0 {
		cfg.HashMB = DefaultHashMB
	}
	if cfg.Network == nil {
		cfg.Logger.Warn().Msg("no network given, using a random network")
		cfg.Network = nnue.NewRandomNetwork(1)
	}

	e := &Engine{
		log:    cfg.Logger,
		tt:     NewTransTable(cfg.HashMB),
		net:    cfg.Network,
		params: DefaultParams(),
	}
	e.refreshLMR()
	e.SetThreads(cfg.Threads)
	if err := e.SetPosition(StartFEN, nil); err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) refreshLMR() {
	initLMRTable(&e.lmr, e.params[LMRBase], e.params[LMRDivisor])
}

// SetPosition loads fen and plays moves, given in long algebraic notation, on
// top of it. On error the previous position is kept.
func (e *Engine) SetPosition(fen string, moves []string) error {
	b, err := gm.ParseFEN(fen)
	if err != nil {
		return errors.Wrapf(err, "parse fen %q", fen)
	}
	history := []State{{Hash: b.Hash(), Rule50: b.HalfmoveClock()}}
	for _, s := range moves {
		m, ok := findMove(b, s)
		if !ok {
			return errors.Errorf("illegal move %q in position %s", s, b.ToFEN())
		}
		b.MakeMove(m)
		history = append(history, State{Hash: b.Hash(), Rule50: b.HalfmoveClock()})
	}
	e.board = b
	e.history = history
	return nil
}

// findMove matches a long algebraic move against the legal moves of b.
func findMove(b *gm.Board, s string) (gm.Move, bool) {
	s = strings.ToLower(s)
	for _, m := range b.GenerateMoves() {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// ParseMove resolves a long algebraic move in the current position.
func (e *Engine) ParseMove(s string) (gm.Move, bool) {
	return findMove(e.board, s)
}

// Position returns the current root position.
func (e *Engine) Position() *gm.Board { return e.board }

// Evaluate is the static score of the current position for the side to move,
// scaled by material and without history correction. It uses a scratch worker,
// so it is safe to call between searches.
func (e *Engine) Evaluate() int32 {
	w := newWorker(0, e)
	w.prepare(e.board, e.history)
	return w.rawEvaluate()
}

// Search runs a search to completion and returns its result.
func (e *Engine) Search(l Limits) Result {
	e.begin(l)
	return e.run()
}

// Go starts a search in the background. done, if set, receives the result.
func (e *Engine) Go(l Limits, done func(Result)) {
	e.begin(l)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		r := e.run()
		if done != nil {
			done(r)
		}
	}()
}

// Stop asks a running search to finish as soon as possible.
func (e *Engine) Stop() { e.stop.Store(true) }

// Wait blocks until a search started with Go has returned.
func (e *Engine) Wait() { e.wg.Wait() }

func (e *Engine) begin(l Limits) {
	e.stop.Store(false)
	e.time.StartTime(time.Now())

	timeLeft, inc := l.WTime, l.WInc
	if e.board.SideToMove() == gm.Black {
		timeLeft, inc = l.BTime, l.BInc
	}
	switch {
	case l.Infinite:
	case l.MoveTime > 0:
		e.time.SetMoveTime(l.MoveTime)
	case l.HasClock || timeLeft > 0:
		e.time.SetClock(&e.params, max(timeLeft, 1), inc)
	}

	e.nodeLimit = l.Nodes
	e.infinite = l.Infinite
	e.maxDepth = MaxPly - 1
	if l.Depth > 0 {
		e.maxDepth = min(l.Depth, MaxPly-1)
	}

	e.mu.Lock()
	e.result = Result{}
	e.mu.Unlock()

	for _, w := range e.workers {
		w.prepare(e.board, e.history)
	}
}

func (e *Engine) run() Result {
	main := e.workers[0]

	var g errgroup.Group
	for _, w := range e.workers[1:] {
		w := w
		g.Go(func() error {
			w.iterate(e.maxDepth)
			return nil
		})
	}

	main.iterate(e.maxDepth)
	if e.infinite {
		// UCI wants no bestmove before "stop" on an infinite search.
		for !e.stop.Load() {
			time.Sleep(time.Millisecond)
		}
	}
	e.stop.Store(true)
	_ = g.Wait()

	res := main.result
	res.Nodes = e.Nodes()
	if res.BestMove == 0 {
		if moves := e.board.GenerateMoves(); len(moves) > 0 {
			res.BestMove = moves[0]
			res.PV = []gm.Move{moves[0]}
		}
	}

	var stats CutStatistics
	for _, w := range e.workers {
		stats.add(&w.stats)
	}

	e.mu.Lock()
	e.result = res
	e.stats = stats
	e.mu.Unlock()

	e.log.Debug().
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Dur("elapsed", e.time.Elapsed()).
		Str("bestmove", res.BestMove.String()).
		Msg("search finished")
	return res
}

// publish records a completed depth of the main worker and reports it.
func (e *Engine) publish(w *Worker, depth int) {
	e.mu.Lock()
	e.result = w.result
	e.mu.Unlock()

	if e.OnInfo == nil {
		return
	}
	e.OnInfo(Info{
		Depth:    depth,
		SelDepth: w.selDepth,
		Score:    w.result.Score,
		Nodes:    e.Nodes(),
		Time:     e.time.Elapsed(),
		Hashfull: e.tt.Hashfull(),
		PV:       w.result.PV,
	})
}

// Nodes is the node count of the current or last search over all workers.
func (e *Engine) Nodes() uint64 {
	var n uint64
	for _, w := range e.workers {
		n += w.nodes.Load()
	}
	return n
}

// BestMove is the best move of the last completed depth.
func (e *Engine) BestMove() gm.Move {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result.BestMove
}

func (e *Engine) PV() []gm.Move {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]gm.Move(nil), e.result.PV...)
}

// CutStats sums the pruning counters of the last search.
func (e *Engine) CutStats() CutStatistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) SetHashSize(mb int) {
	e.tt.SetSize(mb)
	e.log.Debug().Int("mb", mb).Int("slots", e.tt.Len()).Msg("hash resized")
}

func (e *Engine) ClearHash() { e.tt.Clear() }

// NewGame forgets everything learned from earlier searches.
func (e *Engine) NewGame() {
	e.tt.Clear()
	for _, w := range e.workers {
		w.hist.Clear()
	}
}

// SetThreads resizes the worker pool. Existing workers keep their histories.
func (e *Engine) SetThreads(n int) {
	n = Clamp(n, 1, MaxThreads)
	for len(e.workers) < n {
		e.workers = append(e.workers, newWorker(len(e.workers), e))
	}
	e.workers = e.workers[:n]
}

func (e *Engine) Threads() int { return len(e.workers) }

// SetNetwork swaps the evaluation network.
func (e *Engine) SetNetwork(net *nnue.Network) {
	e.net = net
	for _, w := range e.workers {
		w.eval = nnue.NewEvaluator(net)
	}
}

// SetOption sets a tunable search parameter by name.
func (e *Engine) SetOption(name string, value int32) error {
	if err := e.params.Set(name, value); err != nil {
		return err
	}
	e.refreshLMR()
	return nil
}

func (e *Engine) Params() Params { return e.params }
