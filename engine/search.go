package engine

import (
	gm "github.com/Oliverans/GooseEngineMG/goosemg"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	MaxPly = 256

	Infinity  int32 = 32600
	MateValue int32 = 32500
	MateBound int32 = MateValue - MaxPly
	DrawScore int32 = 0
	NoScore   int32 = -32700

	stopCheckInterval = 128
)

// iterate runs iterative deepening up to maxDepth and leaves the outcome of
// the last completed depth in w.result.
func (w *Worker) iterate(maxDepth int) {
	e := w.engine
	var score int32

	for depth := 1; depth <= maxDepth; depth++ {
		w.selDepth = 0
		s := w.aspiration(depth, score)
		if w.stopped {
			break
		}
		score = s
		w.result = Result{
			BestMove: w.rootBest,
			Score:    score,
			Depth:    depth,
			PV:       append([]gm.Move(nil), w.ss(0).pv[:w.ss(0).pvLength]...),
		}

		if !w.isMain() {
			continue
		}
		e.publish(w, depth)

		if e.stop.Load() || e.time.SoftExceeded() {
			break
		}
		if e.nodeLimit > 0 && w.nodes.Load() >= e.nodeLimit {
			break
		}
		if w.rootCount == 1 && e.time.Limited() {
			break
		}
	}

	// Interrupted before depth 1 finished: a full depth-1 pass is cheap, run it
	// regardless of the stop flag.
	if w.result.BestMove == 0 && w.isMain() {
		w.stopped = false
		w.ignoreStop = true
		w.rootBest = 0
		score = w.pvs(-Infinity, Infinity, 1, 0, false)
		w.result = Result{
			BestMove: w.rootBest,
			Score:    score,
			Depth:    1,
			PV:       append([]gm.Move(nil), w.ss(0).pv[:w.ss(0).pvLength]...),
		}
		w.ignoreStop = false
	}
}

// aspiration searches one depth, with a window around prev once deep enough.
func (w *Worker) aspiration(depth int, prev int32) int32 {
	p := w.params
	if depth < int(p[AspEntryDepth]) {
		return w.pvs(-Infinity, Infinity, depth, 0, false)
	}

	delta := p[AspDelta]
	alpha := max(prev-delta, -Infinity)
	beta := min(prev+delta, Infinity)
	for {
		score := w.pvs(alpha, beta, depth, 0, false)
		if w.stopped {
			return score
		}
		switch {
		case score <= alpha:
			beta = (alpha + beta) / 2
			alpha = max(alpha-delta, -Infinity)
		case score >= beta:
			beta = min(beta+delta, Infinity)
		default:
			return score
		}
		delta = delta * p[AspWiden] / 100
	}
}

func (w *Worker) pvs(alpha, beta int32, depth, ply int, cutNode bool) int32 {
	if w.nodes.Load()&(stopCheckInterval-1) == 0 {
		w.pollStop()
	}
	if w.stopped {
		return beta
	}

	pvNode := beta-alpha > 1
	root := ply == 0
	ss := w.ss(ply)
	ss.pvLength = 0
	b := w.board

	if !root {
		if w.states.isDraw() || insufficientMaterial(b) {
			return DrawScore
		}
		if ply >= MaxPly-1 {
			return w.rawEvaluate()
		}

		// Mate distance pruning
		alpha = max(alpha, -MateValue+int32(ply))
		beta = min(beta, MateValue-int32(ply)-1)
		if alpha >= beta {
			return alpha
		}
	}

	if depth <= 0 {
		return w.quiescence(alpha, beta, ply)
	}

	w.nodes.Add(1)
	if ply > w.selDepth {
		w.selDepth = ply
	}

	p := w.params
	side := b.SideToMove()
	excluded := ss.excluded
	singular := excluded != 0
	inCheck := b.InCheck(side)
	ss.inCheck = inCheck
	key := b.Hash()

	/*
		TRANSPOSITION TABLE LOOKUP
	*/
	var tte TTEntry
	var ttHit bool
	if !singular {
		tte, ttHit = w.tt.Probe(key, ply)
	}
	var ttMove PackedMove
	if ttHit {
		ttMove = tte.Move
	}

	if ttHit && !pvNode && tte.Depth >= depth {
		switch {
		case tte.Bound == ExactBound,
			tte.Bound == LowerBound && tte.Score >= beta,
			tte.Bound == UpperBound && tte.Score <= alpha:
			w.stats.TTCutoffs++
			return tte.Score
		}
	}

	// A deep enough table score far above beta is trusted as a cutoff.
	probCutBeta := beta + p[ProbCutBetaAdder]
	if ttHit && !pvNode && !inCheck && tte.Bound != UpperBound &&
		tte.Depth >= depth-int(p[ProbCutTTDepth]) && tte.Score >= probCutBeta && probCutBeta < MateBound {
		w.stats.ProbCutCutoffs++
		return probCutBeta
	}

	list := w.acquireList()
	defer w.releaseList()
	list.moves = b.GenerateMovesInto(list.moves[:0])
	if root {
		w.rootCount = len(list.moves)
	}
	if len(list.moves) == 0 {
		if inCheck {
			return -MateValue + int32(ply)
		}
		return DrawScore
	}

	/*
		STATIC EVALUATION
	*/
	pawnHash := pawnKey(b)
	rawEval, eval := NoScore, NoScore
	if !inCheck {
		if ttHit && tte.Eval != NoScore {
			rawEval = tte.Eval
		} else {
			rawEval = w.rawEvaluate()
		}
		eval = w.correctEval(rawEval, pawnHash)
	}
	ss.staticEval = eval

	improving := false
	if prev := w.ss(ply - 2); !inCheck && prev.staticEval != NoScore {
		improving = eval > prev.staticEval
	}

	if !pvNode && !inCheck && !singular {
		/*
			REVERSE FUTILITY PRUNING
		*/
		if depth <= int(p[RFPDepth]) && Abs(beta) < MateBound &&
			eval-p[RFPMargin]*int32(depth-boolToInt(improving)) >= beta {
			w.stats.StaticNullCutoffs++
			return (eval + beta) / 2
		}

		/*
			RAZORING
		*/
		if depth <= int(p[RazorDepth]) && eval+p[RazorAlpha]+p[RazorDepthMult]*int32(depth) < alpha {
			score := w.quiescence(alpha, beta, ply)
			if score < alpha {
				w.stats.RazoringCutoffs++
				return score
			}
		}

		/*
			NULL MOVE PRUNING
		*/
		if depth >= int(p[NMPDepth]) && eval >= beta && !w.ss(ply-1).nullMove &&
			hasNonPawnMaterial(b, side) && Abs(beta) < MateBound {
			r := int(p[NMPBase]) + depth/int(p[NMPDivisor])
			st := w.makeNullMove(ply)
			score := -w.pvs(-beta, -beta+1, depth-r, ply+1, !cutNode)
			w.unmakeNullMove(st)
			if w.stopped {
				return beta
			}
			if score >= beta {
				w.stats.NullMoveCutoffs++
				if score >= MateBound {
					score = beta
				}
				return score
			}
		}

		/*
			PROBCUT
			A good capture that still beats a raised beta at reduced depth is
			taken as proof the full search would fail high.
		*/
		pcBeta := beta + p[ProbCutBetaAdder] - p[ProbCutDepthSub]*int32(depth)
		pcGate := beta - p[WinningEvalSub] - p[WinningDepthMult]*int32(depth)
		if improving {
			pcGate += p[WinningImprovingAdd]
		}
		if depth >= int(p[WinningDepth]) && eval >= pcGate && Abs(beta) < MateBound && pcBeta < MateBound &&
			!(ttHit && tte.Depth >= depth-3 && tte.Score < pcBeta) {
			pcDepth := depth - depth/int(p[WinningDepthDiv]) - int(p[WinningDepthSub])
			w.scoreMoves(list, ttMove, ply)
			tried := 0
			for i := 0; i < len(list.moves) && tried < int(p[WinningCount]); i++ {
				m := list.pickMove(i)
				if !isCapture(m) || !SEE(b, m, 0) {
					continue
				}
				tried++
				st := w.makeMove(m, ply)
				score := -w.pvs(-pcBeta, -pcBeta+1, pcDepth, ply+1, !cutNode)
				w.unmakeMove(m, st)
				if w.stopped {
					return beta
				}
				if score >= pcBeta {
					w.stats.ProbCutCutoffs++
					w.tt.Store(key, pcDepth+1, ply, LowerBound, score, m, rawEval)
					return pcBeta
				}
			}
		}
	}

	/*
		INTERNAL ITERATIVE REDUCTION
	*/
	if !singular && ttMove == 0 && depth >= int(p[IIRDepth]) {
		depth -= int(p[IIRReduction])
	}

	w.scoreMoves(list, ttMove, ply)

	bestScore := -Infinity
	var bestMove gm.Move
	bound := UpperBound
	moveCount := 0
	var quiets [64]gm.Move
	quietCount := 0

	for i := 0; i < len(list.moves); i++ {
		m := list.pickMove(i)
		if m == excluded {
			continue
		}
		quiet := isQuiet(m)
		isTTMove := ttMove.Matches(m)

		if !pvNode && !isTTMove && bestScore > -MateBound && depth <= int(p[SEEPruneDepth]) {
			margin := p[SEEQuietMargin]
			if isCapture(m) {
				margin = p[SEECaptureMargin]
			}
			if !SEE(b, m, -margin*int32(depth)) {
				w.stats.SEEPrunes++
				continue
			}
		}

		/*
			SINGULAR EXTENSION
		*/
		extension := 0
		if !root && !singular && isTTMove && depth >= int(p[SingularDepth]) &&
			tte.Depth >= depth-int(p[SingularTTDepthSub]) && tte.Bound != UpperBound && Abs(tte.Score) < MateBound {
			sBeta := tte.Score - 2*int32(depth)
			ss.excluded = m
			score := w.pvs(sBeta-1, sBeta, (depth-1)/2, ply, cutNode)
			ss.excluded = 0
			if w.stopped {
				return beta
			}
			if score < sBeta {
				extension = 1
				if !pvNode && score+p[SingularDoubleMargin] < sBeta {
					extension = 2
				}
			} else if sBeta >= beta {
				w.stats.MultiCuts++
				return sBeta
			}
		}
		if b.GivesCheck(m) {
			extension = min(extension+1, 2)
		}

		st := w.makeMove(m, ply)
		moveCount++
		if quiet && quietCount < len(quiets) {
			quiets[quietCount] = m
			quietCount++
		}

		newDepth := depth - 1 + extension
		var score int32
		if moveCount == 1 {
			score = -w.pvs(-beta, -alpha, newDepth, ply+1, !pvNode && !cutNode)
		} else {
			r := 0
			if quiet && depth > int(p[LMRDepth]) {
				r = int(w.lmr[min(depth, MaxPly-1)][min(moveCount, maxMoves-1)])
				if pvNode {
					r--
				}
				if cutNode {
					r += 2
				}
				r = Clamp(r, 0, max(newDepth-1, 0))
			}
			score = -w.pvs(-alpha-1, -alpha, newDepth-r, ply+1, true)
			if score > alpha && r > 0 {
				score = -w.pvs(-alpha-1, -alpha, newDepth, ply+1, !cutNode)
			}
			if score > alpha && score < beta {
				score = -w.pvs(-beta, -alpha, newDepth, ply+1, false)
			}
		}
		w.unmakeMove(m, st)
		if w.stopped {
			return beta
		}

		if score > bestScore {
			bestScore = score
		}
		if score <= alpha {
			continue
		}

		bestMove = m
		if root {
			w.rootBest = m
		}
		if pvNode {
			w.updatePV(ply, m)
		}
		if score >= beta {
			w.stats.BetaCutoffs++
			bound = LowerBound
			if quiet {
				w.updateQuietStats(ply, depth, m, quiets[:quietCount])
			}
			break
		}
		alpha = score
		bound = ExactBound
	}

	if moveCount == 0 {
		// Only the excluded move was legal.
		return alpha
	}

	if !singular {
		move := PackMove(bestMove)
		if bestMove == 0 {
			move = ttMove
		}
		w.tt.StorePacked(key, depth, ply, bound, bestScore, move, rawEval)
	}

	if !inCheck && !singular && (bestMove == 0 || isQuiet(bestMove)) && Abs(bestScore) < MateBound &&
		!(bound == LowerBound && bestScore <= eval) && !(bound == UpperBound && bestScore >= eval) {
		w.hist.updateCorrection(p, side, pawnHash, depth, bestScore-eval)
	}

	return bestScore
}

func (w *Worker) quiescence(alpha, beta int32, ply int) int32 {
	if w.nodes.Load()&(stopCheckInterval-1) == 0 {
		w.pollStop()
	}
	if w.stopped {
		return beta
	}

	w.nodes.Add(1)
	if ply > w.selDepth {
		w.selDepth = ply
	}

	pvNode := beta-alpha > 1
	ss := w.ss(ply)
	ss.pvLength = 0
	b := w.board

	if ply > 0 && (w.states.isDraw() || insufficientMaterial(b)) {
		return DrawScore
	}
	inCheck := b.InCheck(b.SideToMove())
	if ply >= MaxPly-1 {
		if inCheck {
			return DrawScore
		}
		return w.rawEvaluate()
	}

	key := b.Hash()
	tte, ttHit := w.tt.Probe(key, ply)
	var ttMove PackedMove
	if ttHit {
		ttMove = tte.Move
		if !pvNode && (tte.Bound == ExactBound ||
			tte.Bound == LowerBound && tte.Score >= beta ||
			tte.Bound == UpperBound && tte.Score <= alpha) {
			w.stats.TTCutoffs++
			return tte.Score
		}
	}

	rawEval, standPat := NoScore, NoScore
	bestScore := -Infinity
	if !inCheck {
		if ttHit && tte.Eval != NoScore {
			rawEval = tte.Eval
		} else {
			rawEval = w.rawEvaluate()
		}
		standPat = w.correctEval(rawEval, pawnKey(b))

		// The stored bound can sharpen the stand-pat score.
		if ttHit && Abs(tte.Score) < MateBound && (tte.Bound == ExactBound ||
			tte.Bound == LowerBound && tte.Score > standPat ||
			tte.Bound == UpperBound && tte.Score < standPat) {
			standPat = tte.Score
		}

		if standPat >= beta {
			w.stats.QStandPatCutoffs++
			return standPat
		}
		alpha = max(alpha, standPat)
		bestScore = standPat
	}

	list := w.acquireList()
	defer w.releaseList()
	if inCheck {
		list.moves = b.GenerateMovesInto(list.moves[:0])
		if len(list.moves) == 0 {
			return -MateValue + int32(ply)
		}
		w.scoreMoves(list, ttMove, ply)
	} else {
		list.moves = b.GenerateCapturesInto(list.moves[:0])
		w.scoreCaptures(list, ttMove)
	}

	var bestMove gm.Move
	for i := 0; i < len(list.moves); i++ {
		m := list.pickMove(i)

		if !inCheck {
			// Futility: a capture that cannot even win its victim back is not worth a look.
			if !SEE(b, m, w.params[QSFutilitySEE]) && standPat+SeePieceValue[capturedType(m)] <= alpha {
				continue
			}
			if !SEE(b, m, 0) {
				continue
			}
		}

		st := w.makeMove(m, ply)
		score := -w.quiescence(-beta, -alpha, ply+1)
		w.unmakeMove(m, st)
		if w.stopped {
			return beta
		}

		if score > bestScore {
			bestScore = score
		}
		if score <= alpha {
			continue
		}
		bestMove = m
		if pvNode {
			w.updatePV(ply, m)
		}
		if score >= beta {
			w.stats.QBetaCutoffs++
			break
		}
		alpha = score
	}

	bound := UpperBound
	if bestScore >= beta {
		bound = LowerBound
	}
	move := PackMove(bestMove)
	if bestMove == 0 {
		move = ttMove
	}
	w.tt.StorePacked(key, 0, ply, bound, bestScore, move, rawEval)
	return bestScore
}

func (w *Worker) updatePV(ply int, m gm.Move) {
	ss := w.ss(ply)
	child := w.ss(ply + 1)
	ss.pv[0] = m
	n := copy(ss.pv[1:], child.pv[:child.pvLength])
	ss.pvLength = n + 1
}

// updateQuietStats rewards a quiet cutoff move and punishes the quiets tried before it.
func (w *Worker) updateQuietStats(ply, depth int, best gm.Move, quiets []gm.Move) {
	p := w.params
	side := w.board.SideToMove()
	prev1, prev2 := w.ss(ply-1), w.ss(ply-2)
	w.ss(ply).killer = best

	qBonus, qMalus := quietBonus(p, depth), quietMalus(p, depth)
	cBonus, cMalus := contBonus(p, depth), contMalus(p, depth)

	w.hist.updateQuiet(p, side, best, qBonus)
	w.hist.updateCont(p, prev1, best, cBonus)
	w.hist.updateCont(p, prev2, best, cBonus)
	for _, q := range quiets {
		if q == best {
			continue
		}
		w.hist.updateQuiet(p, side, q, -qMalus)
		w.hist.updateCont(p, prev1, q, -cMalus)
		w.hist.updateCont(p, prev2, q, -cMalus)
	}
}
