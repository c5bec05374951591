package engine

import (
	gm "github.com/Oliverans/GooseEngineMG/goosemg"
)

const maxMoves = 256

// moveList is a reusable buffer of legal moves and their ordering scores.
type moveList struct {
	moves  []gm.Move
	scores []int32
}

func newMoveList() *moveList {
	return &moveList{
		moves:  make([]gm.Move, 0, maxMoves),
		scores: make([]int32, maxMoves),
	}
}

func (l *moveList) Len() int { return len(l.moves) }

/*
Move ordering offsets, from first to last:
  - the table move
  - captures that do not lose material, most valuable victim first
  - the killer of this ply
  - quiet promotions
  - quiets by history
  - losing captures
*/
const (
	ttMoveOffset      int32 = 1_000_000_000
	goodCaptureOffset int32 = 500_000_000
	killerOffset      int32 = 400_000_000
	promotionOffset   int32 = 300_000_000
	badCaptureOffset  int32 = -300_000_000
)

var orderingPieceValue = [7]int32{
	gm.PieceTypePawn:   74,
	gm.PieceTypeKnight: 255,
	gm.PieceTypeBishop: 220,
	gm.PieceTypeRook:   524,
	gm.PieceTypeQueen:  603,
}

func mvvLva(m gm.Move) int32 {
	return 100*orderingPieceValue[capturedType(m)] - orderingPieceValue[m.MovedPiece().Type()]
}

func (w *Worker) scoreMoves(l *moveList, ttMove PackedMove, ply int) {
	side := w.board.SideToMove()
	ss := &w.stack[ply+stackOffset]
	prev1 := &w.stack[ply+stackOffset-1]
	prev2 := &w.stack[ply+stackOffset-2]

	for i, m := range l.moves {
		var score int32
		switch {
		case ttMove.Matches(m):
			score = ttMoveOffset
		case isCapture(m):
			if SEE(w.board, m, 0) {
				score = goodCaptureOffset + mvvLva(m)
			} else {
				score = badCaptureOffset + mvvLva(m)
			}
		case m == ss.killer:
			score = killerOffset
		case m.PromotionPiece() != gm.NoPiece:
			score = promotionOffset + orderingPieceValue[m.PromotionPieceType()]
		default:
			score = w.hist.quietScore(side, m) +
				2*w.hist.contScore(prev1, m) +
				w.hist.contScore(prev2, m)
		}
		l.scores[i] = score
	}
}

// scoreCaptures orders a capture-only list by victim and attacker.
func (w *Worker) scoreCaptures(l *moveList, ttMove PackedMove) {
	for i, m := range l.moves {
		if ttMove.Matches(m) {
			l.scores[i] = ttMoveOffset
			continue
		}
		l.scores[i] = goodCaptureOffset + mvvLva(m)
		if p := m.PromotionPieceType(); p != gm.PieceTypeNone {
			l.scores[i] += orderingPieceValue[p]
		}
	}
}

// pickMove swaps the best remaining move into index i and returns it.
func (l *moveList) pickMove(i int) gm.Move {
	best := i
	for j := i + 1; j < len(l.moves); j++ {
		if l.scores[j] > l.scores[best] {
			best = j
		}
	}
	l.moves[i], l.moves[best] = l.moves[best], l.moves[i]
	l.scores[i], l.scores[best] = l.scores[best], l.scores[i]
	return l.moves[i]
}
