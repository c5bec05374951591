package engine

import (
	"math/bits"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
)

const fiftyMoveLimit = 100

// State captures the information we need to reason about repetitions and draws.
type State struct {
	Hash   uint64
	Rule50 int
}

// stateStack holds the game history followed by the current search path.
type stateStack struct {
	states    []State
	rootIndex int
}

// reset loads the game history; the last entry must be the root position.
func (s *stateStack) reset(history []State) {
	s.states = append(s.states[:0], history...)
	s.rootIndex = len(s.states) - 1
}

func (s *stateStack) push(board *gm.Board) {
	s.states = append(s.states, State{
		Hash:   board.Hash(),
		Rule50: board.HalfmoveClock(),
	})
}

func (s *stateStack) pop() {
	s.states = s.states[:len(s.states)-1]
}

// isDraw reports a fifty-move or repetition draw for the position on top. A
// single earlier occurrence inside the search counts; one from the game history
// needs a second.
func (s *stateStack) isDraw() bool {
	if len(s.states) == 0 {
		return false
	}
	curr := s.states[len(s.states)-1]
	if curr.Rule50 >= fiftyMoveLimit {
		return true
	}

	matchCount, lastIdx := s.repetitionInfo(curr.Hash, curr.Rule50)
	if matchCount >= 2 {
		return true
	}
	return matchCount == 1 && lastIdx >= s.rootIndex
}

func (s *stateStack) repetitionInfo(hash uint64, rule50 int) (count int, lastIdx int) {
	lastIdx = -1
	top := len(s.states) - 1
	start := max(top-rule50, 0)
	// Same side to move only: step back two plies at a time.
	for i := top - 2; i >= start; i -= 2 {
		if s.states[i].Hash == hash {
			count++
			if lastIdx == -1 {
				lastIdx = i
			}
		}
	}
	return count, lastIdx
}

// insufficientMaterial covers bare kings and a lone minor piece.
func insufficientMaterial(b *gm.Board) bool {
	w := b.Bitboards(gm.White)
	k := b.Bitboards(gm.Black)
	if w.Pawns|k.Pawns|w.Rooks|k.Rooks|w.Queens|k.Queens != 0 {
		return false
	}
	return bits.OnesCount64(w.Knights|w.Bishops|k.Knights|k.Bishops) <= 1
}
