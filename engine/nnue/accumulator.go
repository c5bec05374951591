package nnue

import (
	"math/bits"

	gm "github.com/Oliverans/GooseEngineMG/goosemg"
)

// StackSize bounds how many moves deep the accumulator stack can go.
const StackSize = 258

// Accumulator is bias plus the active feature rows, once per perspective.
type Accumulator struct {
	White [HiddenSize]int16
	Black [HiddenSize]int16
}

// featureIndex returns the row of a piece for each perspective. Black sees the
// board flipped vertically with the colors swapped.
func featureIndex(pt gm.PieceType, c gm.Color, sq gm.Square) (white, black int) {
	p := int(pt) - 1
	white = int(c)*384 + p*64 + int(sq)
	black = int(c^1)*384 + p*64 + (int(sq) ^ 56)
	return white, black
}

func (a *Accumulator) add(net *Network, wi, bi int) {
	wr := &net.FeatureWeights[wi]
	br := &net.FeatureWeights[bi]
	for i := range a.White {
		a.White[i] += wr[i]
		a.Black[i] += br[i]
	}
}

func (a *Accumulator) sub(net *Network, wi, bi int) {
	wr := &net.FeatureWeights[wi]
	br := &net.FeatureWeights[bi]
	for i := range a.White {
		a.White[i] -= wr[i]
		a.Black[i] -= br[i]
	}
}

// Evaluator owns one stack of accumulators. Index top is the position currently
// on the board; Push copies it one level up before a move, Pop drops back.
type Evaluator struct {
	net   *Network
	stack [StackSize]Accumulator
	top   int
}

func NewEvaluator(net *Network) *Evaluator {
	return &Evaluator{net: net}
}

func (e *Evaluator) Network() *Network { return e.net }

func (e *Evaluator) Current() *Accumulator { return &e.stack[e.top] }

// Depth is the number of pushes above the root.
func (e *Evaluator) Depth() int { return e.top }

// Reset empties the stack and refreshes the root from b.
func (e *Evaluator) Reset(b *gm.Board) {
	e.top = 0
	e.Refresh(b)
}

// Refresh recomputes the current accumulator from scratch.
func (e *Evaluator) Refresh(b *gm.Board) {
	acc := e.Current()
	acc.White = e.net.FeatureBias
	acc.Black = e.net.FeatureBias
	for c := gm.White; c <= gm.Black; c++ {
		bbs := b.Bitboards(c)
		for pt, bb := range [6]uint64{bbs.Pawns, bbs.Knights, bbs.Bishops, bbs.Rooks, bbs.Queens, bbs.Kings} {
			for bb != 0 {
				sq := gm.Square(bits.TrailingZeros64(bb))
				bb &= bb - 1
				wi, bi := featureIndex(gm.PieceType(pt+1), c, sq)
				acc.add(e.net, wi, bi)
			}
		}
	}
}

// Update adds or removes one piece from the current accumulator.
func (e *Evaluator) Update(pt gm.PieceType, c gm.Color, sq gm.Square, activate bool) {
	wi, bi := featureIndex(pt, c, sq)
	if activate {
		e.Current().add(e.net, wi, bi)
	} else {
		e.Current().sub(e.net, wi, bi)
	}
}

func (e *Evaluator) Push() {
	e.stack[e.top+1] = e.stack[e.top]
	e.top++
}

func (e *Evaluator) Pop() {
	e.top--
}

// ApplyMove pushes a new accumulator for m. It must be called while b still
// holds the position before m.
func (e *Evaluator) ApplyMove(b *gm.Board, m gm.Move) {
	e.Push()

	us := b.SideToMove()
	them := us ^ 1
	from, to := m.From(), m.To()
	moved := m.MovedPiece().Type()

	e.Update(moved, us, from, false)

	switch {
	case m.Flags()&gm.FlagEnPassant != 0:
		capSq := to - 8
		if us == gm.Black {
			capSq = to + 8
		}
		e.Update(gm.PieceTypePawn, them, capSq, false)
	case m.CapturedPiece() != gm.NoPiece:
		e.Update(m.CapturedPiece().Type(), them, to, false)
	}

	if promo := m.PromotionPieceType(); promo != gm.PieceTypeNone {
		e.Update(promo, us, to, true)
	} else {
		e.Update(moved, us, to, true)
	}

	if m.Flags()&gm.FlagCastle != 0 {
		rookFrom, rookTo := to+1, to-1
		if to%8 == 2 {
			rookFrom, rookTo = to-2, to+1
		}
		e.Update(gm.PieceTypeRook, us, rookFrom, false)
		e.Update(gm.PieceTypeRook, us, rookTo, true)
	}
}

// Evaluate scores the current accumulator for the side to move. pieceCount
// selects the output bucket.
func (e *Evaluator) Evaluate(stm gm.Color, pieceCount int) int32 {
	return e.net.Output(e.Current(), stm, pieceCount)
}

// Bucket maps a piece count onto an output bucket.
func Bucket(pieceCount int) int {
	const divisor = (32 + OutputBuckets - 1) / OutputBuckets
	b := (pieceCount - 2) / divisor
	if b < 0 {
		return 0
	}
	if b >= OutputBuckets {
		return OutputBuckets - 1
	}
	return b
}

// Output runs the SCReLU output layer over acc.
func (n *Network) Output(acc *Accumulator, stm gm.Color, pieceCount int) int32 {
	us, them := &acc.White, &acc.Black
	if stm == gm.Black {
		us, them = them, us
	}
	bucket := Bucket(pieceCount)
	weights := &n.OutputWeights[bucket]

	var sum int64
	for i := 0; i < HiddenSize; i++ {
		sum += screlu(us[i]) * int64(weights[i])
		sum += screlu(them[i]) * int64(weights[HiddenSize+i])
	}
	out := sum/QA + int64(n.OutputBias[bucket])
	return int32(out * Scale / (QA * QB))
}

func screlu(v int16) int64 {
	x := int64(v)
	if x < 0 {
		return 0
	}
	if x > QA {
		x = QA
	}
	return x * x
}
