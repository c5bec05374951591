package engine

import (
	gm "github.com/Oliverans/GooseEngineMG/goosemg"
)

const (
	corrHistSize  = 16384
	corrHistLimit = 1024
)

/*
HISTORY TABLES
All three tables are per worker and only cleared on a new game:
  - quiet history: side, piece type and destination of quiet moves that cut off
  - continuation history: the same, keyed on the move played one or two plies earlier
  - pawn correction: the running error of the static eval for a pawn structure
*/
type Histories struct {
	quiet        [2][7][64]int32
	continuation [16][64][16][64]int32
	pawnCorr     [2][corrHistSize]int32
}

func (h *Histories) Clear() {
	*h = Histories{}
}

// gravity pulls v toward bonus, saturating at ±divisor.
func gravity(v *int32, bonus, divisor int32) {
	*v += bonus - *v*Abs(bonus)/divisor
}

func (h *Histories) quietScore(side gm.Color, m gm.Move) int32 {
	return h.quiet[side][m.MovedPiece().Type()][m.To()]
}

func (h *Histories) contScore(prev *searchStack, m gm.Move) int32 {
	if prev.movedPiece == gm.NoPiece {
		return 0
	}
	return h.continuation[prev.movedPiece][prev.move.To()][m.MovedPiece()][m.To()]
}

func quietBonus(p *Params, depth int) int32 {
	return min(p[QuietGravityBase]+p[QuietDepthMult]*int32(depth), p[QuietBonusCap])
}

func quietMalus(p *Params, depth int) int32 {
	return min(p[QuietMalusBase]+p[QuietMalusDepthMult]*int32(depth), p[QuietMalusMax])
}

func contBonus(p *Params, depth int) int32 {
	return min(p[ContGravityBase]+p[ContDepthMult]*int32(depth), p[ContBonusCap])
}

func contMalus(p *Params, depth int) int32 {
	return min(p[ContMalusBase]+p[ContMalusDepthMult]*int32(depth), p[ContMalusMax])
}

func (h *Histories) updateQuiet(p *Params, side gm.Color, m gm.Move, bonus int32) {
	gravity(&h.quiet[side][m.MovedPiece().Type()][m.To()], bonus, p[QuietDivisor])
}

func (h *Histories) updateCont(p *Params, prev *searchStack, m gm.Move, bonus int32) {
	if prev.movedPiece == gm.NoPiece {
		return
	}
	gravity(&h.continuation[prev.movedPiece][prev.move.To()][m.MovedPiece()][m.To()], bonus, p[ContDivisor])
}

// pawnKey hashes both pawn bitboards into a correction-table index.
func pawnKey(b *gm.Board) uint64 {
	w := b.Bitboards(gm.White).Pawns
	k := b.Bitboards(gm.Black).Pawns
	h := w*0x9E3779B97F4A7C15 ^ (k*0xC2B2AE3D27D4EB4F)<<1 ^ k>>31
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return h
}

func (h *Histories) correction(side gm.Color, key uint64) int32 {
	return h.pawnCorr[side][key%corrHistSize]
}

func (h *Histories) updateCorrection(p *Params, side gm.Color, key uint64, depth int, diff int32) {
	bonus := int32(Clamp(int64(diff)*int64(depth)*int64(p[CorrDepthAdder])/int64(p[CorrDepthDiv]), -corrHistLimit/4, corrHistLimit/4))
	entry := &h.pawnCorr[side][key%corrHistSize]
	gravity(entry, bonus, p[CorrGravityDiv])
	*entry = Clamp(*entry, -corrHistLimit, corrHistLimit)
}
