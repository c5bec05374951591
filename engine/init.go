package engine

import (
	"math"
)

const (
	bitboardFileA uint64 = 0x0101010101010101
	bitboardFileH uint64 = 0x8080808080808080
)

var PositionBB [64]uint64
var KingMoves [64]uint64
var KnightMasks [64]uint64

// pawnAttacks[c][sq] are the squares a pawn of color c on sq attacks.
var pawnAttacks [2][64]uint64

func init() {
	initPositionBB()
}

func initPositionBB() {
	for i := 0; i < 64; i++ {
		PositionBB[i] = uint64(1) << uint(i)
		sqBB := PositionBB[i]

		// Generate king moves lookup table.
		up := sqBB << 8
		down := sqBB >> 8
		left := (sqBB >> 1) &^ bitboardFileH
		right := (sqBB << 1) &^ bitboardFileA
		upLeft := (sqBB << 7) &^ bitboardFileH
		upRight := (sqBB << 9) &^ bitboardFileA
		downLeft := (sqBB >> 9) &^ bitboardFileH
		downRight := (sqBB >> 7) &^ bitboardFileA

		KingMoves[i] = up | down | left | right | upLeft | upRight | downLeft | downRight
		pawnAttacks[0][i] = upLeft | upRight
		pawnAttacks[1][i] = downLeft | downRight

		file, rank := i%8, i/8
		var knight uint64
		for _, d := range [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
			f, r := file+d[0], rank+d[1]
			if f >= 0 && f < 8 && r >= 0 && r < 8 {
				knight |= uint64(1) << uint(r*8+f)
			}
		}
		KnightMasks[i] = knight
	}
}

// Late-move reduction table, filled from the LMR base/divisor parameters.
func initLMRTable(lmr *[MaxPly][maxMoves]int8, base, divisor int32) {
	b := float64(base) / 100
	div := float64(divisor) / 100
	for d := 1; d < MaxPly; d++ {
		for m := 1; m < maxMoves; m++ {
			r := b + math.Log(float64(d))*math.Log(float64(m))/div
			lmr[d][m] = int8(Clamp(r, 0, 64))
		}
	}
}
