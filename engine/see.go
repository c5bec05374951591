package engine

import (
	gm "github.com/Oliverans/GooseEngineMG/goosemg"
)

var SeePieceValue = [7]int32{
	gm.PieceTypeNone:   0,
	gm.PieceTypePawn:   136,
	gm.PieceTypeKnight: 320,
	gm.PieceTypeBishop: 341,
	gm.PieceTypeRook:   549,
	gm.PieceTypeQueen:  1069,
	gm.PieceTypeKing:   0,
}

func isCapture(m gm.Move) bool {
	return m.CapturedPiece() != gm.NoPiece || m.Flags()&gm.FlagEnPassant != 0
}

func isQuiet(m gm.Move) bool {
	return !isCapture(m) && m.PromotionPiece() == gm.NoPiece
}

func capturedType(m gm.Move) gm.PieceType {
	if m.Flags()&gm.FlagEnPassant != 0 {
		return gm.PieceTypePawn
	}
	return m.CapturedPiece().Type()
}

// attackersTo returns every piece of either color attacking sq under occ.
func attackersTo(w, k *gm.Bitboards, sq int, occ uint64) uint64 {
	diag := gm.CalculateBishopMoveBitboard(uint8(sq), occ)
	orth := gm.CalculateRookMoveBitboard(uint8(sq), occ)
	return (pawnAttacks[1][sq] & w.Pawns) |
		(pawnAttacks[0][sq] & k.Pawns) |
		(KnightMasks[sq] & (w.Knights | k.Knights)) |
		(KingMoves[sq] & (w.Kings | k.Kings)) |
		(diag & (w.Bishops | w.Queens | k.Bishops | k.Queens)) |
		(orth & (w.Rooks | w.Queens | k.Rooks | k.Queens))
}

/*
SEE reports whether the exchange started by m nets at least threshold.
Swap-off: each side recaptures with its least valuable attacker, sliders hidden
behind the removed piece are picked up by rescanning the rays.
*/
func SEE(b *gm.Board, m gm.Move, threshold int32) bool {
	if m.Flags()&gm.FlagCastle != 0 {
		return threshold <= 0
	}

	from := int(m.From())
	to := int(m.To())

	swap := SeePieceValue[capturedType(m)] - threshold
	next := m.MovedPiece().Type()
	if promo := m.PromotionPieceType(); promo != gm.PieceTypeNone {
		swap += SeePieceValue[promo] - SeePieceValue[gm.PieceTypePawn]
		next = promo
	}
	if swap < 0 {
		return false
	}
	swap = SeePieceValue[next] - swap
	if swap <= 0 {
		return true
	}

	white := b.Bitboards(gm.White)
	black := b.Bitboards(gm.Black)
	sides := [2]*gm.Bitboards{&white, &black}

	occ := (white.All | black.All) ^ PositionBB[from] ^ PositionBB[to]
	if m.Flags()&gm.FlagEnPassant != 0 {
		if b.SideToMove() == gm.White {
			occ ^= PositionBB[to-8]
		} else {
			occ ^= PositionBB[to+8]
		}
	}

	diagonal := white.Bishops | white.Queens | black.Bishops | black.Queens
	straight := white.Rooks | white.Queens | black.Rooks | black.Queens

	attackers := attackersTo(&white, &black, to, occ)
	stm := b.SideToMove()
	res := 1

	for {
		stm ^= 1
		attackers &= occ
		own := sides[stm]
		stmAttackers := attackers & own.All
		if stmAttackers == 0 {
			break
		}
		res ^= 1

		pt, bb := leastValuableAttacker(own, stmAttackers)
		if pt == gm.PieceTypeKing {
			// The king can only take if nothing defends the square anymore.
			if attackers&^own.All != 0 {
				res ^= 1
			}
			break
		}
		if swap = SeePieceValue[pt] - swap; swap < int32(res) {
			break
		}
		occ ^= bb & -bb

		switch pt {
		case gm.PieceTypePawn, gm.PieceTypeBishop:
			attackers |= gm.CalculateBishopMoveBitboard(uint8(to), occ) & diagonal
		case gm.PieceTypeRook:
			attackers |= gm.CalculateRookMoveBitboard(uint8(to), occ) & straight
		case gm.PieceTypeQueen:
			attackers |= gm.CalculateBishopMoveBitboard(uint8(to), occ) & diagonal
			attackers |= gm.CalculateRookMoveBitboard(uint8(to), occ) & straight
		}
	}
	return res != 0
}

func leastValuableAttacker(own *gm.Bitboards, attackers uint64) (gm.PieceType, uint64) {
	switch {
	case attackers&own.Pawns != 0:
		return gm.PieceTypePawn, attackers & own.Pawns
	case attackers&own.Knights != 0:
		return gm.PieceTypeKnight, attackers & own.Knights
	case attackers&own.Bishops != 0:
		return gm.PieceTypeBishop, attackers & own.Bishops
	case attackers&own.Rooks != 0:
		return gm.PieceTypeRook, attackers & own.Rooks
	case attackers&own.Queens != 0:
		return gm.PieceTypeQueen, attackers & own.Queens
	}
	return gm.PieceTypeKing, attackers & own.Kings
}
