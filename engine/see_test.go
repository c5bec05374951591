package engine

import "testing"

func TestSEEAccountsForRecapture(t *testing.T) {
	b := mustBoard(t, "6k1/4q1p1/4n3/8/2B5/8/8/6K1 w - - 0 1")
	m := mustMove(t, b, "c4e6")

	// BxN QxB: 320 - 341.
	if !SEE(b, m, -21) {
		t.Fatalf("expected SEE >= -21")
	}
	if SEE(b, m, -20) {
		t.Fatalf("expected SEE < -20")
	}
}

func TestSEEUndefendedCapture(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/3r4/8/8/8/3QK3 w - - 0 1")
	m := mustMove(t, b, "d1d5")
	if !SEE(b, m, SeePieceValue[4]) {
		t.Fatalf("winning a free rook should pass its own value")
	}
	if SEE(b, m, SeePieceValue[4]+1) {
		t.Fatalf("SEE cannot exceed the captured value")
	}
}

func TestSEEQueenTakesDefendedPawn(t *testing.T) {
	b := mustBoard(t, "4k3/8/2p5/3p4/8/8/8/3QK3 w - - 0 1")
	m := mustMove(t, b, "d1d5")
	if SEE(b, m, 0) {
		t.Fatalf("queen for pawn should fail SEE >= 0")
	}
	if !SEE(b, m, 136-1069) {
		t.Fatalf("queen for pawn should pass its exact loss")
	}
}

func TestSEEXrayBehindAttacker(t *testing.T) {
	// Doubled rooks on both sides of the d-file.
	b := mustBoard(t, "3rk3/3r4/8/3p4/8/8/3R4/3RK3 w - - 0 1")
	m := mustMove(t, b, "d2d5")
	// RxP RxR RxR RxR: 136 - 549 + 549 - 549.
	if SEE(b, m, 0) {
		t.Fatalf("expected the exchange on d5 to lose material")
	}

	b = mustBoard(t, "4k3/3r4/8/3p4/8/8/3R4/3RK3 w - - 0 1")
	m = mustMove(t, b, "d2d5")
	// RxP RxR RxR: 136 - 549 + 549.
	if !SEE(b, m, 136) {
		t.Fatalf("the x-rayed rook should win the exchange")
	}
}

func TestSEEHandlesEnPassantCapture(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	m := mustMove(t, b, "e5d6")
	if !isCapture(m) || capturedType(m) != 1 {
		t.Fatalf("en passant should capture a pawn")
	}
	if !SEE(b, m, SeePieceValue[1]) {
		t.Fatalf("expected SEE >= pawn value")
	}
	if SEE(b, m, SeePieceValue[1]+1) {
		t.Fatalf("expected SEE < pawn value + 1")
	}
}

func TestSEECastlingIsNeutral(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	m := mustMove(t, b, "e1g1")
	if !SEE(b, m, 0) || SEE(b, m, 1) {
		t.Fatalf("castling should score exactly zero")
	}
}

func TestSEEPromotionAddsValue(t *testing.T) {
	b := mustBoard(t, "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	m := mustMove(t, b, "b7b8q")
	want := SeePieceValue[5] - SeePieceValue[1]
	if !SEE(b, m, want) || SEE(b, m, want+1) {
		t.Fatalf("undefended queen promotion should gain exactly %d", want)
	}
}

func TestSEERookTakesPawnDefendedByQueen(t *testing.T) {
	b := mustBoard(t, "4k3/8/4q3/3p4/8/8/8/3R3K w - - 0 1")
	if SEE(b, mustMove(t, b, "d1d5"), 0) {
		t.Fatalf("RxP QxR should be negative at threshold 0")
	}

	b = mustBoard(t, "4k3/8/8/3p4/8/8/8/3R3K w - - 0 1")
	if !SEE(b, mustMove(t, b, "d1d5"), 0) {
		t.Fatalf("an undefended pawn capture should be non-negative")
	}
}
