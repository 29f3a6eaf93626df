package tile

import "testing"

func TestNewSetSizeAndUniqueIDs(t *testing.T) {
	set := NewSet(4)
	if set.Count() != 56 {
		t.Fatalf("expected 56 tiles (14 kinds x 4), got %d", set.Count())
	}
	seen := make(map[int]bool, 56)
	for _, tl := range set {
		if !tl.Kind.Valid() {
			t.Fatalf("invalid kind in set: %v", tl)
		}
		if seen[tl.ID] {
			t.Fatalf("duplicate tile id %d", tl.ID)
		}
		seen[tl.ID] = true
	}
	for _, k := range AllKinds {
		if n := set.CountKind(k); n != 4 {
			t.Fatalf("kind %s has %d copies, want 4", k, n)
		}
	}
}

func TestKindEncoding(t *testing.T) {
	if KindRedJiang.Suit() != Red || KindRedJiang.Piece() != PieceJiang {
		t.Fatalf("red jiang decoded wrong: %v/%v", KindRedJiang.Suit(), KindRedJiang.Piece())
	}
	if KindBlackZu.Suit() != Black || KindBlackZu.Piece() != PieceZu {
		t.Fatalf("black zu decoded wrong: %v/%v", KindBlackZu.Suit(), KindBlackZu.Piece())
	}
	if MakeKind(Black, PieceMa) != KindBlackMa {
		t.Fatalf("MakeKind mismatch")
	}
	// 红将和黑将不是同一个牌种
	if KindRedJiang == KindBlackJiang {
		t.Fatalf("suits must separate kinds")
	}
	if KindRedJiang.Order() != KindBlackJiang.Order() {
		t.Fatalf("order value should ignore suit")
	}
}

func TestRemoveKind(t *testing.T) {
	ls := List{
		{ID: 1, Kind: KindRedMa},
		{ID: 2, Kind: KindRedPao},
		{ID: 3, Kind: KindRedMa},
		{ID: 4, Kind: KindRedMa},
	}
	removed, ok := ls.RemoveKind(KindRedMa, 2)
	if !ok || len(removed) != 2 {
		t.Fatalf("expected to remove 2 tiles, got ok=%v n=%d", ok, len(removed))
	}
	if ls.Count() != 2 || ls.CountKind(KindRedMa) != 1 {
		t.Fatalf("remaining list wrong: %v", ls)
	}
	if _, ok := ls.RemoveKind(KindRedPao, 2); ok {
		t.Fatalf("removing more copies than held must fail")
	}
	if ls.Count() != 2 {
		t.Fatalf("failed removal must not mutate the list")
	}
}
