package ports

import "testing"

func TestFieldHelpers(t *testing.T) {
	doc := Document{}

	SetField(doc, "gameState.stage", "dice_roll")
	SetField(doc, "gameState.currentRound", 2)
	SetField(doc, "status", "active")

	if v, ok := GetField(doc, "gameState.stage"); !ok || v != "dice_roll" {
		t.Errorf("gameState.stage = %v, %v", v, ok)
	}
	if v, ok := GetField(doc, "status"); !ok || v != "active" {
		t.Errorf("status = %v, %v", v, ok)
	}
	if _, ok := GetField(doc, "gameState.missing"); ok {
		t.Error("missing leaf resolved")
	}
	if _, ok := GetField(doc, "status.nested"); ok {
		t.Error("path through scalar resolved")
	}

	// Overwriting a scalar with a nested path replaces it.
	SetField(doc, "status.phase", "late")
	if v, ok := GetField(doc, "status.phase"); !ok || v != "late" {
		t.Errorf("status.phase = %v, %v", v, ok)
	}

	DeleteField(doc, "gameState.currentRound")
	if _, ok := GetField(doc, "gameState.currentRound"); ok {
		t.Error("deleted field still present")
	}
	DeleteField(doc, "nothing.here")
}

func TestEncodeDecodeNumbers(t *testing.T) {
	type entry struct {
		Stake int64 `json:"betAmount"`
	}

	doc, err := Encode(entry{Stake: 100})
	if err != nil {
		t.Fatal(err)
	}
	// JSON round-trips integers as float64; Equal must bridge that.
	if !Equal(doc["betAmount"], int64(100)) {
		t.Errorf("stored %T(%v) does not equal int64 100", doc["betAmount"], doc["betAmount"])
	}
	if Equal(doc["betAmount"], int64(101)) {
		t.Error("unequal numbers matched")
	}
	if Equal("100", int64(100)) {
		t.Error("string matched a number")
	}

	var back entry
	if err := Decode(doc, &back); err != nil {
		t.Fatal(err)
	}
	if back.Stake != 100 {
		t.Errorf("decoded stake = %d", back.Stake)
	}
}
