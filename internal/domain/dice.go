package domain

// DiceSides is the number of faces on the turn-order die.
const DiceSides = 6

// RollResolution describes the session-level effect of a single DICE_ROLLED
// action under the sequential rolling protocol.
type RollResolution struct {
	// DiceWinner is the id of the player who won letter-choice rights, or ""
	// when the roll did not decide anything yet.
	DiceWinner string
	// AdvanceToLetter is true when both dice are in and unequal; the session
	// moves to letter selection.
	AdvanceToLetter bool
	// TieReset is true when both dice are in and equal; both dice clear and
	// rolling restarts from player 1 with no memory of the tie.
	TieReset bool
	// NextTurn is the turn marker to store (1 or 2), or 0 to leave it alone.
	NextTurn int
}

// ResolveRoll applies the dice arbitration rule for the acting role. value is
// the acting player's roll; otherDice is the other role's stored die (0 when
// not yet rolled). Exactly one of the three outcomes applies: the other player
// still has to roll (turn flips), the higher roller wins, or a tie resets the
// whole roll.
func ResolveRoll(role, value, otherDice int, rollerID, otherID string) RollResolution {
	if otherDice == 0 {
		next := 1
		if role == 1 {
			next = 2
		}
		return RollResolution{NextTurn: next}
	}
	if value > otherDice {
		return RollResolution{DiceWinner: rollerID, AdvanceToLetter: true}
	}
	if otherDice > value {
		return RollResolution{DiceWinner: otherID, AdvanceToLetter: true}
	}
	return RollResolution{TieReset: true, NextTurn: 1}
}
