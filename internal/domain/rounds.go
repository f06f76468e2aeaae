package domain

// Round winner markers as stored in roundNWinner fields and tallied for the
// game outcome.
const (
	RoundWinnerPlayer1 = "player1"
	RoundWinnerPlayer2 = "player2"
	RoundWinnerNone    = "none"
)

// RoundWinner declares the winner of one round from the two accumulated
// category totals. A tie is "none".
func RoundWinner(p1Score, p2Score int) string {
	switch {
	case p1Score > p2Score:
		return RoundWinnerPlayer1
	case p2Score > p1Score:
		return RoundWinnerPlayer2
	default:
		return RoundWinnerNone
	}
}

// GameOutcome is the verdict after a round concludes.
type GameOutcome struct {
	// Decided is true when a game winner exists.
	Decided bool
	// WinnerRole is RoundWinnerPlayer1 or RoundWinnerPlayer2 when Decided.
	WinnerRole string
	// NextRound is the round number to start when not Decided.
	NextRound int
	// SuddenDeath is true when NextRound goes beyond the regular three rounds
	// because the first three produced no leader.
	SuddenDeath bool
}

// ResolveGame applies the best-of-three rule to the per-round winners recorded
// so far (entries are RoundWinnerPlayer1/Player2/None). First to two round
// wins takes the game; after three rounds the higher round-win count decides.
// A full three-round tie plays extra sudden-death rounds until one round
// produces a leader.
func ResolveGame(roundWinners []string) GameOutcome {
	p1, p2 := 0, 0
	for _, w := range roundWinners {
		switch w {
		case RoundWinnerPlayer1:
			p1++
		case RoundWinnerPlayer2:
			p2++
		}
	}

	if p1 >= 2 {
		return GameOutcome{Decided: true, WinnerRole: RoundWinnerPlayer1}
	}
	if p2 >= 2 {
		return GameOutcome{Decided: true, WinnerRole: RoundWinnerPlayer2}
	}
	if len(roundWinners) >= 3 && p1 != p2 {
		winner := RoundWinnerPlayer1
		if p2 > p1 {
			winner = RoundWinnerPlayer2
		}
		return GameOutcome{Decided: true, WinnerRole: winner}
	}

	next := len(roundWinners) + 1
	return GameOutcome{NextRound: next, SuddenDeath: next > 3}
}
