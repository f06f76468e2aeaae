package answers

import (
	"strings"

	"wordclash/internal/domain"
)

// Comparison outcome labels shown on the per-category comparison rows.
const (
	ResultNeitherAnswered = "Neither answered"
	ResultBothWrong       = "Both wrong"
	ResultP1Correct       = "P1 correct, P2 wrong"
	ResultP2Correct       = "P2 correct, P1 wrong"
	ResultSameAnswer      = "Same answer"
	ResultDifferent       = "Different answers"
)

// PointsPerCategory is awarded for an answer that scores.
const PointsPerCategory = 10

// Comparison is the scored outcome of one category for a two player round.
type Comparison struct {
	P1Points int
	P2Points int
	Result   string
	P1Valid  bool
	P2Valid  bool
}

// Compare scores one category between two players. A valid answer scores
// unless both players gave the same valid word, in which case neither does.
func (s *Store) Compare(letter string, category domain.Category, p1Answer, p2Answer string) Comparison {
	c := Comparison{
		P1Valid: s.Valid(letter, category, p1Answer),
		P2Valid: s.Valid(letter, category, p2Answer),
	}

	switch {
	case p1Answer == "" && p2Answer == "":
		c.Result = ResultNeitherAnswered
	case !c.P1Valid && !c.P2Valid:
		c.Result = ResultBothWrong
	case c.P1Valid && !c.P2Valid:
		c.P1Points = PointsPerCategory
		c.Result = ResultP1Correct
	case !c.P1Valid && c.P2Valid:
		c.P2Points = PointsPerCategory
		c.Result = ResultP2Correct
	default:
		if normalize(p1Answer) == normalize(p2Answer) {
			c.Result = ResultSameAnswer
		} else {
			c.P1Points = PointsPerCategory
			c.P2Points = PointsPerCategory
			c.Result = ResultDifferent
		}
	}
	return c
}

// Comparison3 is the scored outcome of one category among three players,
// indexed by role order.
type Comparison3 struct {
	Points [3]int
	Valid  [3]bool
}

// Compare3 scores one category in a three player round. An answer scores only
// when it is valid and not duplicated by any other VALID answer; an invalid
// duplicate does not spoil a valid one.
func (s *Store) Compare3(letter string, category domain.Category, answers [3]string) Comparison3 {
	var c Comparison3
	var normalized [3]string
	for i, a := range answers {
		c.Valid[i] = s.Valid(letter, category, a)
		normalized[i] = normalize(a)
	}

	for i := range answers {
		if !c.Valid[i] {
			continue
		}
		unique := true
		for j := range answers {
			if j == i || !c.Valid[j] {
				continue
			}
			if normalized[i] == normalized[j] {
				unique = false
				break
			}
		}
		if unique {
			c.Points[i] = PointsPerCategory
		}
	}
	return c
}

func normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
