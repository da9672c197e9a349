package quiz

import (
	"github.com/shopspring/decimal"

	"github.com/victornm/quizkeep/internal/domain"
)

const (
	pointsPerCorrect = 10

	gradeScale = 20
)

var (
	twenty  = decimal.NewFromInt(gradeScale)
	hundred = decimal.NewFromInt(100)
)

// Score grades correct answers out of total on a 0-20 scale with one decimal, and awards 10 points
// per correct answer plus a bonus of 50 from a grade of 16 and 20 from a grade of 12.
func Score(correct, total int) domain.QuizResult {
	if total <= 0 {
		return domain.QuizResult{Mention: mention(0)}
	}

	ratio := decimal.NewFromInt(int64(correct)).Div(decimal.NewFromInt(int64(total)))
	grade := ratio.Mul(twenty).Round(1)

	g := grade.InexactFloat64()
	return domain.QuizResult{
		QuestionCount: total,
		CorrectCount:  correct,
		Grade:         g,
		PointsAwarded: correct*pointsPerCorrect + bonus(g),
		Percentage:    int(ratio.Mul(hundred).Round(0).IntPart()),
		Mention:       mention(g),
	}
}

func bonus(grade float64) int {
	switch {
	case grade >= 16:
		return 50
	case grade >= 12:
		return 20
	default:
		return 0
	}
}

func mention(grade float64) string {
	switch {
	case grade >= 18:
		return "Excellent"
	case grade >= 16:
		return "Très bien"
	case grade >= 12:
		return "Bien"
	case grade >= 10:
		return "Passable"
	default:
		return "À revoir"
	}
}

// record is the history entry of a result.
func record(mode domain.Mode, r domain.QuizResult) domain.SessionRecord {
	return domain.SessionRecord{
		Mode:          mode.ID,
		QuestionCount: r.QuestionCount,
		CorrectCount:  r.CorrectCount,
		Grade:         r.Grade,
		PointsAwarded: r.PointsAwarded,
	}
}
