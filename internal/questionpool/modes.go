package questionpool

import (
	"fmt"

	"github.com/victornm/quizkeep/internal/domain"
)

var DefaultModes = []domain.Mode{
	{ID: "rapide", Title: "Mode Rapide", QuestionCount: 200, SecondsPerQuestion: 15},
	{ID: "normal", Title: "Mode Normal", QuestionCount: 300, SecondsPerQuestion: 30},
	{ID: "expert", Title: "Mode Expert", QuestionCount: 500, SecondsPerQuestion: 20},
	{ID: "marathon", Title: "Marathon", QuestionCount: 800, SecondsPerQuestion: 45},
}

const CategoryMixed = "mixte"

// Contest categories and the most questions a contest session draws from each.
var contestCategories = []struct {
	ID    string
	Title string
	Max   int
}{
	{"mathematiques", "Mathématiques", 109},
	{"sciences", "Sciences", 133},
	{"histoire_geo", "Histoire-Géographie", 100},
	{"francais", "Français", 105},
	{"logique", "Logique", 50},
	{CategoryMixed, "Mixte", 497},
}

var contestTimings = []struct {
	ID      string
	Title   string
	Seconds int
	Exam    bool
}{
	{"entrainement", "Entraînement", 0, false},
	{"examen", "Examen", 90, true},
	{"sprint", "Sprint", 45, false},
}

// contestModes pairs every category holding questions with every timing. A contest session plays
// the whole category, up to the category maximum.
func (p *Pool) contestModes() []domain.Mode {
	var modes []domain.Mode
	for _, c := range contestCategories {
		n := min(len(p.category(c.ID)), c.Max)
		if n == 0 {
			continue
		}

		for _, t := range contestTimings {
			modes = append(modes, domain.Mode{
				ID:                 fmt.Sprintf("concours:%s:%s", c.ID, t.ID),
				Title:              fmt.Sprintf("%s · %s", c.Title, t.Title),
				QuestionCount:      n,
				SecondsPerQuestion: t.Seconds,
				IsExamMode:         t.Exam,
				Category:           c.ID,
			})
		}
	}
	return modes
}
