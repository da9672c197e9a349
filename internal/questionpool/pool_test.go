package questionpool_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/questionpool"
)

func TestNew_Embedded(t *testing.T) {
	p, err := questionpool.New(questionpool.Config{})
	require.NoError(t, err)

	m, ok := p.Mode("rapide")
	require.True(t, ok)
	assert.Equal(t, 200, m.QuestionCount)
	assert.Equal(t, 15, m.SecondsPerQuestion)

	m, ok = p.Mode("concours:sciences:examen")
	require.True(t, ok)
	assert.Equal(t, 2, m.QuestionCount)
	assert.Equal(t, 90, m.SecondsPerQuestion)
	assert.True(t, m.IsExamMode)

	m, ok = p.Mode("concours:mixte:entrainement")
	require.True(t, ok)
	assert.Equal(t, 10, m.QuestionCount)
	assert.False(t, m.Timed())

	_, ok = p.Mode("nope")
	assert.False(t, ok)

	assert.Len(t, p.Modes(), len(questionpool.DefaultModes)+6*3)
}

func TestNew_File(t *testing.T) {
	tests := map[string]struct {
		content string
		assert  func(t *testing.T, p *questionpool.Pool, err error)
	}{
		"loads questions and custom modes": {
			content: `
questions:
  - question: "1 + 1 ?"
    options: ["1", "2"]
    answer: 1
`,
			assert: func(t *testing.T, p *questionpool.Pool, err error) {
				require.NoError(t, err)
				assert.Equal(t, []domain.Mode{{ID: "court", QuestionCount: 3, SecondsPerQuestion: 5}}, p.Modes())
			},
		},
		"rejects an answer out of range": {
			content: `
questions:
  - question: "1 + 1 ?"
    options: ["1", "2"]
    answer: 2
`,
			assert: func(t *testing.T, _ *questionpool.Pool, err error) {
				require.ErrorContains(t, err, "out of range")
			},
		},
		"rejects a single option": {
			content: `
contest:
  - question: "1 + 1 ?"
    options: ["2"]
    answer: 0
    category: logique
`,
			assert: func(t *testing.T, _ *questionpool.Pool, err error) {
				require.ErrorContains(t, err, "at least 2 options")
			},
		},
		"rejects malformed yaml": {
			content: "questions: [",
			assert: func(t *testing.T, _ *questionpool.Pool, err error) {
				require.ErrorContains(t, err, "parse")
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "questions.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			p, err := questionpool.New(questionpool.Config{
				File:  path,
				Modes: []domain.Mode{{ID: "court", QuestionCount: 3, SecondsPerQuestion: 5}},
			})
			tt.assert(t, p, err)
		})
	}
}

func TestPool_Questions(t *testing.T) {
	f := questionpool.File{
		Questions: []domain.Question{
			{Text: "a", Options: []string{"x", "y"}},
			{Text: "b", Options: []string{"x", "y"}},
			{Text: "c", Options: []string{"x", "y"}},
		},
		Contest: []domain.Question{
			{Text: "m1", Options: []string{"x", "y"}, Category: "mathematiques"},
			{Text: "s1", Options: []string{"x", "y"}, Category: "sciences"},
			{Text: "s2", Options: []string{"x", "y"}, Category: "sciences"},
		},
	}

	tests := map[string]struct {
		mode   domain.Mode
		assert func(t *testing.T, qs []domain.Question, err error)
	}{
		"returns exactly the requested count": {
			mode: domain.Mode{ID: "m", QuestionCount: 2},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				assert.Len(t, qs, 2)
			},
		},
		"repeats the pool when it is too small": {
			mode: domain.Mode{ID: "m", QuestionCount: 7},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				require.Len(t, qs, 7)

				seen := map[string]int{}
				for _, q := range qs {
					seen[q.Text]++
				}
				assert.Len(t, seen, 3)
			},
		},
		"filters contest questions by category": {
			mode: domain.Mode{ID: "c", QuestionCount: 2, Category: "sciences"},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"s1", "s2"}, []string{qs[0].Text, qs[1].Text})
			},
		},
		"mixed contest draws from every category": {
			mode: domain.Mode{ID: "c", QuestionCount: 3, Category: questionpool.CategoryMixed},
			assert: func(t *testing.T, qs []domain.Question, err error) {
				require.NoError(t, err)
				assert.Len(t, qs, 3)
			},
		},
		"unknown category": {
			mode: domain.Mode{ID: "c", QuestionCount: 1, Category: "musique"},
			assert: func(t *testing.T, _ []domain.Question, err error) {
				assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
			},
		},
		"empty mode": {
			mode: domain.Mode{ID: "m"},
			assert: func(t *testing.T, _ []domain.Question, err error) {
				assert.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := questionpool.FromFile(f, questionpool.Config{})
			require.NoError(t, err)

			qs, err := p.Questions(context.Background(), tt.mode)
			tt.assert(t, qs, err)
		})
	}
}

func TestPool_ContestModes(t *testing.T) {
	p, err := questionpool.FromFile(questionpool.File{
		Contest: []domain.Question{
			{Text: "l1", Options: []string{"x", "y"}, Category: "logique"},
		},
	}, questionpool.Config{})
	require.NoError(t, err)

	var ids []string
	for _, m := range p.Modes() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{
		"concours:logique:entrainement", "concours:logique:examen", "concours:logique:sprint",
		"concours:mixte:entrainement", "concours:mixte:examen", "concours:mixte:sprint",
	}, ids, "standard modes need standard questions")
}
