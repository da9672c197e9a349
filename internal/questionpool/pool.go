// Package questionpool supplies quiz questions per mode from a YAML question file.
package questionpool

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
)

//go:embed questions.yaml
var defaultFiles embed.FS

// File is the layout of a question file. Contest questions carry a category label.
type File struct {
	Questions []domain.Question `yaml:"questions"`
	Contest   []domain.Question `yaml:"contest"`
}

type Config struct {
	// File overrides the embedded question file.
	File string
	// Modes overrides DefaultModes.
	Modes []domain.Mode
	Intn  func(n int) int
}

// Pool is immutable once loaded and safe for concurrent use.
type Pool struct {
	questions []domain.Question
	contest   []domain.Question
	modes     []domain.Mode
	intn      func(n int) int
}

func New(c Config) (*Pool, error) {
	raw, err := readFile(c.File)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("questionpool: parse: %w", err)
	}

	return FromFile(f, c)
}

// FromFile builds a pool from already decoded questions.
func FromFile(f File, c Config) (*Pool, error) {
	for i, q := range append(append([]domain.Question{}, f.Questions...), f.Contest...) {
		if err := validate(q); err != nil {
			return nil, fmt.Errorf("questionpool: question %d: %w", i, err)
		}
	}

	p := &Pool{
		questions: f.Questions,
		contest:   f.Contest,
		intn:      c.Intn,
	}
	if p.intn == nil {
		p.intn = rand.Intn
	}

	modes := c.Modes
	if len(modes) == 0 {
		modes = DefaultModes
	}
	if len(p.questions) > 0 {
		p.modes = append(p.modes, modes...)
	}
	p.modes = append(p.modes, p.contestModes()...)

	return p, nil
}

func readFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		raw, err := fs.ReadFile(defaultFiles, "questions.yaml")
		if err != nil {
			return nil, fmt.Errorf("questionpool: read embedded questions: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("questionpool: read %s: %w", path, err)
	}
	return raw, nil
}

func validate(q domain.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("empty question")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%q: needs at least 2 options", q.Text)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%q: answer %d out of range", q.Text, q.CorrectIndex)
	}
	return nil
}

// Modes returns every playable mode: the standard modes, then the contest modes.
func (p *Pool) Modes() []domain.Mode {
	return append([]domain.Mode(nil), p.modes...)
}

func (p *Pool) Mode(id string) (domain.Mode, bool) {
	for _, m := range p.modes {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Mode{}, false
}

// Questions returns mode.QuestionCount questions in random order. Standard modes requesting more
// questions than the pool holds repeat it, reshuffled for each pass.
func (p *Pool) Questions(_ context.Context, mode domain.Mode) ([]domain.Question, error) {
	if mode.QuestionCount <= 0 {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("mode %q has no questions", mode.ID))
	}

	src := p.questions
	if mode.Category != "" {
		src = p.category(mode.Category)
	}
	if len(src) == 0 {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("no questions for mode %q", mode.ID))
	}

	out := make([]domain.Question, 0, mode.QuestionCount+len(src))
	for len(out) < mode.QuestionCount {
		out = append(out, p.shuffle(src)...)
	}
	out = p.shuffle(out)

	return out[:mode.QuestionCount], nil
}

func (p *Pool) category(id string) []domain.Question {
	if id == CategoryMixed {
		return p.contest
	}

	var out []domain.Question
	for _, q := range p.contest {
		if q.Category == id {
			out = append(out, q)
		}
	}
	return out
}

func (p *Pool) shuffle(in []domain.Question) []domain.Question {
	out := append([]domain.Question(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := p.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
