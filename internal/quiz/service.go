// Package quiz runs quiz sessions: loading questions, a per-question countdown, answers, scoring,
// and recording completed sessions for the authenticated player.
package quiz

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/event"
	"github.com/victornm/quizkeep/internal/telemetry"
)

var ErrSessionNotFound = errors.New(errors.CodeNotFound, errors.WithMessagef("quiz session not found"))

type (
	QuestionSource interface {
		Questions(ctx context.Context, mode domain.Mode) ([]domain.Question, error)
	}

	AccountDirectory interface {
		CurrentAccount(ctx context.Context) (*domain.Account, error)
		ApplyResult(ctx context.Context, id string, rec domain.SessionRecord) (*domain.Account, error)
	}

	HistoryLedger interface {
		Append(ctx context.Context, accountID string, rec domain.SessionRecord) error
	}

	Leaderboard interface {
		RecordResult(ctx context.Context, a domain.Account, rec domain.SessionRecord) (*domain.Leaderboard, error)
	}

	ActionLogger interface {
		LogAction(ctx context.Context, accountID string, kind domain.ActionKind, details map[string]any)
	}
)

type Config struct {
	Questions   QuestionSource
	Accounts    AccountDirectory
	History     HistoryLedger
	Leaderboard Leaderboard
	Mirror      ActionLogger
	// EventBus receives a domain.EventQuizUpdated for every change of every session.
	EventBus      *event.Bus
	NewTickerFunc func(d time.Duration) Ticker
	Now           func() time.Time
	NewID         func() (string, error)
}

type Service struct {
	questions   QuestionSource
	accounts    AccountDirectory
	history     HistoryLedger
	leaderboard Leaderboard
	mirror      ActionLogger
	eb          *event.Bus
	newTicker   func(d time.Duration) Ticker
	now         func() time.Time
	newID       func() (string, error)

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(c Config) *Service {
	s := &Service{
		questions:   c.Questions,
		accounts:    c.Accounts,
		history:     c.History,
		leaderboard: c.Leaderboard,
		mirror:      c.Mirror,
		eb:          c.EventBus,
		newTicker:   c.NewTickerFunc,
		now:         c.Now,
		newID:       c.NewID,
		sessions:    make(map[string]*Session),
	}

	if s.mirror == nil {
		s.mirror = discardActions{}
	}
	if s.newTicker == nil {
		s.newTicker = newTimeTicker
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() (string, error) {
			id, err := uuid.NewV7()
			return id.String(), err
		}
	}

	return s
}

// Start loads the mode's questions and opens the first one.
func (s *Service) Start(ctx context.Context, mode domain.Mode) (*Session, error) {
	id, err := s.newID()
	if err != nil {
		return nil, errors.Internal(err)
	}

	ss := &Session{
		id:    id,
		mode:  mode,
		svc:   s,
		phase: domain.QuizPhaseLoading,
	}
	s.notify(ss.Snapshot())

	qs, err := s.questions.Questions(ctx, mode)
	if err != nil {
		return nil, err
	}
	if len(qs) != mode.QuestionCount {
		return nil, errors.New(errors.CodeInternal,
			errors.WithMessagef("question pool returned %d questions for mode %q, want %d", len(qs), mode.ID, mode.QuestionCount))
	}

	snap := ss.start(qs)

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[id] = ss
	s.mu.Unlock()

	s.notify(snap)
	return ss, nil
}

// Session returns a started session. Finished sessions stay available until the next Start.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ss, nil
}

func (s *Service) pruneLocked() {
	for id, ss := range s.sessions {
		if ss.Snapshot().Phase.Terminal() {
			delete(s.sessions, id)
		}
	}
}

// complete records a finished session for the current account, in order: history, account
// aggregates, leaderboard, then the remote action log. A failed step is logged and the next one
// still runs.
func (s *Service) complete(ctx context.Context, mode domain.Mode, res domain.QuizResult) {
	telemetry.SessionsCompleted.WithLabelValues(mode.ID).Inc()

	a, err := s.accounts.CurrentAccount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "quiz: current account unavailable, session not recorded",
			"mode", mode.ID, "grade", res.Grade, "error", err)
		return
	}
	if a == nil {
		slog.InfoContext(ctx, "quiz: guest session not recorded", "mode", mode.ID, "grade", res.Grade)
		return
	}

	rec := record(mode, res)
	rec.CompletedAt = s.now()

	if err := s.history.Append(ctx, a.ID, rec); err != nil {
		slog.WarnContext(ctx, "quiz: history not recorded", "account_id", a.ID, "error", err)
	}

	if updated, err := s.accounts.ApplyResult(ctx, a.ID, rec); err != nil {
		slog.WarnContext(ctx, "quiz: account stats not updated", "account_id", a.ID, "error", err)
	} else {
		a = updated
	}

	if _, err := s.leaderboard.RecordResult(ctx, *a, rec); err != nil {
		slog.WarnContext(ctx, "quiz: leaderboard not updated", "account_id", a.ID, "error", err)
	} else {
		s.mirror.LogAction(ctx, a.ID, domain.ActionLeaderboardUpdated, map[string]any{"grade": rec.Grade})
	}

	s.mirror.LogAction(ctx, a.ID, domain.ActionSessionCompleted, map[string]any{
		"mode":          rec.Mode,
		"questionCount": rec.QuestionCount,
		"correctCount":  rec.CorrectCount,
		"grade":         rec.Grade,
		"points":        rec.PointsAwarded,
	})
}

func (s *Service) aborted(mode domain.Mode) {
	telemetry.SessionsAborted.WithLabelValues(mode.ID).Inc()
}

func (s *Service) notify(snap domain.QuizSnapshot) {
	s.eb.Publish(context.Background(), domain.EventQuizUpdated{Snapshot: snap})
}

type discardActions struct{}

func (discardActions) LogAction(context.Context, string, domain.ActionKind, map[string]any) {}
