// Package leaderboard maintains the global ranking of registered players.
package leaderboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/event"
	"github.com/victornm/quizkeep/internal/store"
)

const (
	keyLeaderboard = "leaderboard"

	DefaultLimit = 100
)

type Config struct {
	Store    *store.Store
	EventBus *event.Bus
	// Limit is the number of entries kept; lower ranked entries are dropped.
	Limit int
}

type Service struct {
	st    *store.Store
	eb    *event.Bus
	limit int

	mu sync.Mutex
}

func NewService(c Config) *Service {
	s := &Service{
		st:    c.Store,
		eb:    c.EventBus,
		limit: c.Limit,
	}
	if s.limit <= 0 {
		s.limit = DefaultLimit
	}

	return s
}

// List returns the leaderboard, best first. Read failures yield an empty leaderboard.
func (s *Service) List(ctx context.Context) domain.Leaderboard {
	var entries []domain.LeaderboardEntry
	if !s.st.GetOrEmpty(ctx, keyLeaderboard, &entries) {
		entries = []domain.LeaderboardEntry{}
	}

	return domain.Leaderboard{Entries: entries}
}

// RecordResult folds a completed session into the account's entry: the best grade is kept, points
// and games played accumulate. The account's current name and avatar replace the stored ones.
func (s *Service) RecordResult(ctx context.Context, a domain.Account, rec domain.SessionRecord) (*domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []domain.LeaderboardEntry
	if _, err := s.st.Get(ctx, keyLeaderboard, &entries); err != nil {
		slog.ErrorContext(ctx, "leaderboard: read failed, result dropped", "account_id", a.ID, "error", err)
		return nil, errors.Storage(err)
	}

	i := indexOf(entries, a.ID)
	if i < 0 {
		entries = append(entries, domain.LeaderboardEntry{AccountID: a.ID, BestGrade: rec.Grade})
		i = len(entries) - 1
	}

	e := &entries[i]
	e.Name = a.Name
	e.Avatar = a.Avatar
	e.TotalPoints += rec.PointsAwarded
	e.GamesPlayed++
	if rec.Grade > e.BestGrade {
		e.BestGrade = rec.Grade
	}

	Sort(entries)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	if err := s.st.Set(ctx, keyLeaderboard, entries); err != nil {
		slog.ErrorContext(ctx, "leaderboard: write failed", "account_id", a.ID, "error", err)
		return nil, errors.Storage(err)
	}

	l := domain.Leaderboard{Entries: entries}
	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{Leaderboard: l})

	return &l, nil
}

// Sort orders entries by best grade, then total points, then fewer games played. Remaining ties
// fall back to the account ID, which is time ordered, so earlier accounts rank first.
func Sort(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.BestGrade != b.BestGrade:
			return a.BestGrade > b.BestGrade
		case a.TotalPoints != b.TotalPoints:
			return a.TotalPoints > b.TotalPoints
		case a.GamesPlayed != b.GamesPlayed:
			return a.GamesPlayed < b.GamesPlayed
		default:
			return a.AccountID < b.AccountID
		}
	})
}

func indexOf(entries []domain.LeaderboardEntry, accountID string) int {
	for i := range entries {
		if entries[i].AccountID == accountID {
			return i
		}
	}
	return -1
}
