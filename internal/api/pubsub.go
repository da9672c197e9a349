package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/quizkeep/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	Leaderboard struct {
		Entries []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		Rank        int     `json:"rank"`
		AccountID   string  `json:"accountId"`
		Name        string  `json:"name"`
		Avatar      string  `json:"avatar"`
		BestGrade   float64 `json:"bestGrade"`
		TotalPoints int     `json:"totalPoints"`
		GamesPlayed int     `json:"gamesPlayed"`
	}
)

func toLeaderboard(l domain.Leaderboard) Leaderboard {
	data := Leaderboard{
		Entries: make([]LeaderboardEntry, 0, len(l.Entries)),
	}

	for i, entry := range l.Entries {
		data.Entries = append(data.Entries, LeaderboardEntry{
			Rank:        i + 1,
			AccountID:   entry.AccountID,
			Name:        entry.Name,
			Avatar:      entry.Avatar,
			BestGrade:   entry.BestGrade,
			TotalPoints: entry.TotalPoints,
			GamesPlayed: entry.GamesPlayed,
		})
	}

	return data
}

// PublishLeaderboardUpdated notifies every ranked account of the new ranking.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	data := toLeaderboard(e.Leaderboard)

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		entry := entry
		eg.Go(func() error {
			return a.publishNotification(ctx, a.channel("user", entry.AccountID), e.Name(), data)
		})
	}

	return eg.Wait()
}

// PublishQuizUpdated forwards a session snapshot to the session's channel.
func (a *API) PublishQuizUpdated(ctx context.Context, e domain.EventQuizUpdated) error {
	return a.publishNotification(ctx, a.channel("quiz", e.Snapshot.SessionID), e.Name(), e.Snapshot)
}

func (a *API) channel(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", a.prefix, kind, id)
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}
