package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/victornm/quizkeep/internal/docstore"
	"github.com/victornm/quizkeep/internal/domain"
)

const (
	recentAccountsLimit = 100
	actionsLimit        = 200
)

// ErrDisabled is returned by the admin listings when no remote store is configured.
var ErrDisabled = errors.New("mirror: remote store is not configured")

// RemoteAccount is the mirrored view of an account as listed to administrators.
type RemoteAccount struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   string         `json:"createdAt"`
	LastLoginAt string         `json:"lastLoginAt,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type Action struct {
	ID        string         `json:"id"`
	AccountID string         `json:"accountId"`
	Kind      string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// RecentAccounts lists mirrored accounts, newest first.
func (s *Service) RecentAccounts(ctx context.Context, limit int) ([]RemoteAccount, error) {
	if s.client == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 || limit > recentAccountsLimit {
		limit = recentAccountsLimit
	}

	docs, err := s.client.QueryDocuments(ctx, docstore.CollectionUsers, docstore.Query{
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: list accounts: %w", err)
	}

	out := make([]RemoteAccount, 0, len(docs))
	for _, d := range docs {
		a := RemoteAccount{ID: d.ID, Fields: d.Fields}
		a.Name, _ = d.Fields["name"].(string)
		a.IsActive, _ = d.Fields["isActive"].(bool)
		a.CreatedAt, _ = d.Fields["createdAt"].(string)
		a.LastLoginAt, _ = d.Fields["lastLoginAt"].(string)
		out = append(out, a)
	}

	return out, nil
}

// ActiveAccounts counts mirrored accounts currently logged in.
func (s *Service) ActiveAccounts(ctx context.Context) (int, error) {
	if s.client == nil {
		return 0, ErrDisabled
	}

	docs, err := s.client.QueryDocuments(ctx, docstore.CollectionUsers, docstore.Query{
		Filters: map[string]any{"isActive": true},
	})
	if err != nil {
		return 0, fmt.Errorf("mirror: count active accounts: %w", err)
	}

	return len(docs), nil
}

// Actions lists the action log, newest first. An empty kind lists every action.
func (s *Service) Actions(ctx context.Context, kind domain.ActionKind) ([]Action, error) {
	if s.client == nil {
		return nil, ErrDisabled
	}

	q := docstore.Query{OrderBy: "timestamp", Desc: true, Limit: actionsLimit}
	if kind != "" {
		q.Filters = map[string]any{"action": string(kind)}
	}

	docs, err := s.client.QueryDocuments(ctx, docstore.CollectionActions, q)
	if err != nil {
		return nil, fmt.Errorf("mirror: list actions: %w", err)
	}

	out := make([]Action, 0, len(docs))
	for _, d := range docs {
		a := Action{ID: d.ID}
		a.AccountID, _ = d.Fields["userId"].(string)
		a.Kind, _ = d.Fields["action"].(string)
		a.Details, _ = d.Fields["details"].(map[string]any)
		a.Timestamp, _ = d.Fields["timestamp"].(string)
		out = append(out, a)
	}

	return out, nil
}

type BackfillResult struct {
	Pushed int `json:"pushed"`
	Failed int `json:"failed"`
}

// Backfill synchronously pushes every account to the remote store, e.g. after a device ran
// offline since install.
func (s *Service) Backfill(ctx context.Context, accounts []domain.Account) (BackfillResult, error) {
	var r BackfillResult
	if s.client == nil {
		return r, ErrDisabled
	}

	for _, a := range accounts {
		if err := s.writeAccount(ctx, a); err != nil {
			r.Failed++
			continue
		}
		r.Pushed++
	}

	return r, nil
}
