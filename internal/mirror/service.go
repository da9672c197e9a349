// Package mirror propagates local state changes to the remote document store. Every write is
// fire-and-forget: it is queued on the event bus and a failure is logged and counted, never
// returned to the caller.
package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/quizkeep/internal/docstore"
	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/event"
	"github.com/victornm/quizkeep/internal/telemetry"
)

// timeLayout keeps timestamps lexicographically sortable in the remote store.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type Config struct {
	// Client is the remote document store. A nil client disables mirroring.
	Client   docstore.Client
	EventBus *event.Bus
	Now      func() time.Time
}

type Service struct {
	client docstore.Client
	eb     *event.Bus
	now    func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		client: c.Client,
		eb:     c.EventBus,
		now:    c.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	if s.client == nil || s.eb == nil {
		return s
	}

	s.subscribe(domain.EventNameAccountPushed, func(ctx context.Context, e event.Event) error {
		return s.writeAccount(ctx, e.(domain.EventAccountPushed).Account)
	})
	s.subscribe(domain.EventNameLoginRecorded, func(ctx context.Context, e event.Event) error {
		ev := e.(domain.EventLoginRecorded)
		return s.writeLogin(ctx, ev.AccountID, ev.Patch)
	})
	s.subscribe(domain.EventNameLogoutRecorded, func(ctx context.Context, e event.Event) error {
		return s.writeLogout(ctx, e.(domain.EventLogoutRecorded).AccountID)
	})
	s.subscribe(domain.EventNameProfileUpdated, func(ctx context.Context, e event.Event) error {
		ev := e.(domain.EventProfileUpdated)
		return s.writeProfile(ctx, ev.AccountID, ev.Patch)
	})
	s.subscribe(domain.EventNameActionLogged, func(ctx context.Context, e event.Event) error {
		ev := e.(domain.EventActionLogged)
		return s.writeAction(ctx, ev.AccountID, ev.Kind, ev.Details)
	})

	return s
}

// Enabled reports whether a remote store is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil && s.eb != nil
}

func (s *Service) subscribe(name string, h event.Handler) {
	s.eb.Subscribe(name, func(ctx context.Context, e event.Event) error {
		if err := h(ctx, e); err != nil {
			telemetry.MirrorFailures.WithLabelValues(name).Inc()
			return fmt.Errorf("mirror: %s: %w", name, err)
		}
		return nil
	})
}

// PushAccount creates or replaces the remote copy of an account.
func (s *Service) PushAccount(ctx context.Context, a domain.Account) {
	s.publish(ctx, domain.EventAccountPushed{Account: a})
}

// PushLoginEvent records a login, creating the remote account if it was never mirrored.
func (s *Service) PushLoginEvent(ctx context.Context, accountID string, patch map[string]any) {
	s.publish(ctx, domain.EventLoginRecorded{AccountID: accountID, Patch: patch})
}

// PushLogoutEvent records a logout on the remote account if it exists.
func (s *Service) PushLogoutEvent(ctx context.Context, accountID string) {
	s.publish(ctx, domain.EventLogoutRecorded{AccountID: accountID})
}

// PushProfile merges changed account fields into the remote account if it exists.
func (s *Service) PushProfile(ctx context.Context, accountID string, patch map[string]any) {
	s.publish(ctx, domain.EventProfileUpdated{AccountID: accountID, Patch: patch})
}

// LogAction appends an entry to the remote action log.
func (s *Service) LogAction(ctx context.Context, accountID string, kind domain.ActionKind, details map[string]any) {
	s.publish(ctx, domain.EventActionLogged{AccountID: accountID, Kind: kind, Details: details})
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	if !s.Enabled() {
		return
	}
	s.eb.Publish(ctx, e)
}

func (s *Service) writeAccount(ctx context.Context, a domain.Account) error {
	f := accountFields(a)
	now := s.timestamp()
	f["createdAt"] = now
	f["lastLoginAt"] = now
	f["isActive"] = true

	if err := s.client.SetDocument(ctx, docstore.CollectionUsers, a.ID, f); err != nil {
		return err
	}

	return s.writePremium(ctx, a.ID, now)
}

func (s *Service) writePremium(ctx context.Context, accountID, now string) error {
	p := domain.LifetimePremium
	return s.client.SetDocument(ctx, docstore.CollectionPremium, accountID, map[string]any{
		"plan":      p.Plan,
		"expiresAt": p.ExpiresAt.Format(timeLayout),
		"isActive":  p.Active,
		"createdAt": now,
	})
}

func (s *Service) writeLogin(ctx context.Context, accountID string, patch map[string]any) error {
	d, err := s.client.GetDocument(ctx, docstore.CollectionUsers, accountID)
	if err != nil {
		return err
	}

	f := make(map[string]any, len(patch)+3)
	for k, v := range patch {
		f[k] = v
	}
	now := s.timestamp()
	f["lastLoginAt"] = now
	f["isActive"] = true

	if d == nil {
		f["createdAt"] = now
		return s.client.SetDocument(ctx, docstore.CollectionUsers, accountID, f)
	}

	return s.client.UpdateDocument(ctx, docstore.CollectionUsers, accountID, f)
}

func (s *Service) writeLogout(ctx context.Context, accountID string) error {
	d, err := s.client.GetDocument(ctx, docstore.CollectionUsers, accountID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}

	return s.client.UpdateDocument(ctx, docstore.CollectionUsers, accountID, map[string]any{
		"lastLogoutAt": s.timestamp(),
		"isActive":     false,
	})
}

func (s *Service) writeProfile(ctx context.Context, accountID string, patch map[string]any) error {
	d, err := s.client.GetDocument(ctx, docstore.CollectionUsers, accountID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}

	return s.client.UpdateDocument(ctx, docstore.CollectionUsers, accountID, patch)
}

func (s *Service) writeAction(ctx context.Context, accountID string, kind domain.ActionKind, details map[string]any) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate action ID: %w", err)
	}

	if details == nil {
		details = map[string]any{}
	}

	return s.client.SetDocument(ctx, docstore.CollectionActions, id.String(), map[string]any{
		"userId":    accountID,
		"action":    string(kind),
		"details":   details,
		"timestamp": s.timestamp(),
	})
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// AccountPatch is the login patch sent with PushLoginEvent.
func AccountPatch(a domain.Account) map[string]any {
	return accountFields(a)
}

// accountFields never includes the password digest.
func accountFields(a domain.Account) map[string]any {
	return map[string]any{
		"id":           a.ID,
		"name":         a.Name,
		"avatar":       a.Avatar,
		"registeredAt": a.RegisteredAt.UTC().Format(timeLayout),
		"gamesPlayed":  a.GamesPlayed,
		"bestScore":    a.BestScore,
		"totalPoints":  a.TotalPoints,
		"isAdmin":      a.IsAdmin,
	}
}
