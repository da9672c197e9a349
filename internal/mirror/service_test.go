package mirror_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizkeep/internal/docstore"
	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/event"
	"github.com/victornm/quizkeep/internal/mirror"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestService_PushAccount(t *testing.T) {
	ctx := context.Background()
	s, eb, client := makeService(t, docstore.NewMemory())

	s.PushAccount(ctx, domain.Account{
		ID:             "u1",
		Name:           "August",
		PasswordDigest: "$2a$04$secret",
		Avatar:         "🦁",
		RegisteredAt:   fixedNow,
	})
	eb.Drain()

	d, err := client.GetDocument(ctx, docstore.CollectionUsers, "u1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "August", d.Fields["name"])
	assert.Equal(t, true, d.Fields["isActive"])
	assert.Equal(t, "2026-03-01T12:00:00.000Z", d.Fields["createdAt"])
	assert.NotContains(t, d.Fields, "passwordDigest", "password digest must never be mirrored")

	p, err := client.GetDocument(ctx, docstore.CollectionPremium, "u1")
	require.NoError(t, err)
	require.NotNil(t, p, "every pushed account gets a premium record")
	assert.Equal(t, true, p.Fields["isActive"])
	assert.Equal(t, "premium", p.Fields["plan"])
	assert.Equal(t, "2099-12-31T00:00:00.000Z", p.Fields["expiresAt"])
	assert.Equal(t, "2026-03-01T12:00:00.000Z", p.Fields["createdAt"])
}

func TestService_LoginLogout(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T, ctx context.Context, s *mirror.Service, eb *event.Bus)
		assert  func(t *testing.T, d *docstore.Document)
	}{
		"login creates a missing remote account": {
			arrange: func(_ *testing.T, ctx context.Context, s *mirror.Service, eb *event.Bus) {
				s.PushLoginEvent(ctx, "u1", mirror.AccountPatch(domain.Account{ID: "u1", Name: "Awa"}))
				eb.Drain()
			},
			assert: func(t *testing.T, d *docstore.Document) {
				require.NotNil(t, d)
				assert.Equal(t, "Awa", d.Fields["name"])
				assert.Equal(t, true, d.Fields["isActive"])
				assert.Contains(t, d.Fields, "createdAt")
			},
		},
		"logout marks an existing account inactive": {
			arrange: func(_ *testing.T, ctx context.Context, s *mirror.Service, eb *event.Bus) {
				s.PushAccount(ctx, domain.Account{ID: "u1", Name: "Awa"})
				eb.Drain()
				s.PushLogoutEvent(ctx, "u1")
				eb.Drain()
			},
			assert: func(t *testing.T, d *docstore.Document) {
				require.NotNil(t, d)
				assert.Equal(t, false, d.Fields["isActive"])
				assert.Equal(t, "2026-03-01T12:00:00.000Z", d.Fields["lastLogoutAt"])
			},
		},
		"profile changes are merged into the remote account": {
			arrange: func(_ *testing.T, ctx context.Context, s *mirror.Service, eb *event.Bus) {
				s.PushAccount(ctx, domain.Account{ID: "u1", Name: "Awa", Avatar: "🦁"})
				eb.Drain()
				s.PushProfile(ctx, "u1", map[string]any{"avatar": "🐼"})
				eb.Drain()
			},
			assert: func(t *testing.T, d *docstore.Document) {
				require.NotNil(t, d)
				assert.Equal(t, "🐼", d.Fields["avatar"])
				assert.Equal(t, "Awa", d.Fields["name"])
			},
		},
		"logout of a never mirrored account is ignored": {
			arrange: func(_ *testing.T, ctx context.Context, s *mirror.Service, eb *event.Bus) {
				s.PushLogoutEvent(ctx, "u1")
				eb.Drain()
			},
			assert: func(t *testing.T, d *docstore.Document) {
				assert.Nil(t, d)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, eb, client := makeService(t, docstore.NewMemory())

			tt.arrange(t, ctx, s, eb)

			d, err := client.GetDocument(ctx, docstore.CollectionUsers, "u1")
			require.NoError(t, err)
			tt.assert(t, d)
		})
	}
}

func TestService_ActionsAndAdminListings(t *testing.T) {
	ctx := context.Background()
	s, eb, _ := makeService(t, docstore.NewMemory())

	s.PushAccount(ctx, domain.Account{ID: "u1", Name: "Awa"})
	s.LogAction(ctx, "u1", domain.ActionRegistered, map[string]any{"name": "Awa"})
	s.LogAction(ctx, "u1", domain.ActionLoggedIn, nil)
	eb.Drain()

	accounts, err := s.RecentAccounts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Awa", accounts[0].Name)
	assert.True(t, accounts[0].IsActive)

	active, err := s.ActiveAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	all, err := s.Actions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	logins, err := s.Actions(ctx, domain.ActionLoggedIn)
	require.NoError(t, err)
	require.Len(t, logins, 1)
	assert.Equal(t, "u1", logins[0].AccountID)
}

func TestService_RemoteFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s, eb, _ := makeService(t, failingClient{})

	assert.NotPanics(t, func() {
		s.PushAccount(ctx, domain.Account{ID: "u1"})
		s.PushLoginEvent(ctx, "u1", nil)
		s.PushLogoutEvent(ctx, "u1")
		s.LogAction(ctx, "u1", domain.ActionLoggedOut, nil)
		eb.Drain()
	})

	r, err := s.Backfill(ctx, []domain.Account{{ID: "u1"}, {ID: "u2"}})
	require.NoError(t, err)
	assert.Equal(t, mirror.BackfillResult{Pushed: 0, Failed: 2}, r)
}

func TestService_Disabled(t *testing.T) {
	ctx := context.Background()
	s := mirror.NewService(mirror.Config{EventBus: event.NewBus()})

	assert.False(t, s.Enabled())
	s.PushAccount(ctx, domain.Account{ID: "u1"})

	_, err := s.RecentAccounts(ctx, 0)
	require.ErrorIs(t, err, mirror.ErrDisabled)
	_, err = s.Backfill(ctx, nil)
	require.ErrorIs(t, err, mirror.ErrDisabled)
}

func makeService(t *testing.T, client docstore.Client) (*mirror.Service, *event.Bus, docstore.Client) {
	t.Helper()

	eb := event.NewBus()
	t.Cleanup(eb.Stop)

	s := mirror.NewService(mirror.Config{
		Client:   client,
		EventBus: eb,
		Now:      func() time.Time { return fixedNow },
	})

	return s, eb, client
}

type failingClient struct{}

var errRemote = errors.New("remote unreachable")

func (failingClient) GetDocument(context.Context, string, string) (*docstore.Document, error) {
	return nil, errRemote
}

func (failingClient) SetDocument(context.Context, string, string, map[string]any) error {
	return errRemote
}

func (failingClient) UpdateDocument(context.Context, string, string, map[string]any) error {
	return errRemote
}

func (failingClient) QueryDocuments(context.Context, string, docstore.Query) ([]docstore.Document, error) {
	return nil, errRemote
}
