package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizkeep/internal/store"
	"github.com/victornm/quizkeep/internal/store/storetest"
)

type record struct {
	Name  string  `json:"name"`
	Grade float64 `json:"grade"`
}

func TestStore_Backends(t *testing.T) {
	backends := map[string]func(t *testing.T) store.Backend{
		"memory": func(*testing.T) store.Backend {
			return store.NewMemory()
		},
		"sqlite": func(t *testing.T) store.Backend {
			b, err := store.OpenSQLite(filepath.Join(t.TempDir(), "local.db"))
			require.NoError(t, err)
			return b
		},
		"redis": func(t *testing.T) store.Backend {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			rs := miniredis.RunT(t)
			rc := redis.NewUniversalClient(&redis.UniversalOptions{
				Addrs: []string{rs.Addr()},
			})
			require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")
			return store.NewRedis(rc, "test")
		},
	}

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := store.New(newBackend(t))
			t.Cleanup(func() { _ = s.Close() })

			var got record
			ok, err := s.Get(ctx, "missing", &got)
			require.NoError(t, err)
			assert.False(t, ok, "absent key should be reported as not found")

			want := record{Name: "August", Grade: 16.5}
			require.NoError(t, s.Set(ctx, "k1", want))

			ok, err = s.Get(ctx, "k1", &got)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)

			want.Grade = 18
			require.NoError(t, s.Set(ctx, "k1", want), "set should overwrite")
			ok, err = s.Get(ctx, "k1", &got)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)

			require.NoError(t, s.Remove(ctx, "k1"))
			require.NoError(t, s.Remove(ctx, "k1"), "removing twice should not fail")
			ok, err = s.Get(ctx, "k1", &got)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_SQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	b, err := store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.New(b).Set(ctx, "current", record{Name: "u1"}))
	require.NoError(t, b.Close())

	b, err = store.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	var got record
	ok, err := store.New(b).Get(ctx, "current", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", got.Name)
}

func TestStore_Failures(t *testing.T) {
	ctx := context.Background()
	f := storetest.NewFaulty()
	s := store.New(f)

	require.NoError(t, s.Set(ctx, "k", record{Name: "a"}))

	f.FailLoad(true)
	var got record
	_, err := s.Get(ctx, "k", &got)
	require.ErrorIs(t, err, storetest.ErrInjected)
	assert.False(t, s.GetOrEmpty(ctx, "k", &got), "fail-soft read should report absent")

	f.FailSave(true)
	require.ErrorIs(t, s.Set(ctx, "k", record{}), storetest.ErrInjected)

	f.FailDelete(true)
	require.ErrorIs(t, s.Remove(ctx, "k"), storetest.ErrInjected)
}

func TestStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.Save(ctx, "k", []byte("{not json")))

	var got record
	_, err := store.New(m).Get(ctx, "k", &got)
	require.Error(t, err)
}
