package history_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/history"
	"github.com/victornm/quizkeep/internal/store"
	"github.com/victornm/quizkeep/internal/store/storetest"
)

func TestService_Append(t *testing.T) {
	tests := map[string]struct {
		cap     int
		appends int
		want    []int
	}{
		"newest first": {
			cap:     5,
			appends: 3,
			want:    []int{3, 2, 1},
		},
		"evicts the oldest beyond the cap": {
			cap:     3,
			appends: 5,
			want:    []int{5, 4, 3},
		},
		"default cap": {
			appends: history.DefaultCap + 2,
			want:    []int{history.DefaultCap + 2},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := history.NewService(history.Config{Store: store.New(store.NewMemory()), Cap: tt.cap})

			for i := 1; i <= tt.appends; i++ {
				require.NoError(t, s.Append(ctx, "u1", domain.SessionRecord{CorrectCount: i}))
			}

			got := s.List(ctx, "u1")
			if tt.cap == 0 {
				require.Len(t, got, history.DefaultCap)
				assert.Equal(t, tt.want[0], got[0].CorrectCount)
				return
			}

			var counts []int
			for _, r := range got {
				counts = append(counts, r.CorrectCount)
			}
			assert.Equal(t, tt.want, counts)
		})
	}
}

func TestService_PerAccount(t *testing.T) {
	ctx := context.Background()
	s := history.NewService(history.Config{Store: store.New(store.NewMemory())})

	require.NoError(t, s.Append(ctx, "u1", domain.SessionRecord{Mode: "rapide"}))
	require.NoError(t, s.Append(ctx, "u2", domain.SessionRecord{Mode: "expert"}))

	assert.Len(t, s.List(ctx, "u1"), 1)
	assert.Equal(t, "expert", s.List(ctx, "u2")[0].Mode)
	assert.Empty(t, s.List(ctx, "u3"))
	assert.NotNil(t, s.List(ctx, "u3"))
}

func TestService_Failures(t *testing.T) {
	ctx := context.Background()
	b := storetest.NewFaulty()
	s := history.NewService(history.Config{Store: store.New(b)})
	require.NoError(t, s.Append(ctx, "u1", domain.SessionRecord{CorrectCount: 1}))

	b.FailLoad(true)
	assert.Empty(t, s.List(ctx, "u1"), "unreadable history is reported empty")

	err := s.Append(ctx, "u1", domain.SessionRecord{CorrectCount: 2})
	require.ErrorIs(t, err, errors.Storage(nil))

	b.FailLoad(false)
	got := s.List(ctx, "u1")
	require.Len(t, got, 1, "an unreadable history must not be overwritten")
	assert.Equal(t, 1, got[0].CorrectCount)

	b.FailSave(true)
	require.ErrorIs(t, s.Append(ctx, "u1", domain.SessionRecord{}), errors.Storage(nil))
}
