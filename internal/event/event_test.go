package event_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	var (
		pushed   = domain.EventAccountPushed{Account: domain.Account{ID: "acc-1", Name: "Awa"}}
		loggedIn = domain.EventLoginRecorded{AccountID: "acc-1"}
		logout   = domain.EventLogoutRecorded{AccountID: "acc-1"}
		ranked   = domain.EventLeaderboardUpdated{Leaderboard: domain.Leaderboard{
			Entries: []domain.LeaderboardEntry{{AccountID: "acc-1", BestGrade: 14.5}},
		}}
	)

	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a subscriber only receives the events it subscribed to": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{pushed, ranked},
					subscribers: []subscriber{
						{name: "mirror", subscribeTo: []string{domain.EventNameAccountPushed}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{pushed}, out.received["mirror"])
			},
		},

		"repeated events are all delivered": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{loggedIn, logout, loggedIn},
					subscribers: []subscriber{
						{name: "mirror", subscribeTo: []string{domain.EventNameLoginRecorded}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{loggedIn, loggedIn}, out.received["mirror"])
			},
		},

		"an event reaches every subscriber": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{ranked},
					subscribers: []subscriber{
						{name: "pubsub", subscribeTo: []string{domain.EventNameLeaderboardUpdated}},
						{name: "audit", subscribeTo: []string{domain.EventNameLeaderboardUpdated}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{ranked}, out.received["pubsub"])
				assert.ElementsMatch(t, []event.Event{ranked}, out.received["audit"])
			},
		},

		"mixed events fan out to overlapping subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{pushed, loggedIn, pushed, ranked},
					subscribers: []subscriber{
						{name: "mirror", subscribeTo: []string{domain.EventNameAccountPushed, domain.EventNameLoginRecorded}},
						{name: "pubsub", subscribeTo: []string{domain.EventNameLeaderboardUpdated}},
						{name: "audit", subscribeTo: []string{domain.EventNameLoginRecorded, domain.EventNameLeaderboardUpdated}},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{pushed, pushed, loggedIn}, out.received["mirror"])
				assert.ElementsMatch(t, []event.Event{ranked}, out.received["pubsub"])
				assert.ElementsMatch(t, []event.Event{loggedIn, ranked}, out.received["audit"])
			},
		},

		"nobody subscribed": {
			arrange: func() inputs {
				return inputs{published: []event.Event{logout}}
			},

			assert: func(t *testing.T, out outputs) {
				assert.Empty(t, out.received)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			var mu sync.Mutex
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for _, s := range in.subscribers {
				s := s
				for _, name := range s.subscribeTo {
					b.Subscribe(name, func(_ context.Context, e event.Event) error {
						mu.Lock()
						defer mu.Unlock()
						out.received[s.name] = append(out.received[s.name], e)
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_FailingHandlersDoNotAffectOthers(t *testing.T) {
	b := event.NewBus(event.WithPoolSize(2), event.WithTimeout(time.Second))

	var calls atomic.Int32
	b.Subscribe("e1", func(context.Context, event.Event) error {
		return errors.New("remote unreachable")
	})
	b.Subscribe("e1", func(context.Context, event.Event) error {
		panic("handler bug")
	})
	b.Subscribe("e1", func(context.Context, event.Event) error {
		calls.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		b.Publish(context.Background(), eventWithName("e1"))
	}
	b.Drain()

	assert.EqualValues(t, 5, calls.Load())
}

func TestBus_HandlerContextOutlivesPublisher(t *testing.T) {
	b := event.NewBus()

	var handlerErr error
	b.Subscribe("e1", func(ctx context.Context, _ event.Event) error {
		handlerErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Publish(ctx, eventWithName("e1"))
	b.Stop()

	assert.NoError(t, handlerErr)
}

func TestBus_NilBusDropsEvents(t *testing.T) {
	var b *event.Bus
	assert.NotPanics(t, func() {
		b.Publish(context.Background(), eventWithName("e1"))
		b.Drain()
	})
}

type eventWithName string

func (e eventWithName) Name() string {
	return string(e)
}

type subscriber struct {
	name        string
	subscribeTo []string
}
