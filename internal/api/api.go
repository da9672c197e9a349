package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizkeep/internal/account"
	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/event"
	"github.com/victornm/quizkeep/internal/history"
	"github.com/victornm/quizkeep/internal/leaderboard"
	"github.com/victornm/quizkeep/internal/mirror"
	"github.com/victornm/quizkeep/internal/questionpool"
	"github.com/victornm/quizkeep/internal/quiz"
)

type Config struct {
	Router      gin.IRouter
	EventBus    *event.Bus
	Accounts    *account.Service
	History     *history.Service
	Leaderboard *leaderboard.Service
	Quiz        *quiz.Service
	Questions   *questionpool.Pool
	Mirror      *mirror.Service

	// Redis receives pubsub notifications. Nil disables them.
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	accounts    *account.Service
	history     *history.Service
	leaderboard *leaderboard.Service
	quiz        *quiz.Service
	questions   *questionpool.Pool
	mirror      *mirror.Service

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		accounts:    c.Accounts,
		history:     c.History,
		leaderboard: c.Leaderboard,
		quiz:        c.Quiz,
		questions:   c.Questions,
		mirror:      c.Mirror,
		redis:       c.Redis,
		prefix:      c.PubsubPrefix,
	}

	a.routes(c.Router)

	// Register event handlers
	if a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
		c.EventBus.Subscribe(domain.EventNameQuizUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishQuizUpdated(ctx, e.(domain.EventQuizUpdated))
		})
	}

	return a
}

func (a *API) routes(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.POST("/accounts", a.register)
	v1.PATCH("/accounts/:id", a.requireAccount, a.updateProfile)
	v1.GET("/accounts/:id/history", a.listHistory)
	v1.GET("/accounts/:id/premium", a.premium)

	v1.POST("/sessions/login", a.login)
	v1.POST("/sessions/logout", a.logout)
	v1.GET("/me", a.requireAccount, a.me)

	v1.GET("/leaderboard", a.getLeaderboard)
	v1.GET("/modes", a.listModes)

	v1.POST("/quizzes", a.startQuiz)
	v1.GET("/quizzes/:id", a.getQuiz)
	v1.POST("/quizzes/:id/answer", a.submitAnswer)
	v1.POST("/quizzes/:id/next", a.nextQuestion)
	v1.POST("/quizzes/:id/abort", a.abortQuiz)

	admin := v1.Group("/admin", a.requireAccount, a.requireAdmin)
	admin.GET("/users", a.listRemoteUsers)
	admin.GET("/actions", a.listActions)
	admin.POST("/backfill", a.backfill)
}

const currentAccountKey = "account"

var (
	errNotLoggedIn = errors.New(errors.CodeUnauthenticated, errors.WithMessagef("no account is logged in"))
	errNotAdmin    = errors.New(errors.CodePermissionDenied, errors.WithMessagef("administrator only"))
)

// requireAccount loads the current account into the request context.
func (a *API) requireAccount(c *gin.Context) {
	cur := a.accounts.Current(c.Request.Context())
	if cur == nil {
		abortWithError(c, errNotLoggedIn)
		return
	}

	c.Set(currentAccountKey, cur)
	c.Next()
}

func (a *API) requireAdmin(c *gin.Context) {
	if !currentAccount(c).IsAdmin {
		abortWithError(c, errNotAdmin)
		return
	}

	c.Next()
}

func currentAccount(c *gin.Context) *domain.Account {
	return c.MustGet(currentAccountKey).(*domain.Account)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid request: %v", err)))
		return false
	}
	return true
}

// abortWithError renders err as {"code", "message", "reason"}. Internal errors are logged and
// rendered without their cause.
func abortWithError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}
