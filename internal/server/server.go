package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/quizkeep/internal/account"
	"github.com/victornm/quizkeep/internal/api"
	"github.com/victornm/quizkeep/internal/docstore"
	"github.com/victornm/quizkeep/internal/event"
	"github.com/victornm/quizkeep/internal/history"
	"github.com/victornm/quizkeep/internal/leaderboard"
	"github.com/victornm/quizkeep/internal/mirror"
	"github.com/victornm/quizkeep/internal/questionpool"
	"github.com/victornm/quizkeep/internal/quiz"
	"github.com/victornm/quizkeep/internal/store"
	"github.com/victornm/quizkeep/internal/telemetry"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	GRPC struct {
		Port int32
	}

	Log struct {
		Level string
	}

	Store struct {
		Driver string

		SQLite struct {
			Path string
		}

		Redis struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Redis struct {
		// Pubsub carries snapshot and leaderboard notifications. No addresses disables them.
		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		// Remote is the mirror's document store. An empty address disables mirroring.
		Remote struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Accounts struct {
		AdminAlias       string
		LegacyAdminAlias string
		AdminSecretHash  string
		BcryptCost       int
	}

	History struct {
		Cap int
	}

	Leaderboard struct {
		Limit int
	}

	Questions struct {
		File string
	}
}

// DefaultConfig runs everything on a local SQLite file with the remote mirror disabled.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 9090
	c.Log.Level = "info"
	c.Store.Driver = StoreDriverSQLite
	c.Store.SQLite.Path = "quizkeep.db"
	c.Store.Redis.Prefix = "quizkeep"
	c.Redis.Pubsub.Prefix = "quizkeep"
	c.Accounts.AdminAlias = account.DefaultAdminAlias
	c.Accounts.LegacyAdminAlias = account.DefaultLegacyAdminAlias
	c.History.Cap = history.DefaultCap
	c.Leaderboard.Limit = leaderboard.DefaultLimit
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		store *store.Store

		redis struct {
			store  redis.UniversalClient
			pubsub redis.UniversalClient
		}

		postgres struct {
			remote *pgxpool.Pool
		}
	}

	service struct {
		mirror      *mirror.Service
		accounts    *account.Service
		history     *history.Service
		leaderboard *leaderboard.Service
		questions   *questionpool.Pool
		quiz        *quiz.Service
	}

	http   *http.Server
	grpc   *grpc.Server
	health *health.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initStore(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	if s.c.Store.Driver == StoreDriverRedis {
		s.infra.redis.store, err = connect(s.c.Store.Redis.Addrs, s.c.Store.Redis.Pass)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}

	if len(s.c.Redis.Pubsub.Addrs) > 0 {
		s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
		if err != nil {
			return fmt.Errorf("pubsub: %w", err)
		}
	}

	return nil
}

func (s *Server) initStore() error {
	switch s.c.Store.Driver {
	case StoreDriverSQLite:
		b, err := store.OpenSQLite(s.c.Store.SQLite.Path)
		if err != nil {
			return err
		}
		s.infra.store = store.New(b)
	case StoreDriverRedis:
		s.infra.store = store.New(store.NewRedis(s.infra.redis.store, s.c.Store.Redis.Prefix))
	case StoreDriverMemory:
		s.infra.store = store.New(store.NewMemory())
	default:
		return fmt.Errorf("unknown driver %q", s.c.Store.Driver)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	connect := func(addr, user, pass, name string) (*pgxpool.Pool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", user, pass, addr, name))
		if err != nil {
			return nil, err
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(ctx); err != nil {
			return nil, err
		}

		return db, nil
	}

	r := s.c.Postgres.Remote
	if r.Addr == "" {
		slog.Info("server: remote mirror disabled")
		return nil
	}

	s.infra.postgres.remote, err = connect(r.Addr, r.User, r.Pass, r.Name)
	if err != nil {
		return fmt.Errorf("remote: %w", err)
	}

	return nil
}

func (s *Server) initService() error {
	ctx := context.Background()

	var remote docstore.Client
	if s.infra.postgres.remote != nil {
		pg := docstore.NewPostgres(s.infra.postgres.remote)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate remote store: %w", err)
		}
		remote = pg
	}

	s.service.mirror = mirror.NewService(mirror.Config{
		Client:   remote,
		EventBus: s.eb,
	})

	s.service.accounts = account.NewService(account.Config{
		Store:            s.infra.store,
		Mirror:           s.service.mirror,
		Hasher:           account.NewHasher(s.c.Accounts.BcryptCost),
		AdminAlias:       s.c.Accounts.AdminAlias,
		LegacyAdminAlias: s.c.Accounts.LegacyAdminAlias,
		AdminSecretHash:  s.c.Accounts.AdminSecretHash,
	})
	s.service.accounts.MigrateLegacyAdmin(ctx)

	s.service.history = history.NewService(history.Config{
		Store: s.infra.store,
		Cap:   s.c.History.Cap,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		Store:    s.infra.store,
		EventBus: s.eb,
		Limit:    s.c.Leaderboard.Limit,
	})

	var err error
	s.service.questions, err = questionpool.New(questionpool.Config{File: s.c.Questions.File})
	if err != nil {
		return err
	}

	s.service.quiz = quiz.NewService(quiz.Config{
		Questions:   s.service.questions,
		Accounts:    s.service.accounts,
		History:     s.service.history,
		Leaderboard: s.service.leaderboard,
		Mirror:      s.service.mirror,
		EventBus:    s.eb,
	})

	return nil
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor(slog.Default()))
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)

	api.New(api.Config{
		Router:       e,
		EventBus:     s.eb,
		Accounts:     s.service.accounts,
		History:      s.service.history,
		Leaderboard:  s.service.leaderboard,
		Quiz:         s.service.quiz,
		Questions:    s.service.questions,
		Mirror:       s.service.mirror,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpc.GracefulStop()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	// Handlers still running may write to the stores, so the bus goes first.
	s.eb.Stop()

	if err := s.infra.store.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close local store failed", "error", err)
	}
	// The redis store backend closes its own client.
	if s.infra.redis.pubsub != nil {
		_ = s.infra.redis.pubsub.Close()
	}
	if s.infra.postgres.remote != nil {
		s.infra.postgres.remote.Close()
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
