package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/assignment"
	"github.com/art0tod/battle-rap-v2-sub000/internal/evaluation"
	"github.com/art0tod/battle-rap-v2-sub000/internal/finalize"
	"github.com/art0tod/battle-rap-v2-sub000/internal/leaderboard"
	"github.com/art0tod/battle-rap-v2-sub000/internal/lifecycle"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
	"github.com/art0tod/battle-rap-v2-sub000/internal/submission"
	"github.com/art0tod/battle-rap-v2-sub000/internal/visibility"
)

// Service holds every engine component built over one store.
type Service struct {
	Config *Config
	Store  store.JudgingStore
	Auth   *Auth

	Machine     *lifecycle.Machine
	Scheduler   *assignment.Scheduler
	Evaluations *evaluation.Service
	Submissions *submission.Writer
	Finalizer   *finalize.Engine
	Reader      *visibility.Reader
	Leaderboard *leaderboard.Materializer

	cache *leaderboard.RedisCache
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(store.DBConfig{
		DSN:           config.Database.DSN,
		MigrationsDir: config.Database.MigrationsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	var cache leaderboard.SnapshotCache = leaderboard.NopCache{}
	var redisCache *leaderboard.RedisCache
	if config.Leaderboard.RedisURL != "" {
		opt, err := redis.ParseURL(config.Leaderboard.RedisURL)
		if err != nil {
			st.Close()
			auth.Close()
			return nil, fmt.Errorf("failed to parse leaderboard redis URL: %w", err)
		}
		redisCache = leaderboard.NewRedisCache(redis.NewClient(opt), config.Leaderboard.CacheTTL.Duration)
		cache = redisCache
	} else {
		logger.Info.Println("Leaderboard cache disabled, standings read straight from the store")
	}

	svc := NewEngine(config, st, cache, time.Now)
	svc.Auth = auth
	svc.cache = redisCache
	return svc, nil
}

// NewEngine wires the engine components without any network dependencies.
func NewEngine(config *Config, st store.JudgingStore, cache leaderboard.SnapshotCache, now func() time.Time) *Service {
	challenge := config.Engine.ChallengeTournamentID
	materializer := leaderboard.NewMaterializer(st, cache, now)

	return &Service{
		Config:      config,
		Store:       st,
		Machine:     lifecycle.NewMachine(st, now),
		Scheduler:   assignment.NewScheduler(st, now, challenge),
		Evaluations: evaluation.NewService(st, now, challenge),
		Submissions: submission.NewWriter(st, now),
		Finalizer:   finalize.NewEngine(st, materializer, now, config.Engine.TieTolerance),
		Reader:      visibility.NewReader(st, now),
		Leaderboard: materializer,
	}
}

// Ping checks the leaderboard cache connection when one is configured.
func (s *Service) Ping(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Auth != nil {
		if err := s.Auth.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("leaderboard cache: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
